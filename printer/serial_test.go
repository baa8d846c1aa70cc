package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

func TestPortOptions_Normalize(t *testing.T) {
	t.Parallel()

	n, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}, n)

	n, err = PortOptions{BaudRate: 9600, Parity: " e "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "E", n.Parity)
	assert.Equal(t, 9600, n.BaudRate)

	for _, bad := range []PortOptions{
		{BaudRate: -1},
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "M"},
	} {
		_, err := bad.Normalize()
		assert.Error(t, err, "%+v", bad)
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	t.Parallel()

	mode, err := PortOptions{}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: 19200, DataBits: 8, StopBits: serial.OneStopBit, Parity: serial.NoParity}, mode)

	mode, err = PortOptions{StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.OddParity, mode.Parity)

	_, err = PortOptions{DataBits: 4}.SerialMode()
	assert.Error(t, err)
}

func TestOpenSerial_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := OpenSerial("/dev/ttyUSB0", PortOptions{Parity: "X"})
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestPickPort(t *testing.T) {
	t.Parallel()

	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB1", IsUSB: true, Product: "CP2102 USB to UART"},
		{Name: "/dev/ttyACM0", IsUSB: true, Product: "USB Printer"},
		{Name: "/dev/ttyUSB0", IsUSB: true},
		nil,
	}

	got, err := pickPort(ports, nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", got)

	got, err = pickPort(ports, []string{"cp2102"})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", got)

	got, err = pickPort(ports[1:2], nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", got)

	_, err = pickPort([]*enumerator.PortDetails{{Name: "/dev/ttyS0"}}, nil)
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	t.Parallel()

	assert.True(t, contains([]string{"COM1", "COM3"}, "COM3"))
	assert.False(t, contains(nil, "COM3"))
}
