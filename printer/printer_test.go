package printer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgInternal "github.com/AlexStarov/escpos-label/image"
)

func quietOptions() PrintOptions {
	o := DefaultPrintOptions()
	o.StripeDelay, o.GroupDelay, o.BandDelay, o.SettleDelay = 0, 0, 0, 0
	return o
}

func TestTransmit_DispatchesByStrategy(t *testing.T) {
	b := imgInternal.Pack(imgInternal.Solid(16, 40), false)

	tests := []struct {
		name  string
		tweak func(*PrintOptions)
		want  []string
	}{
		{"raster", func(o *PrintOptions) {}, []string{"gsv0", "gsv0", "lf"}},
		{"strategy band", func(o *PrintOptions) { o.Strategy = StrategyColumnBand }, []string{"esc*", "esc*", "esc*", "esc*", "esc*", "lf"}},
		{"force fallback", func(o *PrintOptions) { o.ForceFallback = true }, []string{"esc*", "esc*", "esc*", "esc*", "esc*", "lf"}},
		{"force fallback without allow", func(o *PrintOptions) {
			o.ForceFallback = true
			o.AllowFallback = false
		}, []string{"esc*", "esc*", "esc*", "esc*", "esc*", "lf"}},
		{"two phase", func(o *PrintOptions) {
			o.SplitTwoPhase = true
			o.UpperPartLines = 20
			o.FeedBetweenParts = 1
		}, []string{"gsv0", "lf", "lf", "gsv0", "lf"}},
		{"clear and feed after", func(o *PrintOptions) {
			o.ClearBeforePrint = true
			o.FeedAfterLines = 2
		}, []string{"can", "gsv0", "gsv0", "lf", "lf", "lf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m, _ := newReadySession(t)
			opts := quietOptions()
			tt.tweak(&opts)

			require.NoError(t, s.Transmit(b, opts))
			assert.Equal(t, tt.want, kinds(parseWire(t, m.Written())))
			assert.Equal(t, StateReady, s.State())
		})
	}
}

func TestTransmit_TransformAndPad(t *testing.T) {
	s, m, _ := newReadySession(t)

	// one 8-dot row: 0b11000000
	b := &imgInternal.Bitstream{Data: []byte{0xC0}, RowBytes: 1, Height: 1}
	opts := quietOptions()
	opts.BitReverse = true
	opts.Invert = true
	opts.DeviceRowBytes = 3
	opts.Align = imgInternal.Alignment{Mode: imgInternal.AlignCenter}

	require.NoError(t, s.Transmit(b, opts))

	items := parseWire(t, m.Written())
	require.Equal(t, "gsv0", items[0].kind)
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 0x03, 0x00, 0x01, 0x00}, items[0].header)
	// 0xC0 -> inverted 0x3F -> reversed 0xFC; margins stay blank
	assert.Equal(t, []byte{0x00, 0xFC, 0x00}, items[0].payload)
	assert.Equal(t, []byte{0xC0}, b.Data, "input is not modified")
}

func TestTransmit_InvalidOptions(t *testing.T) {
	s, m, _ := newReadySession(t)

	opts := quietOptions()
	opts.StripeHeight = 0
	err := s.Transmit(imgInternal.Pack(imgInternal.Solid(8, 8), false), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Empty(t, m.Written())
	assert.Equal(t, StateReady, s.State())
}

func TestPrepare_DeviceWidth(t *testing.T) {
	t.Parallel()

	label := imgInternal.Pack(imgInternal.Solid(94*8, 2), false)
	opts := quietOptions()
	opts.DeviceRowBytes = 108

	out, err := Prepare(label, opts)
	require.NoError(t, err)
	assert.Equal(t, 108, out.RowBytes)
	row := out.Data[:108]
	assert.Equal(t, make([]byte, 7), row[:7])
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 94), row[7:101])
	assert.Equal(t, make([]byte, 7), row[101:])

	opts.DeviceRowBytes = 50
	_, err = Prepare(label, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestPrepare_InvertKeepsMarginsBlank(t *testing.T) {
	t.Parallel()

	blank := &imgInternal.Bitstream{Data: make([]byte, 2), RowBytes: 2, Height: 1}
	opts := quietOptions()
	opts.Invert = true
	opts.DeviceRowBytes = 4

	out, err := Prepare(blank, opts)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF, 0xFF, 0x00}, out.Data)
	assert.Equal(t, []byte{0x00, 0x00}, blank.Data)
}

func TestPrinter_PrintRotates(t *testing.T) {
	s, m, _ := newReadySession(t)

	bm := imgInternal.NewBitmap(8, 2)
	bm.Set(0, 0, true)

	opts := quietOptions()
	p, err := NewPrinter(s, opts)
	require.NoError(t, err)
	require.NoError(t, p.Print(bm))

	items := parseWire(t, m.Written())
	assert.Equal(t, []byte{0x00, 0x01}, items[0].payload, "mark moves to the opposite corner")

	m.WriteBuffer.Reset()
	opts.Rotate180 = false
	p, err = NewPrinter(s, opts)
	require.NoError(t, err)
	require.NoError(t, p.Print(bm))
	assert.Equal(t, []byte{0x80, 0x00}, parseWire(t, m.Written())[0].payload)
}

func TestPrinter_PrintImage(t *testing.T) {
	s, m, _ := newReadySession(t)

	img := image.NewGray(image.Rect(0, 0, 16, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xFF})
			if x < 8 {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	path := filepath.Join(t.TempDir(), "label.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	opts := quietOptions()
	opts.Rotate180 = false
	p, err := NewPrinter(s, opts)
	require.NoError(t, err)
	require.NoError(t, p.PrintImage(path))

	items := parseWire(t, m.Written())
	require.Equal(t, "gsv0", items[0].kind)
	assert.Equal(t, []byte{0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00}, items[0].payload)

	assert.Error(t, p.PrintImage(filepath.Join(t.TempDir(), "missing.png")))
}

func TestPrinter_ImplementsTarget(t *testing.T) {
	var _ imgInternal.Target = (*Printer)(nil)

	_, err := NewPrinter(nil, PrintOptions{})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestNewTransport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := NewTransport(&buf)
	_, err := tr.Write([]byte{0x1B, 0x40})
	require.NoError(t, err)
	assert.NoError(t, tr.Drain())
	assert.NoError(t, tr.Close())
	assert.Equal(t, []byte{0x1B, 0x40}, buf.Bytes())

	s := NewSession(SessionConfig{Sleep: func(time.Duration) {}})
	require.NoError(t, s.Open(func() (Transport, string, error) { return tr, "buffer", nil }))
	require.NoError(t, s.Handshake())
	assert.Equal(t, 2+12+3+3+4, buf.Len())
}
