package printer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	logInternal "github.com/AlexStarov/escpos-label/log"
)

// PortOptions configures the serial line. Zero values take the defaults of
// the label printer: 19200 baud, 8N1.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

const DefaultBaudRate = 19200

// Normalize fills defaults and checks the values serial.Mode can express.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate == 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	o.Parity = strings.ToUpper(strings.TrimSpace(o.Parity))
	if o.Parity == "" {
		o.Parity = "N"
	}

	if o.BaudRate < 0 {
		return o, fmt.Errorf("invalid baud rate %d", o.BaudRate)
	}
	if o.DataBits < 5 || o.DataBits > 8 {
		return o, fmt.Errorf("invalid data bits %d", o.DataBits)
	}
	if o.StopBits != 1 && o.StopBits != 2 {
		return o, fmt.Errorf("invalid stop bits %d", o.StopBits)
	}
	switch o.Parity {
	case "N", "E", "O":
	default:
		return o, fmt.Errorf("invalid parity %q", o.Parity)
	}
	return o, nil
}

// SerialMode converts normalized options to a serial.Mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	n, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: n.BaudRate,
		DataBits: n.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if n.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch n.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

// serialTransport keeps the port name for error reports.
type serialTransport struct {
	serial.Port
	name string
}

func (s *serialTransport) String() string { return s.name }

// OpenSerial opens portName. The port must be listed by the OS.
func OpenSerial(portName string, opts PortOptions) (Transport, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, &TransportError{Op: "open", Port: portName, Err: err}
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		logInternal.Errlog.Printf("Ошибка получения списка портов: %v", err)
		return nil, &TransportError{Op: "open", Port: portName, Err: fmt.Errorf("list serial ports: %w", err)}
	}
	logInternal.Debugf("Доступные порты: %v", ports)

	if !contains(ports, portName) {
		return nil, &TransportError{Op: "open", Port: portName, Err: fmt.Errorf("serial port %s not found", portName)}
	}

	logInternal.Infof("opening %s at %d baud", portName, mode.BaudRate)
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, &TransportError{Op: "open", Port: portName, Err: err}
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, &TransportError{Op: "open", Port: portName, Err: err}
	}
	return &serialTransport{Port: port, name: portName}, nil
}

// SerialOpener returns an Opener for Session.Open.
func SerialOpener(portName string, opts PortOptions) Opener {
	return func() (Transport, string, error) {
		t, err := OpenSerial(portName, opts)
		return t, portName, err
	}
}

// FindPort picks the most likely printer port. Ports whose name or USB
// product string contains one of hints come first, then USB CDC ports
// (ttyACM), then USB serial adapters (ttyUSB), then any other USB port.
func FindPort(hints ...string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}
	return pickPort(ports, hints)
}

func pickPort(ports []*enumerator.PortDetails, hints []string) (string, error) {
	type candidate struct {
		name  string
		score int
	}
	var cands []candidate
	for _, p := range ports {
		if p == nil || p.Name == "" {
			continue
		}
		score := 0
		switch {
		case matchesHint(p, hints):
			score = 4
		case strings.Contains(p.Name, "ttyACM") || strings.Contains(p.Name, "usbmodem"):
			score = 3
		case strings.Contains(p.Name, "ttyUSB") || strings.Contains(p.Name, "usbserial"):
			score = 2
		case p.IsUSB:
			score = 1
		}
		if score > 0 {
			cands = append(cands, candidate{p.Name, score})
		}
	}
	if len(cands) == 0 {
		return "", fmt.Errorf("no printer-like serial port among %d ports", len(ports))
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].name < cands[j].name
	})
	return cands[0].name, nil
}

func matchesHint(p *enumerator.PortDetails, hints []string) bool {
	name := strings.ToLower(p.Name)
	product := strings.ToLower(p.Product)
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if strings.Contains(name, h) || strings.Contains(product, h) {
			return true
		}
	}
	return false
}

// Проверяем, есть ли порт в списке
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
