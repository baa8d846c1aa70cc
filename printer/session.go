package printer

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	logInternal "github.com/AlexStarov/escpos-label/log"
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHandshakeSent
	StateReady
	StateTransmitting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHandshakeSent:
		return "handshake-sent"
	case StateReady:
		return "ready"
	case StateTransmitting:
		return "transmitting"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Opener acquires a transport and returns it with a name for logs and errors.
type Opener func() (Transport, string, error)

// SessionConfig holds device-level settings shared by every job.
type SessionConfig struct {
	Port PortOptions `json:"port"`

	HandshakeDelay      time.Duration `json:"handshake_delay"`
	HandshakeFinalDelay time.Duration `json:"handshake_final_delay"`
	StatusTimeout       time.Duration `json:"status_timeout"`
	StatusReadChunk     int           `json:"status_read_chunk"`

	// Sleep replaces time.Sleep for every pacing delay.
	Sleep func(time.Duration) `json:"-"`
}

// DefaultSessionConfig returns 19200 8N1 with the stock handshake timing.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Port:                PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"},
		HandshakeDelay:      50 * time.Millisecond,
		HandshakeFinalDelay: 100 * time.Millisecond,
		StatusTimeout:       300 * time.Millisecond,
		StatusReadChunk:     64,
	}
}

// handshakeCommands are sent in order, each followed by a flush and a delay.
var handshakeCommands = [][]byte{
	{0x1B, 0x40, 0x1B, 0x40, 0x1B, 0x40, 0x1B, 0x40, 0x1B, 0x40, 0xAA, 0x55}, // ESC @ x5, wake pattern
	{0x1B, 0x3D, 0x01},       // ESC = 1, select printer
	{0x12, 0x45, 0x01},       // DC2 E 1
	{0x12, 0x70, 0x03, 0x00}, // DC2 p 3 0
}

// HandshakeCommands returns a copy of the initialization sequence.
func HandshakeCommands() [][]byte {
	out := make([][]byte, len(handshakeCommands))
	for i, c := range handshakeCommands {
		out[i] = append([]byte(nil), c...)
	}
	return out
}

// Session owns one transport and serializes all device traffic.
type Session struct {
	t     Transport
	name  string
	cfg   SessionConfig
	state State

	mu sync.Mutex
}

// NewSession returns a closed session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.StatusReadChunk <= 0 {
		cfg.StatusReadChunk = 64
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Session{cfg: cfg, state: StateClosed}
}

// OpenSerialSession opens portName with cfg.Port and returns an open,
// not yet handshaken session.
func OpenSerialSession(portName string, cfg SessionConfig) (*Session, error) {
	s := NewSession(cfg)
	if err := s.Open(SerialOpener(portName, cfg.Port)); err != nil {
		return nil, err
	}
	return s, nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Name returns the transport name given by the Opener.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Open acquires the transport. Only valid on a closed session.
func (s *Session) Open(open Opener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClosed {
		return fmt.Errorf("printer: open: session is %s", s.state)
	}
	t, name, err := open()
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Op: "open", Port: name, Err: err}
		}
		logInternal.PrintIfErr("open", &err)
		return err
	}
	s.t, s.name, s.state = t, name, StateOpen
	logInternal.Infof("session %s open", name)
	return nil
}

// Handshake sends the initialization sequence. Valid in StateOpen, and again
// in StateReady to re-initialize the device.
func (s *Session) Handshake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.state != StateOpen && s.state != StateReady {
		return fmt.Errorf("%w: handshake in state %s", ErrNotReady, s.state)
	}

	logInternal.Infof("handshake %s", s.name)
	s.state = StateHandshakeSent
	for i, cmd := range handshakeCommands {
		if err := s.writeFlush(cmd); err != nil {
			s.state = StateFailed
			return err
		}
		if i == len(handshakeCommands)-1 {
			s.cfg.Sleep(s.cfg.HandshakeFinalDelay)
		} else {
			s.cfg.Sleep(s.cfg.HandshakeDelay)
		}
	}
	s.state = StateReady
	logInternal.Infof("handshake %s done", s.name)
	return nil
}

// Close releases the transport. Safe to call any number of times and in any
// state.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.t == nil {
		s.state = StateClosed
		return nil
	}
	err := s.t.Close()
	s.t = nil
	s.state = StateClosed
	if err != nil {
		logInternal.Warnf("close %s: %v", s.name, err)
	}
	return err
}

// Feed writes n line feeds and flushes.
func (s *Session) Feed(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	return s.feed(n)
}

// ClearBuffer sends CAN, waits for the device to discard its buffer and
// drops any pending input.
func (s *Session) ClearBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	return s.clearBuffer()
}

func (s *Session) clearBuffer() error {
	if err := s.writeFlush([]byte{cancelBuf}); err != nil {
		return err
	}
	s.cfg.Sleep(30 * time.Millisecond)
	if r, ok := s.t.(InputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			logInternal.Warnf("reset input %s: %v", s.name, err)
		}
		return nil
	}
	if _, err := s.read(s.cfg.StatusReadChunk, 50*time.Millisecond); err != nil {
		logInternal.Debugf("drain input %s: %v", s.name, err)
	}
	return nil
}

func (s *Session) feed(n int) error {
	if n <= 0 {
		return nil
	}
	return s.writeFlush(bytes.Repeat([]byte{lineFeed}, n))
}

// usable rejects closed and failed sessions.
func (s *Session) usable() error {
	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateFailed:
		return fmt.Errorf("%w: previous transmission failed, close the session", ErrNotReady)
	}
	return nil
}

func (s *Session) ready() error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.state != StateReady {
		return fmt.Errorf("%w: state %s, handshake first", ErrNotReady, s.state)
	}
	return nil
}

// run executes fn in StateTransmitting. Any error leaves the session failed.
func (s *Session) run(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.state = StateTransmitting
	if err := fn(); err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) || errors.Is(err, ErrInvalidOptions) {
			// Nothing was written for a rejected frame or option set.
			s.state = StateReady
		} else {
			s.state = StateFailed
		}
		logInternal.PrintIfErr("transmit "+s.name, &err)
		return err
	}
	s.state = StateReady
	return nil
}

func (s *Session) write(b []byte) error {
	if err := writeAll(s.t, b); err != nil {
		return &TransportError{Op: "write", Port: s.name, Err: err}
	}
	return nil
}

// writeFlush writes b and waits for it to leave the OS buffer.
func (s *Session) writeFlush(b []byte) error {
	if err := s.write(b); err != nil {
		return err
	}
	if err := drain(s.t); err != nil {
		return &TransportError{Op: "flush", Port: s.name, Err: err}
	}
	return nil
}

func (s *Session) writeFrame(f *Frame) error {
	if logInternal.Verbose() {
		head := f.Payload
		if len(head) > 16 {
			head = head[:16]
		}
		logInternal.Debugf("%s payload[:16]=% X", f, head)
	}
	return s.writeFlush(f.Bytes())
}
