package printer

import (
	"errors"
	"fmt"
)

var (
	// ErrOpenFailed matches transport errors raised while acquiring the device.
	ErrOpenFailed = errors.New("printer: open failed")
	// ErrWriteFailed matches transport errors raised while writing or flushing.
	ErrWriteFailed = errors.New("printer: write failed")
	// ErrNotReady is returned when transmitting before a handshake, or after
	// a failed transmission.
	ErrNotReady = errors.New("printer: session not ready")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("printer: session closed")
	// ErrInvalidOptions wraps every PrintOptions validation failure.
	ErrInvalidOptions = errors.New("printer: invalid print options")
)

// TransportError describes a failed operation on the underlying device.
type TransportError struct {
	Op   string // open, write, flush, read
	Port string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("printer: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("printer: %s %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrOpenFailed and ErrWriteFailed by operation.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrOpenFailed:
		return e.Op == "open"
	case ErrWriteFailed:
		return e.Op == "write" || e.Op == "flush"
	}
	return false
}

// ProtocolError reports a frame whose declared geometry disagrees with its
// payload, or a stripe larger than the device buffer.
type ProtocolError struct {
	Frame    string
	Field    string
	Declared int
	Actual   int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("printer: %s frame: %s declares %d, actual %d", e.Frame, e.Field, e.Declared, e.Actual)
}
