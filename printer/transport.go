package printer

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"
)

// Transport is a byte-oriented link to the printer.
type Transport interface {
	Write([]byte) (int, error)
	Read([]byte) (int, error)
	Close() error
}

// Drainer is implemented by transports that can block until the OS output
// buffer has reached the device (serial.Port.Drain).
type Drainer interface {
	Drain() error
}

// ReadTimeouter is implemented by transports with a settable read timeout.
type ReadTimeouter interface {
	SetReadTimeout(t time.Duration) error
}

// InputResetter is implemented by transports that can discard pending input.
type InputResetter interface {
	ResetInputBuffer() error
}

// -------------------- RAW --------------------

// RawTransport passes bytes straight through to a connection, e.g. a TCP
// socket on port 9100 or a file used as a dry-run sink.
type RawTransport struct {
	conn io.ReadWriteCloser
}

func (r *RawTransport) Write(b []byte) (int, error) { return r.conn.Write(b) }
func (r *RawTransport) Read(b []byte) (int, error)  { return r.conn.Read(b) }
func (r *RawTransport) Close() error                { return r.conn.Close() }

// Drain forwards to the connection when it supports draining or syncing.
func (r *RawTransport) Drain() error {
	switch c := r.conn.(type) {
	case Drainer:
		return c.Drain()
	case interface{ Sync() error }:
		return c.Sync()
	}
	return nil
}

// SetReadTimeout bounds the next reads with a deadline when the connection
// supports one (net.Conn, pipes). Other connections are left as they are.
func (r *RawTransport) SetReadTimeout(t time.Duration) error {
	d, ok := r.conn.(interface{ SetReadDeadline(time.Time) error })
	if !ok {
		return nil
	}
	if t <= 0 {
		return d.SetReadDeadline(time.Time{})
	}
	return d.SetReadDeadline(time.Now().Add(t))
}

// NewTransport wraps w. When w is not closable, Close is a no-op.
func NewTransport(w io.ReadWriter) *RawTransport {
	if rc, ok := w.(io.ReadWriteCloser); ok {
		return &RawTransport{conn: rc}
	}
	return &RawTransport{conn: nopCloser{w}}
}

// -------------------- helpers --------------------

type nopCloser struct {
	io.ReadWriter
}

func (n nopCloser) Close() error { return nil }

// writeAll keeps writing until b is consumed; serial drivers may accept a
// frame in several pieces.
func writeAll(t Transport, b []byte) error {
	sent := 0
	for sent < len(b) {
		n, err := t.Write(b[sent:])
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		sent += n
	}
	return nil
}

// isTimeout reports an expired read deadline, which ends a read without
// being a failure.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func drain(t Transport) error {
	if d, ok := t.(Drainer); ok {
		return d.Drain()
	}
	return nil
}
