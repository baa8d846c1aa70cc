package printer

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// MockTransport is an in-memory Transport for tests and dry runs. It
// records every Write call separately so frame boundaries can be checked.
type MockTransport struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls. An empty buffer
	// behaves like an expired serial read timeout: (0, nil).
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the transport
	WriteBuffer *bytes.Buffer

	// Writes holds a copy of each Write call
	Writes [][]byte

	// WriteError is returned by the next Write call if set
	WriteError error

	// FailWriteAt makes the Nth Write call (1-based) fail with WriteError
	// instead of the next one. Zero means the next call.
	FailWriteAt int

	// ReadError is returned by the next Read call if set
	ReadError error

	// DrainError is returned by the next Drain call if set
	DrainError error

	// CloseError is returned by Close if set
	CloseError error

	Closed      bool
	ReadCalls   int
	WriteCalls  int
	DrainCalls  int
	ResetCalls  int
	ReadTimeout time.Duration
}

// NewMockTransport returns an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Opener returns an Opener handing out m under name.
func (m *MockTransport) Opener(name string) Opener {
	return func() (Transport, string, error) { return m, name, nil }
}

// AddReadData queues data for Read.
func (m *MockTransport) AddReadData(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadBuffer.Write(data)
}

// Written returns everything written so far.
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.WriteBuffer.Bytes()...)
}

func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCalls++
	if m.Closed {
		return 0, errors.New("transport closed")
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, err
	}
	if m.ReadBuffer.Len() == 0 {
		return 0, nil
	}
	return m.ReadBuffer.Read(p)
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls++
	if m.Closed {
		return 0, errors.New("transport closed")
	}
	if m.WriteError != nil && (m.FailWriteAt == 0 || m.FailWriteAt == m.WriteCalls) {
		err := m.WriteError
		m.WriteError = nil
		return 0, err
	}
	m.Writes = append(m.Writes, append([]byte(nil), p...))
	return m.WriteBuffer.Write(p)
}

func (m *MockTransport) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DrainCalls++
	if m.DrainError != nil {
		err := m.DrainError
		m.DrainError = nil
		return err
	}
	return nil
}

func (m *MockTransport) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = t
	return nil
}

func (m *MockTransport) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	m.ReadBuffer.Reset()
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}
