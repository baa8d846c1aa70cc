package printer

import (
	"errors"
	"io"
	"time"

	logInternal "github.com/AlexStarov/escpos-label/log"
)

// PollStatus sends DLE EOT fn and returns whatever the device answers within
// the configured status timeout, up to the read chunk size. An empty reply
// is not an error. Valid in StateReady.
func (s *Session) PollStatus(fn byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.pollStatus(fn)
}

func (s *Session) pollStatus(fn byte) ([]byte, error) {
	if err := s.writeFlush([]byte{0x10, 0x04, fn}); err != nil {
		return nil, err
	}
	resp, err := s.read(s.cfg.StatusReadChunk, s.cfg.StatusTimeout)
	if len(resp) > 0 {
		logInternal.Debugf("status fn=%d: % X", fn, resp)
	}
	return resp, err
}

// read collects up to max bytes, giving up once timeout has elapsed or the
// transport reports no more data. Transports without a settable timeout
// block in Read.
func (s *Session) read(max int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, max)
	n := 0
	deadline := time.Now().Add(timeout)
	rt, hasTimeout := s.t.(ReadTimeouter)

	for n < max {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if hasTimeout {
			if err := rt.SetReadTimeout(remaining); err != nil {
				return buf[:n], &TransportError{Op: "read", Port: s.name, Err: err}
			}
		}
		k, err := s.t.Read(buf[n:])
		n += k
		if errors.Is(err, io.EOF) || isTimeout(err) {
			break
		}
		if err != nil {
			return buf[:n], &TransportError{Op: "read", Port: s.name, Err: err}
		}
		if k == 0 {
			break
		}
	}
	return buf[:n], nil
}

// StatusOnline interprets a DLE EOT 1 reply: bit 3 set means offline. An
// empty reply is reported as offline.
func StatusOnline(resp []byte) bool {
	if len(resp) == 0 {
		return false
	}
	return resp[0]&0x08 == 0
}
