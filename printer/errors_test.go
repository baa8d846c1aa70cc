package printer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_Is(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	tests := []struct {
		op        string
		open      bool
		writeFail bool
	}{
		{"open", true, false},
		{"write", false, true},
		{"flush", false, true},
		{"read", false, false},
	}
	for _, tt := range tests {
		err := error(&TransportError{Op: tt.op, Port: "COM3", Err: cause})
		assert.Equal(t, tt.open, errors.Is(err, ErrOpenFailed), tt.op)
		assert.Equal(t, tt.writeFail, errors.Is(err, ErrWriteFailed), tt.op)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "COM3")
	}

	assert.Equal(t, "printer: read: boom", (&TransportError{Op: "read", Err: cause}).Error())
}
