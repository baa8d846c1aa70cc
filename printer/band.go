package printer

import (
	"fmt"
	"time"

	imgInternal "github.com/AlexStarov/escpos-label/image"
	logInternal "github.com/AlexStarov/escpos-label/log"
)

// TransmitBands sends b as ESC * bands of 8 rows each, zero-filling the last
// band, then one line feed. Band size is not checked against a device
// buffer; Transmit does that with PrintOptions.MaxStripeBytes.
func (s *Session) TransmitBands(b *imgInternal.Bitstream, interBlockDelay time.Duration) error {
	return s.run(func() error { return s.bands(b, interBlockDelay, 0) })
}

// bands rejects the job before writing when maxBytes > 0 and one band
// payload exceeds it.
func (s *Session) bands(b *imgInternal.Bitstream, delay time.Duration, maxBytes int) error {
	if err := b.Valid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := checkBand(b, maxBytes); err != nil {
		return err
	}

	blocks := (b.Height + 7) / 8
	for i := 0; i < blocks; i++ {
		f, err := ColumnBandFrame(b, i*8)
		if err != nil {
			return err
		}
		if err := s.writeFrame(f); err != nil {
			return err
		}
		s.cfg.Sleep(delay)
	}
	if err := s.writeFlush([]byte{lineFeed}); err != nil {
		return err
	}
	logInternal.Infof("ESC *: %d bands of %d bytes", blocks, b.RowBytes*8)
	return nil
}

func checkBand(b *imgInternal.Bitstream, maxBytes int) error {
	if size := b.RowBytes * 8; maxBytes > 0 && b.Height > 0 && size > maxBytes {
		return &ProtocolError{Frame: "ESC *", Field: "band bytes", Declared: maxBytes, Actual: size}
	}
	return nil
}
