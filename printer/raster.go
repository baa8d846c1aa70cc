package printer

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	imgInternal "github.com/AlexStarov/escpos-label/image"
	logInternal "github.com/AlexStarov/escpos-label/log"
)

// Pacing spaces frames out so the device buffer never overflows.
type Pacing struct {
	StripeDelay time.Duration
	GroupSize   int
	GroupDelay  time.Duration
}

// StripOptions configures one GS v 0 run.
type StripOptions struct {
	StripeHeight   int
	Mode           byte
	Pacing         Pacing
	StatusPoll     bool
	StatusFunction byte
	MaxStripeBytes int
}

// TwoPhaseOptions configures a split GS v 0 run.
type TwoPhaseOptions struct {
	Strip            StripOptions
	UpperPartLines   int
	FeedBetweenParts int
	SettleDelay      time.Duration
}

// StripOptions derives the GS v 0 settings of a job.
func (o PrintOptions) StripOptions() StripOptions {
	return StripOptions{
		StripeHeight:   o.StripeHeight,
		Mode:           o.RasterMode,
		Pacing:         Pacing{StripeDelay: o.StripeDelay, GroupSize: o.GroupSize, GroupDelay: o.GroupDelay},
		StatusPoll:     o.StatusPoll,
		StatusFunction: o.StatusFunction,
		MaxStripeBytes: o.MaxStripeBytes,
	}
}

// TwoPhaseOptions derives the split settings of a job.
func (o PrintOptions) TwoPhaseOptions() TwoPhaseOptions {
	return TwoPhaseOptions{
		Strip:            o.StripOptions(),
		UpperPartLines:   o.UpperPartLines,
		FeedBetweenParts: o.FeedBetweenParts,
		SettleDelay:      o.SettleDelay,
	}
}

// check validates so for a raster of the given geometry. The first stripe
// is the largest one sent, so it alone is compared with MaxStripeBytes.
func (so StripOptions) check(rowBytes, height int) error {
	if so.StripeHeight <= 0 || so.StripeHeight > 0xFFFF {
		return fmt.Errorf("%w: stripe height %d out of range 1..65535", ErrInvalidOptions, so.StripeHeight)
	}
	rows := so.StripeHeight
	if height < rows {
		rows = height
	}
	if so.MaxStripeBytes > 0 && rowBytes*rows > so.MaxStripeBytes {
		return &ProtocolError{Frame: "GS v 0", Field: "stripe bytes", Declared: so.MaxStripeBytes, Actual: rowBytes * rows}
	}
	return nil
}

// TransmitStrips sends b as consecutive GS v 0 stripes of at most
// StripeHeight rows, followed by one line feed. The last stripe carries the
// remainder.
func (s *Session) TransmitStrips(b *imgInternal.Bitstream, so StripOptions) error {
	return s.run(func() error { return s.strips(b, so) })
}

// TransmitTwoPhase sends the first UpperPartLines rows, then FeedBetweenParts
// line feeds followed by SettleDelay, then the rest. Each part ends with a
// line feed.
func (s *Session) TransmitTwoPhase(b *imgInternal.Bitstream, tp TwoPhaseOptions) error {
	return s.run(func() error { return s.twoPhase(b, tp) })
}

func (s *Session) strips(b *imgInternal.Bitstream, so StripOptions) error {
	if err := b.Valid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := so.check(b.RowBytes, b.Height); err != nil {
		return err
	}

	sent, total := 0, 0
	for y0 := 0; y0 < b.Height; y0 += so.StripeHeight {
		f, err := RasterStripFrame(so.Mode, b.Rows(y0, so.StripeHeight))
		if err != nil {
			return err
		}
		if err := s.writeFrame(f); err != nil {
			return err
		}
		sent++
		total += len(f.Payload)

		if so.StatusPoll {
			if _, err := s.pollStatus(so.StatusFunction); err != nil {
				if errors.Is(err, ErrWriteFailed) {
					return err
				}
				logInternal.Warnf("status after stripe %d: %v", sent, err)
			}
		}

		s.cfg.Sleep(so.Pacing.StripeDelay)
		if so.Pacing.GroupSize > 0 && sent%so.Pacing.GroupSize == 0 {
			s.cfg.Sleep(so.Pacing.GroupDelay)
		}
	}

	if err := s.writeFlush([]byte{lineFeed}); err != nil {
		return err
	}
	logInternal.Infof("GS v 0: %d stripes, %d bytes, %d rows of %d bytes", sent, total, b.Height, b.RowBytes)
	return nil
}

func (s *Session) twoPhase(b *imgInternal.Bitstream, tp TwoPhaseOptions) error {
	if err := b.Valid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if tp.UpperPartLines <= 0 {
		return fmt.Errorf("%w: upper part lines %d must be positive", ErrInvalidOptions, tp.UpperPartLines)
	}
	upperRows := tp.UpperPartLines
	if upperRows > b.Height {
		upperRows = b.Height
	}
	if err := tp.Strip.check(b.RowBytes, max(upperRows, b.Height-upperRows)); err != nil {
		return err
	}

	upper := tp.UpperPartLines
	if upper > b.Height {
		upper = b.Height
	}
	if upper > 0 {
		if err := s.strips(b.Rows(0, upper), tp.Strip); err != nil {
			return err
		}
	}
	if tp.FeedBetweenParts > 0 {
		if err := s.writeFlush(bytes.Repeat([]byte{lineFeed}, tp.FeedBetweenParts)); err != nil {
			return err
		}
		s.cfg.Sleep(tp.SettleDelay)
	}
	if lower := b.Height - upper; lower > 0 {
		if err := s.strips(b.Rows(upper, lower), tp.Strip); err != nil {
			return err
		}
	}
	return nil
}
