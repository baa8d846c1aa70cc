package printer

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"

	imgInternal "github.com/AlexStarov/escpos-label/image"
	logInternal "github.com/AlexStarov/escpos-label/log"
)

// Transmit prints one packed label: bit transform, device-width padding,
// buffer size check, optional buffer clear, then the selected framing strategy and any
// trailing feed. Valid in StateReady.
func (s *Session) Transmit(b *imgInternal.Bitstream, opts PrintOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	return s.run(func() error {
		prepared, err := Prepare(b, opts)
		if err != nil {
			return err
		}
		if opts.Selected() == StrategyColumnBand {
			err = checkBand(prepared, opts.MaxStripeBytes)
		} else {
			err = opts.StripOptions().check(prepared.RowBytes, prepared.Height)
		}
		if err != nil {
			return err
		}
		if opts.ClearBeforePrint {
			if err := s.clearBuffer(); err != nil {
				return err
			}
		}

		switch strategy := opts.Selected(); {
		case strategy == StrategyColumnBand:
			logInternal.Infof("ESC * path, %d rows", prepared.Height)
			err = s.bands(prepared, opts.BandDelay, opts.MaxStripeBytes)
		case opts.SplitTwoPhase:
			logInternal.Infof("GS v 0 two-phase path, %d rows, upper %d", prepared.Height, opts.UpperPartLines)
			err = s.twoPhase(prepared, opts.TwoPhaseOptions())
		default:
			logInternal.Infof("GS v 0 path, %d rows", prepared.Height)
			err = s.strips(prepared, opts.StripOptions())
		}
		if err != nil {
			return err
		}
		if opts.Selected() == StrategyRaster && opts.AllowFallback {
			logInternal.Infof("if nothing printed, retry with force_fallback for ESC *")
		}
		return s.feed(opts.FeedAfterLines)
	})
}

// Prepare applies the bit transform to the label and then pads it to
// DeviceRowBytes (when set). Padding is added after the transform, so the
// margins stay blank even with Invert. b itself is never modified.
func Prepare(b *imgInternal.Bitstream, opts PrintOptions) (*imgInternal.Bitstream, error) {
	if err := b.Valid(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	out := b.Transformed(opts.BitReverse, opts.Invert)
	if opts.DeviceRowBytes > 0 && opts.DeviceRowBytes != out.RowBytes {
		padded, err := imgInternal.Pad(out, opts.DeviceRowBytes, opts.Align)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		out = padded
	}
	return out, nil
}

// Printer prints labels and images on a ready session with fixed job
// options. It implements image.Target.
type Printer struct {
	s    *Session
	opts PrintOptions
	conv imgInternal.Converter
}

// NewPrinter validates opts and binds them to s.
func NewPrinter(s *Session, opts PrintOptions) (*Printer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Printer{
		s:    s,
		opts: opts,
		conv: imgInternal.Converter{
			MaxWidth:  opts.WidthDots(),
			Threshold: 0.5,
			Rotate180: opts.Rotate180,
		},
	}, nil
}

// Options returns the job options.
func (p *Printer) Options() PrintOptions { return p.opts }

// SetDither switches image conversion between threshold and
// Floyd-Steinberg.
func (p *Printer) SetDither(on bool) { p.conv.Dither = on }

// PrintBitstream transmits an already packed label.
func (p *Printer) PrintBitstream(b *imgInternal.Bitstream) error {
	return p.s.Transmit(b, p.opts)
}

// Print packs a rendered label, rotating it first when Rotate180 is set.
func (p *Printer) Print(m imgInternal.Monochrome) error {
	if p.opts.Rotate180 {
		m = imgInternal.Rotate180(m)
	}
	return p.PrintBitstream(imgInternal.Pack(m, false))
}

// PrintImage decodes a PNG, JPEG or BMP file and prints it scaled to the
// label width.
func (p *Printer) PrintImage(imgPath string) error {
	imgFile, err := os.Open(imgPath)
	if err != nil {
		return err
	}
	defer imgFile.Close()

	img, imgFormat, err := image.Decode(imgFile)
	if err != nil {
		return fmt.Errorf("decode %s: %w", imgPath, err)
	}
	logInternal.Infof("loaded image %s, format %s", imgPath, imgFormat)

	return p.conv.Print(img, p)
}
