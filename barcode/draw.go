package barcode

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawOptions controls how a symbol is drawn into a label.
type DrawOptions struct {
	// ModuleWidth is the width of one module in dots.
	ModuleWidth int
	// BarHeight is the bar height in dots.
	BarHeight int
	// Face renders the digits under the bars. Nil means basicfont 7x13;
	// set HideText to skip the digits.
	Face     font.Face
	HideText bool
}

// DefaultDrawOptions matches the 2-dot module, 52-dot bar labels.
func DefaultDrawOptions() DrawOptions {
	return DrawOptions{ModuleWidth: 2, BarHeight: 52}
}

// Draw paints s onto dst with its top-left corner at pt and returns the
// drawn size in dots.
func Draw(dst draw.Image, pt image.Point, s *Symbol, opts DrawOptions) image.Point {
	if opts.ModuleWidth <= 0 {
		opts.ModuleWidth = 1
	}
	if opts.BarHeight <= 0 {
		opts.BarHeight = 1
	}

	black := image.NewUniform(color.Black)
	for i := 0; i < len(s.Pattern); i++ {
		if s.Pattern[i] != '1' {
			continue
		}
		x0 := pt.X + i*opts.ModuleWidth
		r := image.Rect(x0, pt.Y, x0+opts.ModuleWidth, pt.Y+opts.BarHeight)
		draw.Draw(dst, r, black, image.Point{}, draw.Src)
	}

	size := image.Pt(len(s.Pattern)*opts.ModuleWidth, opts.BarHeight)
	if opts.HideText {
		return size
	}

	face := opts.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	metrics := face.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  black,
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y+opts.BarHeight+2+metrics.Ascent.Ceil()),
	}
	d.DrawString(s.Digits)

	size.Y += 2 + metrics.Height.Ceil() + 2
	return size
}
