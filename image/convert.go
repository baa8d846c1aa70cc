package image

import (
	"fmt"
	"image"
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/nfnt/resize"

	logInternal "github.com/AlexStarov/escpos-label/log"
)

type Converter struct {
	// The maximum line width of the printer, in dots. Wider images are
	// scaled down keeping the aspect ratio; 0 disables scaling.
	MaxWidth int

	// The threshold between white and black dots, 0..1 lightness.
	Threshold float64

	// Dither uses Floyd-Steinberg error diffusion instead of a threshold.
	Dither bool

	// Rotate180 turns the result upside down.
	Rotate180 bool

	// Invert is passed to Pack by Print.
	Invert bool
}

// Print converts img and hands the packed raster to target.
func (c *Converter) Print(img image.Image, target Target) error {
	sz := img.Bounds().Size()
	logInternal.LogMessage(logInternal.INFO, fmt.Sprintf("converting image %dx%d", sz.X, sz.Y))

	m := c.ToMonochrome(img)
	return target.PrintBitstream(Pack(m, c.Invert))
}

// ToMonochrome scales, thresholds or dithers, and optionally rotates img.
func (c *Converter) ToMonochrome(img image.Image) *Bitmap {
	if c.MaxWidth > 0 && img.Bounds().Dx() > c.MaxWidth {
		img = resize.Resize(uint(c.MaxWidth), 0, img, resize.Lanczos3)
	}

	var out *Bitmap
	if c.Dither {
		out = c.dither(img)
	} else {
		out = c.threshold(img)
	}

	if c.Rotate180 {
		out = Rotate180(out)
	}
	return out
}

func (c *Converter) threshold(img image.Image) *Bitmap {
	r := img.Bounds()
	out := NewBitmap(r.Dx(), r.Dy())
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			if lightness(img.At(r.Min.X+x, r.Min.Y+y)) < threshold {
				out.pix[y*out.width+x] = 1
			}
		}
	}
	return out
}

func (c *Converter) dither(img image.Image) *Bitmap {
	d := dither.NewDitherer([]color.Color{color.Black, color.White})
	d.Matrix = dither.FloydSteinberg
	d.Serpentine = true
	p := d.DitherPaletted(img)

	out, err := FromPaletted(p)
	if err != nil {
		// two-colour palette is fixed above
		logInternal.Errlog.Printf("dither: %v", err)
		return c.threshold(img)
	}
	return out
}

const (
	lumR, lumG, lumB = 55, 182, 18
)

func lightness(c color.Color) float64 {
	r, g, b, _ := c.RGBA()

	return float64(lumR*r+lumG*g+lumB*b) / float64(0xffff*(lumR+lumG+lumB))
}
