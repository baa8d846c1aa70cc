package image

import (
	"fmt"
	"image"
	"image/color"
)

// Bitmap is an in-memory Monochrome, one byte per dot (0 or 1).
type Bitmap struct {
	pix           []byte
	width, height int
}

// NewBitmap returns an all-white bitmap.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{pix: make([]byte, width*height), width: width, height: height}
}

func (b *Bitmap) Width() int  { return b.width }
func (b *Bitmap) Height() int { return b.height }

func (b *Bitmap) IsMark(x, y int) bool {
	return b.pix[y*b.width+x] != 0
}

// Set marks (or clears) the dot at (x, y).
func (b *Bitmap) Set(x, y int, mark bool) {
	v := byte(0)
	if mark {
		v = 1
	}
	b.pix[y*b.width+x] = v
}

func (b *Bitmap) String() string {
	return fmt.Sprintf("Bitmap(%d,%d)", b.width, b.height)
}

// ColorModel, Bounds and At let a Bitmap be saved or drawn as an image.Image.
func (b *Bitmap) ColorModel() color.Model { return color.GrayModel }

func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.width, b.height) }

func (b *Bitmap) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return color.White
	}
	if b.IsMark(x, y) {
		return color.Black
	}
	return color.White
}

// FromPaletted maps a two-colour paletted image to a Bitmap; the palette entry
// closest to black becomes the mark.
func FromPaletted(p *image.Paletted) (*Bitmap, error) {
	if len(p.Palette) != 2 {
		return nil, fmt.Errorf("image: paletted image must have 2 colours, has %d", len(p.Palette))
	}
	markIndex := uint8(p.Palette.Index(color.Black))

	r := p.Bounds()
	b := NewBitmap(r.Dx(), r.Dy())
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			if p.ColorIndexAt(r.Min.X+x, r.Min.Y+y) == markIndex {
				b.pix[y*b.width+x] = 1
			}
		}
	}
	return b, nil
}

// Rotate180 returns m turned upside down; label stock usually feeds head
// first.
func Rotate180(m Monochrome) *Bitmap {
	w, h := m.Width(), m.Height()
	out := NewBitmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.IsMark(x, y) {
				out.pix[(h-1-y)*w+(w-1-x)] = 1
			}
		}
	}
	return out
}

// Checkerboard returns a chess pattern of block x block squares, starting
// with a black square in the top-left corner.
func Checkerboard(width, height, block int) *Bitmap {
	if block <= 0 {
		block = 1
	}
	b := NewBitmap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/block+y/block)%2 == 0 {
				b.pix[y*width+x] = 1
			}
		}
	}
	return b
}

// Solid returns an all-black block, used to measure the printable width.
func Solid(width, height int) *Bitmap {
	b := NewBitmap(width, height)
	for i := range b.pix {
		b.pix[i] = 1
	}
	return b
}
