package image

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// Preview file names written by SavePreview.
const (
	PreviewPNG    = "label_preview.png"
	PreviewBMP    = "label_preview_1b.bmp"
	PreviewRaster = "label_raster_padded.bin"
)

// SavePreview writes m as PNG and two-colour BMP plus the raw bytes of b into
// dir, for inspecting a label without printing it. b may be nil.
func SavePreview(dir string, m Monochrome, b *Bitstream) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	p := toPaletted(m)
	if err := writeImage(filepath.Join(dir, PreviewPNG), func(f *os.File) error { return png.Encode(f, p) }); err != nil {
		return err
	}
	if err := writeImage(filepath.Join(dir, PreviewBMP), func(f *os.File) error { return bmp.Encode(f, p) }); err != nil {
		return err
	}
	if b != nil {
		if err := os.WriteFile(filepath.Join(dir, PreviewRaster), b.Data, 0o644); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}
	return nil
}

func writeImage(path string, enc func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := enc(f); err != nil {
		f.Close()
		return fmt.Errorf("preview %s: %w", path, err)
	}
	return f.Close()
}

func toPaletted(m Monochrome) *image.Paletted {
	w, h := m.Width(), m.Height()
	p := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.White, color.Black})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.IsMark(x, y) {
				p.SetColorIndex(x, y, 1)
			}
		}
	}
	return p
}
