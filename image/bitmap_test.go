package image

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	got []*Bitstream
}

func (r *recordingTarget) PrintBitstream(b *Bitstream) error {
	r.got = append(r.got, b)
	return nil
}

func TestCheckerboard(t *testing.T) {
	b := Checkerboard(32, 16, 8)
	assert.True(t, b.IsMark(0, 0))
	assert.False(t, b.IsMark(8, 0))
	assert.False(t, b.IsMark(0, 8))
	assert.True(t, b.IsMark(8, 8))
}

func TestRotate180(t *testing.T) {
	b := NewBitmap(5, 3)
	b.Set(0, 0, true)
	b.Set(1, 2, true)

	r := Rotate180(b)
	assert.True(t, r.IsMark(4, 2))
	assert.True(t, r.IsMark(3, 0))
	assert.False(t, r.IsMark(0, 0))
	assertSameDots(t, b, Rotate180(r))
}

func TestFromPaletted(t *testing.T) {
	p := image.NewPaletted(image.Rect(0, 0, 4, 2), color.Palette{color.White, color.Black})
	p.SetColorIndex(1, 0, 1)
	p.SetColorIndex(3, 1, 1)

	b, err := FromPaletted(p)
	require.NoError(t, err)
	assert.True(t, b.IsMark(1, 0))
	assert.True(t, b.IsMark(3, 1))
	assert.False(t, b.IsMark(0, 0))

	_, err = FromPaletted(image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black}))
	assert.Error(t, err)
}

func grayStripes(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0xFF)
			if x < w/2 {
				v = 0x10
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestConverter_Threshold(t *testing.T) {
	c := &Converter{Threshold: 0.5}
	m := c.ToMonochrome(grayStripes(16, 4))

	assert.Equal(t, 16, m.Width())
	assert.True(t, m.IsMark(0, 0))
	assert.True(t, m.IsMark(7, 3))
	assert.False(t, m.IsMark(8, 0))
}

func TestConverter_RotateAndScale(t *testing.T) {
	c := &Converter{MaxWidth: 8, Threshold: 0.5, Rotate180: true}
	m := c.ToMonochrome(grayStripes(16, 4))

	assert.Equal(t, 8, m.Width())
	assert.Equal(t, 2, m.Height())
	// dark half ends up on the right after rotation
	assert.True(t, m.IsMark(7, 0))
	assert.False(t, m.IsMark(0, 0))
}

func TestConverter_Dither(t *testing.T) {
	c := &Converter{Dither: true}
	m := c.ToMonochrome(grayStripes(32, 8))

	assert.Equal(t, 32, m.Width())
	assert.Equal(t, 8, m.Height())
	assert.True(t, m.IsMark(0, 0))
	assert.False(t, m.IsMark(31, 7))
}

func TestConverter_Print(t *testing.T) {
	target := &recordingTarget{}
	c := &Converter{Threshold: 0.5}
	require.NoError(t, c.Print(grayStripes(16, 2), target))

	require.Len(t, target.got, 1)
	assert.Equal(t, []byte{0xFF, 0x00, 0xFF, 0x00}, target.got[0].Data)
}

func TestSavePreview(t *testing.T) {
	dir := t.TempDir()
	m := Checkerboard(24, 8, 4)
	b := Pack(m, false)

	require.NoError(t, SavePreview(dir, m, b))

	for _, name := range []string{PreviewPNG, PreviewBMP} {
		fi, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.NotZero(t, fi.Size())
	}
	raw, err := os.ReadFile(filepath.Join(dir, PreviewRaster))
	require.NoError(t, err)
	assert.Equal(t, b.Data, raw)
}
