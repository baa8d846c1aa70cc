package image

// Monochrome is a finished 1-bit raster as produced by a label renderer.
// IsMark reports whether the dot at (x, y) is black.
type Monochrome interface {
	Width() int
	Height() int
	IsMark(x, y int) bool
}

// Target receives packed rasters, typically an open printer session.
type Target interface {
	PrintBitstream(b *Bitstream) error
}
