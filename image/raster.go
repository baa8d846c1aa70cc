package image

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlexStarov/escpos-label/util"
)

// Bitstream is a packed raster: RowBytes bytes per row, MSB first, one bit per
// dot, 1 = mark. len(Data) == RowBytes*Height always holds.
type Bitstream struct {
	Data     []byte
	RowBytes int
	Height   int
}

// RowBytesFor returns ceil(width/8).
func RowBytesFor(width int) int {
	return (width + 7) >> 3
}

// Pack converts m into a Bitstream. A dot becomes 1 when it is a mark XOR
// invert. When the width is not a multiple of 8 the last byte of each row is
// zero-padded on the right.
func Pack(m Monochrome, invert bool) *Bitstream {
	w, h := m.Width(), m.Height()
	rowBytes := RowBytesFor(w)
	data := make([]byte, rowBytes*h)

	for y := 0; y < h; y++ {
		idx := y * rowBytes
		var acc byte
		bits := 0
		for x := 0; x < w; x++ {
			bit := byte(0)
			if m.IsMark(x, y) != invert {
				bit = 1
			}
			acc = acc<<1 | bit
			bits++
			if bits == 8 {
				data[idx] = acc
				idx++
				acc, bits = 0, 0
			}
		}
		if bits > 0 {
			data[idx] = acc << uint(8-bits)
		}
	}

	return &Bitstream{Data: data, RowBytes: rowBytes, Height: h}
}

// Rows returns the sub-stream of rows [start, start+n).
func (b *Bitstream) Rows(start, n int) *Bitstream {
	if start < 0 {
		start = 0
	}
	if start > b.Height {
		start = b.Height
	}
	if n > b.Height-start {
		n = b.Height - start
	}
	if n < 0 {
		n = 0
	}
	return &Bitstream{
		Data:     b.Data[start*b.RowBytes : (start+n)*b.RowBytes],
		RowBytes: b.RowBytes,
		Height:   n,
	}
}

// Valid checks the length invariant.
func (b *Bitstream) Valid() error {
	if b.RowBytes < 0 || b.Height < 0 {
		return fmt.Errorf("image: negative bitstream geometry %dx%d", b.RowBytes, b.Height)
	}
	if len(b.Data) != b.RowBytes*b.Height {
		return fmt.Errorf("image: bitstream holds %d bytes, want %d*%d", len(b.Data), b.RowBytes, b.Height)
	}
	return nil
}

func (b *Bitstream) String() string {
	return fmt.Sprintf("Bitstream(rowBytes=%d, height=%d, len=%d)", b.RowBytes, b.Height, len(b.Data))
}

// Transform returns a copy of data with every byte inverted (XOR 0xFF)
// and/or bit-reversed. With both flags false data is returned unchanged.
func Transform(data []byte, bitReverse, invert bool) []byte {
	if !bitReverse && !invert {
		return data
	}
	out := make([]byte, len(data))
	for i, v := range data {
		if invert {
			v ^= 0xFF
		}
		if bitReverse {
			v = util.ReverseBits(v)
		}
		out[i] = v
	}
	return out
}

// Transformed applies Transform to the whole stream.
func (b *Bitstream) Transformed(bitReverse, invert bool) *Bitstream {
	return &Bitstream{Data: Transform(b.Data, bitReverse, invert), RowBytes: b.RowBytes, Height: b.Height}
}

// AlignMode places a narrow label inside the print head width.
type AlignMode int

const (
	AlignCenter AlignMode = iota
	AlignLeft
	AlignRight
)

func (a AlignMode) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	default:
		return "center"
	}
}

// ErrAlignment reports an unknown alignment name or a shift that pushes the
// label outside the device row.
var ErrAlignment = errors.New("image: invalid alignment")

// Alignment is an AlignMode plus a byte shift applied to AlignCenter.
type Alignment struct {
	Mode  AlignMode
	Shift int
}

// ParseAlignment accepts "left", "right", "center" and "" (center).
func ParseAlignment(s string) (AlignMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center", "centre":
		return AlignCenter, nil
	case "left":
		return AlignLeft, nil
	case "right":
		return AlignRight, nil
	}
	return AlignCenter, fmt.Errorf("%w: %q", ErrAlignment, s)
}

// Offset returns the byte offset of the label inside a device row.
func (a Alignment) Offset(labelRowBytes, deviceRowBytes int) (int, error) {
	pad := deviceRowBytes - labelRowBytes
	if pad < 0 {
		return 0, fmt.Errorf("image: label row %d bytes wider than device row %d", labelRowBytes, deviceRowBytes)
	}
	var off int
	switch a.Mode {
	case AlignLeft:
		off = 0
	case AlignRight:
		off = pad
	default:
		off = pad/2 + a.Shift
	}
	if off < 0 || off > pad {
		return 0, fmt.Errorf("%w: offset %d outside 0..%d", ErrAlignment, off, pad)
	}
	return off, nil
}

// Pad widens every row to deviceRowBytes, copying the label bytes at the
// aligned offset and zero-filling the rest.
func Pad(b *Bitstream, deviceRowBytes int, align Alignment) (*Bitstream, error) {
	if err := b.Valid(); err != nil {
		return nil, err
	}
	off, err := align.Offset(b.RowBytes, deviceRowBytes)
	if err != nil {
		return nil, err
	}

	out := make([]byte, deviceRowBytes*b.Height)
	for r := 0; r < b.Height; r++ {
		src := b.Data[r*b.RowBytes : (r+1)*b.RowBytes]
		copy(out[r*deviceRowBytes+off:], src)
	}
	return &Bitstream{Data: out, RowBytes: deviceRowBytes, Height: b.Height}, nil
}
