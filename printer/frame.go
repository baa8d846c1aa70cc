package printer

import (
	"fmt"

	imgInternal "github.com/AlexStarov/escpos-label/image"
	utilInternal "github.com/AlexStarov/escpos-label/util"
)

const (
	lineFeed  = 0x0A
	cancelBuf = 0x18
)

// FrameKind names the command family of a Frame.
type FrameKind int

const (
	FrameRasterStrip FrameKind = iota
	FrameColumnBand
)

func (k FrameKind) String() string {
	if k == FrameColumnBand {
		return "ESC *"
	}
	return "GS v 0"
}

// Frame is one device command: a fixed header followed by a payload whose
// length the header declares.
type Frame struct {
	Kind    FrameKind
	Header  []byte
	Payload []byte
}

// Bytes returns header and payload as one buffer so the frame goes out in a
// single write.
func (f *Frame) Bytes() []byte {
	out := make([]byte, 0, len(f.Header)+len(f.Payload))
	out = append(out, f.Header...)
	return append(out, f.Payload...)
}

// Declared returns the payload length the header announces.
func (f *Frame) Declared() int {
	switch f.Kind {
	case FrameRasterStrip:
		if len(f.Header) != 8 {
			return -1
		}
		x := int(f.Header[4]) | int(f.Header[5])<<8
		y := int(f.Header[6]) | int(f.Header[7])<<8
		return x * y
	case FrameColumnBand:
		if len(f.Header) != 5 {
			return -1
		}
		return (int(f.Header[3]) | int(f.Header[4])<<8) * 8
	}
	return -1
}

// Check verifies the header against the payload.
func (f *Frame) Check() error {
	if d := f.Declared(); d != len(f.Payload) {
		return &ProtocolError{Frame: f.Kind.String(), Field: "payload length", Declared: d, Actual: len(f.Payload)}
	}
	return nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s header=% X payload=%d", f.Kind, f.Header, len(f.Payload))
}

// RasterStripFrame builds GS v 0 m xL xH yL yH for a strip of rows.
func RasterStripFrame(mode byte, strip *imgInternal.Bitstream) (*Frame, error) {
	if err := strip.Valid(); err != nil {
		return nil, err
	}
	x, err := utilInternal.IntLowHigh(strip.RowBytes, 2)
	if err != nil {
		return nil, &ProtocolError{Frame: "GS v 0", Field: "width bytes", Declared: strip.RowBytes, Actual: 0xFFFF}
	}
	y, err := utilInternal.IntLowHigh(strip.Height, 2)
	if err != nil {
		return nil, &ProtocolError{Frame: "GS v 0", Field: "height", Declared: strip.Height, Actual: 0xFFFF}
	}

	header := []byte{0x1D, 0x76, 0x30, mode, x[0], x[1], y[0], y[1]}
	f := &Frame{Kind: FrameRasterStrip, Header: header, Payload: strip.Data}
	return f, f.Check()
}

// ColumnBandFrame builds ESC * 0 nL nH for the 8-row band starting at row
// y0. Rows past the end of b are sent as zero bytes.
func ColumnBandFrame(b *imgInternal.Bitstream, y0 int) (*Frame, error) {
	if err := b.Valid(); err != nil {
		return nil, err
	}
	n, err := utilInternal.IntLowHigh(b.RowBytes, 2)
	if err != nil {
		return nil, &ProtocolError{Frame: "ESC *", Field: "width bytes", Declared: b.RowBytes, Actual: 0xFFFF}
	}

	payload := make([]byte, b.RowBytes*8)
	for r := 0; r < 8; r++ {
		y := y0 + r
		if y < 0 || y >= b.Height {
			continue
		}
		copy(payload[r*b.RowBytes:], b.Data[y*b.RowBytes:(y+1)*b.RowBytes])
	}

	header := []byte{0x1B, 0x2A, 0x00, n[0], n[1]}
	f := &Frame{Kind: FrameColumnBand, Header: header, Payload: payload}
	return f, f.Check()
}
