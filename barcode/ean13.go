// Package barcode encodes EAN-13 symbols into module patterns and draws them
// into label images.
package barcode

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PatternLength is the number of modules in an EAN-13 symbol:
// start guard(3) + left(42) + center guard(5) + right(42) + end guard(3).
const PatternLength = 95

const (
	startGuard  = "101"
	centerGuard = "01010"
	endGuard    = "101"
)

// ErrInvalidLength is returned when the input does not hold 12 or 13 digits.
var ErrInvalidLength = errors.New("barcode: EAN-13 needs 12 or 13 digits")

var (
	lCodes = [10]string{"0001101", "0011001", "0010011", "0111101", "0100011", "0110001", "0101111", "0111011", "0110111", "0001011"}
	gCodes = [10]string{"0100111", "0110011", "0011011", "0100001", "0011101", "0111001", "0000101", "0010001", "0001001", "0010111"}
	rCodes = [10]string{"1110010", "1100110", "1101100", "1000010", "1011100", "1001110", "1010000", "1000100", "1001000", "1110100"}

	// parity of the six left-hand digits, selected by the first digit
	parityTable = [10]string{"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG", "LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL"}
)

// Symbol is an encoded EAN-13 barcode. It also satisfies image.Image as a
// PatternLength x 1 strip so it can be scaled like any other bitmap.
type Symbol struct {
	// Digits holds the 13 digits printed under the bars.
	Digits string
	// Pattern holds PatternLength '0'/'1' modules, '1' being a bar.
	Pattern string
}

// Encode strips every non-digit from digits and encodes the remainder. Twelve
// digits get a computed check digit appended; thirteen are used as given and
// the last one is not verified (see Validate).
func Encode(digits string) (*Symbol, error) {
	full, err := Normalize(digits)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.Grow(PatternLength)
	b.WriteString(startGuard)

	first := full[0] - '0'
	parity := parityTable[first]
	for i := 0; i < 6; i++ {
		d := full[1+i] - '0'
		if parity[i] == 'L' {
			b.WriteString(lCodes[d])
		} else {
			b.WriteString(gCodes[d])
		}
	}
	b.WriteString(centerGuard)
	for i := 7; i < 13; i++ {
		b.WriteString(rCodes[full[i]-'0'])
	}
	b.WriteString(endGuard)

	return &Symbol{Digits: full, Pattern: b.String()}, nil
}

// Normalize returns the 13-digit form of digits without encoding it.
func Normalize(digits string) (string, error) {
	ds := onlyDigits(digits)
	switch len(ds) {
	case 12:
		return ds + string('0'+CheckDigit(ds)), nil
	case 13:
		return ds, nil
	default:
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, len(ds))
	}
}

// CheckDigit computes the EAN-13 check digit of a 12-digit payload: weight 1
// on even 0-based positions, weight 3 on odd ones. Non-digit runes are
// ignored.
func CheckDigit(payload string) byte {
	sum := 0
	i := 0
	for _, r := range payload {
		if r < '0' || r > '9' {
			continue
		}
		d := int(r - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
		i++
	}
	return byte((10 - sum%10) % 10)
}

// Validate reports whether a 13-digit code carries the correct check digit.
// Encode never calls it.
func Validate(code string) error {
	ds := onlyDigits(code)
	if len(ds) != 13 {
		return fmt.Errorf("%w: got %d", ErrInvalidLength, len(ds))
	}
	if want := CheckDigit(ds[:12]); ds[12]-'0' != want {
		return fmt.Errorf("barcode: check digit %c, want %d", ds[12], want)
	}
	return nil
}

// CheckDigitValid reports whether the symbol's 13th digit matches the
// computed one.
func (s *Symbol) CheckDigitValid() bool {
	return Validate(s.Digits) == nil
}

// Modules returns the pattern as booleans, true for a bar.
func (s *Symbol) Modules() []bool {
	out := make([]bool, len(s.Pattern))
	for i := range s.Pattern {
		out[i] = s.Pattern[i] == '1'
	}
	return out
}

func (s *Symbol) String() string {
	return fmt.Sprintf("EAN13(%s)", s.Digits)
}

// ColorModel implements image.Image.
func (s *Symbol) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements image.Image.
func (s *Symbol) Bounds() image.Rectangle {
	return image.Rect(0, 0, len(s.Pattern), 1)
}

// At implements image.Image.
func (s *Symbol) At(x, y int) color.Color {
	if x >= 0 && x < len(s.Pattern) && y == 0 && s.Pattern[x] == '1' {
		return color.Black
	}
	return color.White
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
