package util

import (
	"fmt"
	"math/bits"
)

// IntLowHigh encodes n as b little-endian bytes (1–4), the way ESC/POS
// parameters such as xL xH yL yH are sent.
func IntLowHigh(n int, b int) ([]byte, error) {
	if b < 1 || b > 4 {
		return nil, fmt.Errorf("IntLowHigh: 1–4 bytes only, got %d", b)
	}
	if n < 0 || (b < 4 && n >= 1<<(8*uint(b))) {
		return nil, fmt.Errorf("IntLowHigh: %d does not fit in %d bytes", n, b)
	}

	out := make([]byte, b)
	for i := 0; i < b; i++ {
		out[i] = byte(n % 256)
		n = n / 256
	}
	return out, nil
}

// LowHigh16 splits a 16-bit value into its low and high byte.
func LowHigh16(n int) (lo, hi byte) {
	return byte(n & 0xFF), byte((n >> 8) & 0xFF)
}

// ReverseBits mirrors the bit order of a single byte (MSB becomes LSB).
func ReverseBits(b byte) byte {
	return bits.Reverse8(b)
}
