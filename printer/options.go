package printer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	imgInternal "github.com/AlexStarov/escpos-label/image"
)

// Strategy selects the framing protocol for a job.
type Strategy int

const (
	// StrategyRaster sends GS v 0 stripes.
	StrategyRaster Strategy = iota
	// StrategyColumnBand sends ESC * 8-row bands.
	StrategyColumnBand
)

func (s Strategy) String() string {
	switch s {
	case StrategyRaster:
		return "raster"
	case StrategyColumnBand:
		return "band"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts raster/gsv0 and band/esc*.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raster", "gsv0", "gs_v0":
		return StrategyRaster, nil
	case "band", "esc*", "esc_star", "fallback":
		return StrategyColumnBand, nil
	}
	return StrategyRaster, fmt.Errorf("%w: unknown strategy %q", ErrInvalidOptions, s)
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// PrintOptions is the immutable per-job configuration. Build it with
// DefaultPrintOptions and Overrides.Apply.
type PrintOptions struct {
	WidthMM  float64
	HeightMM float64
	DPI      int

	Strategy      Strategy
	ForceFallback bool
	AllowFallback bool

	StripeHeight int
	RasterMode   byte
	BitReverse   bool
	Invert       bool
	Rotate180    bool

	SplitTwoPhase    bool
	UpperPartLines   int
	FeedBetweenParts int
	SettleDelay      time.Duration

	StripeDelay time.Duration
	GroupSize   int
	GroupDelay  time.Duration
	BandDelay   time.Duration

	StatusPoll     bool
	StatusFunction byte

	// DeviceRowBytes > 0 pads every row to the print head width.
	DeviceRowBytes int
	Align          imgInternal.Alignment

	// MaxStripeBytes > 0 is the device input buffer; no frame payload may
	// exceed it.
	MaxStripeBytes int

	ClearBeforePrint bool
	FeedAfterLines   int
}

const (
	DefaultDPI          = 203
	DefaultStripeHeight = 32
)

// DefaultPrintOptions returns the tuned defaults for a 48 mm (384 dot) head.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{
		WidthMM:          48,
		HeightMM:         50,
		DPI:              DefaultDPI,
		Strategy:         StrategyRaster,
		AllowFallback:    true,
		StripeHeight:     DefaultStripeHeight,
		RasterMode:       0,
		Rotate180:        true,
		UpperPartLines:   200,
		FeedBetweenParts: 4,
		SettleDelay:      300 * time.Millisecond,
		StripeDelay:      50 * time.Millisecond,
		GroupSize:        4,
		GroupDelay:       400 * time.Millisecond,
		BandDelay:        10 * time.Millisecond,
		StatusFunction:   1,
		Align:            imgInternal.Alignment{Mode: imgInternal.AlignCenter},
	}
}

// MMToDots converts millimetres to dots at dpi, rounding half away from zero.
func MMToDots(mm float64, dpi int) int {
	return int(math.Round(mm * float64(dpi) / 25.4))
}

func (o PrintOptions) WidthDots() int  { return MMToDots(o.WidthMM, o.DPI) }
func (o PrintOptions) HeightDots() int { return MMToDots(o.HeightMM, o.DPI) }

// Selected returns the framing strategy for the job. ForceFallback always
// wins, whatever AllowFallback says; AllowFallback only enables the retry
// hint after a raster job.
func (o PrintOptions) Selected() Strategy {
	if o.ForceFallback {
		return StrategyColumnBand
	}
	return o.Strategy
}

// Validate checks ranges; every error wraps ErrInvalidOptions.
func (o PrintOptions) Validate() error {
	bad := func(format string, v ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, v...))
	}

	switch {
	case o.DPI <= 0:
		return bad("dpi %d must be positive", o.DPI)
	case o.WidthMM <= 0 || o.HeightMM <= 0:
		return bad("label size %.1fx%.1f mm must be positive", o.WidthMM, o.HeightMM)
	case o.StripeHeight <= 0 || o.StripeHeight > 0xFFFF:
		return bad("stripe height %d out of range 1..65535", o.StripeHeight)
	case o.RasterMode > 2:
		return bad("raster mode %d out of range 0..2", o.RasterMode)
	case o.Strategy != StrategyRaster && o.Strategy != StrategyColumnBand:
		return bad("unknown strategy %d", int(o.Strategy))
	case o.SplitTwoPhase && o.UpperPartLines <= 0:
		return bad("upper part lines %d must be positive when splitting", o.UpperPartLines)
	case o.FeedBetweenParts < 0 || o.FeedAfterLines < 0:
		return bad("feed line counts must not be negative")
	case o.StripeDelay < 0 || o.GroupDelay < 0 || o.BandDelay < 0 || o.SettleDelay < 0:
		return bad("delays must not be negative")
	case o.GroupSize < 0:
		return bad("group size %d must not be negative", o.GroupSize)
	case o.StatusPoll && (o.StatusFunction < 1 || o.StatusFunction > 4):
		return bad("status function %d out of range 1..4", o.StatusFunction)
	case o.DeviceRowBytes < 0 || o.DeviceRowBytes > 0xFFFF:
		return bad("device row bytes %d out of range", o.DeviceRowBytes)
	case o.MaxStripeBytes < 0:
		return bad("max stripe bytes %d must not be negative", o.MaxStripeBytes)
	}
	return nil
}

// Duration unmarshals from JSON seconds (0.05) or a duration string ("50ms").
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		*d = Duration(v)
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: duration %s: %v", ErrInvalidOptions, s, err)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Overrides is the caller-supplied JSON "options" object. Nil fields keep the
// base value.
type Overrides struct {
	WidthMM  *float64 `json:"width_mm,omitempty"`
	HeightMM *float64 `json:"height_mm,omitempty"`
	DPI      *int     `json:"dpi,omitempty"`

	Strategy      *Strategy `json:"strategy,omitempty"`
	ForceFallback *bool     `json:"force_fallback,omitempty"`
	AllowFallback *bool     `json:"allow_esc_star_fallback,omitempty"`

	StripeHeight *int  `json:"stripe_height,omitempty"`
	RasterMode   *int  `json:"gs_v0_mode,omitempty"`
	BitReverse   *bool `json:"bit_reverse,omitempty"`
	Invert       *bool `json:"invert,omitempty"`
	Rotate180    *bool `json:"rotate_180,omitempty"`

	SplitTwoPhase    *bool     `json:"split_two_phase,omitempty"`
	UpperPartLines   *int      `json:"upper_part_lines,omitempty"`
	FeedBetweenParts *int      `json:"feed_between_parts_lf,omitempty"`
	SettleDelay      *Duration `json:"settle_delay,omitempty"`

	StripeDelay *Duration `json:"stripe_delay,omitempty"`
	GroupSize   *int      `json:"stripe_group_size,omitempty"`
	GroupDelay  *Duration `json:"stripe_group_delay,omitempty"`
	BandDelay   *Duration `json:"band_delay,omitempty"`

	StatusPoll     *bool `json:"status_poll,omitempty"`
	StatusFunction *int  `json:"status_function,omitempty"`

	DeviceRowBytes *int    `json:"device_row_bytes,omitempty"`
	Align          *string `json:"align,omitempty"`
	AlignShift     *int    `json:"align_shift,omitempty"`
	MaxStripeBytes *int    `json:"max_stripe_bytes,omitempty"`

	ClearBeforePrint *bool `json:"clear_before_print,omitempty"`
	FeedAfterLines   *int  `json:"feed_after_lines,omitempty"`
}

// ParseOverrides decodes an options object. Unknown keys are ignored so
// layout keys (fonts etc.) can share the object.
func ParseOverrides(data []byte) (Overrides, error) {
	var ov Overrides
	if len(strings.TrimSpace(string(data))) == 0 {
		return ov, nil
	}
	if err := json.Unmarshal(data, &ov); err != nil {
		return ov, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return ov, nil
}

// Apply merges ov onto base and validates the result.
func (ov Overrides) Apply(base PrintOptions) (PrintOptions, error) {
	o := base

	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setB := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setD := func(dst *time.Duration, src *Duration) {
		if src != nil {
			*dst = time.Duration(*src)
		}
	}
	setByte := func(dst *byte, src *int, name string) error {
		if src == nil {
			return nil
		}
		if *src < 0 || *src > 0xFF {
			return fmt.Errorf("%w: %s %d out of byte range", ErrInvalidOptions, name, *src)
		}
		*dst = byte(*src)
		return nil
	}

	setF(&o.WidthMM, ov.WidthMM)
	setF(&o.HeightMM, ov.HeightMM)
	setI(&o.DPI, ov.DPI)
	if ov.Strategy != nil {
		o.Strategy = *ov.Strategy
	}
	setB(&o.ForceFallback, ov.ForceFallback)
	setB(&o.AllowFallback, ov.AllowFallback)
	setI(&o.StripeHeight, ov.StripeHeight)
	if err := setByte(&o.RasterMode, ov.RasterMode, "gs_v0_mode"); err != nil {
		return base, err
	}
	setB(&o.BitReverse, ov.BitReverse)
	setB(&o.Invert, ov.Invert)
	setB(&o.Rotate180, ov.Rotate180)
	setB(&o.SplitTwoPhase, ov.SplitTwoPhase)
	setI(&o.UpperPartLines, ov.UpperPartLines)
	setI(&o.FeedBetweenParts, ov.FeedBetweenParts)
	setD(&o.SettleDelay, ov.SettleDelay)
	setD(&o.StripeDelay, ov.StripeDelay)
	setI(&o.GroupSize, ov.GroupSize)
	setD(&o.GroupDelay, ov.GroupDelay)
	setD(&o.BandDelay, ov.BandDelay)
	setB(&o.StatusPoll, ov.StatusPoll)
	if err := setByte(&o.StatusFunction, ov.StatusFunction, "status_function"); err != nil {
		return base, err
	}
	setI(&o.DeviceRowBytes, ov.DeviceRowBytes)
	if ov.Align != nil {
		mode, err := imgInternal.ParseAlignment(*ov.Align)
		if err != nil {
			return base, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		o.Align.Mode = mode
	}
	setI(&o.Align.Shift, ov.AlignShift)
	setI(&o.MaxStripeBytes, ov.MaxStripeBytes)
	setB(&o.ClearBeforePrint, ov.ClearBeforePrint)
	setI(&o.FeedAfterLines, ov.FeedAfterLines)

	if err := o.Validate(); err != nil {
		return base, err
	}
	return o, nil
}
