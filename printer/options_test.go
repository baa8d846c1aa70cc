package printer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgInternal "github.com/AlexStarov/escpos-label/image"
)

func TestDefaultPrintOptions(t *testing.T) {
	t.Parallel()

	o := DefaultPrintOptions()
	require.NoError(t, o.Validate())
	assert.Equal(t, 384, o.WidthDots())
	assert.Equal(t, 400, o.HeightDots())
	assert.Equal(t, 32, o.StripeHeight)
	assert.Equal(t, 50*time.Millisecond, o.StripeDelay)
	assert.Equal(t, 4, o.GroupSize)
	assert.Equal(t, 400*time.Millisecond, o.GroupDelay)
	assert.Equal(t, 10*time.Millisecond, o.BandDelay)
	assert.Equal(t, 200, o.UpperPartLines)
	assert.Equal(t, 4, o.FeedBetweenParts)
	assert.False(t, o.SplitTwoPhase)
	assert.True(t, o.AllowFallback)
	assert.False(t, o.StatusPoll)
	assert.Equal(t, StrategyRaster, o.Selected())
}

func TestMMToDots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mm   float64
		dpi  int
		want int
	}{
		{48, 203, 384},
		{50, 203, 400},
		{25.4, 203, 203},
		{0, 203, 0},
		{10, 300, 118},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MMToDots(tt.mm, tt.dpi), "%v mm at %d dpi", tt.mm, tt.dpi)
	}
}

func TestPrintOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tweak func(*PrintOptions)
	}{
		{"zero stripe", func(o *PrintOptions) { o.StripeHeight = 0 }},
		{"huge stripe", func(o *PrintOptions) { o.StripeHeight = 0x10000 }},
		{"raster mode 3", func(o *PrintOptions) { o.RasterMode = 3 }},
		{"negative delay", func(o *PrintOptions) { o.StripeDelay = -time.Millisecond }},
		{"negative group", func(o *PrintOptions) { o.GroupSize = -1 }},
		{"split without upper", func(o *PrintOptions) { o.SplitTwoPhase, o.UpperPartLines = true, 0 }},
		{"status function", func(o *PrintOptions) { o.StatusPoll, o.StatusFunction = true, 9 }},
		{"dpi", func(o *PrintOptions) { o.DPI = 0 }},
		{"width", func(o *PrintOptions) { o.WidthMM = -1 }},
		{"strategy", func(o *PrintOptions) { o.Strategy = Strategy(7) }},
		{"feed", func(o *PrintOptions) { o.FeedBetweenParts = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultPrintOptions()
			tt.tweak(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)
		})
	}
}

func TestSelected_ForceFallbackWins(t *testing.T) {
	t.Parallel()

	o := DefaultPrintOptions()
	o.ForceFallback = true
	assert.Equal(t, StrategyColumnBand, o.Selected())
	o.ForceFallback = false
	o.Strategy = StrategyColumnBand
	assert.Equal(t, StrategyColumnBand, o.Selected())

	o = DefaultPrintOptions()
	o.ForceFallback, o.AllowFallback = true, false
	require.NoError(t, o.Validate())
	assert.Equal(t, StrategyColumnBand, o.Selected())
}

func TestOverrides_ForceFallbackWithoutAllow(t *testing.T) {
	t.Parallel()

	ov, err := ParseOverrides([]byte(`{"force_fallback": true, "allow_esc_star_fallback": false}`))
	require.NoError(t, err)
	o, err := ov.Apply(DefaultPrintOptions())
	require.NoError(t, err)
	assert.True(t, o.ForceFallback)
	assert.False(t, o.AllowFallback)
	assert.Equal(t, StrategyColumnBand, o.Selected())
}

func TestRasterModes(t *testing.T) {
	t.Parallel()

	for _, m := range []byte{0, 1, 2} {
		o := DefaultPrintOptions()
		o.RasterMode = m
		assert.NoError(t, o.Validate(), "mode %d", m)
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Strategy{"": StrategyRaster, "GSv0": StrategyRaster, "band": StrategyColumnBand, "esc*": StrategyColumnBand} {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrategy("laser")
	assert.ErrorIs(t, err, ErrInvalidOptions)

	b, err := json.Marshal(StrategyColumnBand)
	require.NoError(t, err)
	assert.Equal(t, `"band"`, string(b))
}

func TestOverrides_Apply(t *testing.T) {
	t.Parallel()

	ov, err := ParseOverrides([]byte(`{
		"bit_reverse": true,
		"force_fallback": true,
		"stripe_height": 24,
		"gs_v0_mode": 1,
		"stripe_delay": 0.07,
		"stripe_group_delay": "250ms",
		"split_two_phase": true,
		"device_row_bytes": 108,
		"align": "right",
		"strategy": "band",
		"font_size_title": 26
	}`))
	require.NoError(t, err)

	o, err := ov.Apply(DefaultPrintOptions())
	require.NoError(t, err)
	assert.True(t, o.BitReverse)
	assert.True(t, o.ForceFallback)
	assert.Equal(t, 24, o.StripeHeight)
	assert.Equal(t, byte(1), o.RasterMode)
	assert.Equal(t, 70*time.Millisecond, o.StripeDelay)
	assert.Equal(t, 250*time.Millisecond, o.GroupDelay)
	assert.True(t, o.SplitTwoPhase)
	assert.Equal(t, 108, o.DeviceRowBytes)
	assert.Equal(t, imgInternal.AlignRight, o.Align.Mode)
	assert.Equal(t, StrategyColumnBand, o.Strategy)

	// untouched fields keep their defaults
	assert.Equal(t, 4, o.GroupSize)
	assert.Equal(t, 200, o.UpperPartLines)
}

func TestOverrides_Errors(t *testing.T) {
	t.Parallel()

	base := DefaultPrintOptions()
	tests := []string{
		`{"stripe_height": 0}`,
		`{"gs_v0_mode": 300}`,
		`{"stripe_delay": "fast"}`,
		`{"align": "diagonal"}`,
		`{"gs_v0_mode": 3}`,
		`{"stripe_height": "tall"}`,
	}
	for _, in := range tests {
		ov, err := ParseOverrides([]byte(in))
		if err == nil {
			var got PrintOptions
			got, err = ov.Apply(base)
			assert.Equal(t, base, got, in)
		}
		assert.ErrorIs(t, err, ErrInvalidOptions, in)
	}
}

func TestParseOverrides_Empty(t *testing.T) {
	t.Parallel()

	ov, err := ParseOverrides(nil)
	require.NoError(t, err)
	o, err := ov.Apply(DefaultPrintOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultPrintOptions(), o)
}
