package flowstats

import (
	"math"
	"testing"

	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/andresmejia3/warpframe/internal/warp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeUniform(t *testing.T) {
	s := Summarize(types.UniformFlow(3, 4, 3, -4))
	assert.Equal(t, 3, s.Height)
	assert.Equal(t, 4, s.Width)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 0.0, s.StdDev, 1e-9)
	assert.InDelta(t, 5.0, s.Median, 1e-9)
	assert.InDelta(t, 5.0, s.P95, 1e-9)
	assert.InDelta(t, 5.0, s.Max, 1e-9)
	assert.Equal(t, 3.0, s.MaxAbsDX)
	assert.Equal(t, 4.0, s.MaxAbsDY)
	assert.Equal(t, 4, s.Reach())
}

func TestSummarizeSkipsNonFinite(t *testing.T) {
	flow := types.NewFlowField(1, 3)
	flow.Set(0, 0, float32(math.NaN()), 0)
	flow.Set(0, 1, 0, float32(math.Inf(-1)))
	flow.Set(0, 2, -2.5, 0)

	s := Summarize(flow)
	assert.Equal(t, 2, s.NonFinite)
	assert.Equal(t, 2.5, s.Max)
	assert.Equal(t, 3, s.Reach())
}

func TestReachSaturates(t *testing.T) {
	flow := types.NewFlowField(2, 2)
	flow.Set(1, 1, 3e38, -1)
	s := Summarize(flow)
	assert.Equal(t, math.MaxInt32, s.Reach())

	// The suggestion stays finite and still exceeds any reasonable padding.
	assert.Greater(t, SuggestPadding(flow), 1.0)
}

func TestSummarizeAllNonFinite(t *testing.T) {
	flow := types.UniformFlow(2, 2, float32(math.NaN()), 0)
	s := Summarize(flow)
	assert.Equal(t, 4, s.NonFinite)
	assert.Zero(t, s.Max)
	assert.Zero(t, SuggestPadding(flow))
}

func TestSummarizeQuantiles(t *testing.T) {
	flow := types.NewFlowField(1, 4)
	for x, dx := range []float32{1, 2, 3, 4} {
		flow.Set(0, x, dx, 0)
	}
	s := Summarize(flow)
	assert.InDelta(t, 2.5, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(1.25), s.StdDev, 1e-9)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, 4.0, s.P95)
}

func TestSuggestPaddingCoversReach(t *testing.T) {
	tests := []struct {
		h, w   int
		dx, dy float32
		want   float64
	}{
		{10, 10, 3, -4, 0.4},
		{4, 4, 0, 0, 0},
		{7, 3, 1, 0, 0.15},
		{100, 30, 0.2, 0, 0.01},
		{5, 5, 9, 0, 1.8},
	}
	for _, tt := range tests {
		flow := types.UniformFlow(tt.h, tt.w, tt.dx, tt.dy)
		got := SuggestPadding(flow)
		assert.InDelta(t, tt.want, got, 1e-9, "%dx%d (%v,%v)", tt.h, tt.w, tt.dx, tt.dy)

		p, err := warp.PadWidth(flow, got)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, Summarize(flow).Reach())
	}
}
