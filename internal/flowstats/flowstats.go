// Package flowstats summarises optical-flow fields and derives the padding
// a warp needs so that every displacement stays inside the padded frame.
package flowstats

import (
	"math"
	"sort"

	"github.com/andresmejia3/warpframe/internal/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PaddingStep is the granularity of suggested padding fractions, matching
// the step of the warp node's padding input.
const PaddingStep = 0.01

const stepsPerUnit = 100

// Summary describes the displacement magnitudes of a flow field.
type Summary struct {
	Height, Width int

	Mean   float64
	StdDev float64
	Median float64
	P95    float64
	Max    float64

	MaxAbsDX float64
	MaxAbsDY float64

	// NonFinite counts vectors with a NaN or infinite component. They are
	// excluded from every other statistic.
	NonFinite int
}

// Summarize computes magnitude statistics over every finite vector.
func Summarize(flow *types.FlowField) Summary {
	s := Summary{Height: flow.Height, Width: flow.Width}
	n := flow.Height * flow.Width
	mags := make([]float64, 0, n)
	absDX := make([]float64, 0, n)
	absDY := make([]float64, 0, n)

	for i := 0; i < len(flow.Vec); i += 2 {
		dx, dy := float64(flow.Vec[i]), float64(flow.Vec[i+1])
		if !isFinite(dx) || !isFinite(dy) {
			s.NonFinite++
			continue
		}
		mags = append(mags, math.Hypot(dx, dy))
		absDX = append(absDX, math.Abs(dx))
		absDY = append(absDY, math.Abs(dy))
	}
	if len(mags) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.PopMeanStdDev(mags, nil)
	s.Max = floats.Max(mags)
	s.MaxAbsDX = floats.Max(absDX)
	s.MaxAbsDY = floats.Max(absDY)

	sort.Float64s(mags)
	s.Median = stat.Quantile(0.5, stat.Empirical, mags, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, mags, nil)
	return s
}

// Reach is the number of padding samples needed per side so that every
// finite integer-rounded displacement lands inside the padded frame.
// Displacements beyond math.MaxInt32 report math.MaxInt32.
func (s Summary) Reach() int {
	r := math.Ceil(math.Max(s.MaxAbsDX, s.MaxAbsDY))
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(r)
}

// SuggestPadding returns the smallest padding fraction, in PaddingStep
// increments, whose pad width covers the flow's reach. The result may
// exceed 1 when the reach is larger than the flow itself.
func SuggestPadding(flow *types.FlowField) float64 {
	return suggest(Summarize(flow).Reach(), max(flow.Height, flow.Width))
}

func suggest(reach, side int) float64 {
	if reach <= 0 || side <= 0 {
		return 0
	}
	steps := (reach*stepsPerUnit + side - 1) / side
	f := float64(steps) / stepsPerUnit
	// Guard against float rounding in side*f landing just below reach.
	for int(math.Floor(float64(side)*f)) < reach {
		steps++
		f = float64(steps) / stepsPerUnit
	}
	return f
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
