// Package warp resamples a frame through a backward optical-flow field.
package warp

import (
	"fmt"
	"math"

	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
	"github.com/andresmejia3/warpframe/internal/types"
)

// maxPaddedSamples caps the element count of a padded frame
// ((H+2p) * (W+2p) * C). Larger pads are rejected as degenerate rather
// than attempted.
const maxPaddedSamples = 1 << 30

// Warper pads, resamples and crops a single frame. It holds no per-call
// state and is safe for concurrent use when its Sampler is.
type Warper struct {
	Sampler sampler.Sampler
}

// New returns a Warper using s, or the bilinear sampler when s is nil.
func New(s sampler.Sampler) *Warper {
	if s == nil {
		s = sampler.Bilinear{}
	}
	return &Warper{Sampler: s}
}

// PadWidth computes floor(max(flow.Height, flow.Width) * fraction). The
// flow's extent is used, not the frame's. Fractions that are not strictly
// positive (including NaN) give zero. A pad whose padded flow would exceed
// maxPaddedSamples is a DegenerateInputError.
func PadWidth(flow *types.FlowField, fraction float64) (int, error) {
	return padWidth(flow, fraction, 2)
}

// padWidth is PadWidth for a padded array with the given number of values
// per pixel.
func padWidth(flow *types.FlowField, fraction float64, channels int) (int, error) {
	if !(fraction > 0) {
		return 0, nil
	}
	w := math.Floor(float64(max(flow.Height, flow.Width)) * fraction)
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0, &types.DegenerateInputError{Param: "padding fraction", Value: fraction}
	}
	// Float math cannot overflow here; it saturates to +Inf.
	samples := (float64(flow.Height) + 2*w) * (float64(flow.Width) + 2*w) * float64(max(channels, 1))
	if samples > maxPaddedSamples {
		return 0, &types.DegenerateInputError{Param: "padding fraction", Value: fraction}
	}
	return int(w), nil
}

// Warp resamples batch[0] through flow and returns a one-frame batch of the
// same shape.
//
// Both inputs are padded by PadWidth(flow, fraction) samples per side, the
// flow with zeros and the frame with mode. The frame is transposed before
// padding because samplers read their source in (x, y) order, and the
// sampler output is transposed back before cropping. The crop is computed
// from the post-warp shape. No shape checks are made here; mismatches are
// reported by the padding or sampling step that first notices them.
func (w *Warper) Warp(batch types.Batch, flow *types.FlowField, fraction float64, mode pad.Mode) (types.Batch, error) {
	if len(batch) == 0 {
		return nil, &types.ShapeMismatchError{Op: "warp", Want: [2]int{flow.Height, flow.Width}}
	}
	frame := batch[0]

	p, err := padWidth(flow, fraction, max(frame.Channels, 2))
	if err != nil {
		return nil, err
	}

	paddedFlow, err := pad.Flow(flow, p)
	if err != nil {
		return nil, fmt.Errorf("pad flow: %w", err)
	}
	paddedFrame, err := pad.Frame(frame.Transpose(), p, mode)
	if err != nil {
		return nil, fmt.Errorf("pad frame: %w", err)
	}

	warped, err := w.Sampler.Sample(paddedFrame, paddedFlow)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	out := warped.Transpose()

	if p > 0 {
		out = out.Crop(p, out.Height-p, p, out.Width-p)
	}
	return types.Batch{out}, nil
}

// Frame is a convenience wrapper that warps a single frame without a batch.
func (w *Warper) Frame(frame *types.Frame, flow *types.FlowField, fraction float64, mode pad.Mode) (*types.Frame, error) {
	out, err := w.Warp(types.Batch{frame}, flow, fraction, mode)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
