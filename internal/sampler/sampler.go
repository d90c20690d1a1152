// Package sampler implements backward-flow resampling.
//
// A Sampler receives its source frame in transposed orientation: axis 0 of
// src runs along x and axis 1 along y, while the flow keeps the usual
// (y, x) layout. For every destination (y, x) of the flow grid the sample
// is read from src at (x+dx, y+dy) and written to the output at (x, y), so
// the output shares the source orientation. Reads that land outside src
// are zero.
package sampler

import (
	"fmt"
	"math"
	"sort"

	"github.com/andresmejia3/warpframe/internal/types"
)

// Sampler resamples a transposed source frame through a backward flow.
type Sampler interface {
	Sample(src *types.Frame, flow *types.FlowField) (*types.Frame, error)
}

// Func adapts an ordinary function to the Sampler interface.
type Func func(src *types.Frame, flow *types.FlowField) (*types.Frame, error)

// Sample calls fn(src, flow).
func (fn Func) Sample(src *types.Frame, flow *types.FlowField) (*types.Frame, error) {
	return fn(src, flow)
}

// Default is the sampler used when none is configured.
const Default = "bilinear"

var registry = map[string]Sampler{
	"bilinear": Bilinear{},
	"nearest":  Nearest{},
}

// ByName returns the sampler registered under name.
func ByName(name string) (Sampler, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown sampler %q: must be one of %v", name, Names())
	}
	return s, nil
}

// Names lists the registered sampler names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkShape(src *types.Frame, flow *types.FlowField) error {
	if src.Height != flow.Width || src.Width != flow.Height {
		return &types.ShapeMismatchError{
			Op:   "sample",
			Want: [2]int{flow.Width, flow.Height},
			Got:  [2]int{src.Height, src.Width},
		}
	}
	return nil
}

// Bilinear interpolates between the four nearest source samples. Taps
// outside the source read as zero, so the result fades to black past the
// border instead of clamping.
type Bilinear struct{}

func (Bilinear) Sample(src *types.Frame, flow *types.FlowField) (*types.Frame, error) {
	if err := checkShape(src, flow); err != nil {
		return nil, err
	}
	c := src.Channels
	out := types.NewFrame(src.Height, src.Width, c)
	for y := 0; y < flow.Height; y++ {
		for x := 0; x < flow.Width; x++ {
			dx, dy := flow.At(y, x)
			// u indexes axis 0 (x), v indexes axis 1 (y).
			u := float64(x) + float64(dx)
			v := float64(y) + float64(dy)
			dst := out.Pix[out.Offset(x, y) : out.Offset(x, y)+c]
			if !finite(u) || !finite(v) {
				continue
			}

			u0 := math.Floor(u)
			v0 := math.Floor(v)
			fu := float32(u - u0)
			fv := float32(v - v0)
			iu, iv := int(u0), int(v0)

			if fu == 0 && fv == 0 {
				if inside(src, iu, iv) {
					copy(dst, src.Pix[src.Offset(iu, iv):src.Offset(iu, iv)+c])
				}
				continue
			}

			accumulate(dst, src, iu, iv, (1-fu)*(1-fv))
			accumulate(dst, src, iu+1, iv, fu*(1-fv))
			accumulate(dst, src, iu, iv+1, (1-fu)*fv)
			accumulate(dst, src, iu+1, iv+1, fu*fv)
		}
	}
	return out, nil
}

// finite rejects NaN, infinities and coordinates too far out to convert to int.
func finite(f float64) bool {
	return !math.IsNaN(f) && math.Abs(f) < 1<<30
}

func inside(f *types.Frame, i, j int) bool {
	return i >= 0 && i < f.Height && j >= 0 && j < f.Width
}

func accumulate(dst []float32, src *types.Frame, i, j int, w float32) {
	if w == 0 || !inside(src, i, j) {
		return
	}
	off := src.Offset(i, j)
	for k := range dst {
		dst[k] += w * src.Pix[off+k]
	}
}

// Nearest picks the closest source sample, rounding halves away from zero.
type Nearest struct{}

func (Nearest) Sample(src *types.Frame, flow *types.FlowField) (*types.Frame, error) {
	if err := checkShape(src, flow); err != nil {
		return nil, err
	}
	c := src.Channels
	out := types.NewFrame(src.Height, src.Width, c)
	for y := 0; y < flow.Height; y++ {
		for x := 0; x < flow.Width; x++ {
			dx, dy := flow.At(y, x)
			u := math.Round(float64(x) + float64(dx))
			v := math.Round(float64(y) + float64(dy))
			if !finite(u) || !finite(v) {
				continue
			}
			iu, iv := int(u), int(v)
			if !inside(src, iu, iv) {
				continue
			}
			copy(out.Pix[out.Offset(x, y):out.Offset(x, y)+c], src.Pix[src.Offset(iu, iv):src.Offset(iu, iv)+c])
		}
	}
	return out, nil
}
