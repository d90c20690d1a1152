package sampler

import (
	"errors"
	"math"
	"testing"

	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// column builds a transposed single-row image: values run along axis 0 (x).
func column(vals ...float32) *types.Frame {
	return &types.Frame{Height: len(vals), Width: 1, Channels: 1, Pix: vals}
}

func TestBilinearZeroFlowIsExact(t *testing.T) {
	src := types.NewFrame(3, 2, 2)
	for i := range src.Pix {
		src.Pix[i] = float32(i)*0.37 + 0.01
	}
	flow := types.NewFlowField(2, 3)

	out, err := Bilinear{}.Sample(src, flow)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestBilinearInterpolates(t *testing.T) {
	src := column(0, 10)
	flow := types.UniformFlow(1, 2, 0.5, 0)

	out, err := Bilinear{}.Sample(src, flow)
	require.NoError(t, err)
	// x=0 reads halfway between 0 and 10; x=1 reads halfway between 10 and
	// the zero beyond the border.
	assert.InDelta(t, 5.0, out.At(0, 0, 0), 1e-6)
	assert.InDelta(t, 5.0, out.At(1, 0, 0), 1e-6)
}

func TestBilinearOutsideIsZero(t *testing.T) {
	src := column(4, 4, 4)
	flow := types.UniformFlow(1, 3, -10, 0)

	out, err := Bilinear{}.Sample(src, flow)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, out.Pix)
}

func TestSamplersIgnoreNonFiniteFlow(t *testing.T) {
	src := column(1, 2)
	flow := types.UniformFlow(1, 2, float32(math.NaN()), 0)
	flow.Set(0, 1, float32(math.Inf(1)), 0)

	for _, name := range Names() {
		s, err := ByName(name)
		require.NoError(t, err)
		out, err := s.Sample(src, flow)
		require.NoError(t, err, name)
		assert.Equal(t, []float32{0, 0}, out.Pix, name)
	}
}

func TestNearestRounds(t *testing.T) {
	src := column(1, 2, 3, 4)
	flow := types.UniformFlow(1, 4, 0.6, 0)

	out, err := Nearest{}.Sample(src, flow)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 4, 0}, out.Pix)
}

func TestVerticalDisplacementReadsAxisOne(t *testing.T) {
	// src is transposed: axis 1 runs along y. Two rows in frame space.
	src := &types.Frame{Height: 1, Width: 2, Channels: 1, Pix: []float32{1, 2}}
	flow := types.UniformFlow(2, 1, 0, 1)

	out, err := Bilinear{}.Sample(src, flow)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 0}, out.Pix)
}

func TestShapeMismatch(t *testing.T) {
	src := types.NewFrame(4, 4, 1)
	flow := types.NewFlowField(4, 5)

	for _, s := range []Sampler{Bilinear{}, Nearest{}} {
		_, err := s.Sample(src, flow)
		var shape *types.ShapeMismatchError
		require.True(t, errors.As(err, &shape), "got %v", err)
		assert.Equal(t, [2]int{5, 4}, shape.Want)
		assert.Equal(t, [2]int{4, 4}, shape.Got)
	}
}

func TestByName(t *testing.T) {
	assert.Equal(t, []string{"bilinear", "nearest"}, Names())

	s, err := ByName(Default)
	require.NoError(t, err)
	assert.IsType(t, Bilinear{}, s)

	_, err = ByName("lanczos")
	assert.Error(t, err)
}

func TestFuncAdapter(t *testing.T) {
	called := false
	var s Sampler = Func(func(src *types.Frame, flow *types.FlowField) (*types.Frame, error) {
		called = true
		return src, nil
	})
	src := column(1)
	out, err := s.Sample(src, types.NewFlowField(1, 1))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Same(t, src, out)
}
