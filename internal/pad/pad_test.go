package pad

import (
	"errors"
	"testing"

	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(vals ...float32) *types.Frame {
	return &types.Frame{Height: 1, Width: len(vals), Channels: 1, Pix: vals}
}

// middleRow pads a single-row frame and returns the row that holds the data.
func middleRow(t *testing.T, f *types.Frame, width int, mode Mode) []float32 {
	t.Helper()
	out, err := Frame(f, width, mode)
	require.NoError(t, err)
	require.Equal(t, 1+2*width, out.Height)
	start := out.Offset(width, 0)
	return out.Pix[start : start+out.Width]
}

func TestFrameMatchesNumpy(t *testing.T) {
	tests := []struct {
		name  string
		in    []float32
		width int
		mode  Mode
		want  []float32
	}{
		{"reflect", []float32{1, 2, 3}, 2, Reflect, []float32{3, 2, 1, 2, 3, 2, 1}},
		{"reflect five", []float32{1, 2, 3, 4, 5}, 2, Reflect, []float32{3, 2, 1, 2, 3, 4, 5, 4, 3}},
		{"reflect wider than axis", []float32{1, 2, 3}, 5, Reflect, []float32{2, 1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2}},
		{"reflect single sample", []float32{7}, 2, Reflect, []float32{7, 7, 7, 7, 7}},
		{"edge", []float32{1, 2, 3}, 2, Edge, []float32{1, 1, 1, 2, 3, 3, 3}},
		{"wrap", []float32{1, 2, 3}, 2, Wrap, []float32{2, 3, 1, 2, 3, 1, 2}},
		{"wrap wider than axis", []float32{1, 2}, 3, Wrap, []float32{2, 1, 2, 1, 2, 1, 2, 1}},
		{"constant", []float32{1, 2, 3}, 2, Constant, []float32{0, 0, 1, 2, 3, 0, 0}},
		{"zero width", []float32{1, 2, 3}, 0, Reflect, []float32{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := middleRow(t, row(tt.in...), tt.width, tt.mode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFramePadsBothAxesAndKeepsChannels(t *testing.T) {
	// 2x2 frame with 2 channels: channel 1 is channel 0 negated.
	f := types.NewFrame(2, 2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			v := float32(y*2 + x + 1)
			f.Set(y, x, 0, v)
			f.Set(y, x, 1, -v)
		}
	}

	out, err := Frame(f, 1, Edge)
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 4, 2}, out.Shape())

	// Corners replicate the nearest corner sample.
	assert.Equal(t, float32(1), out.At(0, 0, 0))
	assert.Equal(t, float32(-1), out.At(0, 0, 1))
	assert.Equal(t, float32(4), out.At(3, 3, 0))
	assert.Equal(t, float32(2), out.At(0, 3, 0))
	assert.Equal(t, float32(3), out.At(3, 0, 0))
	// Interior untouched.
	assert.Equal(t, float32(4), out.At(2, 2, 0))
}

func TestFrameDoesNotMutateInput(t *testing.T) {
	f := row(1, 2, 3)
	before := f.Clone()
	_, err := Frame(f, 3, Reflect)
	require.NoError(t, err)
	assert.Equal(t, before, f)
}

func TestFrameInvalidMode(t *testing.T) {
	_, err := Frame(row(1, 2), 1, Mode(42))
	var modeErr *InvalidModeError
	require.True(t, errors.As(err, &modeErr), "got %v", err)
	assert.Equal(t, "Mode(42)", modeErr.Mode)
}

func TestFrameNegativeWidth(t *testing.T) {
	_, err := Frame(row(1, 2), -1, Edge)
	var degenerate *types.DegenerateInputError
	require.True(t, errors.As(err, &degenerate), "got %v", err)
}

func TestFrameEmptyAxisNonConstant(t *testing.T) {
	empty := &types.Frame{Height: 0, Width: 3, Channels: 1}
	_, err := Frame(empty, 1, Reflect)
	var shape *types.ShapeMismatchError
	require.True(t, errors.As(err, &shape), "got %v", err)

	out, err := Frame(empty, 1, Constant)
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 5, 1}, out.Shape())
}

func TestFlowAlwaysZeroPadded(t *testing.T) {
	flow := types.UniformFlow(2, 3, 1.5, -2)
	out, err := Flow(flow, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Height)
	assert.Equal(t, 7, out.Width)

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			dx, dy := out.At(y, x)
			interior := y >= 2 && y < 4 && x >= 2 && x < 5
			if interior {
				assert.Equal(t, float32(1.5), dx)
				assert.Equal(t, float32(-2), dy)
			} else {
				assert.Zero(t, dx, "(%d,%d)", y, x)
				assert.Zero(t, dy, "(%d,%d)", y, x)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	assert.Equal(t, []string{"reflect", "constant", "edge", "wrap"}, Names())

	_, err := ParseMode("symmetric")
	var modeErr *InvalidModeError
	require.True(t, errors.As(err, &modeErr))
	assert.Equal(t, "symmetric", modeErr.Mode)
}

func TestModeText(t *testing.T) {
	b, err := Wrap.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "wrap", string(b))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("edge")))
	assert.Equal(t, Edge, m)
	assert.Error(t, m.UnmarshalText([]byte("mirror")))

	_, err = Mode(-1).MarshalText()
	assert.Error(t, err)
}
