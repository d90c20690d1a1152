package node

import (
	"errors"
	"testing"

	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/andresmejia3/warpframe/internal/warp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarpFrameDescriptor(t *testing.T) {
	d, ok := Lookup(WarpFrameName)
	require.True(t, ok)
	assert.Equal(t, "WarpFrame (Custom)", d.DisplayName)
	assert.Equal(t, "WarpFusion", d.Category)
	assert.Equal(t, []string{TypeImage}, d.Outputs)

	padding, ok := d.Input("padding")
	require.True(t, ok)
	assert.Equal(t, 0.2, padding.Default)
	assert.Equal(t, 0.0, padding.Min)
	assert.Equal(t, 1.0, padding.Max)
	assert.Equal(t, 0.01, padding.Step)

	mode, ok := d.Input("padding_mode")
	require.True(t, ok)
	assert.Equal(t, "reflect", mode.Default)
	assert.Equal(t, []string{"reflect", "constant", "edge", "wrap"}, mode.Choices)

	var names []string
	for _, in := range d.Inputs {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{"previous_frame", "flow", "padding", "padding_mode"}, names)

	_, ok = d.Input("strength")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	all := Registry()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
	assert.Equal(t, "WarpFrame (Custom)", DisplayNames()[WarpFrameName])

	_, ok := Lookup("FrameNode")
	assert.False(t, ok)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	d, _ := Lookup(WarpFrameName)
	assert.Panics(t, func() { register(d) })
}

func TestCallAppliesDefaults(t *testing.T) {
	d, _ := Lookup(WarpFrameName)
	frame := types.NewFrame(4, 4, 3)
	frame.Set(1, 1, 0, 0.5)

	out, err := d.Call(Args{
		"previous_frame": types.Batch{frame},
		"flow":           types.NewFlowField(4, 4),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	batch, ok := out[0].(types.Batch)
	require.True(t, ok)
	assert.Equal(t, frame.Pix, batch[0].Pix)
}

func TestCallMissingRequired(t *testing.T) {
	d, _ := Lookup(WarpFrameName)
	_, err := d.Call(Args{"previous_frame": types.Batch{types.NewFrame(1, 1, 1)}})
	assert.ErrorContains(t, err, `missing required input "flow"`)
}

func TestHandlerAcceptsModeValue(t *testing.T) {
	h := NewWarpFrameHandler(warp.New(sampler.Nearest{}))
	frame := types.NewFrame(2, 2, 1)
	out, err := h(Args{
		"previous_frame": types.Batch{frame},
		"flow":           types.NewFlowField(2, 2),
		"padding":        0.5,
		"padding_mode":   pad.Wrap,
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestHandlerRejectsBadInputs(t *testing.T) {
	h := NewWarpFrameHandler(warp.New(nil))
	good := Args{
		"previous_frame": types.Batch{types.NewFrame(2, 2, 1)},
		"flow":           types.NewFlowField(2, 2),
		"padding":        0.2,
		"padding_mode":   "reflect",
	}
	with := func(key string, v any) Args {
		a := Args{}
		for k, val := range good {
			a[k] = val
		}
		a[key] = v
		return a
	}

	_, err := h(with("previous_frame", types.NewFrame(2, 2, 1)))
	assert.ErrorContains(t, err, "previous_frame")
	_, err = h(with("flow", "flow.flo"))
	assert.ErrorContains(t, err, "flow")
	_, err = h(with("padding", float32(0.2)))
	assert.ErrorContains(t, err, "padding")
	_, err = h(with("padding_mode", 3))
	assert.ErrorContains(t, err, "padding_mode")

	_, err = h(with("padding_mode", "mirror"))
	var modeErr *pad.InvalidModeError
	assert.True(t, errors.As(err, &modeErr), "got %v", err)
}
