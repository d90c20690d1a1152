package node

import (
	"fmt"

	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/andresmejia3/warpframe/internal/warp"
)

// Names and defaults of the warp node.
const (
	WarpFrameName      = "CustomWarpFrame"
	DefaultPadding     = 0.2
	DefaultPaddingMode = "reflect"
)

// WarpFrameInputs is the input schema of CustomWarpFrame.
var WarpFrameInputs = []Input{
	{Name: "previous_frame", Type: TypeImage},
	{Name: "flow", Type: TypeBackwardFlow},
	{Name: "padding", Type: TypeFloat, Default: DefaultPadding, Min: 0.0, Max: 1.0, Step: 0.01},
	{Name: "padding_mode", Type: TypeChoice, Default: DefaultPaddingMode, Choices: pad.Names()},
}

func init() {
	register(Descriptor{
		Name:        WarpFrameName,
		DisplayName: "WarpFrame (Custom)",
		Category:    "WarpFusion",
		Inputs:      WarpFrameInputs,
		Outputs:     []string{TypeImage},
		Handler:     NewWarpFrameHandler(warp.New(sampler.Bilinear{})),
	})
}

// NewWarpFrameHandler returns a Handler that warps previous_frame through
// flow using w. padding_mode may be given as a pad.Mode or its literal.
func NewWarpFrameHandler(w *warp.Warper) Handler {
	return func(args Args) ([]any, error) {
		frame, ok := args["previous_frame"].(types.Batch)
		if !ok {
			return nil, fmt.Errorf("previous_frame: expected %s, got %T", TypeImage, args["previous_frame"])
		}
		flow, ok := args["flow"].(*types.FlowField)
		if !ok {
			return nil, fmt.Errorf("flow: expected %s, got %T", TypeBackwardFlow, args["flow"])
		}
		padding, ok := args["padding"].(float64)
		if !ok {
			return nil, fmt.Errorf("padding: expected %s, got %T", TypeFloat, args["padding"])
		}

		var mode pad.Mode
		switch v := args["padding_mode"].(type) {
		case pad.Mode:
			mode = v
		case string:
			m, err := pad.ParseMode(v)
			if err != nil {
				return nil, err
			}
			mode = m
		default:
			return nil, fmt.Errorf("padding_mode: expected %s, got %T", TypeChoice, v)
		}

		warped, err := w.Warp(frame, flow, padding, mode)
		if err != nil {
			return nil, err
		}
		return []any{warped}, nil
	}
}
