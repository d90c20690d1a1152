package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/andresmejia3/warpframe/internal/flowio"
	"github.com/andresmejia3/warpframe/internal/flowstats"
	"github.com/andresmejia3/warpframe/internal/imageio"
	"github.com/andresmejia3/warpframe/internal/node"
	"github.com/andresmejia3/warpframe/internal/store"
	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/andresmejia3/warpframe/internal/warp"
	"github.com/spf13/cobra"
)

var warpOpts Options

var warpCmd = &cobra.Command{
	Use:         "warp",
	Short:       "Warp a single frame through a backward optical flow",
	Annotations: map[string]string{storeAnnotation: storeOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		opts := warpOpts
		if err := applyPreset(cmd.Flags(), &opts); err != nil {
			return err
		}
		return runWarp(cmd.Context(), opts)
	},
}

func init() {
	warpCmd.Flags().StringVarP(&warpOpts.InputPath, "frame", "f", "", "Path to the frame image (png, jpeg, bmp, tiff, webp)")
	warpCmd.Flags().StringVarP(&warpOpts.FlowPath, "flow", "w", "", "Path to the backward flow (.flo)")
	warpCmd.Flags().StringVarP(&warpOpts.OutputPath, "output", "o", "warped.png", "Path to the output image")
	addWarpFlags(warpCmd.Flags(), &warpOpts)

	warpCmd.MarkFlagRequired("frame")
	warpCmd.MarkFlagRequired("flow")
	rootCmd.AddCommand(warpCmd)
}

func runWarp(ctx context.Context, opts Options) (err error) {
	params, err := validateWarpOptions(&opts)
	if err != nil {
		return err
	}
	if err := validateInputFile(opts.InputPath, "Input frame"); err != nil {
		return err
	}
	if err := validateInputFile(opts.FlowPath, "Flow file"); err != nil {
		return err
	}
	if err := checkDistinct(opts.InputPath, opts.OutputPath); err != nil {
		return err
	}
	if _, err := imageio.FormatFromPath(opts.OutputPath); err != nil {
		utils.ShowError("Unsupported output format", err, nil)
		return err
	}

	frame, err := imageio.ReadFile(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to read input frame", err, nil)
		return err
	}
	flow, err := flowio.ReadFile(opts.FlowPath)
	if err != nil {
		utils.ShowError("Failed to read flow", err, nil)
		return err
	}

	padWidth, _ := warp.PadWidth(flow, params.Padding)
	warnIfUnderPadded(flow, padWidth)

	entry := beginRun(ctx, DB, store.Run{
		InputPath:   opts.InputPath,
		Kind:        "image",
		FlowPath:    opts.FlowPath,
		Padding:     params.Padding,
		PaddingMode: params.Mode.String(),
		Sampler:     opts.Sampler,
		PadWidth:    padWidth,
	})
	defer func() {
		o := store.RunOutcome{OutputPath: opts.OutputPath, Frames: 1, Err: err}
		if err == nil {
			o.WarpedFrames = 1
		}
		entry.finish(o)
	}()

	d := mustWarpNode()
	d.Handler = node.NewWarpFrameHandler(warp.New(params.Sampler))
	out, err := d.Call(node.Args{
		"previous_frame": types.Batch{frame},
		"flow":           flow,
		"padding":        params.Padding,
		"padding_mode":   params.Mode,
	})
	if err != nil {
		utils.ShowError("Warp failed", err, nil)
		return err
	}
	warped := out[0].(types.Batch)[0]

	if err := imageio.WriteFile(opts.OutputPath, warped); err != nil {
		utils.ShowError("Failed to write output", err, nil)
		return err
	}

	Log.Debug("frame warped", "frame", opts.InputPath, "flow", opts.FlowPath, "pad", padWidth, "mode", params.Mode)
	fmt.Fprintf(os.Stderr, "✅ Warped frame written to %s\n", opts.OutputPath)
	return nil
}

// warnIfUnderPadded reports when some displacement points further outside
// the frame than the padding covers; those samples read the zero border.
func warnIfUnderPadded(flow *types.FlowField, padWidth int) {
	sum := flowstats.Summarize(flow)
	if reach := sum.Reach(); reach > padWidth {
		fmt.Fprintf(os.Stderr, "⚠️  Flow reaches %d px but padding covers %d px (suggested --padding %.2f)\n",
			reach, padWidth, flowstats.SuggestPadding(flow))
	}
	if sum.NonFinite > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  Flow has %d non-finite vectors; they sample as zero\n", sum.NonFinite)
	}
}
