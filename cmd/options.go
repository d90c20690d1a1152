package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresmejia3/warpframe/internal/config"
	"github.com/andresmejia3/warpframe/internal/node"
	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/spf13/pflag"
)

// warpParams is the validated form of the warp-related Options.
type warpParams struct {
	Padding float64
	Mode    pad.Mode
	Sampler sampler.Sampler
	Timeout time.Duration
}

// addWarpFlags registers the flags shared by warp and warp-video.
func addWarpFlags(fs *pflag.FlagSet, opts *Options) {
	fs.Float64VarP(&opts.Padding, "padding", "p", node.DefaultPadding, "Padding as a fraction of the larger flow dimension (0.0 - 1.0)")
	fs.StringVarP(&opts.PaddingMode, "padding-mode", "m", node.DefaultPaddingMode, "Padding mode: reflect, constant, edge, wrap")
	fs.StringVarP(&opts.Sampler, "sampler", "s", sampler.Default, "Sampler: bilinear, nearest")
	fs.StringVar(&opts.ConfigPath, "config", "", "JSON preset; explicitly set flags take precedence")
}

// applyPreset loads opts.ConfigPath and copies every value it sets into
// opts, unless the matching flag was given on the command line.
func applyPreset(fs *pflag.FlagSet, opts *Options) error {
	if opts.ConfigPath == "" {
		return nil
	}
	cfg, err := config.LoadWarpConfig(opts.ConfigPath)
	if err != nil {
		utils.ShowError("Failed to load warp preset", err, nil)
		return err
	}

	if cfg.Padding != nil && !fs.Changed("padding") {
		opts.Padding = cfg.GetPadding()
	}
	if cfg.PaddingMode != nil && !fs.Changed("padding-mode") {
		opts.PaddingMode = cfg.GetPaddingMode().String()
	}
	if cfg.Sampler != nil && !fs.Changed("sampler") {
		opts.Sampler = cfg.GetSampler()
	}
	if cfg.Engines != nil && !fs.Changed("engines") {
		opts.NumEngines = cfg.GetEngines()
	}
	if cfg.WorkerTimeout != nil && !fs.Changed("worker-timeout") {
		opts.WorkerTimeout = cfg.GetWorkerTimeout().String()
	}
	return nil
}

// validateWarpOptions checks the warp parameters against the node schema.
func validateWarpOptions(opts *Options) (warpParams, error) {
	var p warpParams

	in, _ := mustWarpNode().Input("padding")
	if opts.Padding < in.Min || opts.Padding > in.Max {
		err := fmt.Errorf("must be between %.1f and %.1f, got %f", in.Min, in.Max, opts.Padding)
		utils.ShowError("Invalid padding", err, nil)
		return p, err
	}
	p.Padding = opts.Padding

	mode, err := pad.ParseMode(opts.PaddingMode)
	if err != nil {
		utils.ShowError("Configuration Error", err, nil)
		return p, err
	}
	p.Mode = mode

	s, err := sampler.ByName(opts.Sampler)
	if err != nil {
		utils.ShowError("Configuration Error", err, nil)
		return p, err
	}
	p.Sampler = s

	if opts.WorkerTimeout != "" {
		p.Timeout, err = time.ParseDuration(opts.WorkerTimeout)
		if err != nil {
			utils.ShowError("Invalid worker-timeout format (use '30s', '1m')", err, nil)
			return p, err
		}
	}

	if opts.NumEngines < 1 {
		opts.NumEngines = 1
	}
	return p, nil
}

// validateInputFile requires path to be an existing regular file.
func validateInputFile(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			utils.ShowError(what+" does not exist", err, nil)
			return err
		}
		utils.ShowError("Unable to access "+what, err, nil)
		return err
	}
	if info.IsDir() {
		err := fmt.Errorf("is a directory")
		utils.ShowError(what+" is a directory, expected a file", err, nil)
		return err
	}
	return nil
}

// checkDistinct prevents overwriting an input with an output.
func checkDistinct(in, out string) error {
	inAbs, _ := filepath.Abs(in)
	outAbs, _ := filepath.Abs(out)
	if inAbs == outAbs {
		return fmt.Errorf("input and output paths must be different to prevent file corruption")
	}
	return nil
}

func mustWarpNode() node.Descriptor {
	d, ok := node.Lookup(node.WarpFrameName)
	if !ok {
		utils.Die("Node registry is missing "+node.WarpFrameName, fmt.Errorf("not registered"), nil)
	}
	return d
}

func fmtTime(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	h := int(duration.Hours())
	m := int(duration.Minutes()) % 60
	s := int(duration.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
