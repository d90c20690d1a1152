package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andresmejia3/warpframe/internal/flowio"
	"github.com/andresmejia3/warpframe/internal/store"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/andresmejia3/warpframe/internal/warp"
	"github.com/andresmejia3/warpframe/internal/worker"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var videoOpts Options

var videoCmd = &cobra.Command{
	Use:         "warp-video",
	Short:       "Warp every frame of a video through a directory of backward flows",
	Long:        "Frame i is warped with the i-th .flo file of --flows in lexical order. Frames without a flow are copied unchanged.",
	Annotations: map[string]string{storeAnnotation: storeOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		opts := videoOpts
		if err := applyPreset(cmd.Flags(), &opts); err != nil {
			return err
		}
		return runWarpVideo(cmd.Context(), opts)
	},
}

func init() {
	videoCmd.Flags().StringVarP(&videoOpts.InputPath, "input", "i", "", "Path to input video")
	videoCmd.Flags().StringVar(&videoOpts.FlowPath, "flows", "", "Directory of .flo files, one per frame")
	videoCmd.Flags().StringVarP(&videoOpts.OutputPath, "output", "o", "warped.mp4", "Path to output video")
	videoCmd.Flags().IntVarP(&videoOpts.NumEngines, "engines", "e", 1, "Number of parallel warp engines")
	videoCmd.Flags().StringVar(&videoOpts.WorkerTimeout, "worker-timeout", "30s", "Timeout for an engine to warp a single frame")
	addWarpFlags(videoCmd.Flags(), &videoOpts)

	videoCmd.MarkFlagRequired("input")
	videoCmd.MarkFlagRequired("flows")
	rootCmd.AddCommand(videoCmd)
}

// frameBufferPool recycles raw RGBA frame buffers between the decoder and the encoder.
var frameBufferPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0, 1024*1024) }, // Start with 1MB capacity
}

// listFlowFiles returns the .flo files of dir in lexical order.
func listFlowFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".flo") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func runWarpVideo(ctx context.Context, opts Options) (err error) {
	// Cancelling on return kills FFmpeg and stops the engines if we bail early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	params, err := validateWarpOptions(&opts)
	if err != nil {
		return err
	}
	if err := validateInputFile(opts.InputPath, "Input video"); err != nil {
		return err
	}
	if err := checkDistinct(opts.InputPath, opts.OutputPath); err != nil {
		return err
	}

	flows, err := listFlowFiles(opts.FlowPath)
	if err != nil {
		utils.ShowError("Unable to read flow directory", err, nil)
		return err
	}
	if len(flows) == 0 {
		err := fmt.Errorf("no .flo files in %s", opts.FlowPath)
		utils.ShowError("Configuration Error", err, nil)
		return err
	}

	fps, err := utils.GetVideoFPS(ctx, opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to determine video FPS", err, nil)
		return err
	}
	width, height, err := utils.GetVideoDimensions(ctx, opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to determine video dimensions", err, nil)
		return err
	}
	totalFrames := utils.GetTotalFrames(ctx, opts.InputPath)
	if totalFrames > 0 && len(flows) > totalFrames {
		fmt.Fprintf(os.Stderr, "⚠️  %d flows for %d frames; the extra flows are ignored\n", len(flows), totalFrames)
	}

	// The pad width depends only on the flow size, so the first flow stands
	// in for the run. Flows of a different size are rejected per frame.
	first, err := flowio.ReadFile(flows[0])
	if err != nil {
		utils.ShowError("Failed to read flow", err, nil)
		return err
	}
	if first.Height != height || first.Width != width {
		err := fmt.Errorf("flow %s is %dx%d, video is %dx%d", flows[0], first.Width, first.Height, width, height)
		utils.ShowError("Flow does not match video", err, nil)
		return err
	}
	padWidth, _ := warp.PadWidth(first, params.Padding)
	warnIfUnderPadded(first, padWidth)

	var framesDone, framesWarped int
	entry := beginRun(ctx, DB, store.Run{
		InputPath:   opts.InputPath,
		Kind:        "video",
		FlowPath:    opts.FlowPath,
		Padding:     params.Padding,
		PaddingMode: params.Mode.String(),
		Sampler:     opts.Sampler,
		PadWidth:    padWidth,
	})
	defer func() {
		entry.finish(store.RunOutcome{OutputPath: opts.OutputPath, Frames: framesDone, WarpedFrames: framesWarped, Err: err})
	}()

	cfg := worker.Config{
		Width:       width,
		Height:      height,
		Padding:     params.Padding,
		PaddingMode: params.Mode,
		Sampler:     params.Sampler,
		Timeout:     params.Timeout,
	}
	taskChan := make(chan worker.FrameTask, opts.NumEngines)
	resultsChan := make(chan worker.FrameResult, opts.NumEngines*2)
	runErr := make(chan error, 1)
	readErr := make(chan error, 1)

	fmt.Fprintf(os.Stderr, "🚀 Starting %d warp engines (%s, %s padding, %d px)...\n", opts.NumEngines, opts.Sampler, params.Mode, padWidth)
	go func() {
		runErr <- worker.Run(ctx, opts.NumEngines, cfg, Log, taskChan, resultsChan)
	}()

	decoder := utils.NewFFmpegRawDecoder(ctx, opts.InputPath)
	decoderOut, err := decoder.StdoutPipe()
	if err != nil {
		utils.ShowError("Failed to create decoder pipe", err, nil)
		return err
	}
	if err := decoder.Start(); err != nil {
		utils.ShowError("Failed to start decoder", err, decoder)
		return err
	}

	encoder := utils.NewFFmpegEncoder(ctx, opts.OutputPath, fps, width, height)
	encoderIn, err := encoder.StdinPipe()
	if err != nil {
		utils.ShowError("Failed to create encoder pipe", err, nil)
		return err
	}
	if err := encoder.Start(); err != nil {
		utils.ShowError("Failed to start encoder", err, encoder)
		return err
	}

	go func() {
		defer close(taskChan)
		frameSize := width * height * 4
		for idx := 0; ; idx++ {
			buf := frameBufferPool.Get().([]byte)
			if cap(buf) < frameSize {
				buf = make([]byte, frameSize)
			}
			buf = buf[:frameSize]

			if _, err := io.ReadFull(decoderOut, buf); err != nil {
				frameBufferPool.Put(buf)
				if !errors.Is(err, io.EOF) {
					readErr <- fmt.Errorf("decoder stream ended mid-frame %d: %w", idx, err)
				}
				return
			}

			task := worker.FrameTask{Index: idx, Data: buf}
			if idx < len(flows) {
				task.Flow = first
				if idx > 0 {
					flow, ferr := flowio.ReadFile(flows[idx])
					if ferr != nil {
						frameBufferPool.Put(buf)
						readErr <- fmt.Errorf("flow %s: %w", flows[idx], ferr)
						return
					}
					task.Flow = flow
				}
			}

			select {
			case taskChan <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	var barTotal int64 = int64(totalFrames)
	if barTotal <= 0 {
		barTotal = -1 // Trigger spinner mode
	}
	bar := progressbar.NewOptions64(barTotal,
		progressbar.OptionSetDescription("Warping"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	seq := worker.NewSequencer(0)
	var warpTime time.Duration
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			utils.ShowError("Failed to feed engines", err, decoder)
			return err
		case res, ok := <-resultsChan:
			if !ok {
				goto Flush
			}
			for _, frame := range seq.Push(res) {
				if _, err := encoderIn.Write(frame.Data); err != nil {
					utils.ShowError("Failed to write to encoder", err, encoder)
					return err
				}
				// Release buffer back to pool
				frameBufferPool.Put(frame.Data)

				framesDone++
				if frame.Warped {
					framesWarped++
					warpTime += frame.Elapsed
				}
				bar.Add(1)
			}
		}
	}

Flush:
	if err := <-runErr; err != nil {
		utils.ShowError("Warp engine failed", err, nil)
		return err
	}
	select {
	case err := <-readErr:
		utils.ShowError("Failed to feed engines", err, decoder)
		return err
	default:
	}
	if n := seq.Pending(); n > 0 {
		return fmt.Errorf("%d frames never released, missing frame %d", n, seq.Next())
	}

	encoderIn.Close()
	if err := encoder.Wait(); err != nil {
		utils.ShowError("Encoder process failed", err, encoder)
		return err
	}
	if err := decoder.Wait(); err != nil {
		utils.ShowError("Decoder process failed", err, decoder)
		return err
	}

	fmt.Fprintf(os.Stderr, "\n🏁 Warp Complete. %d frames (%s of video), %d warped, %d passed through.\n",
		framesDone, fmtTime(float64(framesDone)/fps), framesWarped, framesDone-framesWarped)
	if framesWarped > 0 {
		Log.Debug("warp timing", "mean_per_frame", warpTime/time.Duration(framesWarped))
	}
	fmt.Fprintf(os.Stderr, "📼 Output written to %s\n", opts.OutputPath)
	return nil
}
