// Package worker runs frame warps on a pool of engines for the video driver.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/andresmejia3/warpframe/internal/imageio"
	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/andresmejia3/warpframe/internal/warp"
	"golang.org/x/sync/errgroup"
)

// FrameTask is one decoded video frame and the flow to warp it with.
// A nil Flow means the frame passes through untouched.
type FrameTask struct {
	Index int
	Data  []byte // packed RGBA, Width*Height*4 bytes
	Flow  *types.FlowField
}

// FrameResult carries the (possibly rewritten) RGBA bytes of a task.
type FrameResult struct {
	Index   int
	Data    []byte
	Warped  bool
	Elapsed time.Duration
}

// Config holds the warp parameters shared by every engine.
type Config struct {
	Width       int
	Height      int
	Padding     float64
	PaddingMode pad.Mode
	Sampler     sampler.Sampler
	// Timeout bounds a single frame. Zero disables it.
	Timeout time.Duration
}

// Engine warps frames one at a time.
type Engine struct {
	ID     int
	cfg    Config
	warper *warp.Warper
	log    *utils.Logger
}

// NewEngine builds an engine. A nil logger discards output.
func NewEngine(id int, cfg Config, log *utils.Logger) *Engine {
	if log == nil {
		log = utils.NoopLogger()
	}
	return &Engine{ID: id, cfg: cfg, warper: warp.New(cfg.Sampler), log: log.WithWorker(id)}
}

// ProcessFrame warps task.Data in place and returns it as the result.
func (e *Engine) ProcessFrame(ctx context.Context, task FrameTask) (FrameResult, error) {
	res := FrameResult{Index: task.Index, Data: task.Data}
	if task.Flow == nil {
		return res, nil
	}
	if need := e.cfg.Width * e.cfg.Height * 4; len(task.Data) != need {
		return res, fmt.Errorf("engine %d: frame %d has %d bytes, expected %d", e.ID, task.Index, len(task.Data), need)
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		frame := imageio.FromRGBA(task.Data, e.cfg.Width*4, e.cfg.Width, e.cfg.Height)
		warped, err := e.warper.Frame(frame, task.Flow, e.cfg.Padding, e.cfg.PaddingMode)
		if err != nil {
			done <- err
			return
		}
		done <- imageio.ToRGBA(warped, task.Data)
	}()

	var timeout <-chan time.Time
	if e.cfg.Timeout > 0 {
		timer := time.NewTimer(e.cfg.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-done:
		if err != nil {
			return res, fmt.Errorf("engine %d: frame %d: %w", e.ID, task.Index, err)
		}
	case <-timeout:
		return res, fmt.Errorf("engine %d: frame %d exceeded worker timeout %s", e.ID, task.Index, e.cfg.Timeout)
	case <-ctx.Done():
		return res, ctx.Err()
	}

	res.Warped = true
	res.Elapsed = time.Since(start)
	e.log.WithFrame(task.Index).Debug("frame warped", "elapsed", res.Elapsed)
	return res, nil
}

// Run starts n engines that consume tasks until the channel closes, sending
// every result to results. results is closed when all engines have exited.
// The first engine error cancels the others and is returned.
func Run(ctx context.Context, n int, cfg Config, log *utils.Logger, tasks <-chan FrameTask, results chan<- FrameResult) error {
	defer close(results)
	if n < 1 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		engine := NewEngine(i, cfg, log)
		g.Go(func() error {
			for {
				var task FrameTask
				var ok bool
				select {
				case task, ok = <-tasks:
					if !ok {
						return nil
					}
				case <-gctx.Done():
					return gctx.Err()
				}

				res, err := engine.ProcessFrame(gctx, task)
				if err != nil {
					return err
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}
	return g.Wait()
}
