package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
	"github.com/andresmejia3/warpframe/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoByTwo is a 2x2 RGBA frame: row 0 red/green, row 1 blue/white.
func twoByTwo() []byte {
	return []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
}

func testConfig() Config {
	return Config{Width: 2, Height: 2, Padding: 0.5, PaddingMode: pad.Constant, Sampler: sampler.Bilinear{}}
}

func TestProcessFramePassThrough(t *testing.T) {
	e := NewEngine(0, testConfig(), nil)
	data := twoByTwo()
	res, err := e.ProcessFrame(t.Context(), FrameTask{Index: 3, Data: data})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Index)
	assert.False(t, res.Warped)
	assert.Equal(t, twoByTwo(), res.Data)
}

func TestProcessFrameZeroFlowKeepsBytes(t *testing.T) {
	e := NewEngine(0, testConfig(), nil)
	res, err := e.ProcessFrame(t.Context(), FrameTask{Data: twoByTwo(), Flow: types.NewFlowField(2, 2)})
	require.NoError(t, err)
	assert.True(t, res.Warped)
	assert.Equal(t, twoByTwo(), res.Data)
}

func TestProcessFrameShiftsUp(t *testing.T) {
	e := NewEngine(0, testConfig(), nil)
	res, err := e.ProcessFrame(t.Context(), FrameTask{Data: twoByTwo(), Flow: types.UniformFlow(2, 2, 0, 1)})
	require.NoError(t, err)
	want := []byte{
		0, 0, 255, 255, 255, 255, 255, 255,
		0, 0, 0, 255, 0, 0, 0, 255,
	}
	assert.Equal(t, want, res.Data)
}

func TestProcessFrameErrors(t *testing.T) {
	e := NewEngine(1, testConfig(), nil)

	_, err := e.ProcessFrame(t.Context(), FrameTask{Data: make([]byte, 3), Flow: types.NewFlowField(2, 2)})
	assert.ErrorContains(t, err, "expected 16")

	_, err = e.ProcessFrame(t.Context(), FrameTask{Data: twoByTwo(), Flow: types.NewFlowField(3, 2)})
	var shape *types.ShapeMismatchError
	assert.True(t, errors.As(err, &shape), "got %v", err)
}

func TestProcessFrameTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	cfg.Sampler = sampler.Func(func(src *types.Frame, flow *types.FlowField) (*types.Frame, error) {
		time.Sleep(200 * time.Millisecond)
		return src, nil
	})
	e := NewEngine(0, cfg, nil)
	_, err := e.ProcessFrame(t.Context(), FrameTask{Data: twoByTwo(), Flow: types.NewFlowField(2, 2)})
	assert.ErrorContains(t, err, "worker timeout")
}

func TestProcessFrameCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Sampler = sampler.Func(func(src *types.Frame, flow *types.FlowField) (*types.Frame, error) {
		time.Sleep(200 * time.Millisecond)
		return src, nil
	})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewEngine(0, cfg, nil).ProcessFrame(ctx, FrameTask{Data: twoByTwo(), Flow: types.NewFlowField(2, 2)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPoolAndSequencer(t *testing.T) {
	const frames = 12
	tasks := make(chan FrameTask)
	results := make(chan FrameResult, 4)

	var runErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = Run(t.Context(), 3, testConfig(), nil, tasks, results)
	}()

	go func() {
		for i := 0; i < frames; i++ {
			var flow *types.FlowField
			if i%2 == 0 {
				flow = types.NewFlowField(2, 2)
			}
			tasks <- FrameTask{Index: i, Data: twoByTwo(), Flow: flow}
		}
		close(tasks)
	}()

	seq := NewSequencer(0)
	var order []int
	warped := 0
	for res := range results {
		for _, r := range seq.Push(res) {
			order = append(order, r.Index)
			if r.Warped {
				warped++
			}
		}
	}
	wg.Wait()

	require.NoError(t, runErr)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, order)
	assert.Equal(t, frames/2, warped)
	assert.Zero(t, seq.Pending())
}

func TestRunStopsOnEngineError(t *testing.T) {
	tasks := make(chan FrameTask, 2)
	results := make(chan FrameResult, 2)
	tasks <- FrameTask{Index: 0, Data: make([]byte, 1), Flow: types.NewFlowField(2, 2)}
	close(tasks)

	err := Run(t.Context(), 2, testConfig(), nil, tasks, results)
	assert.ErrorContains(t, err, "frame 0")

	_, open := <-results
	assert.False(t, open, "results should be closed")
}

func TestSequencer(t *testing.T) {
	s := NewSequencer(5)
	assert.Empty(t, s.Push(FrameResult{Index: 7}))
	assert.Empty(t, s.Push(FrameResult{Index: 6}))
	assert.Len(t, s.Push(FrameResult{Index: 5}), 3)
	assert.Equal(t, 8, s.Next())

	s = NewSequencer(0)
	assert.Empty(t, s.Push(FrameResult{Index: 2}))
	assert.Empty(t, s.Push(FrameResult{Index: 1}))
	assert.Equal(t, 2, s.Pending())

	ready := s.Push(FrameResult{Index: 0})
	require.Len(t, ready, 3)
	for i, r := range ready {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, 3, s.Next())
}
