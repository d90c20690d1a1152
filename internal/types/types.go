package types

import "fmt"

// Frame is a single image stored row-major as (height, width, channel).
type Frame struct {
	Height   int
	Width    int
	Channels int
	Pix      []float32
}

// NewFrame allocates a zeroed frame.
func NewFrame(height, width, channels int) *Frame {
	return &Frame{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]float32, height*width*channels),
	}
}

// Offset returns the index of channel 0 of pixel (y, x) in Pix.
func (f *Frame) Offset(y, x int) int {
	return (y*f.Width + x) * f.Channels
}

// At returns the sample at (y, x, c).
func (f *Frame) At(y, x, c int) float32 {
	return f.Pix[f.Offset(y, x)+c]
}

// Set writes the sample at (y, x, c).
func (f *Frame) Set(y, x, c int, v float32) {
	f.Pix[f.Offset(y, x)+c] = v
}

// Shape reports (height, width, channels).
func (f *Frame) Shape() [3]int {
	return [3]int{f.Height, f.Width, f.Channels}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{Height: f.Height, Width: f.Width, Channels: f.Channels, Pix: make([]float32, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

// Transpose swaps the first two axes, returning a (width, height, channel) frame.
func (f *Frame) Transpose() *Frame {
	out := NewFrame(f.Width, f.Height, f.Channels)
	c := f.Channels
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			copy(out.Pix[out.Offset(x, y):out.Offset(x, y)+c], f.Pix[f.Offset(y, x):f.Offset(y, x)+c])
		}
	}
	return out
}

// Crop returns rows [y0, y1) and columns [x0, x1) as a new frame.
// Bounds are clamped the way slicing an array would clamp them, so an empty
// or inverted range yields a zero-sized axis instead of an error.
func (f *Frame) Crop(y0, y1, x0, x1 int) *Frame {
	y0, y1 = clampRange(y0, y1, f.Height)
	x0, x1 = clampRange(x0, x1, f.Width)
	out := NewFrame(y1-y0, x1-x0, f.Channels)
	rowLen := out.Width * f.Channels
	for y := y0; y < y1; y++ {
		src := f.Offset(y, x0)
		copy(out.Pix[(y-y0)*rowLen:(y-y0+1)*rowLen], f.Pix[src:src+rowLen])
	}
	return out
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Batch is the host's (N, H, W, C) image. The warp node only ever sees N == 1.
type Batch []*Frame

// Shape reports (batch, height, width, channels) using the first frame.
func (b Batch) Shape() [4]int {
	if len(b) == 0 {
		return [4]int{}
	}
	return [4]int{len(b), b[0].Height, b[0].Width, b[0].Channels}
}

// FlowField stores a backward flow as interleaved (dx, dy) pairs, row-major.
// Vec[2*(y*Width+x)] is dx and the following element is dy for destination (y, x).
type FlowField struct {
	Height int
	Width  int
	Vec    []float32
}

// NewFlowField allocates a zero flow.
func NewFlowField(height, width int) *FlowField {
	return &FlowField{Height: height, Width: width, Vec: make([]float32, height*width*2)}
}

// UniformFlow builds a flow where every pixel carries the same displacement.
func UniformFlow(height, width int, dx, dy float32) *FlowField {
	f := NewFlowField(height, width)
	for i := 0; i < len(f.Vec); i += 2 {
		f.Vec[i] = dx
		f.Vec[i+1] = dy
	}
	return f
}

// At returns (dx, dy) for destination (y, x).
func (f *FlowField) At(y, x int) (float32, float32) {
	i := 2 * (y*f.Width + x)
	return f.Vec[i], f.Vec[i+1]
}

// Set writes (dx, dy) for destination (y, x).
func (f *FlowField) Set(y, x int, dx, dy float32) {
	i := 2 * (y*f.Width + x)
	f.Vec[i] = dx
	f.Vec[i+1] = dy
}

func (f *FlowField) String() string {
	return fmt.Sprintf("flow(%dx%d)", f.Height, f.Width)
}
