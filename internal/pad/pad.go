// Package pad extends frames and flow fields beyond their borders before
// resampling. The four modes follow numpy.pad semantics so that values
// produced here match the ones the node graph host has always produced.
package pad

import (
	"fmt"

	"github.com/andresmejia3/warpframe/internal/types"
)

// Mode selects how samples beyond an array border are synthesised.
type Mode int

const (
	// Reflect mirrors around the border sample without repeating it: dcb|abcd|cba.
	Reflect Mode = iota
	// Constant fills with zeros.
	Constant
	// Edge repeats the border sample: aaa|abcd|ddd.
	Edge
	// Wrap tiles the array periodically: bcd|abcd|abc.
	Wrap
)

var modeNames = [...]string{
	Reflect:  "reflect",
	Constant: "constant",
	Edge:     "edge",
	Wrap:     "wrap",
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{Reflect, Constant, Edge, Wrap}
}

// Names lists the literal name of every mode in declaration order.
func Names() []string {
	return modeNames[:]
}

func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= Reflect && m <= Wrap
}

// InvalidModeError reports a padding mode outside the enumerated set.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid padding mode %q: must be one of reflect, constant, edge, wrap", e.Mode)
}

// ParseMode maps a literal such as "reflect" to its Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, &InvalidModeError{Mode: s}
}

// Set implements pflag.Value so a Mode can be bound directly to a flag.
func (m *Mode) Set(s string) error {
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "mode"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &InvalidModeError{Mode: m.String()}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	return m.Set(string(b))
}

// Source maps index i on an axis of length n to the index it reads from.
// ok is false when the sample is synthesised as zero (Constant mode outside
// the axis). n must be positive.
func Source(i, n int, mode Mode) (src int, ok bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch mode {
	case Constant:
		return 0, false
	case Edge:
		if i < 0 {
			return 0, true
		}
		return n - 1, true
	case Wrap:
		return mod(i, n), true
	case Reflect:
		if n == 1 {
			return 0, true
		}
		period := 2 * (n - 1)
		m := mod(i, period)
		if m >= n {
			m = period - m
		}
		return m, true
	}
	return 0, false
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// Frame pads both spatial axes of f by width samples per side. The channel
// axis is left untouched.
func Frame(f *types.Frame, width int, mode Mode) (*types.Frame, error) {
	if !mode.Valid() {
		return nil, &InvalidModeError{Mode: mode.String()}
	}
	if width < 0 {
		return nil, &types.DegenerateInputError{Param: "pad width", Value: float64(width)}
	}
	if width > 0 && (f.Height == 0 || f.Width == 0) && mode != Constant {
		return nil, &types.ShapeMismatchError{Op: "pad " + mode.String(), Want: [2]int{1, 1}, Got: [2]int{f.Height, f.Width}}
	}

	out := types.NewFrame(f.Height+2*width, f.Width+2*width, f.Channels)
	c := f.Channels
	for y := 0; y < out.Height; y++ {
		sy, okY := Source(y-width, f.Height, mode)
		if !okY {
			continue
		}
		for x := 0; x < out.Width; x++ {
			sx, okX := Source(x-width, f.Width, mode)
			if !okX {
				continue
			}
			dst := out.Offset(y, x)
			src := f.Offset(sy, sx)
			copy(out.Pix[dst:dst+c], f.Pix[src:src+c])
		}
	}
	return out, nil
}

// Flow pads both spatial axes of a flow field with zero displacement.
// Extrapolated motion has no natural mirrored or periodic meaning, so flow
// is always padded with constants whatever mode the frame uses.
func Flow(flow *types.FlowField, width int) (*types.FlowField, error) {
	if width < 0 {
		return nil, &types.DegenerateInputError{Param: "pad width", Value: float64(width)}
	}
	out := types.NewFlowField(flow.Height+2*width, flow.Width+2*width)
	rowLen := 2 * flow.Width
	for y := 0; y < flow.Height; y++ {
		dst := 2 * ((y+width)*out.Width + width)
		src := 2 * y * flow.Width
		copy(out.Vec[dst:dst+rowLen], flow.Vec[src:src+rowLen])
	}
	return out, nil
}
