package types

import "fmt"

// ShapeMismatchError is returned when two arrays disagree on their spatial extent.
type ShapeMismatchError struct {
	Op   string
	Want [2]int
	Got  [2]int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: expected %dx%d, got %dx%d", e.Op, e.Want[0], e.Want[1], e.Got[0], e.Got[1])
}

// DegenerateInputError is returned when a parameter yields a negative or
// non-finite size. Such values are reported, never clamped.
type DegenerateInputError struct {
	Param string
	Value float64
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input: %s = %v", e.Param, e.Value)
}
