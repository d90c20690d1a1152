// Package flowio reads and writes optical-flow fields in the Middlebury
// .flo format: a float32 tag (202021.25, "PIEH" on disk), int32 width,
// int32 height, then height*width interleaved (dx, dy) float32 pairs, all
// little-endian.
package flowio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/andresmejia3/warpframe/internal/types"
)

// Tag is the magic number that opens every .flo file.
const Tag float32 = 202021.25

// maxSide rejects headers that would allocate absurd buffers.
const maxSide = 1 << 15

var (
	// ErrBadTag is returned when a stream does not start with Tag.
	ErrBadTag = errors.New("flowio: not a .flo stream (bad tag)")
	// ErrBadSize is returned for non-positive or oversized dimensions.
	ErrBadSize = errors.New("flowio: invalid dimensions")
)

type header struct {
	Tag    float32
	Width  int32
	Height int32
}

// Read decodes one flow field from r.
func Read(r io.Reader) (*types.FlowField, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("flowio: read header: %w", err)
	}
	if h.Tag != Tag {
		got := make([]byte, 4)
		binary.LittleEndian.PutUint32(got, math.Float32bits(h.Tag))
		return nil, fmt.Errorf("%w: got %q, want %q", ErrBadTag, got, tagBytes())
	}
	if h.Width <= 0 || h.Height <= 0 || h.Width > maxSide || h.Height > maxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, h.Width, h.Height)
	}

	flow := types.NewFlowField(int(h.Height), int(h.Width))
	if err := binary.Read(r, binary.LittleEndian, flow.Vec); err != nil {
		return nil, fmt.Errorf("flowio: read %s body: %w", flow, err)
	}
	return flow, nil
}

// Write encodes flow to w.
func Write(w io.Writer, flow *types.FlowField) error {
	if flow.Width <= 0 || flow.Height <= 0 || flow.Width > maxSide || flow.Height > maxSide {
		return fmt.Errorf("%w: %dx%d", ErrBadSize, flow.Width, flow.Height)
	}
	h := header{Tag: Tag, Width: int32(flow.Width), Height: int32(flow.Height)}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("flowio: write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, flow.Vec); err != nil {
		return fmt.Errorf("flowio: write body: %w", err)
	}
	return nil
}

// ReadFile decodes the .flo file at path.
func ReadFile(path string) (*types.FlowField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	flow, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flow, nil
}

// WriteFile encodes flow to path, replacing any existing file.
func WriteFile(path string, flow *types.FlowField) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, flow); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// tagBytes returns the on-disk encoding of Tag ("PIEH").
func tagBytes() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(Tag))
	return b
}
