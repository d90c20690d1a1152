// Package imageio converts between encoded images, raw RGBA buffers and
// float frames. Samples are normalised to [0, 1] as straight (not
// premultiplied) colour; alpha is dropped on the way in and written as
// opaque on the way out.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresmejia3/warpframe/internal/types"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Channels is the number of channels produced by decoding.
const Channels = 3

const jpegQuality = 95

// FromImage converts any image into a (height, width, 3) frame. Colour is
// un-premultiplied first, so translucent pixels keep their hue and value.
func FromImage(img image.Image) *types.Frame {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.NRGBA:
		return FromRGBA(m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b.Dx(), b.Dy())
	case *image.RGBA:
		if m.Opaque() {
			return FromRGBA(m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b.Dx(), b.Dy())
		}
	}
	f := types.NewFrame(b.Dy(), b.Dx(), Channels)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			off := f.Offset(y, x)
			f.Pix[off] = float32(c.R) / 0xffff
			f.Pix[off+1] = float32(c.G) / 0xffff
			f.Pix[off+2] = float32(c.B) / 0xffff
		}
	}
	return f
}

// FromRGBA wraps a raw RGBA buffer (such as an ffmpeg rawvideo frame) as a frame.
func FromRGBA(pix []byte, stride, width, height int) *types.Frame {
	f := types.NewFrame(height, width, Channels)
	for y := 0; y < height; y++ {
		row := pix[y*stride:]
		for x := 0; x < width; x++ {
			off := f.Offset(y, x)
			f.Pix[off] = float32(row[x*4]) / 255
			f.Pix[off+1] = float32(row[x*4+1]) / 255
			f.Pix[off+2] = float32(row[x*4+2]) / 255
		}
	}
	return f
}

// ToRGBA renders a frame into dst, which must hold width*height*4 bytes.
// Single-channel frames are rendered as grey; extra channels are ignored.
func ToRGBA(f *types.Frame, dst []byte) error {
	if f.Channels != 1 && f.Channels < 3 {
		return fmt.Errorf("imageio: cannot render %d-channel frame", f.Channels)
	}
	if need := f.Height * f.Width * 4; len(dst) < need {
		return fmt.Errorf("imageio: destination holds %d bytes, need %d", len(dst), need)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := f.Offset(y, x)
			o := (y*f.Width + x) * 4
			if f.Channels == 1 {
				v := toByte(f.Pix[src])
				dst[o], dst[o+1], dst[o+2] = v, v, v
			} else {
				dst[o] = toByte(f.Pix[src])
				dst[o+1] = toByte(f.Pix[src+1])
				dst[o+2] = toByte(f.Pix[src+2])
			}
			dst[o+3] = 255
		}
	}
	return nil
}

// ToImage renders a frame into a new *image.RGBA.
func ToImage(f *types.Frame) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if err := ToRGBA(f, img.Pix); err != nil {
		return nil, err
	}
	return img, nil
}

func toByte(v float32) byte {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}

// Decode reads a PNG, JPEG, BMP, TIFF or WebP image.
func Decode(r io.Reader) (*types.Frame, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: decode: %w", err)
	}
	return FromImage(img), format, nil
}

// ReadFile decodes the image at path.
func ReadFile(path string) (*types.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	frame, _, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// Encode writes f in the given format: png, jpeg, bmp or tiff.
func Encode(w io.Writer, f *types.Frame, format string) error {
	img, err := ToImage(f)
	if err != nil {
		return err
	}
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("imageio: unsupported output format %q", format)
}

// FormatFromPath picks an encoder from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".bmp":
		return "bmp", nil
	case ".tif", ".tiff":
		return "tiff", nil
	}
	return "", fmt.Errorf("imageio: cannot infer output format from %q (use .png, .jpg, .bmp or .tiff)", path)
}

// WriteFile encodes f to path using the format implied by its extension.
func WriteFile(path string, f *types.Frame) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	if err := Encode(bw, f, format); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
