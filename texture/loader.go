// Package texture loads auxiliary images and effect sources from disk.
//
// Loading never fails loudly: a missing or undecodable file yields an empty
// result and a warning in the package log, so callers on the render path
// can treat "no texture" as a normal state.
package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp" // register BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/gogpu/termrender/internal/logging"
)

// ErrEmptyPath is returned by Decode helpers when no file was named.
var ErrEmptyPath = errors.New("texture: empty path")

// Image is decoded RGBA pixel data ready for upload. The zero value is the
// empty image.
type Image struct {
	Pixels *image.RGBA
	// Format is the name of the decoder that read the file.
	Format string
}

// Empty reports whether i holds no pixels.
func (i Image) Empty() bool {
	return i.Pixels == nil || i.Pixels.Bounds().Empty()
}

// Size returns the pixel dimensions of i.
func (i Image) Size() image.Point {
	if i.Pixels == nil {
		return image.Point{}
	}
	return i.Pixels.Bounds().Size()
}

// Load reads the image at path and fits it within maxDim on both axes.
// A non-positive maxDim disables the bound. Any failure returns Image{}.
func Load(path string, maxDim int) Image {
	img, err := LoadFile(path, maxDim)
	if err != nil {
		logging.Logger().Warn("texture: load failed", "path", path, "error", err)
		return Image{}
	}
	return img
}

// LoadFile is Load with the error reported.
func LoadFile(path string, maxDim int) (Image, error) {
	if path == "" {
		return Image{}, ErrEmptyPath
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Image{}, fmt.Errorf("texture: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, maxDim)
}

// Decode reads an image from r, auto-detecting the format.
func Decode(r io.Reader, maxDim int) (Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("texture: decode: %w", err)
	}
	size := Fit(src.Bounds().Size(), maxDim)
	return Image{Pixels: toRGBA(src, size), Format: format}, nil
}

// Fit scales size down so neither side exceeds maxDim, keeping the aspect
// ratio. Sizes already within the bound are returned unchanged. Each side
// stays at least one pixel.
func Fit(size image.Point, maxDim int) image.Point {
	if maxDim <= 0 || (size.X <= maxDim && size.Y <= maxDim) {
		return size
	}
	if size.X >= size.Y {
		h := size.Y * maxDim / size.X
		return image.Pt(maxDim, max(h, 1))
	}
	w := size.X * maxDim / size.Y
	return image.Pt(max(w, 1), maxDim)
}

// toRGBA converts src to RGBA at the given size, resampling with
// Catmull-Rom when the size differs.
func toRGBA(src image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if size == src.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// LoadShader returns the text of the effect source at path, or "" when it
// cannot be read.
func LoadShader(path string) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		logging.Logger().Warn("texture: shader load failed", "path", path, "error", err)
		return ""
	}
	return string(b)
}
