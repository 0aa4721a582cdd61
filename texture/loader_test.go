package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// Helpers
// =============================================================================

func writePNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// =============================================================================
// Load
// =============================================================================

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	img := Load(filepath.Join(t.TempDir(), "nope.png"), 1024)
	if !img.Empty() {
		t.Error("missing file should load as empty")
	}
	if img.Size() != (image.Point{}) {
		t.Errorf("Size() = %v, want zero", img.Size())
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	if _, err := LoadFile("", 0); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("LoadFile(\"\") = %v, want ErrEmptyPath", err)
	}
	if !Load("", 0).Empty() {
		t.Error("empty path should load as empty")
	}
}

func TestLoad_GarbageIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !Load(path, 0).Empty() {
		t.Error("undecodable file should load as empty")
	}
}

func TestLoad_KeepsSmallImage(t *testing.T) {
	path := writePNG(t, 30, 20, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img := Load(path, 64)
	if img.Empty() {
		t.Fatal("Load returned empty")
	}
	if img.Size() != image.Pt(30, 20) {
		t.Errorf("Size() = %v, want (30,20)", img.Size())
	}
	if img.Format != "png" {
		t.Errorf("Format = %q, want png", img.Format)
	}
	if got := img.Pixels.RGBAAt(5, 5); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestLoad_DownscalesPreservingAspect(t *testing.T) {
	path := writePNG(t, 400, 100, color.RGBA{R: 200, A: 255})
	img := Load(path, 80)
	if img.Size() != image.Pt(80, 20) {
		t.Fatalf("Size() = %v, want (80,20)", img.Size())
	}
	// A uniform source stays uniform after resampling.
	if got := img.Pixels.RGBAAt(40, 10); got.R < 195 || got.A != 255 {
		t.Errorf("center pixel = %v", got)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name   string
		size   image.Point
		maxDim int
		want   image.Point
	}{
		{"within", image.Pt(100, 50), 100, image.Pt(100, 50)},
		{"unbounded", image.Pt(9000, 50), 0, image.Pt(9000, 50)},
		{"wide", image.Pt(1000, 500), 100, image.Pt(100, 50)},
		{"tall", image.Pt(300, 1200), 400, image.Pt(100, 400)},
		{"sliver", image.Pt(10000, 1), 100, image.Pt(100, 1)},
		{"square", image.Pt(512, 512), 256, image.Pt(256, 256)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.size, tt.maxDim); got != tt.want {
				t.Errorf("Fit(%v, %d) = %v, want %v", tt.size, tt.maxDim, got, tt.want)
			}
		})
	}
}

// =============================================================================
// LoadShader
// =============================================================================

func TestLoadShader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.wgsl")
	src := "@fragment fn fs_main() {}"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := LoadShader(path); got != src {
		t.Errorf("LoadShader = %q, want %q", got, src)
	}
	if got := LoadShader(filepath.Join(t.TempDir(), "missing.wgsl")); got != "" {
		t.Errorf("missing shader = %q, want empty", got)
	}
	if got := LoadShader(""); got != "" {
		t.Errorf("empty path = %q, want empty", got)
	}
}
