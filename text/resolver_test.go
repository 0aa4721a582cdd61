package text

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gomono"
)

func TestResolveGoMonoMetrics(t *testing.T) {
	r := NewResolver(DefaultCollection())
	tests := []struct {
		name     string
		size     float64
		dpi      float64
		cell     image.Point
		baseline int
	}{
		// Go Mono: upem 2048, advance 1229, ascent 1935, descent 432, gap 0.
		{"12pt at 96dpi", 12, 96, image.Pt(10, 20), 16},
		{"12pt at 144dpi", 12, 144, image.Pt(14, 28), 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face, err := r.Resolve(FontRequest{Family: "Go Mono", Size: tt.size}, tt.dpi)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if face.CellSize != tt.cell {
				t.Errorf("CellSize = %v, want %v", face.CellSize, tt.cell)
			}
			if face.Baseline != tt.baseline {
				t.Errorf("Baseline = %d, want %d", face.Baseline, tt.baseline)
			}
			if face.LineHeight != face.CellSize.Y {
				t.Errorf("LineHeight = %d, want %d", face.LineHeight, face.CellSize.Y)
			}
			if face.RequestedSize != tt.size {
				t.Errorf("RequestedSize = %v, want unscaled %v", face.RequestedSize, tt.size)
			}
			wantPx := tt.size * tt.dpi / PointsPerInch
			if face.PixelHeight != wantPx {
				t.Errorf("PixelHeight = %v, want %v", face.PixelHeight, wantPx)
			}
		})
	}
}

func TestResolveWidthIsWholePixel(t *testing.T) {
	r := NewResolver(DefaultCollection())
	for _, size := range []float64{1, 5.5, 7, 9, 10.5, 12, 14, 18, 24, 72} {
		for _, dpi := range []float64{72, 96, 120, 144, 192} {
			face, err := r.Resolve(FontRequest{Family: "Go Mono", Size: size}, dpi)
			if err != nil {
				t.Fatalf("Resolve(%v, %v): %v", size, dpi, err)
			}
			if face.CellSize.X < 1 {
				t.Fatalf("size %v dpi %v: cell width %d < 1", size, dpi, face.CellSize.X)
			}
			ratio := 1229.0 / 2048.0
			if got := face.FontSize * ratio; math.Abs(got-float64(face.CellSize.X)) > 1e-9 {
				t.Errorf("size %v dpi %v: FontSize*ratio = %v, want %d", size, dpi, got, face.CellSize.X)
			}
			if face.Baseline <= 0 || face.Baseline >= face.CellSize.Y {
				t.Errorf("size %v dpi %v: baseline %d outside cell height %d", size, dpi, face.Baseline, face.CellSize.Y)
			}
		}
	}
}

func TestResolveMissingFamilyFallsBack(t *testing.T) {
	r := NewResolver(DefaultCollection())
	face, err := r.Resolve(FontRequest{Family: "No Such Font Family", Size: 12}, 96)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if face.Family != "Go Mono" {
		t.Errorf("Family = %q, want fallback Go Mono", face.Family)
	}
}

func TestResolveFallbackOrder(t *testing.T) {
	regular := mustTypeface(t)
	c := NewMemoryCollection()
	c.AddAs("Liberation Mono", regular)
	c.AddAs("Courier New", regular)

	r := NewResolver(c)
	face, err := r.Resolve(FontRequest{Family: "Missing", Size: 12}, 96)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if face.Typeface != regular {
		t.Error("expected the registered face")
	}
	// The first present fallback must win; the log records which.
	if tf, ok := c.Match("Liberation Mono", RegularAspect); !ok || tf != regular {
		t.Error("Liberation Mono should be present")
	}
}

// recordingCollection logs every Match call.
type recordingCollection struct {
	inner Collection
	calls []string
}

func (c *recordingCollection) Match(family string, aspect font.Aspect) (*Typeface, bool) {
	tag := family
	if aspect == RegularAspect {
		tag += "/regular"
	}
	c.calls = append(c.calls, tag)
	return c.inner.Match(family, aspect)
}

func TestResolveRetriesRegularPerFallback(t *testing.T) {
	mem := NewMemoryCollection()
	mem.AddAs("Courier New", mustTypeface(t)) // regular only

	rc := &recordingCollection{inner: mem}
	r := NewResolver(rc)
	r.SetFallbacks([]string{"Ghost Mono", "Courier New"})

	face, err := r.Resolve(FontRequest{
		Family: "Missing",
		Style:  font.StyleItalic,
		Weight: font.WeightBold,
		Size:   12,
	}, 96)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if face.Aspect.Style != font.StyleNormal {
		t.Errorf("Style = %v, want normal after retry", face.Aspect.Style)
	}

	want := []string{"Missing", "Missing/regular", "Ghost Mono", "Ghost Mono/regular", "Courier New", "Courier New/regular"}
	if len(rc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rc.calls, want)
	}
	for i := range want {
		if rc.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, rc.calls[i], want[i])
		}
	}
}

func TestResolveInstalledFamilyWithoutStyle(t *testing.T) {
	regular := mustTypeface(t)
	mem := NewMemoryCollection()
	mem.AddAs("Acme Mono", regular)

	// Go Mono italic is available in the fallback family.
	r := NewResolver(Chain{mem, DefaultCollection()})
	face, err := r.Resolve(FontRequest{Family: "Acme Mono", Style: font.StyleItalic, Size: 12}, 96)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if face.Typeface != regular {
		t.Errorf("resolved %q style=%v, want the installed Acme Mono face", face.Family, face.Aspect.Style)
	}
	if face.Aspect.Style != font.StyleNormal {
		t.Errorf("Style = %v, want normal", face.Aspect.Style)
	}
}

func TestResolveExhaustedChain(t *testing.T) {
	r := NewResolver(NewMemoryCollection())
	_, err := r.Resolve(FontRequest{Family: "Anything", Size: 12}, 96)
	if !errors.Is(err, ErrNoFontFound) {
		t.Errorf("err = %v, want ErrNoFontFound", err)
	}
}

func TestResolveInvalidSize(t *testing.T) {
	r := NewResolver(DefaultCollection())
	for _, tc := range []struct{ size, dpi float64 }{{0, 96}, {-1, 96}, {12, 0}} {
		if _, err := r.Resolve(FontRequest{Family: "Go Mono", Size: tc.size}, tc.dpi); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Resolve(size=%v, dpi=%v) err = %v, want ErrInvalidSize", tc.size, tc.dpi, err)
		}
	}
}

func TestResolveWeightAndLocale(t *testing.T) {
	r := NewResolver(DefaultCollection())
	face, err := r.Resolve(FontRequest{Family: "go mono", Weight: font.WeightBold, Locale: "de_DE", Size: 10}, 96)
	if err != nil {
		t.Fatal(err)
	}
	if face.Aspect.Weight != font.WeightBold {
		t.Errorf("Weight = %v, want bold", face.Aspect.Weight)
	}
	if face.Locale != "de-DE" {
		t.Errorf("Locale = %q, want de-DE", face.Locale)
	}
}

func TestCanonicalLocale(t *testing.T) {
	tests := map[string]string{
		"":        DefaultLocale,
		"en-us":   "en-US",
		"ja":      "ja",
		"!!bogus": DefaultLocale,
	}
	for in, want := range tests {
		if got := canonicalLocale(in); got != want {
			t.Errorf("canonicalLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func mustTypeface(t *testing.T) *Typeface {
	t.Helper()
	tf, err := LoadTypeface(gomono.TTF, 0)
	if err != nil {
		t.Fatalf("LoadTypeface: %v", err)
	}
	return tf
}
