package text

import (
	"fmt"
	"image"
	"math"

	"github.com/go-text/typesetting/font"

	"github.com/gogpu/termrender/internal/logging"
)

// PointsPerInch is the typographic conversion between points and inches.
const PointsPerInch = 72

// DefaultFallbacks is the ordered list of monospace families tried when the
// requested family is missing.
var DefaultFallbacks = []string{"Go Mono", "DejaVu Sans Mono", "Liberation Mono", "Courier New"}

// FontRequest describes the font the caller wants.
type FontRequest struct {
	Family  string
	Weight  font.Weight
	Style   font.Style
	Stretch font.Stretch
	// Locale is a BCP 47 tag. Empty selects DefaultLocale.
	Locale string
	// Size is the nominal size in points.
	Size float64
}

func (r FontRequest) aspect() font.Aspect {
	a := font.Aspect{Style: r.Style, Weight: r.Weight, Stretch: r.Stretch}
	a.SetDefaults()
	return a
}

// LineDecoration is the placement of an underline or strikethrough, in
// pixels from the top of the cell.
type LineDecoration struct {
	Position  int
	Thickness int
}

// FontFace is a resolved font with integer cell metrics. It is immutable.
type FontFace struct {
	// Family is the family actually used, which differs from the request
	// when a fallback was taken.
	Family string
	// Aspect is the style of the face actually used.
	Aspect font.Aspect
	// Locale is the canonical locale used for shaping.
	Locale string

	// Typeface is the face handle.
	Typeface *Typeface

	// RequestedSize is the nominal point size as requested, independent of
	// DPI, for round-tripping user settings.
	RequestedSize float64
	// PixelHeight is the requested size converted to pixels at the DPI.
	PixelHeight float64
	// FontSize is the em size in pixels that yields a whole-pixel advance.
	FontSize float64

	// CellSize is the pixel size of one grid cell.
	CellSize image.Point
	// Baseline is the distance in pixels from the cell top to the baseline.
	Baseline int
	// LineHeight equals CellSize.Y.
	LineHeight int

	Underline     LineDecoration
	Strikethrough LineDecoration
}

// Resolver resolves FontRequests against a Collection.
type Resolver struct {
	collection Collection
	fallbacks  []string
}

// NewResolver returns a resolver over c using DefaultFallbacks.
func NewResolver(c Collection) *Resolver {
	return &Resolver{collection: c, fallbacks: DefaultFallbacks}
}

// SetFallbacks replaces the fallback family list.
func (r *Resolver) SetFallbacks(families []string) {
	r.fallbacks = append([]string(nil), families...)
}

// Fallbacks returns the fallback family list.
func (r *Resolver) Fallbacks() []string {
	return r.fallbacks
}

// Resolve finds a face for req and computes its cell metrics at dpi.
//
// The requested family is tried with the requested aspect and then with
// RegularAspect. Only when the family is absent is each fallback family
// tried, again first with the requested aspect and then with RegularAspect. ErrNoFontFound is returned once the list is exhausted.
func (r *Resolver) Resolve(req FontRequest, dpi float64) (*FontFace, error) {
	if req.Size <= 0 || dpi <= 0 {
		return nil, fmt.Errorf("%w: size=%v dpi=%v", ErrInvalidSize, req.Size, dpi)
	}
	tf, err := r.find(req)
	if err != nil {
		return nil, err
	}
	return computeFace(tf, req, dpi)
}

func (r *Resolver) find(req FontRequest) (*Typeface, error) {
	aspect := req.aspect()
	if req.Family != "" {
		if tf, ok := r.collection.Match(req.Family, aspect); ok {
			return tf, nil
		}
		// An installed family missing the style still beats a fallback.
		if tf, ok := r.collection.Match(req.Family, RegularAspect); ok {
			logging.Logger().Info("text: font style unavailable, using regular", "family", req.Family)
			return tf, nil
		}
	}
	for _, family := range r.fallbacks {
		if tf, ok := r.collection.Match(family, aspect); ok {
			logging.Logger().Info("text: font fallback", "requested", req.Family, "using", family)
			return tf, nil
		}
		if tf, ok := r.collection.Match(family, RegularAspect); ok {
			logging.Logger().Info("text: font fallback (regular)", "requested", req.Family, "using", family)
			return tf, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoFontFound, req.Family)
}

// computeFace derives pixel-exact cell metrics for tf.
func computeFace(tf *Typeface, req FontRequest, dpi float64) (*FontFace, error) {
	gid, ok := tf.GlyphIndex('M')
	if !ok {
		return nil, fmt.Errorf("%w: 'M' in %q", ErrGlyphNotFound, tf.Family)
	}
	upem := tf.Upem()
	advance := tf.designAdvance(gid)
	if upem <= 0 || advance <= 0 {
		return nil, fmt.Errorf("%w: 'M' has no advance in %q", ErrGlyphNotFound, tf.Family)
	}

	heightDesired := req.Size * dpi / PointsPerInch
	ratio := advance / upem
	widthExact := math.Round(heightDesired * ratio)
	if widthExact < 1 {
		widthExact = 1
	}
	fontSize := widthExact / ratio

	dm := tf.designMetrics()
	scale := fontSize / upem
	ascent := dm.ascent * scale
	descent := dm.descent * scale
	halfGap := dm.lineGap * scale / 2

	fullAscent := int(math.Ceil(ascent + halfGap))
	fullDescent := int(math.Ceil(descent + halfGap))
	height := fullAscent + fullDescent

	face := &FontFace{
		Family:        tf.Family,
		Aspect:        tf.Aspect,
		Locale:        canonicalLocale(req.Locale),
		Typeface:      tf,
		RequestedSize: req.Size,
		PixelHeight:   heightDesired,
		FontSize:      fontSize,
		CellSize:      image.Pt(int(widthExact), height),
		Baseline:      fullAscent,
		LineHeight:    height,
	}
	face.Underline = decoration(fullAscent, dm.underlinePos*scale, dm.underlineThick*scale, -float64(fullDescent)/2)
	face.Strikethrough = decoration(fullAscent, dm.strikePos*scale, dm.strikeThick*scale, ascent/3)
	return face, nil
}

// decoration places a line whose top is pos pixels above the baseline.
// Missing metrics (zero) fall back to defaultPos.
func decoration(baseline int, pos, thick, defaultPos float64) LineDecoration {
	if pos == 0 {
		pos = defaultPos
	}
	t := int(math.Round(thick))
	if t < 1 {
		t = 1
	}
	return LineDecoration{Position: baseline - int(math.Round(pos)), Thickness: t}
}
