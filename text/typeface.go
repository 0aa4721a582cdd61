package text

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// GlyphID is a glyph index within a typeface.
type GlyphID = font.GID

// Typeface is one loaded face of a font file. It carries two views of the
// same bytes: the go-text face used for metrics and shaping, and the sfnt
// font used for outline rasterization.
//
// A Typeface is not safe for concurrent use.
type Typeface struct {
	// Family is the family name recorded in the font's name table.
	Family string

	// Aspect is the face's style, weight and stretch.
	Aspect font.Aspect

	face    *font.Face
	outline *sfnt.Font
}

// LoadTypefaces parses every face of an OpenType font or collection.
func LoadTypefaces(data []byte) ([]*Typeface, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	faces, err := font.ParseTTC(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse outlines: %w", err)
	}
	if coll.NumFonts() != len(faces) {
		return nil, fmt.Errorf("text: face count mismatch (%d vs %d)", len(faces), coll.NumFonts())
	}

	out := make([]*Typeface, len(faces))
	for i, face := range faces {
		outline, err := coll.Font(i)
		if err != nil {
			return nil, fmt.Errorf("text: load outline face %d: %w", i, err)
		}
		desc := face.Font.Describe()
		out[i] = &Typeface{
			Family:  desc.Family,
			Aspect:  desc.Aspect,
			face:    face,
			outline: outline,
		}
	}
	return out, nil
}

// LoadTypeface parses the index'th face of an OpenType font or collection.
func LoadTypeface(data []byte, index int) (*Typeface, error) {
	all, err := LoadTypefaces(data)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(all) {
		return nil, fmt.Errorf("text: face index %d out of range (%d faces)", index, len(all))
	}
	return all[index], nil
}

// Face returns the go-text face, for use with go-text shaping.
func (t *Typeface) Face() *font.Face { return t.face }

// Upem returns the design units per em.
func (t *Typeface) Upem() float64 { return float64(t.face.Upem()) }

// GlyphIndex returns the nominal glyph for r.
func (t *Typeface) GlyphIndex(r rune) (GlyphID, bool) {
	return t.face.NominalGlyph(r)
}

// designMetrics are the vertical font metrics in design units. Descent is
// positive below the baseline.
type designMetrics struct {
	ascent, descent, lineGap float64

	underlinePos, underlineThick float64
	strikePos, strikeThick       float64
}

func (t *Typeface) designMetrics() designMetrics {
	var m designMetrics
	if ext, ok := t.face.FontHExtents(); ok {
		m.ascent = float64(ext.Ascender)
		m.descent = -float64(ext.Descender)
		m.lineGap = float64(ext.LineGap)
	} else {
		// Faces without horizontal extents fall back to 80/20 of the em.
		m.ascent = 0.8 * t.Upem()
		m.descent = 0.2 * t.Upem()
	}
	m.underlinePos = float64(t.face.LineMetric(font.UnderlinePosition))
	m.underlineThick = float64(t.face.LineMetric(font.UnderlineThickness))
	m.strikePos = float64(t.face.LineMetric(font.StrikethroughPosition))
	m.strikeThick = float64(t.face.LineMetric(font.StrikethroughThickness))
	return m
}

// designAdvance returns the horizontal advance of g in design units.
func (t *Typeface) designAdvance(g GlyphID) float64 {
	return float64(t.face.HorizontalAdvance(g))
}
