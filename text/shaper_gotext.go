package text

import (
	"fmt"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// HarfBuzzShaper shapes runs with go-text/typesetting's HarfBuzz port,
// which applies ligatures, marks and contextual forms within each run.
//
// HarfBuzzShaper keeps scratch buffers and is not safe for concurrent use.
type HarfBuzzShaper struct {
	hb shaping.HarfbuzzShaper
}

// NewHarfBuzzShaper returns a ready shaper.
func NewHarfBuzzShaper() *HarfBuzzShaper {
	return &HarfBuzzShaper{}
}

// Shape implements Shaper.
func (s *HarfBuzzShaper) Shape(face *FontFace, clusters []Cluster) (*GlyphRun, error) {
	if face == nil || face.Typeface == nil {
		return nil, fmt.Errorf("text: shape: %w", ErrNoFontFound)
	}
	run := &GlyphRun{Face: face, Columns: Columns(clusters)}
	if len(clusters) == 0 {
		return run, nil
	}

	var runes []rune
	var owner []int
	colStart := make([]int, len(clusters))
	col := 0
	for i, c := range clusters {
		colStart[i] = col
		col += c.Columns
		for _, r := range c.Text {
			runes = append(runes, r)
			owner = append(owner, i)
		}
	}

	out := s.hb.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face.Typeface.Face(),
		Size:      floatToFixed(face.FontSize),
		Script:    detectScript(runes),
		Language:  shapingLanguage(face.Locale),
	})

	cellW := float64(face.CellSize.X)
	var pen float64
	last := -1
	run.Glyphs = make([]PositionedGlyph, 0, len(out.Glyphs))
	for _, g := range out.Glyphs {
		ci := owner[g.ClusterIndex]
		if ci != last {
			pen, last = 0, ci
		}
		run.Glyphs = append(run.Glyphs, PositionedGlyph{
			ID:      g.GlyphID,
			X:       float64(colStart[ci])*cellW + pen + fixedToFloat(g.XOffset),
			Y:       -fixedToFloat(g.YOffset),
			Cluster: ci,
		})
		pen += fixedToFloat(g.XAdvance)
	}
	return run, nil
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
