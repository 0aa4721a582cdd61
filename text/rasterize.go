package text

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// GlyphMask is a rasterized glyph.
type GlyphMask struct {
	// Mask is the coverage of the glyph. Nil for glyphs without an outline
	// such as space.
	Mask *image.Alpha
	// Offset is the position of the mask's top-left corner relative to the
	// pen position on the baseline.
	Offset image.Point
}

type glyphKey struct {
	tf   *Typeface
	id   GlyphID
	size fixed.Int26_6
}

// Rasterizer renders glyph outlines into alpha masks and caches them by
// face, glyph and size. It is not safe for concurrent use.
type Rasterizer struct {
	buf   sfnt.Buffer
	vec   *vector.Rasterizer
	cache map[glyphKey]*GlyphMask
}

// NewRasterizer returns an empty rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		vec:   vector.NewRasterizer(0, 0),
		cache: make(map[glyphKey]*GlyphMask),
	}
}

// Reset drops every cached mask. Call it when the font changes.
func (r *Rasterizer) Reset() {
	clear(r.cache)
}

// Len reports the number of cached masks.
func (r *Rasterizer) Len() int { return len(r.cache) }

// Glyph returns the mask of glyph id of tf at size pixels per em.
func (r *Rasterizer) Glyph(tf *Typeface, id GlyphID, size float64) (*GlyphMask, error) {
	key := glyphKey{tf: tf, id: id, size: floatToFixed(size)}
	if m, ok := r.cache[key]; ok {
		return m, nil
	}

	segs, err := tf.outline.LoadGlyph(&r.buf, sfnt.GlyphIndex(id), key.size, nil)
	if err != nil {
		if errors.Is(err, sfnt.ErrNotFound) {
			m := &GlyphMask{}
			r.cache[key] = m
			return m, nil
		}
		return nil, fmt.Errorf("text: load glyph %d: %w", id, err)
	}
	m := r.rasterize(segs)
	r.cache[key] = m
	return m, nil
}

func (r *Rasterizer) rasterize(segs sfnt.Segments) *GlyphMask {
	if len(segs) == 0 {
		return &GlyphMask{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segs {
		for _, p := range s.Args[:argCount(s.Op)] {
			x, y := fixedToFloat(p.X), fixedToFloat(p.Y)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	x1, y1 := int(math.Ceil(maxX)), int(math.Ceil(maxY))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return &GlyphMask{}
	}

	r.vec.Reset(w, h)
	ox, oy := float32(x0), float32(y0)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(fixedToFloat(p.X)) - ox, float32(fixedToFloat(p.Y)) - oy
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			r.vec.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.vec.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			r.vec.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			r.vec.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	r.vec.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.vec.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return &GlyphMask{Mask: mask, Offset: image.Pt(x0, y0)}
}

func argCount(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

// Place rasterizes every glyph of run and calls fn with its mask and the
// destination rectangle. origin is the top-left pixel of the run's first
// cell. Glyphs without an outline are skipped.
func (r *Rasterizer) Place(run *GlyphRun, origin image.Point, fn func(mask *image.Alpha, dst image.Rectangle)) error {
	if run == nil || run.Face == nil {
		return nil
	}
	baseline := origin.Add(image.Pt(0, run.Face.Baseline))
	for _, g := range run.Glyphs {
		m, err := r.Glyph(run.Face.Typeface, g.ID, run.Face.FontSize)
		if err != nil {
			return err
		}
		if m.Mask == nil {
			continue
		}
		pen := baseline.Add(image.Pt(int(math.Round(g.X)), int(math.Round(g.Y))))
		fn(m.Mask, m.Mask.Bounds().Add(pen.Add(m.Offset)))
	}
	return nil
}

// DrawRun composites every glyph of run onto dst in color src.
func (r *Rasterizer) DrawRun(dst draw.Image, run *GlyphRun, origin image.Point, src image.Image) error {
	return r.Place(run, origin, func(mask *image.Alpha, rect image.Rectangle) {
		draw.DrawMask(dst, rect, src, image.Point{}, mask, image.Point{}, draw.Over)
	})
}
