package text

// PositionedGlyph is a glyph placed relative to the start of a run, on the
// baseline. Y grows downward.
type PositionedGlyph struct {
	ID GlyphID
	X  float64
	Y  float64
	// Cluster is the index of the source cluster.
	Cluster int
}

// GlyphRun is a shaped run of clusters snapped to grid columns.
type GlyphRun struct {
	Face    *FontFace
	Glyphs  []PositionedGlyph
	Columns int
}

// Shaper turns a run of clusters into positioned glyphs. Each cluster's
// glyphs start at the left edge of its first column, so the run stays on
// the grid regardless of the font's natural advances.
type Shaper interface {
	Shape(face *FontFace, clusters []Cluster) (*GlyphRun, error)
}
