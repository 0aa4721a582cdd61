package text

import (
	"math"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
)

// Collection is a source of typefaces grouped by family.
type Collection interface {
	// Match returns the face of family that best fits aspect. It reports
	// false when the family is absent or has no face of the requested
	// style.
	Match(family string, aspect font.Aspect) (*Typeface, bool)
}

// RegularAspect is the normalized aspect used when a family has no face of
// the requested style.
var RegularAspect = font.Aspect{
	Style:   font.StyleNormal,
	Weight:  font.WeightNormal,
	Stretch: font.StretchNormal,
}

// MemoryCollection holds typefaces parsed from bytes.
type MemoryCollection struct {
	families map[string][]*Typeface
}

// NewMemoryCollection returns an empty collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{families: make(map[string][]*Typeface)}
}

// DefaultCollection returns a collection holding the Go Mono family
// (regular, bold, italic, bold italic). It is always available, so a
// resolver built on it never exhausts its fallbacks.
func DefaultCollection() *MemoryCollection {
	c := NewMemoryCollection()
	for _, data := range [][]byte{gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF} {
		if err := c.AddFont(data); err != nil {
			// Embedded fonts are known good.
			panic(err)
		}
	}
	return c
}

// AddFont parses every face in data and registers it under the family name
// recorded in the font.
func (c *MemoryCollection) AddFont(data []byte) error {
	all, err := LoadTypefaces(data)
	if err != nil {
		return err
	}
	for _, tf := range all {
		c.Add(tf)
	}
	return nil
}

// Add registers tf under its own family name.
func (c *MemoryCollection) Add(tf *Typeface) {
	c.AddAs(tf.Family, tf)
}

// AddAs registers tf under family, which may differ from tf.Family when the
// face was located through an alias.
func (c *MemoryCollection) AddAs(family string, tf *Typeface) {
	key := font.NormalizeFamily(family)
	c.families[key] = append(c.families[key], tf)
}

// Families returns the normalized family names in the collection.
func (c *MemoryCollection) Families() []string {
	out := make([]string, 0, len(c.families))
	for k := range c.families {
		out = append(out, k)
	}
	return out
}

// Match implements Collection. Faces must share the requested style; among
// those, the closest weight wins, then the closest stretch.
func (c *MemoryCollection) Match(family string, aspect font.Aspect) (*Typeface, bool) {
	aspect.SetDefaults()
	var (
		best  *Typeface
		score = math.Inf(1)
	)
	for _, tf := range c.families[font.NormalizeFamily(family)] {
		if tf.Aspect.Style != aspect.Style {
			continue
		}
		s := math.Abs(float64(tf.Aspect.Weight-aspect.Weight))*10 +
			math.Abs(float64(tf.Aspect.Stretch-aspect.Stretch))
		if s < score {
			best, score = tf, s
		}
	}
	return best, best != nil
}

// Chain consults each collection in order and returns the first match.
type Chain []Collection

// Match implements Collection.
func (ch Chain) Match(family string, aspect font.Aspect) (*Typeface, bool) {
	for _, c := range ch {
		if tf, ok := c.Match(family, aspect); ok {
			return tf, true
		}
	}
	return nil, false
}
