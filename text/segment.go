package text

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Cluster is one grapheme cluster placed on the grid.
type Cluster struct {
	Text string
	// Columns is the number of grid cells the cluster occupies (1 or 2).
	Columns int
}

// SplitCells breaks s into grapheme clusters with their terminal column
// widths. Zero-width clusters (lone combining marks, controls) still take
// one column so every cluster maps to a cell.
func SplitCells(s string) []Cluster {
	var out []Cluster
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cl := g.Str()
		w := runewidth.StringWidth(cl)
		if w < 1 {
			w = 1
		}
		if w > 2 {
			w = 2
		}
		out = append(out, Cluster{Text: cl, Columns: w})
	}
	return out
}

// Columns returns the total grid width of clusters.
func Columns(clusters []Cluster) int {
	n := 0
	for _, c := range clusters {
		n += c.Columns
	}
	return n
}
