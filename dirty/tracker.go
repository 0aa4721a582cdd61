// Package dirty tracks which cells of a character grid must be redrawn
// before the next present.
//
// The tracker keeps one bit per cell packed into uint64 words, a pending
// scroll delta, and a sticky "everything is invalid" flag. It is not safe
// for concurrent use: all calls are expected on the render thread.
package dirty

import (
	"image"
	"math/bits"
)

// Tracker is the invalidation state of a grid of cells.
//
// Bit index = y*cols + x. Word index = bit index / 64.
type Tracker struct {
	words []uint64
	cols  int
	rows  int

	scroll     image.Point
	allInvalid bool
	rowExpand  bool
}

// New creates a tracker for a grid of cols x rows cells. All cells start
// clean. Negative dimensions are treated as zero.
func New(cols, rows int) *Tracker {
	t := &Tracker{}
	t.alloc(cols, rows)
	return t
}

func (t *Tracker) alloc(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	t.cols, t.rows = cols, rows
	t.words = make([]uint64, (cols*rows+63)/64)
}

// Size returns the grid dimensions in cells.
func (t *Tracker) Size() image.Point {
	return image.Pt(t.cols, t.rows)
}

// Bounds returns the grid as a cell rectangle anchored at the origin.
func (t *Tracker) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.cols, t.rows)
}

// Resize changes the grid dimensions. Prior content cannot be mapped onto
// the new grid, so every cell becomes dirty.
func (t *Tracker) Resize(cols, rows int) {
	t.alloc(cols, rows)
	t.scroll = image.Point{}
	t.InvalidateAll()
}

// SetRowExpansion enables the whole-row policy: every invalidated rectangle
// is widened to the full grid width before it is marked.
func (t *Tracker) SetRowExpansion(on bool) {
	t.rowExpand = on
}

// RowExpansion reports whether the whole-row policy is on.
func (t *Tracker) RowExpansion() bool {
	return t.rowExpand
}

func (t *Tracker) set(x, y int) {
	idx := y*t.cols + x
	t.words[idx/64] |= 1 << (idx & 63)
}

func (t *Tracker) get(x, y int) bool {
	idx := y*t.cols + x
	return t.words[idx/64]&(1<<(idx&63)) != 0
}

// InvalidateRect marks every cell of r as dirty. The rectangle is clipped to
// the grid; cells outside it are ignored.
func (t *Tracker) InvalidateRect(r image.Rectangle) {
	if t.rowExpand && !r.Empty() {
		r.Min.X, r.Max.X = 0, t.cols
	}
	r = r.Intersect(t.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t.set(x, y)
		}
	}
	t.checkFull()
}

// InvalidateCell marks a single cell as dirty.
func (t *Tracker) InvalidateCell(p image.Point) {
	t.InvalidateRect(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
}

// InvalidateRects marks the union of rs as dirty.
func (t *Tracker) InvalidateRects(rs []image.Rectangle) {
	for _, r := range rs {
		t.InvalidateRect(r)
	}
}

// InvalidateScroll records that the grid content moved by delta cells.
// The existing dirty bits travel with the content, the band uncovered by the
// move becomes dirty, and the delta accumulates into ScrollDelta.
func (t *Tracker) InvalidateScroll(delta image.Point) {
	if delta == (image.Point{}) {
		return
	}

	moved := make([]uint64, len(t.words))
	for y := 0; y < t.rows; y++ {
		ny := y + delta.Y
		if ny < 0 || ny >= t.rows {
			continue
		}
		for x := 0; x < t.cols; x++ {
			nx := x + delta.X
			if nx < 0 || nx >= t.cols || !t.get(x, y) {
				continue
			}
			idx := ny*t.cols + nx
			moved[idx/64] |= 1 << (idx & 63)
		}
	}
	t.words = moved
	t.scroll = t.scroll.Add(delta)

	// Revealed bands are marked directly: they must span the full grid
	// regardless of the row expansion policy.
	for _, band := range revealed(t.Bounds(), delta) {
		for y := band.Min.Y; y < band.Max.Y; y++ {
			for x := band.Min.X; x < band.Max.X; x++ {
				t.set(x, y)
			}
		}
	}

	if abs(t.scroll.Y) >= t.rows || abs(t.scroll.X) >= t.cols {
		t.allInvalid = true
	}
	t.checkFull()
}

// revealed returns the bands of grid that have no source content after the
// grid moved by delta.
func revealed(grid image.Rectangle, delta image.Point) []image.Rectangle {
	var bands []image.Rectangle
	switch {
	case delta.Y > 0:
		bands = append(bands, image.Rect(grid.Min.X, grid.Min.Y, grid.Max.X, grid.Min.Y+delta.Y))
	case delta.Y < 0:
		bands = append(bands, image.Rect(grid.Min.X, grid.Max.Y+delta.Y, grid.Max.X, grid.Max.Y))
	}
	switch {
	case delta.X > 0:
		bands = append(bands, image.Rect(grid.Min.X, grid.Min.Y, grid.Min.X+delta.X, grid.Max.Y))
	case delta.X < 0:
		bands = append(bands, image.Rect(grid.Max.X+delta.X, grid.Min.Y, grid.Max.X, grid.Max.Y))
	}
	for i := range bands {
		bands[i] = bands[i].Intersect(grid)
	}
	return bands
}

// InvalidateAll marks every cell dirty and sets the all-invalid flag.
func (t *Tracker) InvalidateAll() {
	total := t.cols * t.rows
	full := total / 64
	for i := 0; i < full; i++ {
		t.words[i] = ^uint64(0)
	}
	if rem := total % 64; rem > 0 {
		t.words[full] = (uint64(1) << rem) - 1
	}
	t.allInvalid = true
}

// checkFull promotes a completely dirty bitmap to the all-invalid state.
func (t *Tracker) checkFull() {
	if !t.allInvalid && t.cols*t.rows > 0 && t.Count() == t.cols*t.rows {
		t.allInvalid = true
	}
}

// AllInvalid reports whether the whole grid must be repainted. Once set it
// stays set until Reset.
func (t *Tracker) AllInvalid() bool {
	return t.allInvalid
}

// ScrollDelta returns the accumulated scroll since the last Reset, in cells.
func (t *Tracker) ScrollDelta() image.Point {
	return t.scroll
}

// IsDirty reports whether the cell at p is dirty. Out-of-range cells are
// reported clean.
func (t *Tracker) IsDirty(p image.Point) bool {
	if !p.In(t.Bounds()) {
		return false
	}
	return t.get(p.X, p.Y)
}

// IsEmpty reports whether no cell is dirty.
func (t *Tracker) IsEmpty() bool {
	for _, w := range t.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty cells.
func (t *Tracker) Count() int {
	n := 0
	for _, w := range t.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEachDirty calls fn for every dirty cell in scan order.
func (t *Tracker) ForEachDirty(fn func(p image.Point)) {
	for wi, w := range t.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			idx := wi*64 + bit
			fn(image.Pt(idx%t.cols, idx/t.cols))
			w &^= 1 << bit
		}
	}
}

// Runs returns the dirty cells as non-overlapping rectangles. Each row is
// run-length encoded into horizontal spans and identical spans on adjacent
// rows are merged, so the result is ordered top to bottom, then left to
// right. Calling Runs does not modify the tracker.
func (t *Tracker) Runs() []image.Rectangle {
	var out []image.Rectangle
	// open maps a span [x0,x1) to the index in out of the rectangle that
	// ends on the previous row.
	open := map[[2]int]int{}
	for y := 0; y < t.rows; y++ {
		next := map[[2]int]int{}
		x := 0
		for x < t.cols {
			if !t.get(x, y) {
				x++
				continue
			}
			start := x
			for x < t.cols && t.get(x, y) {
				x++
			}
			span := [2]int{start, x}
			if i, ok := open[span]; ok {
				out[i].Max.Y = y + 1
				next[span] = i
				continue
			}
			out = append(out, image.Rect(start, y, x, y+1))
			next[span] = len(out) - 1
		}
		open = next
	}
	return out
}

// Reset clears every dirty bit, the scroll delta and the all-invalid flag.
func (t *Tracker) Reset() {
	clear(t.words)
	t.scroll = image.Point{}
	t.allInvalid = false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
