package termrender

import "image"

// Invalidate marks the cells of r as dirty.
func (e *Engine) Invalidate(r image.Rectangle) {
	if !e.tracker.AllInvalid() {
		e.tracker.InvalidateRect(r)
	}
}

// InvalidateCursor marks the cell under the cursor as dirty.
func (e *Engine) InvalidateCursor(p image.Point) {
	if !e.tracker.AllInvalid() {
		e.tracker.InvalidateCell(p)
	}
}

// InvalidateSystem marks every cell touched by the pixel rectangle r, as
// requested by the window system.
func (e *Engine) InvalidateSystem(r image.Rectangle) {
	if !e.tracker.AllInvalid() {
		e.tracker.InvalidateRect(e.toCells(r))
	}
}

// InvalidateSelection marks the cells of the old or new selection.
func (e *Engine) InvalidateSelection(rs []image.Rectangle) {
	if !e.tracker.AllInvalid() {
		e.tracker.InvalidateRects(rs)
	}
}

// InvalidateScroll records that the grid content moved by delta cells.
func (e *Engine) InvalidateScroll(delta image.Point) {
	if !e.tracker.AllInvalid() {
		e.tracker.InvalidateScroll(delta)
	}
}

// InvalidateAll marks the whole grid dirty and forces a full present.
func (e *Engine) InvalidateAll() {
	e.tracker.InvalidateAll()
	e.firstFrame = true
}

// AllInvalid reports whether the next frame repaints everything.
func (e *Engine) AllInvalid() bool { return e.tracker.AllInvalid() }
