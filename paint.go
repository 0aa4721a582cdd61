package termrender

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/termrender/render"
	"github.com/gogpu/termrender/text"
)

// GridLines selects the lines PaintGridLines draws in each cell.
type GridLines uint8

// Grid line flags.
const (
	GridTop GridLines = 1 << iota
	GridLeft
	GridBottom
	GridRight
	GridUnderline
	GridStrikethrough
)

// target returns the render target of the open frame.
func (e *Engine) target() (*render.Target, error) {
	if !e.painting {
		return nil, fmt.Errorf("%w: paint outside StartPaint/EndPaint", ErrInvalidState)
	}
	t := e.mgr.Target()
	if t == nil {
		return nil, render.ErrNotReady
	}
	return t, nil
}

// PaintBackground clears the dirty cells to the default background and
// draws the background image over them. With everything invalid the whole
// target, padding included, is cleared.
func (e *Engine) PaintBackground() error {
	t, err := e.target()
	if err != nil {
		return err
	}
	var areas []image.Rectangle
	if e.tracker.AllInvalid() {
		areas = []image.Rectangle{t.Bounds()}
	} else {
		for _, r := range e.tracker.Runs() {
			areas = append(areas, e.toPixels(r))
		}
	}

	bg := e.defaultBackgroundBrush().NRGBA()
	for _, r := range areas {
		t.PushClip(r)
		t.Clear(bg)
		if !e.bgImage.Empty() {
			t.DrawImage(e.bgImage.Pixels, t.Bounds(), image.Point{}, e.settings.BackgroundImageOpacity)
		}
		t.PopClip()
	}
	return nil
}

// PaintBufferLine shapes clusters and draws them starting at cell coord,
// on the current background and in the current foreground. Glyphs are
// clipped to the cells of the run.
func (e *Engine) PaintBufferLine(clusters []text.Cluster, coord image.Point) error {
	t, err := e.target()
	if err != nil {
		return err
	}
	if e.face == nil {
		return ErrNoFont
	}
	if len(clusters) == 0 {
		return nil
	}
	run, err := e.shaper.Shape(e.face, clusters)
	if err != nil {
		return fmt.Errorf("termrender: shape: %w", err)
	}

	cells := image.Rectangle{Min: coord, Max: coord.Add(image.Pt(run.Columns, 1))}
	area := e.toPixels(cells)
	t.PushClip(area)
	defer t.PopClip()

	if bg := t.Background; bg.Color == e.settings.DefaultBackground && !e.bgImage.Empty() {
		// Leave the background image visible.
		t.Clear(bg.NRGBA())
		t.DrawImage(e.bgImage.Pixels, t.Bounds(), image.Point{}, e.settings.BackgroundImageOpacity)
	} else {
		t.Clear(bg.NRGBA())
	}

	saved := t.AA
	t.AA = e.effectiveAA()
	defer func() { t.AA = saved }()
	return e.raster.Place(run, area.Min, func(mask *image.Alpha, r image.Rectangle) {
		t.DrawMask(mask, r, image.Point{}, t.Foreground)
	})
}

// PaintGridLines draws lines in each of cells cells starting at coord. The
// box lines follow the pixel grid: top and left span the whole cell, bottom
// and right sit on the last pixel row and column.
func (e *Engine) PaintGridLines(lines GridLines, c color.Color, cells int, coord image.Point) error {
	t, err := e.target()
	if err != nil {
		return err
	}
	if cells <= 0 || lines == 0 {
		return nil
	}
	b := render.NewBrush(c)
	w, h := float64(e.cell.X), float64(e.cell.Y)
	origin := e.toPixels(image.Rectangle{Min: coord, Max: coord}).Min
	x, y := float64(origin.X), float64(origin.Y)

	for i := 0; i < cells; i++ {
		if lines&GridTop != 0 {
			t.DrawLine(x, y, x+w, y, b)
		}
		if lines&GridLeft != 0 {
			t.DrawLine(x, y, x, y+h, b)
		}
		if lines&GridBottom != 0 {
			t.DrawLine(x, y+h-1, x+w-1, y+h-1, b)
		}
		if lines&GridRight != 0 {
			t.DrawLine(x+w-1, y, x+w-1, y+h-1, b)
		}
		x += w
	}

	if e.face == nil {
		return nil
	}
	span := image.Rect(origin.X, origin.Y, origin.X+cells*e.cell.X, origin.Y)
	if lines&GridUnderline != 0 {
		d := e.face.Underline
		t.FillRect(image.Rect(span.Min.X, span.Min.Y+d.Position, span.Max.X, span.Min.Y+d.Position+d.Thickness), b)
	}
	if lines&GridStrikethrough != 0 {
		d := e.face.Strikethrough
		t.FillRect(image.Rect(span.Min.X, span.Min.Y+d.Position, span.Max.X, span.Min.Y+d.Position+d.Thickness), b)
	}
	return nil
}

// PaintSelection highlights the cells of r with the selection background.
func (e *Engine) PaintSelection(r image.Rectangle) error {
	t, err := e.target()
	if err != nil {
		return err
	}
	t.FillRect(e.toPixels(r), e.selection)
	return nil
}

// PaintCursor is a no-op: the cursor is drawn with the glyphs of its line.
func (e *Engine) PaintCursor() error {
	_, err := e.target()
	return err
}
