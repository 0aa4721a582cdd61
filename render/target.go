package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Brush is a solid color with an opacity multiplier.
type Brush struct {
	Color   color.NRGBA
	Opacity float64
}

// NewBrush returns an opaque brush of c.
func NewBrush(c color.Color) Brush {
	return Brush{Color: color.NRGBAModel.Convert(c).(color.NRGBA), Opacity: 1}
}

// SetColor replaces the brush color and keeps the opacity.
func (b *Brush) SetColor(c color.Color) {
	b.Color = color.NRGBAModel.Convert(c).(color.NRGBA)
}

// WithOpacity returns a copy of b with opacity o.
func (b Brush) WithOpacity(o float64) Brush {
	b.Opacity = o
	return b
}

// NRGBA returns the brush color with the opacity folded into alpha.
func (b Brush) NRGBA() color.NRGBA {
	c := b.Color
	o := math.Max(0, math.Min(1, b.Opacity))
	c.A = uint8(math.Round(float64(c.A) * o))
	return c
}

func (b Brush) source() *image.Uniform {
	return image.NewUniform(b.NRGBA())
}

// StrokeStyle describes lines drawn by DrawLine.
type StrokeStyle struct {
	// Width in pixels. Zero draws one pixel.
	Width float64
	// Dash alternates on and off lengths in pixels. Empty is solid.
	Dash []float64
}

// Target is the CPU render target: a back buffer that frames are drawn
// into and the front buffer last presented.
type Target struct {
	back  *image.RGBA
	front *image.RGBA
	clips []image.Rectangle

	Foreground Brush
	Background Brush
	Stroke     StrokeStyle
	AA         Antialias

	raster *vector.Rasterizer
}

// NewTarget returns a target of w x h pixels with a white foreground, a
// black background and a one pixel solid stroke.
func NewTarget(w, h int) *Target {
	t := &Target{
		Foreground: NewBrush(color.White),
		Background: NewBrush(color.Black),
		Stroke:     StrokeStyle{Width: 1},
		raster:     vector.NewRasterizer(0, 0),
	}
	t.Resize(w, h)
	return t
}

// Resize reallocates both buffers. Their content is lost.
func (t *Target) Resize(w, h int) {
	r := image.Rect(0, 0, max(w, 0), max(h, 0))
	t.back = image.NewRGBA(r)
	t.front = image.NewRGBA(r)
	t.clips = t.clips[:0]
}

// Size returns the target size in pixels.
func (t *Target) Size() image.Point { return t.back.Bounds().Size() }

// Bounds returns the target rectangle.
func (t *Target) Bounds() image.Rectangle { return t.back.Bounds() }

// Back returns the buffer drawn into.
func (t *Target) Back() *image.RGBA { return t.back }

// Front returns the buffer last presented.
func (t *Target) Front() *image.RGBA { return t.front }

func (t *Target) flip() {
	t.back, t.front = t.front, t.back
}

// CopyFrontToBack makes the back buffer a copy of the front buffer.
func (t *Target) CopyFrontToBack() {
	copy(t.back.Pix, t.front.Pix)
}

// Clip returns the current clip rectangle.
func (t *Target) Clip() image.Rectangle {
	if n := len(t.clips); n > 0 {
		return t.clips[n-1]
	}
	return t.back.Bounds()
}

// PushClip restricts drawing to r intersected with the current clip.
func (t *Target) PushClip(r image.Rectangle) {
	t.clips = append(t.clips, r.Intersect(t.Clip()))
}

// PopClip restores the previous clip. Popping an empty stack is a no-op.
func (t *Target) PopClip() {
	if n := len(t.clips); n > 0 {
		t.clips = t.clips[:n-1]
	}
}

// Clear replaces every pixel in the clip with c.
func (t *Target) Clear(c color.Color) {
	draw.Draw(t.back, t.Clip(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillRect blends b over r.
func (t *Target) FillRect(r image.Rectangle, b Brush) {
	r = r.Intersect(t.Clip())
	if r.Empty() {
		return
	}
	op := draw.Over
	if b.Opacity >= 1 && b.Color.A == 0xff {
		op = draw.Src
	}
	draw.Draw(t.back, r, b.source(), image.Point{}, op)
}

// DrawLine strokes the segment from (x0, y0) to (x1, y1) with the target's
// stroke style. Coordinates name pixel corners; the stroke is centered on
// the pixel row or column starting there, so a one pixel line at x covers
// exactly column x.
func (t *Target) DrawLine(x0, y0, x1, y1 float64, b Brush) {
	x0, y0, x1, y1 = x0+0.5, y0+0.5, x1+0.5, y1+0.5
	if len(t.Stroke.Dash) == 0 {
		t.strokeSegment(x0, y0, x1, y1, b)
		return
	}
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 {
		return
	}
	dx, dy := (x1-x0)/length, (y1-y0)/length
	pos, i, on := 0.0, 0, true
	for pos < length {
		seg := t.Stroke.Dash[i%len(t.Stroke.Dash)]
		if seg <= 0 {
			seg = 1
		}
		end := math.Min(pos+seg, length)
		if on {
			t.strokeSegment(x0+dx*pos, y0+dy*pos, x0+dx*end, y0+dy*end, b)
		}
		pos, i, on = end, i+1, !on
	}
}

func (t *Target) strokeSegment(x0, y0, x1, y1 float64, b Brush) {
	w := t.Stroke.Width
	if w <= 0 {
		w = 1
	}
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 {
		return
	}
	// Butt caps extended by half a pixel so axis-aligned lines cover
	// their end pixels.
	ux, uy := (x1-x0)/length, (y1-y0)/length
	x0, y0 = x0-ux*0.5, y0-uy*0.5
	x1, y1 = x1+ux*0.5, y1+uy*0.5
	nx, ny := -uy*w/2, ux*w/2

	pts := [4][2]float64{
		{x0 + nx, y0 + ny},
		{x1 + nx, y1 + ny},
		{x1 - nx, y1 - ny},
		{x0 - nx, y0 - ny},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	if box.Intersect(t.Clip()).Empty() {
		return
	}

	t.raster.Reset(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	t.raster.MoveTo(float32(pts[0][0]-ox), float32(pts[0][1]-oy))
	for _, p := range pts[1:] {
		t.raster.LineTo(float32(p[0]-ox), float32(p[1]-oy))
	}
	t.raster.ClosePath()
	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	t.raster.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	t.DrawMask(mask, box, image.Point{}, b)
}

// DrawMask blends b through the coverage of mask onto r. mp is the mask
// point aligned with r.Min. In aliased mode coverage is thresholded at one
// half.
func (t *Target) DrawMask(mask image.Image, r image.Rectangle, mp image.Point, b Brush) {
	clipped := r.Intersect(t.Clip())
	if clipped.Empty() {
		return
	}
	mp = mp.Add(clipped.Min.Sub(r.Min))
	if t.AA == AntialiasAliased {
		mask = threshold(mask, image.Rectangle{Min: mp, Max: mp.Add(clipped.Size())})
		mp = image.Point{}
	}
	draw.DrawMask(t.back, clipped, b.source(), image.Point{}, mask, mp, draw.Over)
}

// DrawImage blends img over r at the given opacity. sp is the point of img
// aligned with r.Min.
func (t *Target) DrawImage(img image.Image, r image.Rectangle, sp image.Point, opacity float64) {
	clipped := r.Intersect(t.Clip())
	if clipped.Empty() || opacity <= 0 {
		return
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	if opacity >= 1 {
		draw.Draw(t.back, clipped, img, sp, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 0xff))})
	draw.DrawMask(t.back, clipped, img, sp, mask, image.Point{}, draw.Over)
}

// threshold returns the r part of mask with coverage forced to 0 or 255,
// re-based at the origin.
func threshold(mask image.Image, r image.Rectangle) *image.Alpha {
	out := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			_, _, _, a := mask.At(r.Min.X+x, r.Min.Y+y).RGBA()
			if a >= 0x8000 {
				out.Pix[y*out.Stride+x] = 0xff
			}
		}
	}
	return out
}

// Scroll moves the pixels of r by delta. Pixels moved outside r are
// dropped; the band uncovered inside r keeps its old content.
func (t *Target) Scroll(r image.Rectangle, delta image.Point) {
	r = r.Intersect(t.back.Bounds())
	if delta == (image.Point{}) || r.Empty() {
		return
	}
	dst := r.Add(delta).Intersect(r)
	if dst.Empty() {
		return
	}
	draw.Draw(t.back, dst, t.back, dst.Min.Sub(delta), draw.Src)
}
