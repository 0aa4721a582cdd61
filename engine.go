package termrender

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/termrender/dirty"
	"github.com/gogpu/termrender/effects"
	"github.com/gogpu/termrender/internal/logging"
	"github.com/gogpu/termrender/render"
	"github.com/gogpu/termrender/text"
	"github.com/gogpu/termrender/texture"
)

// frameWait bounds WaitUntilCanRender.
const frameWait = time.Second

// Engine renders a terminal grid to a window.
//
// A frame is: invalidate what changed, StartPaint, paint the dirty cells,
// EndPaint, Present. Engine is not safe for concurrent use; every call is
// expected on the render thread.
type Engine struct {
	settings Settings

	tracker  *dirty.Tracker
	mgr      *render.Manager
	resolver *text.Resolver
	shaper   text.Shaper
	raster   *text.Rasterizer
	effect   *effects.Compositor
	trace    TraceHandle

	face  *text.FontFace
	cell  image.Point
	size  image.Point
	dpi   float64
	scale float64

	fg, bg    color.NRGBA
	selection render.Brush

	bgImage        texture.Image
	bgImagePending bool

	enabled      bool
	painting     bool
	firstFrame   bool
	presentReady bool
	presented    bool
	recreate     bool
	closed       bool

	desc        render.PresentDescriptor
	onSwapChain func() error
}

// New returns a disabled engine configured with s. The font in s is
// resolved immediately. Call Enable, SetWindow and SetTargetSize before
// the first frame.
func New(s Settings, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	if o.fonts == nil {
		o.fonts = text.Chain{text.NewSystemCollection(""), text.DefaultCollection()}
	}
	if o.shaper == nil {
		o.shaper = text.NewHarfBuzzShaper()
	}

	if err := o.trace.Register(); err != nil {
		return nil, fmt.Errorf("termrender: register trace: %w", err)
	}
	e := &Engine{
		tracker:    dirty.New(0, 0),
		resolver:   text.NewResolver(o.fonts),
		shaper:     o.shaper,
		raster:     text.NewRasterizer(),
		trace:      o.trace,
		scale:      1,
		firstFrame: true,
		mgr: render.NewManager(render.Config{
			Backends:      o.backends,
			ForceSoftware: s.SoftwareRendering,
			Display:       o.display,
			Window:        o.window,
		}),
	}
	if err := e.Apply(s); err != nil {
		_ = e.trace.Release()
		return nil, err
	}
	return e, nil
}

// Close releases every device resource and the trace registration. The
// engine must not be used afterwards.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.releaseResources()
	e.enabled, e.painting, e.presentReady = false, false, false
	return e.trace.Release()
}

// Enable turns rendering on. Enabling an enabled engine is an error.
func (e *Engine) Enable() error {
	if e.enabled {
		return fmt.Errorf("%w: already enabled", ErrInvalidState)
	}
	e.enabled = true
	return nil
}

// Disable turns rendering off and releases the device. Disabling a
// disabled engine is an error and changes nothing.
func (e *Engine) Disable() error {
	if !e.enabled {
		return fmt.Errorf("%w: already disabled", ErrInvalidState)
	}
	e.enabled = false
	e.releaseResources()
	return nil
}

// Enabled reports whether rendering is on.
func (e *Engine) Enabled() bool { return e.enabled }

// Painting reports whether a frame is open between StartPaint and EndPaint.
func (e *Engine) Painting() bool { return e.painting }

// HasDeviceResources reports whether the device and swap chain exist.
func (e *Engine) HasDeviceResources() bool { return e.mgr.State() == render.Ready }

// FirstFrame reports whether the next present covers the whole surface.
func (e *Engine) FirstFrame() bool { return e.firstFrame }

// releaseResources tears down the effect and then the device it lives on.
func (e *Engine) releaseResources() {
	e.mgr.SetPass(nil)
	if e.effect != nil {
		e.effect.Release()
	}
	e.mgr.Release()
	e.presentReady = false
	e.presented = false
	e.desc.Reset()
}

// SetWindow sets the native window the swap chain presents to. The device
// is recreated on the next frame.
func (e *Engine) SetWindow(display, window uintptr) {
	e.mgr.SetWindow(display, window)
	e.recreate = true
	e.InvalidateAll()
}

// SetSwapChainCallback registers fn to run each time a swap chain is
// created. Its error is logged and otherwise ignored.
func (e *Engine) SetSwapChainCallback(fn func() error) {
	e.onSwapChain = fn
}

// SetTargetSize sets the surface size in pixels. The grid becomes as many
// whole cells as fit inside the padding.
func (e *Engine) SetTargetSize(width, height int) {
	size := image.Pt(max(width, 0), max(height, 0))
	if size == e.size {
		return
	}
	e.size = size
	e.resizeGrid()
	e.InvalidateAll()
}

// TargetSize returns the surface size in pixels.
func (e *Engine) TargetSize() image.Point { return e.size }

// GridSize returns the grid size in cells.
func (e *Engine) GridSize() image.Point { return e.tracker.Size() }

// CellSize returns the pixel size of one cell, or zero before UpdateFont.
func (e *Engine) CellSize() image.Point { return e.cell }

// Font returns the resolved face.
func (e *Engine) Font() *text.FontFace { return e.face }

// Scale returns the DPI scale factor.
func (e *Engine) Scale() float64 { return e.scale }

func (e *Engine) resizeGrid() {
	var grid image.Point
	if e.cell.X > 0 && e.cell.Y > 0 {
		pad := e.settings.Padding
		grid.X = max(e.size.X-2*pad.X, 0) / e.cell.X
		grid.Y = max(e.size.Y-2*pad.Y, 0) / e.cell.Y
	}
	if grid != e.tracker.Size() {
		e.tracker.Resize(grid.X, grid.Y)
	}
}

// UpdateDPI sets the target DPI. The font is resolved again at the new DPI
// and everything is invalidated.
func (e *Engine) UpdateDPI(dpi float64) error {
	if dpi <= 0 {
		return fmt.Errorf("termrender: dpi %v: %w", dpi, text.ErrInvalidSize)
	}
	e.dpi = dpi
	e.settings.DPI = dpi
	e.scale = dpi / DefaultDPI
	if e.effect != nil {
		e.effect.SetScale(float32(e.scale))
	}
	if e.face != nil {
		if _, err := e.UpdateFont(e.settings.Font); err != nil {
			return err
		}
	}
	e.InvalidateAll()
	return nil
}

// UpdateFont resolves req at the current DPI, adopts its cell size and
// returns the face actually used.
func (e *Engine) UpdateFont(req text.FontRequest) (*text.FontFace, error) {
	face, err := e.resolver.Resolve(req, e.dpi)
	if err != nil {
		return nil, fmt.Errorf("termrender: update font: %w", err)
	}
	e.settings.Font = req
	e.face = face
	e.cell = face.CellSize
	e.raster.Reset()
	e.mgr.SetViewport(e.cell)
	e.resizeGrid()
	e.InvalidateAll()
	logging.Logger().Info("termrender: font resolved",
		"requested", req.Family, "family", face.Family, "cell", face.CellSize, "size", face.FontSize)
	return face, nil
}

// Snapshot returns a copy of the last presented frame, or nil before the
// first present.
func (e *Engine) Snapshot() *image.RGBA {
	t := e.mgr.Target()
	if t == nil || !e.presented {
		return nil
	}
	front := t.Front()
	out := image.NewRGBA(front.Bounds())
	copy(out.Pix, front.Pix)
	return out
}

// DirtyArea returns the dirty cells as rectangles in cell space.
func (e *Engine) DirtyArea() []image.Rectangle {
	return e.tracker.Runs()
}

// WaitUntilCanRender blocks until the previous frame has left the queue,
// at most one second. A timeout is logged and the caller proceeds.
func (e *Engine) WaitUntilCanRender() {
	if !e.mgr.WaitForFrame(frameWait) {
		logging.Logger().Warn("termrender: frame wait timed out", "timeout", frameWait)
	}
}

// toPixels converts a cell rectangle to target pixels.
func (e *Engine) toPixels(r image.Rectangle) image.Rectangle {
	return image.Rect(
		r.Min.X*e.cell.X, r.Min.Y*e.cell.Y,
		r.Max.X*e.cell.X, r.Max.Y*e.cell.Y,
	).Add(e.settings.Padding)
}

// toCells converts a pixel rectangle to the cells it touches.
func (e *Engine) toCells(r image.Rectangle) image.Rectangle {
	if e.cell.X <= 0 || e.cell.Y <= 0 {
		return image.Rectangle{}
	}
	r = r.Sub(e.settings.Padding)
	return image.Rect(
		floorDiv(r.Min.X, e.cell.X), floorDiv(r.Min.Y, e.cell.Y),
		ceilDiv(r.Max.X, e.cell.X), ceilDiv(r.Max.Y, e.cell.Y),
	)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
