package termrender

import (
	"fmt"
	"image"

	"github.com/gogpu/termrender/internal/logging"
	"github.com/gogpu/termrender/render"
)

// StartPaint opens a frame. It creates or resizes device resources as
// needed and moves the back buffer by any pending scroll so the dirty
// cells line up with its content.
//
// StartPaint while a frame is open returns ErrInvalidState, and on a
// disabled engine ErrNotEnabled.
func (e *Engine) StartPaint() error {
	if e.painting {
		return fmt.Errorf("%w: StartPaint while painting", ErrInvalidState)
	}
	if !e.enabled {
		return ErrNotEnabled
	}

	if e.settings.ForceFullRepaint || e.effectActive() {
		e.tracker.InvalidateAll()
	}

	if err := e.prepareResources(); err != nil {
		return err
	}
	e.loadBackgroundImage()
	e.syncBrushes()

	if d := e.tracker.ScrollDelta(); d != (image.Point{}) && !e.tracker.AllInvalid() {
		grid := e.toPixels(e.tracker.Bounds())
		e.mgr.Target().Scroll(grid, image.Pt(d.X*e.cell.X, d.Y*e.cell.Y))
	}

	e.painting = true
	e.trace.Emit("start_paint", "dirty", e.tracker.Count(), "all", e.tracker.AllInvalid())
	return nil
}

// prepareResources creates the device when missing or when recreation was
// requested, and otherwise applies a pending size change.
func (e *Engine) prepareResources() error {
	if e.mgr.State() != render.Ready || e.recreate {
		e.releaseResources()
		if err := e.mgr.Resize(e.size.X, e.size.Y); err != nil {
			return err
		}
		if err := e.mgr.Create(true); err != nil {
			return fmt.Errorf("termrender: create device resources: %w", err)
		}
		e.recreate = false
		e.InvalidateAll()
		if e.onSwapChain != nil {
			if err := e.onSwapChain(); err != nil {
				logging.Logger().Warn("termrender: swap chain callback failed", "err", err)
			}
		}
		return nil
	}

	if e.mgr.Size() != e.size {
		if err := e.mgr.Resize(e.size.X, e.size.Y); err != nil {
			if e.effect != nil {
				e.effect.Release()
			}
			return fmt.Errorf("termrender: resize: %w", err)
		}
		e.InvalidateAll()
	}
	return nil
}

// EndPaint closes the frame and builds the present descriptor from the
// dirty runs. The dirty state is reset whatever the outcome. EndPaint
// without StartPaint returns ErrInvalidState.
func (e *Engine) EndPaint() error {
	if !e.painting {
		return fmt.Errorf("%w: EndPaint while idle", ErrInvalidState)
	}
	e.painting = false
	defer e.tracker.Reset()

	switch e.mgr.State() {
	case render.NoResources:
		return nil
	case render.Ready:
	default:
		e.releaseResources()
		return fmt.Errorf("termrender: end paint: %w", render.ErrNotReady)
	}

	e.desc.Reset()
	for _, r := range e.tracker.Runs() {
		e.desc.DirtyRects = append(e.desc.DirtyRects, e.toPixels(r))
	}
	if d := e.tracker.ScrollDelta(); d != (image.Point{}) {
		offset := image.Pt(d.X*e.cell.X, d.Y*e.cell.Y)
		if r := scrolledArea(e.toPixels(e.tracker.Bounds()), offset); !r.Empty() {
			e.desc.ScrollRect = r
			e.desc.ScrollOffset = offset
			e.desc.HasScroll = true
		}
	}
	e.presentReady = true
	logging.Logger().Debug("termrender: frame ready",
		"dirty", len(e.desc.DirtyRects), "scroll", e.desc.HasScroll)
	return nil
}

// scrolledArea returns the part of area that holds moved content after a
// scroll by offset: area minus the band the scroll revealed. It is empty
// when the scroll covered the whole area.
func scrolledArea(area image.Rectangle, offset image.Point) image.Rectangle {
	r := area.Add(offset).Intersect(area)
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// Present shows the frame closed by EndPaint. It is a no-op when no frame
// is ready.
//
// A partial present is attempted unless the surface needs a full one; if
// it fails for any reason but device loss, a full present follows. Device
// loss releases every resource, invalidates everything and returns
// ErrRetry: repaint and present again. Other failures return
// ErrPresentFailed.
func (e *Engine) Present() error {
	if !e.presentReady {
		return nil
	}
	if e.effectActive() {
		if err := e.runEffect(); err != nil {
			logging.Logger().Warn("termrender: effect disabled", "err", err)
			e.dropEffect()
		}
	}

	var err error
	full := e.firstFrame
	if !full {
		err = e.mgr.Present(&e.desc, false)
		if err != nil && !render.IsDeviceLoss(err) {
			logging.Logger().Warn("termrender: partial present failed, presenting full frame", "err", err)
			full = true
		}
	}
	if full {
		err = e.mgr.Present(nil, true)
		if err == nil {
			e.firstFrame = false
		}
	}

	if err != nil {
		if render.IsDeviceLoss(err) {
			logging.Logger().Warn("termrender: device lost", "err", err)
			e.trace.Emit("device_lost")
			e.releaseResources()
			e.InvalidateAll()
			return fmt.Errorf("%w: %w", ErrRetry, err)
		}
		return fmt.Errorf("%w: %w", ErrPresentFailed, err)
	}

	e.mgr.CopyFrontToBack()
	e.presentReady = false
	e.presented = true
	e.trace.Emit("present", "dirty", len(e.desc.DirtyRects), "full", full)
	e.desc.Reset()
	return nil
}

// runEffect captures the back buffer into the effect and routes the next
// present through it.
func (e *Engine) runEffect() error {
	if caps := e.mgr.Capabilities(); !caps.Has(render.CapRenderAttachment) {
		return fmt.Errorf("termrender: surface format %v cannot be rendered to (%v)", e.mgr.SurfaceFormat(), caps)
	}
	size := e.mgr.Size()
	err := e.effect.Setup(e.mgr.HALDevice(), e.mgr.HALQueue(), e.mgr.SurfaceFormat(), size.X, size.Y)
	if err != nil {
		return err
	}
	if err := e.effect.Run(e.mgr.Target().Back()); err != nil {
		return err
	}
	e.mgr.SetPass(e.effect)
	return nil
}
