// Package termrender renders a terminal character grid on the GPU.
//
// # Overview
//
// An Engine owns everything needed to turn a grid of cells into presented
// frames: the dirty-region tracker, the resolved font, the device and swap
// chain, and an optional full-screen pixel shader effect. The host drives
// it one frame at a time and paints only what changed since the last
// frame.
//
// # Quick Start
//
//	e, err := termrender.New(termrender.DefaultSettings())
//	if err != nil {
//		return err
//	}
//	defer e.Close()
//
//	e.SetWindow(display, window)
//	e.SetTargetSize(width, height)
//	if err := e.Enable(); err != nil {
//		return err
//	}
//
//	e.InvalidateCursor(cursor)
//	if err := e.StartPaint(); err != nil {
//		return err
//	}
//	_ = e.PaintBackground()
//	_ = e.PaintBufferLine(text.SplitCells(line), image.Pt(0, row))
//	if err := e.EndPaint(); err != nil {
//		return err
//	}
//	if err := e.Present(); errors.Is(err, termrender.ErrRetry) {
//		// The device was lost; the next frame rebuilds it.
//	}
//
// # Frame Cycle
//
// Invalidate, InvalidateCursor, InvalidateSystem, InvalidateSelection,
// InvalidateScroll and InvalidateAll record damage in cell coordinates.
// StartPaint creates or resizes device resources as needed and applies a
// pending scroll to the back buffer. The Paint methods draw into the back
// buffer and are only valid between StartPaint and EndPaint. EndPaint
// turns the damage into a present descriptor and Present hands the frame
// to the swap chain: partially when only a few cells changed, fully after
// InvalidateAll, a resize, or a device rebuild.
//
// # Device Loss
//
// When the device is removed or reset, Present releases every device
// resource, invalidates the whole grid and returns an error matching
// ErrRetry. The next StartPaint recreates the device. Other present
// failures wrap ErrPresentFailed.
//
// # Effects
//
// Settings.RetroEffect enables a built-in scanline shader and
// Settings.ShaderPath loads a custom WGSL fragment shader. While an effect
// is active every frame is repainted in full. A shader that cannot be read
// or compiled is replaced by a visible error indicator. An effect that
// fails on the device is dropped until the effect settings change.
//
// # Logging
//
// The engine logs through log/slog and is silent by default. See SetLogger.
//
// # Subpackages
//
//   - dirty: cell-level damage tracking
//   - text: font resolution, shaping and glyph rasterization
//   - render: device resources, render target and presentation
//   - effects: the pixel shader compositor
//   - texture: image and shader loading
package termrender
