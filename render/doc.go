// Package render owns the GPU side of the terminal renderer: device and
// swap chain lifetime, the CPU render target the grid is drawn into, and
// the partial present that pushes changed pixels to the screen.
//
// # Resources
//
// A Manager moves through four states:
//
//	NoResources -> Creating -> Ready -> Lost
//
// Create acquires a hardware device through a BackendProvider and falls
// back to the software HAL when that fails or when software rendering is
// forced. A failure while building the remaining resources releases
// everything built so far and leaves the manager in NoResources.
// Release tears the resources down in reverse dependency order: render
// target, upload texture and view, swap chain, device, adapter, instance.
//
// Resize keeps the device and rebuilds only the swap chain buffers and the
// upload binding. If any step fails the whole set is released.
//
// # Drawing
//
// Target holds two *image.RGBA buffers. Drawing goes to the back buffer;
// Present uploads the damaged rectangles, flips, and the caller copies the
// new front buffer back so the next frame only has to redraw differences.
//
//	m := render.NewManager(render.Config{Width: 800, Height: 600})
//	if err := m.Create(true); err != nil {
//		return err
//	}
//	defer m.Release()
//
//	t := m.Target()
//	t.Clear(color.Black)
//	t.FillRect(image.Rect(0, 0, 8, 16), t.Foreground)
//	if err := m.Present(&render.PresentDescriptor{}, true); err != nil {
//		return err
//	}
//	m.CopyFrontToBack()
//
// # Device loss
//
// Present maps hal.ErrDeviceLost to ErrDeviceRemoved and the surface
// lost/outdated conditions to ErrDeviceReset. Both move the manager to
// Lost; the caller releases and recreates.
package render
