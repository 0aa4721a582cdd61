package render

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/termrender/internal/logging"
)

// PresentDescriptor describes the damage of one frame.
type PresentDescriptor struct {
	// DirtyRects are the redrawn areas in pixels.
	DirtyRects []image.Rectangle

	// ScrollRect is the area whose content moved by ScrollOffset. It is
	// only meaningful when HasScroll is set.
	ScrollRect   image.Rectangle
	ScrollOffset image.Point
	HasScroll    bool
}

// Reset empties d for reuse.
func (d *PresentDescriptor) Reset() {
	d.DirtyRects = d.DirtyRects[:0]
	d.ScrollRect = image.Rectangle{}
	d.ScrollOffset = image.Point{}
	d.HasScroll = false
}

// Damage returns every rectangle whose pixels changed: the dirty list plus
// the destination of the scrolled area.
func (d *PresentDescriptor) Damage() []image.Rectangle {
	out := make([]image.Rectangle, 0, len(d.DirtyRects)+1)
	out = append(out, d.DirtyRects...)
	if d.HasScroll && !d.ScrollRect.Empty() {
		out = append(out, d.ScrollRect)
	}
	return out
}

// Pass draws the back buffer into the swap chain texture. The effects
// compositor implements it.
type Pass interface {
	Encode(enc hal.CommandEncoder, target hal.TextureView) error
}

// Present pushes the back buffer to the screen and flips the target.
//
// With full set, or when d is nil, the whole surface is uploaded and
// presented. Otherwise only d's damage is uploaded and passed to the
// swap chain as damage rectangles. The acquired swap chain image always
// receives the complete frame from the upload texture. Device loss is reported as
// ErrDeviceRemoved or ErrDeviceReset and moves the manager to Lost.
// Without a swap chain Present only flips.
func (m *Manager) Present(d *PresentDescriptor, full bool) error {
	if m.state != Ready {
		return ErrNotReady
	}
	if m.res.surface == nil {
		m.target.flip()
		return nil
	}

	bounds := m.target.Bounds()
	var damage []image.Rectangle
	if !full && d != nil {
		for _, r := range d.Damage() {
			if r = r.Intersect(bounds); !r.Empty() {
				damage = append(damage, r)
			}
		}
		if len(damage) == 0 {
			m.target.flip()
			return nil
		}
	}
	upload := damage
	if upload == nil || m.pass != nil {
		upload = []image.Rectangle{bounds}
	}

	if err := m.present(upload, damage); err != nil {
		err = classify("present", err)
		if IsDeviceLoss(err) {
			m.MarkLost()
		}
		return err
	}
	m.target.flip()
	return nil
}

func (m *Manager) present(upload, damage []image.Rectangle) error {
	res := m.res
	for _, r := range upload {
		if err := m.stage(r); err != nil {
			return err
		}
	}

	acquired, err := res.surface.AcquireTexture(nil)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	frame := acquired.Texture

	enc, err := res.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "termrender.present"})
	if err != nil {
		res.surface.DiscardTexture(frame)
		return fmt.Errorf("create encoder: %w", err)
	}
	if err := enc.BeginEncoding("termrender.present"); err != nil {
		res.surface.DiscardTexture(frame)
		return fmt.Errorf("begin encoding: %w", err)
	}

	if m.pass != nil {
		if err := m.encodePass(enc, frame); err != nil {
			enc.DiscardEncoding()
			res.surface.DiscardTexture(frame)
			return err
		}
	} else {
		copyFrame(enc, res.upload, frame, m.target.Bounds())
	}

	cmd, err := enc.EndEncoding()
	if err != nil {
		res.surface.DiscardTexture(frame)
		return fmt.Errorf("end encoding: %w", err)
	}
	defer res.device.FreeCommandBuffer(cmd)

	idx, err := res.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		res.surface.DiscardTexture(frame)
		return fmt.Errorf("submit: %w", err)
	}
	m.lastSubmit = idx

	if err := res.queue.Present(res.surface, frame, damage); err != nil {
		return err
	}
	logging.Logger().Debug("render: present", "damage", len(damage), "submission", idx)
	return nil
}

func (m *Manager) encodePass(enc hal.CommandEncoder, frame hal.SurfaceTexture) error {
	view, err := m.res.device.CreateTextureView(frame, &hal.TextureViewDescriptor{
		Label:     "termrender.frame.view",
		Format:    m.res.format,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		return fmt.Errorf("create frame view: %w", err)
	}
	defer m.res.device.DestroyTextureView(view)
	return m.pass.Encode(enc, view)
}

// copyFrame records the upload -> frame copy of the whole surface,
// bracketed by the layout transitions the swap chain image needs. The
// acquired image may hold any earlier frame, so damage only limits what is
// staged and what the compositor is told, never what is copied.
func copyFrame(enc hal.CommandEncoder, src hal.Texture, dst hal.Texture, bounds image.Rectangle) {
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: dst,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopyDst,
		},
	}})
	o := hal.Origin3D{X: uint32(bounds.Min.X), Y: uint32(bounds.Min.Y)} //nolint:gosec // target bounds
	enc.CopyTextureToTexture(src, dst, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: src, Origin: o, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: dst, Origin: o, Aspect: gputypes.TextureAspectAll},
		Size:    extent(bounds),
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: dst,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
}

// stage writes r of the back buffer into the upload texture, converting to
// the swap chain's channel order.
func (m *Manager) stage(r image.Rectangle) error {
	data := PackRegion(m.target.Back(), r, m.res.format)
	err := m.res.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture: m.res.upload,
			Origin:  hal.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y)}, //nolint:gosec // clipped to bounds
			Aspect:  gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{BytesPerRow: uint32(r.Dx() * 4), RowsPerImage: uint32(r.Dy())}, //nolint:gosec // clipped to bounds
		ptr(extent(r)),
	)
	if err != nil {
		return fmt.Errorf("upload %v: %w", r, err)
	}
	return nil
}

// PackRegion copies r of img into a tightly packed byte slice in the
// channel order of format. BGRA formats swap red and blue.
func PackRegion(img *image.RGBA, r image.Rectangle, format gputypes.TextureFormat) []byte {
	r = r.Intersect(img.Bounds())
	row := r.Dx() * 4
	out := make([]byte, row*r.Dy())
	bgra := format == gputypes.TextureFormatBGRA8Unorm || format == gputypes.TextureFormatBGRA8UnormSrgb
	for y := 0; y < r.Dy(); y++ {
		src := img.Pix[img.PixOffset(r.Min.X, r.Min.Y+y):]
		dst := out[y*row : (y+1)*row]
		copy(dst, src[:row])
		if bgra {
			for i := 0; i < row; i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return out
}

func extent(r image.Rectangle) hal.Extent3D {
	return hal.Extent3D{Width: uint32(r.Dx()), Height: uint32(r.Dy()), DepthOrArrayLayers: 1} //nolint:gosec // non-negative
}

func ptr[T any](v T) *T { return &v }

// CopyFrontToBack copies the presented frame into the back buffer so the
// next frame starts from valid content.
func (m *Manager) CopyFrontToBack() {
	if m.target != nil {
		m.target.CopyFrontToBack()
	}
}

// WaitForFrame blocks until the last submitted frame has completed or
// timeout elapses. It reports whether the frame completed.
func (m *Manager) WaitForFrame(timeout time.Duration) bool {
	if m.state != Ready || m.lastSubmit == 0 {
		return true
	}
	deadline := time.Now().Add(timeout)
	for {
		if m.res.queue.PollCompleted() >= m.lastSubmit {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
