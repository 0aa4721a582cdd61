package termrender

import (
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// faults injects present failures into a noop HAL and records what the
// engine did with it.
type faults struct {
	presentErrs []error
	// noRenderTarget strips the render-attachment capability from every
	// texture format.
	noRenderTarget bool

	opens     int
	destroyed int
	presents  [][]image.Rectangle
}

type fakeBackend struct {
	hal.Backend
	f *faults
}

func (b fakeBackend) CreateInstance(d *hal.InstanceDescriptor) (hal.Instance, error) {
	inst, err := b.Backend.CreateInstance(d)
	if err != nil {
		return nil, err
	}
	return fakeInstance{Instance: inst, f: b.f}, nil
}

type fakeInstance struct {
	hal.Instance
	f *faults
}

func (i fakeInstance) EnumerateAdapters(hint hal.Surface) []hal.ExposedAdapter {
	as := i.Instance.EnumerateAdapters(nil)
	for k := range as {
		as[k].Adapter = fakeAdapter{Adapter: as[k].Adapter, f: i.f}
	}
	return as
}

type fakeAdapter struct {
	hal.Adapter
	f *faults
}

func (a fakeAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	od, err := a.Adapter.Open(features, limits)
	if err != nil {
		return od, err
	}
	a.f.opens++
	return hal.OpenDevice{
		Device: fakeDevice{Device: od.Device, f: a.f},
		Queue:  fakeQueue{Queue: od.Queue, f: a.f},
	}, nil
}

func (a fakeAdapter) TextureFormatCapabilities(format gputypes.TextureFormat) hal.TextureFormatCapabilities {
	c := a.Adapter.TextureFormatCapabilities(format)
	if a.f.noRenderTarget {
		c.Flags &^= hal.TextureFormatCapabilityRenderAttachment
	}
	return c
}

func (a fakeAdapter) SurfaceCapabilities(s hal.Surface) *hal.SurfaceCapabilities {
	return a.Adapter.SurfaceCapabilities(nil)
}

type fakeDevice struct {
	hal.Device
	f *faults
}

func (d fakeDevice) Destroy() {
	d.f.destroyed++
	d.Device.Destroy()
}

type fakeQueue struct {
	hal.Queue
	f *faults
}

func (q fakeQueue) Present(s hal.Surface, t hal.SurfaceTexture, damage []image.Rectangle) error {
	q.f.presents = append(q.f.presents, damage)
	if len(q.f.presentErrs) > 0 {
		err := q.f.presentErrs[0]
		q.f.presentErrs = q.f.presentErrs[1:]
		return err
	}
	return nil
}

// fakeBackends serves the same fake HAL as hardware and software backend.
type fakeBackends struct {
	f *faults
}

func (p fakeBackends) Hardware() (hal.Backend, error) { return fakeBackend{Backend: noop.API{}, f: p.f}, nil }

func (p fakeBackends) Software() hal.Backend { return fakeBackend{Backend: noop.API{}, f: p.f} }

// countingTrace records registrations and events.
type countingTrace struct {
	refs   int
	events []string
}

func (c *countingTrace) Register() error {
	c.refs++
	return nil
}

func (c *countingTrace) Release() error {
	c.refs--
	return nil
}

func (c *countingTrace) Emit(event string, _ ...any) {
	c.events = append(c.events, event)
}
