package render

import (
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// faults configures the failures injected by the fake HAL and records the
// calls it observes.
type faults struct {
	instanceErr  error
	openErr      error
	surfaceErr   error
	configureErr error
	textureErr   error
	viewErr      error
	presentErrs  []error
	lag          uint64

	log      []string
	presents [][]image.Rectangle
	writes   int
	copies   [][]image.Rectangle
}

func (f *faults) record(s string) { f.log = append(f.log, s) }

type fakeBackend struct {
	hal.Backend
	f *faults
}

func newFakeBackend(f *faults) hal.Backend { return fakeBackend{Backend: noop.API{}, f: f} }

func (b fakeBackend) CreateInstance(d *hal.InstanceDescriptor) (hal.Instance, error) {
	if b.f.instanceErr != nil {
		return nil, b.f.instanceErr
	}
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

func (i fakeInstance) CreateSurface(display, window uintptr) (hal.Surface, error) {
	if i.f.surfaceErr != nil {
		return nil, i.f.surfaceErr
	}
	s, err := i.Instance.CreateSurface(display, window)
	if err != nil {
		return nil, err
	}
	return fakeSurface{Surface: s, f: i.f}, nil
}

func (i fakeInstance) EnumerateAdapters(hint hal.Surface) []hal.ExposedAdapter {
	as := i.Instance.EnumerateAdapters(nil)
	for k := range as {
		as[k].Adapter = fakeAdapter{Adapter: as[k].Adapter, f: i.f}
	}
	return as
}

func (i fakeInstance) Destroy() {
	i.f.record("instance")
	i.Instance.Destroy()
}

type fakeAdapter struct {
	hal.Adapter
	f *faults
}

func (a fakeAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	if a.f.openErr != nil {
		return hal.OpenDevice{}, a.f.openErr
	}
	od, err := a.Adapter.Open(features, limits)
	if err != nil {
		return od, err
	}
	return hal.OpenDevice{
		Device: fakeDevice{Device: od.Device, f: a.f},
		Queue:  fakeQueue{Queue: od.Queue, f: a.f},
	}, nil
}

func (a fakeAdapter) SurfaceCapabilities(s hal.Surface) *hal.SurfaceCapabilities {
	return a.Adapter.SurfaceCapabilities(nil)
}

func (a fakeAdapter) Destroy() {
	a.f.record("adapter")
	a.Adapter.Destroy()
}

type fakeDevice struct {
	hal.Device
	f *faults
}

func (d fakeDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.f.textureErr != nil {
		return nil, d.f.textureErr
	}
	return d.Device.CreateTexture(desc)
}

func (d fakeDevice) DestroyTexture(t hal.Texture) {
	d.f.record("texture")
	d.Device.DestroyTexture(t)
}

func (d fakeDevice) CreateTextureView(t hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	if d.f.viewErr != nil {
		return nil, d.f.viewErr
	}
	return d.Device.CreateTextureView(t, desc)
}

func (d fakeDevice) DestroyTextureView(v hal.TextureView) {
	if v != nil {
		d.f.record("view")
	}
	d.Device.DestroyTextureView(v)
}

func (d fakeDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return fakeEncoder{CommandEncoder: enc, f: d.f}, nil
}

func (d fakeDevice) Destroy() {
	d.f.record("device")
	d.Device.Destroy()
}

// fakeEncoder records the regions of every texture copy.
type fakeEncoder struct {
	hal.CommandEncoder
	f *faults
}

func (e fakeEncoder) CopyTextureToTexture(src, dst hal.Texture, regions []hal.TextureCopy) {
	rs := make([]image.Rectangle, 0, len(regions))
	for _, c := range regions {
		o := c.DstBase.Origin
		rs = append(rs, image.Rect(int(o.X), int(o.Y), int(o.X+c.Size.Width), int(o.Y+c.Size.Height)))
	}
	e.f.copies = append(e.f.copies, rs)
	e.CommandEncoder.CopyTextureToTexture(src, dst, regions)
}

type fakeSurface struct {
	hal.Surface
	f *faults
}

func (s fakeSurface) Configure(d hal.Device, c *hal.SurfaceConfiguration) error {
	if s.f.configureErr != nil {
		return s.f.configureErr
	}
	return s.Surface.Configure(d, c)
}

func (s fakeSurface) Unconfigure(d hal.Device) {
	s.f.record("unconfigure")
	s.Surface.Unconfigure(d)
}

func (s fakeSurface) Destroy() {
	s.f.record("surface")
	s.Surface.Destroy()
}

type fakeQueue struct {
	hal.Queue
	f *faults
}

func (q fakeQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.f.writes++
	return q.Queue.WriteTexture(dst, data, layout, size)
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

func (q fakeQueue) PollCompleted() uint64 {
	done := q.Queue.PollCompleted()
	if q.f.lag > done {
		return 0
	}
	return done - q.f.lag
}

// fakeProvider hands out fake backends and counts hardware requests.
type fakeProvider struct {
	hw       hal.Backend
	hwErr    error
	sw       hal.Backend
	hwCalled int
}

func (p *fakeProvider) Hardware() (hal.Backend, error) {
	p.hwCalled++
	if p.hwErr != nil {
		return nil, p.hwErr
	}
	return p.hw, nil
}

func (p *fakeProvider) Software() hal.Backend { return p.sw }

// newFakeManager returns a manager whose hardware and software backends
// share f.
func newFakeManager(f *faults, w, h int) (*Manager, *fakeProvider) {
	p := &fakeProvider{hw: newFakeBackend(f), sw: newFakeBackend(f)}
	return NewManager(Config{Backends: p, Width: w, Height: h}), p
}

var testTimeout = 20 * time.Millisecond
