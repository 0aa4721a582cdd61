package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/termrender/internal/logging"
)

// State is the lifecycle state of a Manager's device resources.
type State uint8

const (
	// NoResources means nothing is allocated.
	NoResources State = iota
	// Creating is held while Create builds the resource set.
	Creating
	// Ready means every resource is usable.
	Ready
	// Lost means presentation reported device loss. Release and Create
	// again to recover.
	Lost
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NoResources:
		return "no-resources"
	case Creating:
		return "creating"
	case Ready:
		return "ready"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Config holds the construction parameters of a Manager.
type Config struct {
	// Backends supplies hardware and software HAL backends. Nil selects
	// DefaultBackends.
	Backends BackendProvider

	// ForceSoftware skips the hardware backend.
	ForceSoftware bool

	// Display and Window are the native handles the swap chain is created
	// for. Zero values give a headless surface where the backend allows it.
	Display uintptr
	Window  uintptr

	// Width and Height are the target size in pixels.
	Width  int
	Height int

	// Transparent selects premultiplied alpha composition for the swap
	// chain instead of opaque.
	Transparent bool
}

// resources is the unit created and released by a Manager.
type resources struct {
	instance hal.Instance
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	limits   gputypes.Limits
	device   hal.Device
	queue    hal.Queue
	software bool

	surface    hal.Surface
	format     gputypes.TextureFormat
	upload     hal.Texture
	uploadView hal.TextureView
}

// Manager owns the device, swap chain and render target of one window.
//
// Manager is not safe for concurrent use; every call is expected on the
// render thread.
type Manager struct {
	cfg   Config
	state State
	res   *resources

	target   *Target
	aa       Antialias
	viewport image.Point

	pass       Pass
	lastSubmit uint64
}

// NewManager returns a manager in the NoResources state.
func NewManager(cfg Config) *Manager {
	if cfg.Backends == nil {
		cfg.Backends = DefaultBackends{}
	}
	return &Manager{cfg: cfg}
}

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Size returns the target size in pixels.
func (m *Manager) Size() image.Point { return image.Pt(m.cfg.Width, m.cfg.Height) }

// Target returns the render target, or nil unless Ready.
func (m *Manager) Target() *Target {
	if m.state != Ready {
		return nil
	}
	return m.target
}

// IsSoftware reports whether the current device is the software fallback.
func (m *Manager) IsSoftware() bool {
	return m.res != nil && m.res.software
}

// SetForceSoftware changes the software-only flag. It takes effect on the
// next Create and reports whether the value changed.
func (m *Manager) SetForceSoftware(on bool) bool {
	if m.cfg.ForceSoftware == on {
		return false
	}
	m.cfg.ForceSoftware = on
	return true
}

// SetWindow changes the native handles for the next Create.
func (m *Manager) SetWindow(display, window uintptr) {
	m.cfg.Display, m.cfg.Window = display, window
}

// SetTransparent changes the swap chain alpha mode for the next Create and
// reports whether the value changed.
func (m *Manager) SetTransparent(on bool) bool {
	if m.cfg.Transparent == on {
		return false
	}
	m.cfg.Transparent = on
	return true
}

// SetAntialiasing sets the glyph coverage mode and reports whether it
// changed. Content already drawn keeps its old mode.
func (m *Manager) SetAntialiasing(mode Antialias) bool {
	if m.aa == mode {
		return false
	}
	m.aa = mode
	if m.target != nil {
		m.target.AA = mode
	}
	return true
}

// Antialiasing returns the glyph coverage mode.
func (m *Manager) Antialiasing() Antialias { return m.aa }

// SetViewport records the cell size the grid is laid out with and reports
// whether it changed.
func (m *Manager) SetViewport(cell image.Point) bool {
	if m.viewport == cell {
		return false
	}
	m.viewport = cell
	return true
}

// Viewport returns the cell size set by SetViewport.
func (m *Manager) Viewport() image.Point { return m.viewport }

// SetPass installs a pass that draws the frame into the swap chain in
// place of the plain upload copy. Nil restores the copy.
func (m *Manager) SetPass(p Pass) { m.pass = p }

// Create builds the device resources. withSwapChain selects whether a
// surface is created for the configured window.
//
// The hardware backend is tried first unless ForceSoftware is set; any
// failure there falls back to the software backend. A failure after the
// device is open releases everything and leaves the manager in
// NoResources. Create on a Ready manager is a no-op.
func (m *Manager) Create(withSwapChain bool) error {
	switch m.state {
	case Ready:
		return nil
	case Lost:
		m.Release()
	}
	if m.cfg.Width <= 0 || m.cfg.Height <= 0 {
		return fmt.Errorf("render: create %dx%d: %w", m.cfg.Width, m.cfg.Height, ErrEmptyTarget)
	}

	m.state = Creating
	res, err := m.acquire()
	if err != nil {
		m.state = NoResources
		return err
	}

	var undo rollback
	undo.push(res.releaseDevice)
	if withSwapChain {
		if err := m.createSwapChain(res, &undo); err != nil {
			undo.run()
			m.state = NoResources
			return err
		}
	} else {
		res.format = gputypes.TextureFormatRGBA8Unorm
	}
	if err := m.createUpload(res, &undo); err != nil {
		undo.run()
		m.state = NoResources
		return err
	}

	m.res = res
	if m.target == nil || m.target.Size() != m.Size() {
		m.target = NewTarget(m.cfg.Width, m.cfg.Height)
	}
	m.target.AA = m.aa
	m.lastSubmit = 0
	m.state = Ready
	logging.Logger().Debug("render: resources created",
		"size", m.Size(), "software", res.software, "swapchain", withSwapChain, "format", res.format)
	return nil
}

// acquire opens a device on the hardware backend, falling back to the
// software backend.
func (m *Manager) acquire() (*resources, error) {
	if !m.cfg.ForceSoftware {
		backend, err := m.cfg.Backends.Hardware()
		if err == nil {
			res, err := openDevice(backend)
			if err == nil {
				return res, nil
			}
			logging.Logger().Warn("render: hardware device unavailable, using software", "err", err)
		} else {
			logging.Logger().Warn("render: no hardware backend, using software", "err", err)
		}
	}
	res, err := openDevice(m.cfg.Backends.Software())
	if err != nil {
		return nil, fmt.Errorf("render: software device: %w", err)
	}
	res.software = true
	return res, nil
}

func (m *Manager) createSwapChain(res *resources, undo *rollback) error {
	surface, err := res.instance.CreateSurface(m.cfg.Display, m.cfg.Window)
	if err != nil {
		return fmt.Errorf("render: create surface: %w", err)
	}
	undo.push(func() { surface.Destroy() })

	res.format = pickFormat(res.adapter.SurfaceCapabilities(surface))
	res.surface = surface
	if err := m.configure(res); err != nil {
		return err
	}
	undo.push(func() { surface.Unconfigure(res.device) })
	return nil
}

func (m *Manager) configure(res *resources) error {
	alpha := hal.CompositeAlphaModeOpaque
	if m.cfg.Transparent {
		alpha = hal.CompositeAlphaModePremultiplied
	}
	err := res.surface.Configure(res.device, &hal.SurfaceConfiguration{
		Width:       uint32(m.cfg.Width),  //nolint:gosec // validated positive
		Height:      uint32(m.cfg.Height), //nolint:gosec // validated positive
		Format:      res.format,
		Usage:       gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst,
		PresentMode: hal.PresentModeFifo,
		AlphaMode:   alpha,
	})
	if err != nil {
		return fmt.Errorf("render: configure swap chain: %w", err)
	}
	return nil
}

// pickFormat prefers BGRA8, then RGBA8, then whatever the surface lists.
func pickFormat(caps *hal.SurfaceCapabilities) gputypes.TextureFormat {
	if caps == nil || len(caps.Formats) == 0 {
		return gputypes.TextureFormatBGRA8Unorm
	}
	for _, want := range []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm} {
		for _, f := range caps.Formats {
			if f == want {
				return f
			}
		}
	}
	return caps.Formats[0]
}

// createUpload allocates the texture the back buffer is staged through
// and its render-target view.
func (m *Manager) createUpload(res *resources, undo *rollback) error {
	tex, err := res.device.CreateTexture(&hal.TextureDescriptor{
		Label: "termrender.upload",
		Size: hal.Extent3D{
			Width:              uint32(m.cfg.Width),  //nolint:gosec // validated positive
			Height:             uint32(m.cfg.Height), //nolint:gosec // validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        res.format,
		Usage: gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("render: create upload texture: %w", err)
	}
	undo.push(func() { res.device.DestroyTexture(tex) })

	view, err := res.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     "termrender.upload.view",
		Format:    res.format,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		return fmt.Errorf("render: create upload view: %w", err)
	}
	undo.push(func() { res.device.DestroyTextureView(view) })

	res.upload, res.uploadView = tex, view
	return nil
}

// Release tears the resources down in reverse dependency order. It is
// safe to call in any state.
func (m *Manager) Release() {
	if m.res == nil {
		m.state = NoResources
		return
	}
	res := m.res
	m.res = nil
	m.target = nil
	m.lastSubmit = 0

	res.releaseUpload()
	if res.surface != nil {
		res.surface.Unconfigure(res.device)
		res.surface.Destroy()
		res.surface = nil
	}
	res.releaseDevice()
	m.state = NoResources
	logging.Logger().Debug("render: resources released")
}

func (r *resources) releaseUpload() {
	if r.uploadView != nil {
		r.device.DestroyTextureView(r.uploadView)
		r.uploadView = nil
	}
	if r.upload != nil {
		r.device.DestroyTexture(r.upload)
		r.upload = nil
	}
}

func (r *resources) releaseDevice() {
	if r.device != nil {
		r.device.Destroy()
		r.device, r.queue = nil, nil
	}
	if r.adapter != nil {
		r.adapter.Destroy()
		r.adapter = nil
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
}

// MarkLost moves a Ready manager to Lost.
func (m *Manager) MarkLost() {
	if m.state == Ready {
		m.state = Lost
	}
}

// Resize changes the target size. When Ready only the swap chain buffers
// and the upload binding are rebuilt; if any step fails every resource is
// released and the error returned. In other states the size applies to
// the next Create.
func (m *Manager) Resize(width, height int) (err error) {
	if width == m.cfg.Width && height == m.cfg.Height {
		return nil
	}
	m.cfg.Width, m.cfg.Height = width, height
	if m.state != Ready {
		return nil
	}

	defer func() {
		if err != nil {
			m.Release()
		}
	}()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: resize %dx%d: %w", width, height, ErrEmptyTarget)
	}

	res := m.res
	if res.surface != nil {
		if err := m.configure(res); err != nil {
			return err
		}
	}
	res.releaseUpload()
	var undo rollback
	if err := m.createUpload(res, &undo); err != nil {
		undo.run()
		return err
	}
	m.target.Resize(width, height)
	logging.Logger().Debug("render: resized", "width", width, "height", height)
	return nil
}

// Capabilities returns the optional features of the surface format, or 0
// unless Ready.
func (m *Manager) Capabilities() Capability {
	if m.state != Ready {
		return 0
	}
	return queryCapabilities(m.res.adapter, m.res.format)
}

// MaxTextureDimension returns the largest 2D texture side the device
// accepts, or 0 unless Ready.
func (m *Manager) MaxTextureDimension() int {
	if m.state != Ready {
		return 0
	}
	return int(m.res.limits.MaxTextureDimension2D)
}

// HALDevice returns the device, or nil unless Ready.
func (m *Manager) HALDevice() hal.Device {
	if m.res == nil {
		return nil
	}
	return m.res.device
}

// HALQueue returns the queue, or nil unless Ready.
func (m *Manager) HALQueue() hal.Queue {
	if m.res == nil {
		return nil
	}
	return m.res.queue
}

// Device implements gpucontext.DeviceProvider.
func (m *Manager) Device() gpucontext.Device {
	if d := m.HALDevice(); d != nil {
		return d
	}
	return nil
}

// Queue implements gpucontext.DeviceProvider.
func (m *Manager) Queue() gpucontext.Queue {
	if q := m.HALQueue(); q != nil {
		return q
	}
	return nil
}

// Adapter implements gpucontext.DeviceProvider.
func (m *Manager) Adapter() gpucontext.Adapter {
	if m.res == nil || m.res.adapter == nil {
		return nil
	}
	return m.res.adapter
}

// SurfaceFormat implements gpucontext.DeviceProvider.
func (m *Manager) SurfaceFormat() gputypes.TextureFormat {
	if m.res == nil {
		return gputypes.TextureFormatUndefined
	}
	return m.res.format
}

// AdapterInfo implements gpucontext.DeviceProvider.
func (m *Manager) AdapterInfo() gpucontext.AdapterInfo {
	if m.res == nil {
		return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	}
	return gpucontext.AdapterInfo{Name: m.res.info.Name, Type: adapterType(m.res.info.DeviceType)}
}

var _ DeviceHandle = (*Manager)(nil)

// rollback collects undo steps and runs them in reverse.
type rollback []func()

func (r *rollback) push(fn func()) { *r = append(*r, fn) }

func (r *rollback) run() {
	for i := len(*r) - 1; i >= 0; i-- {
		(*r)[i]()
	}
	*r = nil
}
