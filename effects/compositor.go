package effects

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/termrender/internal/logging"
)

const captureFormat = gputypes.TextureFormatRGBA8Unorm

// Compositor owns the GPU objects of one screen effect.
//
// Lifecycle: SetSource -> Setup (per swap chain) -> Run + Encode (per frame)
// -> Release. Setup is cheap when neither the source nor the swap chain
// changed. Not safe for concurrent use.
type Compositor struct {
	source   string
	fallback bool
	disabled bool

	// validate compiles WGSL to SPIR-V; a non-nil error selects the error
	// indicator.
	validate func(string) ([]byte, error)

	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	width  uint32
	height uint32
	built  string

	shader      hal.ShaderModule
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipeline    hal.RenderPipeline
	sampler     hal.Sampler
	capture     hal.Texture
	captureView hal.TextureView
	uniform     hal.Buffer
	bindGroup   hal.BindGroup

	settings Settings
	start    time.Time
}

// New returns a compositor for the given fragment source.
func New(source string) *Compositor {
	c := &Compositor{
		source:   source,
		validate: naga.Compile,
		start:    time.Now(),
	}
	c.settings.Scale = 1
	return c
}

// SetSource replaces the fragment stage. It reports whether the source
// changed; the pipeline is rebuilt on the next Setup.
func (c *Compositor) SetSource(source string) bool {
	if source == c.source {
		return false
	}
	c.source = source
	return true
}

// Source returns the configured fragment stage.
func (c *Compositor) Source() string { return c.source }

// UsingFallback reports whether the last build substituted the error
// indicator for the configured source.
func (c *Compositor) UsingFallback() bool { return c.fallback }

// Disabled reports whether setup failed for this session.
func (c *Compositor) Disabled() bool { return c.disabled }

// Ready reports whether the pipeline is built.
func (c *Compositor) Ready() bool { return c.pipeline != nil }

// SetScale sets the DPI scale exposed to the shader.
func (c *Compositor) SetScale(scale float32) { c.settings.Scale = scale }

// SetBackground sets the default background exposed to the shader.
func (c *Compositor) SetBackground(bg color.NRGBA) { c.settings.SetBackground(bg) }

// Setup builds the pipeline for a swap chain of the given format and size.
// Nothing is rebuilt when the device, format, size and source match the
// previous call. A failure releases everything, disables the compositor and
// returns an error wrapping ErrDisabled.
func (c *Compositor) Setup(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, width, height int) error {
	if c.disabled {
		return ErrDisabled
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("effects: setup %dx%d: empty swap chain", width, height)
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // checked positive
	if c.pipeline != nil && c.device == device && c.format == format &&
		c.width == w && c.height == h && c.built == c.source {
		c.queue = queue
		return nil
	}

	c.Release()
	c.device, c.queue = device, queue
	c.format, c.width, c.height = format, w, h
	if err := c.build(); err != nil {
		c.Release()
		c.disabled = true
		logging.Logger().Warn("effects: setup failed, disabling", "error", err)
		return fmt.Errorf("%w: %w", ErrDisabled, err)
	}
	c.built = c.source
	logging.Logger().Debug("effects: pipeline ready",
		"width", w, "height", h, "format", format, "fallback", c.fallback)
	return nil
}

func (c *Compositor) build() error {
	fragment := c.source
	c.fallback = false
	if _, err := c.validate(module(fragment)); err != nil {
		logging.Logger().Warn("effects: shader does not compile, using error indicator", "error", err)
		fragment = errorSource
		c.fallback = true
	}

	d := c.device
	shader, err := d.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "effect_shader",
		Source: hal.ShaderSource{WGSL: module(fragment)},
	})
	if err != nil {
		return fmt.Errorf("compile effect shader: %w", err)
	}
	c.shader = shader

	// Binding 0: settings uniform, 1: captured frame, 2: sampler.
	c.bindLayout, err = d.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "effect_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create effect bind layout: %w", err)
	}

	c.pipeLayout, err = d.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "effect_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create effect pipeline layout: %w", err)
	}

	c.pipeline, err = d.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "effect_pipeline",
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     c.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    c.format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create effect pipeline: %w", err)
	}

	c.sampler, err = d.CreateSampler(&hal.SamplerDescriptor{
		Label:        "effect_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create effect sampler: %w", err)
	}

	c.capture, err = d.CreateTexture(&hal.TextureDescriptor{
		Label:         "effect_capture",
		Size:          hal.Extent3D{Width: c.width, Height: c.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        captureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create effect capture: %w", err)
	}
	c.captureView, err = d.CreateTextureView(c.capture, &hal.TextureViewDescriptor{
		Label:         "effect_capture_view",
		Format:        captureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create effect capture view: %w", err)
	}

	c.uniform, err = d.CreateBuffer(&hal.BufferDescriptor{
		Label: "effect_settings",
		Size:  settingsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create effect settings: %w", err)
	}

	c.bindGroup, err = d.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "effect_bind",
		Layout: c.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: c.uniform.NativeHandle(), Size: settingsSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: c.captureView.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create effect bind group: %w", err)
	}
	return nil
}

// Run captures frame and refreshes the settings uniform. It must follow a
// successful Setup with the frame's size.
func (c *Compositor) Run(frame *image.RGBA) error {
	if c.disabled {
		return ErrDisabled
	}
	if c.pipeline == nil {
		return errors.New("effects: run before setup")
	}
	b := frame.Bounds()
	if uint32(b.Dx()) != c.width || uint32(b.Dy()) != c.height { //nolint:gosec // bounds are non-negative
		return fmt.Errorf("effects: frame %dx%d does not match swap chain %dx%d", b.Dx(), b.Dy(), c.width, c.height)
	}

	err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: c.capture, Aspect: gputypes.TextureAspectAll},
		packed(frame),
		&hal.ImageDataLayout{BytesPerRow: c.width * 4, RowsPerImage: c.height},
		&hal.Extent3D{Width: c.width, Height: c.height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("capture frame: %w", err)
	}

	c.settings.Time = float32(time.Since(c.start).Seconds())
	c.settings.Resolution = [2]float32{float32(c.width), float32(c.height)}
	if err := c.queue.WriteBuffer(c.uniform, 0, c.settings.Bytes()); err != nil {
		return fmt.Errorf("write effect settings: %w", err)
	}
	return nil
}

// packed returns the pixels of img without row padding.
func packed(img *image.RGBA) []byte {
	b := img.Bounds()
	row := b.Dx() * 4
	if img.Stride == row && b.Min == (image.Point{}) {
		return img.Pix[:row*b.Dy()]
	}
	out := make([]byte, row*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*row:], img.Pix[off:off+row])
	}
	return out
}

// Encode records the effect pass into enc, drawing into target. It
// implements render.Pass.
func (c *Compositor) Encode(enc hal.CommandEncoder, target hal.TextureView) error {
	if c.pipeline == nil {
		return ErrDisabled
	}
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "effect_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rp.SetPipeline(c.pipeline)
	rp.SetBindGroup(0, c.bindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return nil
}

// Release destroys all GPU objects. The source and the disabled flag are
// kept. Safe to call repeatedly.
func (c *Compositor) Release() {
	d := c.device
	if d == nil {
		return
	}
	if c.bindGroup != nil {
		d.DestroyBindGroup(c.bindGroup)
		c.bindGroup = nil
	}
	if c.uniform != nil {
		d.DestroyBuffer(c.uniform)
		c.uniform = nil
	}
	if c.captureView != nil {
		d.DestroyTextureView(c.captureView)
		c.captureView = nil
	}
	if c.capture != nil {
		d.DestroyTexture(c.capture)
		c.capture = nil
	}
	if c.sampler != nil {
		d.DestroySampler(c.sampler)
		c.sampler = nil
	}
	if c.pipeline != nil {
		d.DestroyRenderPipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.pipeLayout != nil {
		d.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.bindLayout != nil {
		d.DestroyBindGroupLayout(c.bindLayout)
		c.bindLayout = nil
	}
	if c.shader != nil {
		d.DestroyShaderModule(c.shader)
		c.shader = nil
	}
	c.device, c.queue = nil, nil
	c.built = ""
}
