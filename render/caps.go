package render

import (
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Capability is a bitset of optional device features for the surface
// format.
type Capability uint32

const (
	// CapSampled means the format can be bound as a sampled texture.
	CapSampled Capability = 1 << iota
	// CapRenderAttachment means the format can be rendered to.
	CapRenderAttachment
	// CapBlendable means blending is supported when rendering to the format.
	CapBlendable
	// CapMultisample means multisampled textures of the format exist.
	CapMultisample
	// CapMipmapGeneration means mip chains can be generated on the device
	// by render passes between levels.
	CapMipmapGeneration
	// CapHDRFormat means RGBA16Float is usable as a sampled render target.
	CapHDRFormat
)

var capNames = []struct {
	c    Capability
	name string
}{
	{CapSampled, "sampled"},
	{CapRenderAttachment, "render-attachment"},
	{CapBlendable, "blendable"},
	{CapMultisample, "multisample"},
	{CapMipmapGeneration, "mipmap-generation"},
	{CapHDRFormat, "hdr"},
}

// Has reports whether every bit of c is set.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// String returns the set flags joined by '|'.
func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range capNames {
		if c.Has(n.c) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// queryCapabilities probes adapter for the features of format.
func queryCapabilities(adapter hal.Adapter, format gputypes.TextureFormat) Capability {
	flags := adapter.TextureFormatCapabilities(format).Flags
	var c Capability
	if flags&hal.TextureFormatCapabilitySampled != 0 {
		c |= CapSampled
	}
	if flags&hal.TextureFormatCapabilityRenderAttachment != 0 {
		c |= CapRenderAttachment
	}
	if flags&hal.TextureFormatCapabilityBlendable != 0 {
		c |= CapBlendable
	}
	if flags&hal.TextureFormatCapabilityMultisample != 0 {
		c |= CapMultisample
	}
	if c.Has(CapSampled | CapRenderAttachment) {
		c |= CapMipmapGeneration
	}

	hdr := adapter.TextureFormatCapabilities(gputypes.TextureFormatRGBA16Float).Flags
	want := hal.TextureFormatCapabilitySampled | hal.TextureFormatCapabilityRenderAttachment
	if hdr&want == want {
		c |= CapHDRFormat
	}
	return c
}

// Antialias selects how glyph coverage is applied to the target.
type Antialias uint8

const (
	// AntialiasGrayscale blends glyph coverage as a single alpha channel.
	AntialiasGrayscale Antialias = iota
	// AntialiasClearType requests subpixel coverage. The CPU target renders
	// it as grayscale.
	AntialiasClearType
	// AntialiasAliased thresholds coverage to fully on or off.
	AntialiasAliased
)

// String returns the mode name as used in settings files.
func (a Antialias) String() string {
	switch a {
	case AntialiasGrayscale:
		return "grayscale"
	case AntialiasClearType:
		return "cleartype"
	case AntialiasAliased:
		return "aliased"
	default:
		return "unknown"
	}
}

// ParseAntialias parses a settings value. Unknown names yield grayscale
// and false.
func ParseAntialias(s string) (Antialias, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grayscale", "":
		return AntialiasGrayscale, true
	case "cleartype":
		return AntialiasClearType, true
	case "aliased":
		return AntialiasAliased, true
	}
	return AntialiasGrayscale, false
}
