package main

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-text/typesetting/font"

	"github.com/gogpu/termrender"
	"github.com/gogpu/termrender/render"
)

// profile is the on-disk appearance profile.
type profile struct {
	FontFace   string  `toml:"font_face"`
	FontSize   float64 `toml:"font_size"`
	FontWeight int     `toml:"font_weight"`
	Locale     string  `toml:"locale"`
	DPI        float64 `toml:"dpi"`

	Antialiasing      string `toml:"antialiasing"`
	SoftwareRendering *bool  `toml:"software_rendering"`
	ForceFullRepaint  bool   `toml:"force_full_repaint"`

	Foreground          string   `toml:"foreground"`
	Background          string   `toml:"background"`
	SelectionBackground string   `toml:"selection_background"`
	Opacity             *float64 `toml:"opacity"`
	Padding             int      `toml:"padding"`

	RetroEffect bool   `toml:"retro_effect"`
	PixelShader string `toml:"pixel_shader"`

	BackgroundImage        string   `toml:"background_image"`
	BackgroundImageOpacity *float64 `toml:"background_image_opacity"`

	InvalidateFullRows bool `toml:"invalidate_full_rows"`
}

// loadProfile decodes the profile at path. Unknown keys are returned so the
// caller can warn about them.
func loadProfile(path string) (profile, []string, error) {
	var p profile
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return p, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	return p, unknown, nil
}

// apply overlays the values set in p onto s.
func (p profile) apply(s *termrender.Settings) error {
	if p.FontFace != "" {
		s.Font.Family = p.FontFace
	}
	if p.FontSize > 0 {
		s.Font.Size = p.FontSize
	}
	if p.FontWeight > 0 {
		s.Font.Weight = font.Weight(p.FontWeight)
	}
	if p.Locale != "" {
		s.Font.Locale = p.Locale
	}
	if p.DPI > 0 {
		s.DPI = p.DPI
	}
	if p.Antialiasing != "" {
		aa, ok := render.ParseAntialias(p.Antialiasing)
		if !ok {
			return fmt.Errorf("antialiasing %q: want grayscale, cleartype or aliased", p.Antialiasing)
		}
		s.Antialias = aa
	}
	if p.SoftwareRendering != nil {
		s.SoftwareRendering = *p.SoftwareRendering
	}
	s.ForceFullRepaint = s.ForceFullRepaint || p.ForceFullRepaint

	for _, c := range []struct {
		key string
		val string
		dst *color.NRGBA
	}{
		{"foreground", p.Foreground, &s.DefaultForeground},
		{"background", p.Background, &s.DefaultBackground},
		{"selection_background", p.SelectionBackground, &s.SelectionBackground},
	} {
		if c.val == "" {
			continue
		}
		v, err := parseColor(c.val)
		if err != nil {
			return fmt.Errorf("%s: %w", c.key, err)
		}
		*c.dst = v
	}
	if p.Opacity != nil {
		s.BackgroundOpacity = *p.Opacity
	}
	if p.Padding > 0 {
		s.Padding = image.Pt(p.Padding, p.Padding)
	}

	s.RetroEffect = s.RetroEffect || p.RetroEffect
	if p.PixelShader != "" {
		s.ShaderPath = p.PixelShader
	}
	if p.BackgroundImage != "" {
		s.BackgroundImage = p.BackgroundImage
	}
	if p.BackgroundImageOpacity != nil {
		s.BackgroundImageOpacity = *p.BackgroundImageOpacity
	}
	s.InvalidateFullRows = s.InvalidateFullRows || p.InvalidateFullRows
	return nil
}

// parseColor accepts #rgb, #rrggbb and #rrggbbaa.
func parseColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
