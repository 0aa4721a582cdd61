package termrender

import (
	"image"
	"image/color"

	"github.com/go-text/typesetting/font"

	"github.com/gogpu/termrender/effects"
	"github.com/gogpu/termrender/internal/logging"
	"github.com/gogpu/termrender/render"
	"github.com/gogpu/termrender/text"
	"github.com/gogpu/termrender/texture"
)

// DefaultDPI is the DPI at which the scale factor is one.
const DefaultDPI = 96

// selectionOpacity is applied to the selection background.
const selectionOpacity = 0.5

// Settings is the rendering configuration of an Engine.
type Settings struct {
	// Font is the requested font. The resolved face may differ when the
	// family is not installed.
	Font text.FontRequest

	// DPI of the target. Zero selects DefaultDPI.
	DPI float64

	Antialias render.Antialias

	// SoftwareRendering skips the hardware backend.
	SoftwareRendering bool

	// RetroEffect enables the built-in scanline effect. ShaderPath, when
	// set, takes precedence.
	RetroEffect bool
	ShaderPath  string

	// ForceFullRepaint redraws the whole surface every frame.
	ForceFullRepaint bool

	SelectionBackground color.NRGBA
	DefaultForeground   color.NRGBA
	DefaultBackground   color.NRGBA

	// BackgroundOpacity applies to cells painted in the default
	// background. Values below one make the swap chain transparent.
	BackgroundOpacity float64

	// Padding is the pixel inset of the grid from the top-left corner of
	// the target, applied on both sides.
	Padding image.Point

	// InvalidateFullRows widens every invalidation to whole rows.
	InvalidateFullRows bool

	// BackgroundImage is drawn under the text at BackgroundImageOpacity.
	BackgroundImage        string
	BackgroundImageOpacity float64
}

// DefaultSettings returns 12pt Go Mono, grayscale antialiasing, light gray
// on black, and an opaque background.
func DefaultSettings() Settings {
	return Settings{
		Font: text.FontRequest{
			Family: "Go Mono",
			Weight: font.WeightNormal,
			Style:  font.StyleNormal,
			Size:   12,
		},
		DPI:                    DefaultDPI,
		Antialias:              render.AntialiasGrayscale,
		SelectionBackground:    color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		DefaultForeground:      color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
		DefaultBackground:      color.NRGBA{A: 0xff},
		BackgroundOpacity:      1,
		BackgroundImageOpacity: 1,
	}
}

// Settings returns the current configuration.
func (e *Engine) Settings() Settings { return e.settings }

// Apply pushes every field of s through its setter. The font is resolved
// again only when the request or the DPI changed.
func (e *Engine) Apply(s Settings) error {
	if s.DPI <= 0 {
		s.DPI = DefaultDPI
	}
	fontChanged := s.Font != e.settings.Font || e.face == nil
	if s.DPI != e.dpi {
		if err := e.UpdateDPI(s.DPI); err != nil {
			return err
		}
	}
	if fontChanged {
		if _, err := e.UpdateFont(s.Font); err != nil {
			return err
		}
	}
	e.SetAntialiasing(s.Antialias)
	e.SetSoftwareRendering(s.SoftwareRendering)
	e.SetForceFullRepaint(s.ForceFullRepaint)
	e.SetSelectionBackground(s.SelectionBackground)
	e.SetDefaultColors(s.DefaultForeground, s.DefaultBackground)
	e.SetBackgroundOpacity(s.BackgroundOpacity)
	e.SetPadding(s.Padding)
	e.SetInvalidateFullRows(s.InvalidateFullRows)
	e.SetBackgroundImage(s.BackgroundImage, s.BackgroundImageOpacity)
	e.SetPixelShaderEffect(s.RetroEffect, s.ShaderPath)
	return nil
}

// SetAntialiasing sets the glyph antialiasing mode.
func (e *Engine) SetAntialiasing(mode render.Antialias) {
	e.settings.Antialias = mode
	if e.mgr.SetAntialiasing(mode) {
		e.InvalidateAll()
	}
}

// ForceGrayscaleAA reports whether ClearType must be downgraded to
// grayscale: subpixel coverage is wrong over a transparent background.
func (e *Engine) ForceGrayscaleAA() bool {
	return e.settings.Antialias == render.AntialiasClearType &&
		e.settings.BackgroundOpacity != 1 &&
		e.bg == e.settings.DefaultBackground
}

func (e *Engine) effectiveAA() render.Antialias {
	if e.ForceGrayscaleAA() {
		return render.AntialiasGrayscale
	}
	return e.settings.Antialias
}

// SetSoftwareRendering selects the software device. A change recreates the
// device on the next frame.
func (e *Engine) SetSoftwareRendering(on bool) {
	e.settings.SoftwareRendering = on
	if e.mgr.SetForceSoftware(on) {
		e.recreate = true
		e.InvalidateAll()
	}
}

// SetPixelShaderEffect configures the screen effect. A custom shader path
// wins over the retro effect. A change recreates the device on the next
// frame.
func (e *Engine) SetPixelShaderEffect(retro bool, shaderPath string) {
	if retro == e.settings.RetroEffect && shaderPath == e.settings.ShaderPath {
		return
	}
	e.settings.RetroEffect, e.settings.ShaderPath = retro, shaderPath
	e.updateEffect()
	e.recreate = true
	e.InvalidateAll()
}

// effectSource returns the fragment stage to run, or "" for none. A shader
// file that cannot be read shows the error indicator.
func (e *Engine) effectSource() string {
	switch {
	case e.settings.ShaderPath != "":
		if src := texture.LoadShader(e.settings.ShaderPath); src != "" {
			return src
		}
		return effects.ErrorIndicator()
	case e.settings.RetroEffect:
		return effects.Retro()
	default:
		return ""
	}
}

func (e *Engine) updateEffect() {
	src := e.effectSource()
	if src == "" {
		e.dropEffect()
		return
	}
	if e.effect == nil {
		e.effect = effects.New(src)
	} else {
		e.effect.SetSource(src)
	}
	e.effect.SetScale(float32(e.scale))
	e.effect.SetBackground(e.settings.DefaultBackground)
}

func (e *Engine) dropEffect() {
	e.mgr.SetPass(nil)
	if e.effect != nil {
		e.effect.Release()
		e.effect = nil
	}
}

// effectActive reports whether frames go through the effect pass.
func (e *Engine) effectActive() bool {
	return e.effect != nil
}

// SetForceFullRepaint makes every frame a full redraw.
func (e *Engine) SetForceFullRepaint(on bool) {
	if e.settings.ForceFullRepaint == on {
		return
	}
	e.settings.ForceFullRepaint = on
	e.InvalidateAll()
}

// SetSelectionBackground sets the selection highlight color. It is drawn at
// half opacity.
func (e *Engine) SetSelectionBackground(c color.NRGBA) {
	e.settings.SelectionBackground = c
	e.selection = render.NewBrush(c).WithOpacity(selectionOpacity)
}

// SetDefaultColors sets the default foreground and background and makes
// them the current drawing colors.
func (e *Engine) SetDefaultColors(fg, bg color.NRGBA) {
	if fg == e.settings.DefaultForeground && bg == e.settings.DefaultBackground {
		return
	}
	e.settings.DefaultForeground, e.settings.DefaultBackground = fg, bg
	e.fg, e.bg = fg, bg
	e.syncBrushes()
	if e.effect != nil {
		e.effect.SetBackground(bg)
	}
	e.InvalidateAll()
}

// SetBackgroundOpacity sets the opacity of the default background. Crossing
// one toggles swap chain transparency, which recreates the device.
func (e *Engine) SetBackgroundOpacity(o float64) {
	o = min(max(o, 0), 1)
	if o == e.settings.BackgroundOpacity {
		return
	}
	e.settings.BackgroundOpacity = o
	if e.mgr.SetTransparent(o < 1) {
		e.recreate = true
	}
	e.syncBrushes()
	e.InvalidateAll()
}

// SetPadding sets the pixel inset of the grid.
func (e *Engine) SetPadding(p image.Point) {
	p = image.Pt(max(p.X, 0), max(p.Y, 0))
	if p == e.settings.Padding {
		return
	}
	e.settings.Padding = p
	e.resizeGrid()
	e.InvalidateAll()
}

// SetInvalidateFullRows switches the whole-row invalidation policy.
func (e *Engine) SetInvalidateFullRows(on bool) {
	e.settings.InvalidateFullRows = on
	e.tracker.SetRowExpansion(on)
}

// SetBackgroundImage sets the image drawn under the text. An empty path
// removes it. The file is loaded on the next frame, bounded by the device's
// texture size limit.
func (e *Engine) SetBackgroundImage(path string, opacity float64) {
	opacity = min(max(opacity, 0), 1)
	if path == e.settings.BackgroundImage && opacity == e.settings.BackgroundImageOpacity {
		return
	}
	if path != e.settings.BackgroundImage {
		e.bgImage = texture.Image{}
		e.bgImagePending = path != ""
	}
	e.settings.BackgroundImage, e.settings.BackgroundImageOpacity = path, opacity
	e.InvalidateAll()
}

// loadBackgroundImage decodes a pending background image. It needs Ready
// resources for the size limit.
func (e *Engine) loadBackgroundImage() {
	if !e.bgImagePending {
		return
	}
	e.bgImagePending = false
	e.bgImage = texture.Load(e.settings.BackgroundImage, e.mgr.MaxTextureDimension())
	if !e.bgImage.Empty() {
		logging.Logger().Debug("termrender: background image loaded",
			"path", e.settings.BackgroundImage, "size", e.bgImage.Size())
	}
}

// UpdateDrawingBrushes sets the colors used by the following paint calls.
// They are kept across device recreation.
func (e *Engine) UpdateDrawingBrushes(fg, bg color.NRGBA) {
	e.fg, e.bg = fg, bg
	e.syncBrushes()
}

// syncBrushes loads the drawing colors into the target's brushes.
func (e *Engine) syncBrushes() {
	if t := e.mgr.Target(); t != nil {
		t.Foreground = render.NewBrush(e.fg)
		t.Background = e.backgroundBrush()
	}
}

// backgroundBrush is the current background, with the background opacity
// applied when it is the default one.
func (e *Engine) backgroundBrush() render.Brush {
	b := render.NewBrush(e.bg)
	if e.bg == e.settings.DefaultBackground {
		b = b.WithOpacity(e.settings.BackgroundOpacity)
	}
	return b
}

func (e *Engine) defaultBackgroundBrush() render.Brush {
	return render.NewBrush(e.settings.DefaultBackground).WithOpacity(e.settings.BackgroundOpacity)
}
