package main

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gogpu/termrender"
	"github.com/gogpu/termrender/render"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
font_face = "Go Mono"
font_size = 14
antialiasing = "cleartype"
foreground = "#ffcc00"
background = "#102030"
opacity = 0.8
padding = 4
software_rendering = false
background_image_opacity = 0.25
colour = "typo"
`)
	p, unknown, err := loadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(unknown, []string{"colour"}) {
		t.Errorf("unknown keys = %v, want [colour]", unknown)
	}

	s := termrender.DefaultSettings()
	s.SoftwareRendering = true
	if err := p.apply(&s); err != nil {
		t.Fatal(err)
	}
	if s.Font.Family != "Go Mono" || s.Font.Size != 14 {
		t.Errorf("font = %+v", s.Font)
	}
	if s.Antialias != render.AntialiasClearType {
		t.Errorf("Antialias = %v", s.Antialias)
	}
	if s.DefaultForeground != (color.NRGBA{R: 0xff, G: 0xcc, A: 0xff}) {
		t.Errorf("DefaultForeground = %v", s.DefaultForeground)
	}
	if s.DefaultBackground != (color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Errorf("DefaultBackground = %v", s.DefaultBackground)
	}
	if s.BackgroundOpacity != 0.8 || s.BackgroundImageOpacity != 0.25 {
		t.Errorf("opacities = %v, %v", s.BackgroundOpacity, s.BackgroundImageOpacity)
	}
	if s.Padding != image.Pt(4, 4) {
		t.Errorf("Padding = %v", s.Padding)
	}
	if s.SoftwareRendering {
		t.Error("software_rendering = false should override the flag")
	}
}

func TestLoadProfile_Unset(t *testing.T) {
	p, _, err := loadProfile(writeProfile(t, "retro_effect = true\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := termrender.DefaultSettings()
	s := want
	if err := p.apply(&s); err != nil {
		t.Fatal(err)
	}
	want.RetroEffect = true
	if !reflect.DeepEqual(s, want) {
		t.Errorf("apply changed unset fields:\n got %+v\nwant %+v", s, want)
	}
}

func TestLoadProfile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "font_size = = 3"},
		{"type", `font_size = "big"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := loadProfile(writeProfile(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, _, err := loadProfile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file: expected an error")
	}
}

func TestApply_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    profile
	}{
		{"antialiasing", profile{Antialiasing: "subpixel"}},
		{"foreground", profile{Foreground: "#12"}},
		{"background", profile{Background: "#gggggg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := termrender.DefaultSettings()
			if err := tt.p.apply(&s); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"#102030", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}},
		{"10203080", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x80}},
		{" #ABCDEF ", color.NRGBA{R: 0xab, G: 0xcd, B: 0xef, A: 0xff}},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		if err != nil {
			t.Errorf("parseColor(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRenderScreen(t *testing.T) {
	s := termrender.DefaultSettings()
	s.SoftwareRendering = true
	s.Font.Size = 10
	img, err := renderScreen(s, 60, 10, nil)
	if err != nil {
		t.Skipf("software backend unavailable: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(480, 160) {
		t.Errorf("image size = %v, want 480x160", got)
	}
}
