package effects

import (
	_ "embed"
)

//go:embed shaders/prelude.wgsl
var preludeSource string

//go:embed shaders/error.wgsl
var errorSource string

//go:embed shaders/retro.wgsl
var retroSource string

// Retro is the built-in retro terminal effect: a soft glow with scanlines.
func Retro() string { return retroSource }

// ErrorIndicator is the fragment stage substituted for sources that do not
// compile.
func ErrorIndicator() string { return errorSource }

// module joins the prelude and a fragment stage into one WGSL module.
func module(fragment string) string {
	return preludeSource + "\n" + fragment
}
