// Package effects runs a full-screen pixel shader over each presented frame.
//
// A Compositor captures the rendered back buffer into a sampled texture,
// updates a small settings uniform (time, DPI scale, resolution and the
// default background) and draws one full-screen triangle into the swap
// chain image through the effect's fragment stage.
//
// Effect sources are WGSL fragment stages. They are appended to a shared
// prelude that declares:
//
//	struct Settings { time: f32, scale: f32, resolution: vec2<f32>, background: vec4<f32> }
//	@group(0) @binding(0) var<uniform> settings: Settings;
//	@group(0) @binding(1) var frame: texture_2d<f32>;
//	@group(0) @binding(2) var frame_sampler: sampler;
//	struct VertexOutput { @builtin(position) position: vec4<f32>, @location(0) uv: vec2<f32> }
//
// and must define fs_main(in: VertexOutput) -> @location(0) vec4<f32>.
// A source that fails validation is replaced by an error indicator that
// overlays red scanlines, so a broken custom effect is visible instead of
// silently ignored.
package effects
