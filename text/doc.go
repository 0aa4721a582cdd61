// Package text resolves terminal fonts and turns cell runs into positioned
// glyphs.
//
// The pipeline has four parts:
//
//   - Collection: where faces come from. MemoryCollection holds faces parsed
//     from bytes (DefaultCollection is seeded with the Go Mono family),
//     SystemCollection scans installed fonts with go-text's fontscan, and
//     Chain consults several collections in order.
//   - Resolver: picks a face for a FontRequest, walking a fixed fallback list
//     of monospace families, and derives integer cell metrics.
//   - Shaper: converts a run of grid cells into glyphs snapped to cell
//     columns. HarfBuzzShaper uses go-text's HarfBuzz port.
//   - Rasterizer: renders glyph outlines into alpha masks.
//
// # Cell metrics
//
// The cell width is the advance of "M" at the requested pixel height,
// rounded to a whole pixel. The font size is then solved back from that
// width, and ascent and descent (each padded by half the line gap) are
// rounded up independently so the baseline and the cell height are both
// integers.
//
//	r := text.NewResolver(text.DefaultCollection())
//	face, err := r.Resolve(text.FontRequest{Family: "Go Mono", Size: 12}, 96)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(face.CellSize, face.Baseline)
package text
