package text

import "errors"

// Sentinel errors for the text package.
var (
	// ErrNoFontFound is returned when neither the requested family nor any
	// fallback family resolves to a face. It is a fatal configuration error.
	ErrNoFontFound = errors.New("text: no font found for request or fallbacks")

	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrGlyphNotFound is returned when the reference glyph used for cell
	// metrics is missing from a face.
	ErrGlyphNotFound = errors.New("text: reference glyph not found")

	// ErrInvalidSize is returned for non-positive point sizes or DPI.
	ErrInvalidSize = errors.New("text: invalid font size or dpi")
)
