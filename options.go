package termrender

import (
	"log/slog"

	"github.com/gogpu/termrender/internal/trace"
	"github.com/gogpu/termrender/render"
	"github.com/gogpu/termrender/text"
)

// TraceHandle receives renderer diagnostics. Registration is reference
// counted across engines sharing the handle.
type TraceHandle interface {
	Register() error
	Release() error
	Emit(event string, args ...any)
}

// Option configures an Engine during creation.
//
// Example:
//
//	e, err := termrender.New(settings,
//	    termrender.WithBackendProvider(myBackends),
//	    termrender.WithFontCollection(text.DefaultCollection()),
//	)
type Option func(*options)

type options struct {
	logger   *slog.Logger
	fonts    text.Collection
	shaper   text.Shaper
	backends render.BackendProvider
	trace    TraceHandle
	display  uintptr
	window   uintptr
}

func defaultOptions() options {
	return options{
		backends: render.DefaultBackends{},
		trace:    trace.Global(),
	}
}

// WithLogger installs l as the package logger, the same as SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFontCollection sets where fonts are looked up. The default chains the
// system fonts in front of the embedded Go fonts.
func WithFontCollection(c text.Collection) Option {
	return func(o *options) {
		o.fonts = c
	}
}

// WithShaper replaces the HarfBuzz shaper.
func WithShaper(s text.Shaper) Option {
	return func(o *options) {
		o.shaper = s
	}
}

// WithBackendProvider supplies the HAL backends used to open devices.
func WithBackendProvider(p render.BackendProvider) Option {
	return func(o *options) {
		o.backends = p
	}
}

// WithTraceHandle replaces the process-wide diagnostics registration.
func WithTraceHandle(h TraceHandle) Option {
	return func(o *options) {
		o.trace = h
	}
}

// WithWindow sets the native handles the swap chain is created for. It is
// equivalent to calling SetWindow before the first frame.
func WithWindow(display, window uintptr) Option {
	return func(o *options) {
		o.display, o.window = display, window
	}
}
