// Package trace manages the diagnostics provider that records renderer
// events. Registration is reference counted: the provider starts with the
// first registered engine and stops when the last one releases it.
package trace

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gogpu/termrender/internal/logging"
)

// ErrNotRegistered is returned by Release when the count is already zero.
var ErrNotRegistered = errors.New("trace: release without matching register")

// Provider is a diagnostics sink.
type Provider interface {
	Start() error
	Stop()
	Emit(event string, args ...any)
}

// Handle is a reference-counted registration with a Provider.
type Handle interface {
	Register() error
	Release() error
	Emit(event string, args ...any)
	Refs() int
}

// Counted implements Handle around a single Provider.
type Counted struct {
	mu       sync.Mutex
	refs     int
	provider Provider
}

// NewHandle returns a Handle that starts p on first registration.
// A nil provider selects the slog-backed provider.
func NewHandle(p Provider) *Counted {
	if p == nil {
		p = slogProvider{}
	}
	return &Counted{provider: p}
}

// Register increments the reference count and starts the provider when the
// count leaves zero. A failed start leaves the count unchanged.
func (c *Counted) Register() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		if err := c.provider.Start(); err != nil {
			return err
		}
	}
	c.refs++
	return nil
}

// Release decrements the reference count and stops the provider when it
// reaches zero.
func (c *Counted) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return ErrNotRegistered
	}
	c.refs--
	if c.refs == 0 {
		c.provider.Stop()
	}
	return nil
}

// Emit forwards an event while at least one registration is alive.
func (c *Counted) Emit(event string, args ...any) {
	c.mu.Lock()
	active := c.refs > 0
	c.mu.Unlock()
	if active {
		c.provider.Emit(event, args...)
	}
}

// Refs reports the current reference count.
func (c *Counted) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

var global = NewHandle(nil)

// Global returns the process-wide handle shared by engines that were not
// given their own.
func Global() Handle { return global }

// slogProvider writes events to the package logger at debug level.
type slogProvider struct{}

func (slogProvider) Start() error {
	logging.Logger().Debug("trace: provider registered")
	return nil
}

func (slogProvider) Stop() {
	logging.Logger().Debug("trace: provider unregistered")
}

func (slogProvider) Emit(event string, args ...any) {
	logging.Logger().Log(context.Background(), slog.LevelDebug, "trace: "+event, args...)
}
