package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Sentinel errors for the render package.
var (
	// ErrDeviceRemoved reports that the GPU device is gone. Recreate all
	// resources.
	ErrDeviceRemoved = errors.New("render: device removed")

	// ErrDeviceReset reports that the swap chain no longer matches the
	// surface. Recreate all resources.
	ErrDeviceReset = errors.New("render: device reset")

	// ErrNoAdapter is returned when a backend exposes no usable adapter.
	ErrNoAdapter = errors.New("render: no adapter available")

	// ErrNoBackend is returned when no hardware backend is registered.
	ErrNoBackend = errors.New("render: no hardware backend registered")

	// ErrNotReady is returned by operations that need Ready resources.
	ErrNotReady = errors.New("render: device resources not ready")

	// ErrEmptyTarget is returned when resources are requested for a target
	// with zero width or height.
	ErrEmptyTarget = errors.New("render: target has zero area")
)

// IsDeviceLoss reports whether err requires a full resource recreation.
func IsDeviceLoss(err error) bool {
	return errors.Is(err, ErrDeviceRemoved) || errors.Is(err, ErrDeviceReset)
}

// classify maps HAL loss conditions onto the package's sentinels.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrDeviceLost):
		return fmt.Errorf("render: %s: %w: %w", op, ErrDeviceRemoved, err)
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return fmt.Errorf("render: %s: %w: %w", op, ErrDeviceReset, err)
	default:
		return fmt.Errorf("render: %s: %w", op, err)
	}
}
