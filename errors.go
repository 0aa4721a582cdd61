package termrender

import "errors"

// Sentinel errors returned by Engine.
var (
	// ErrInvalidState reports a call out of order: StartPaint while
	// painting, EndPaint while idle, Enable twice or Disable twice.
	ErrInvalidState = errors.New("termrender: invalid state")

	// ErrRetry reports that the device was lost during present. All
	// device resources were released and everything invalidated; run the
	// paint cycle again.
	ErrRetry = errors.New("termrender: device lost, retry frame")

	// ErrPresentFailed wraps a present failure that recreation cannot fix.
	ErrPresentFailed = errors.New("termrender: present failed")

	// ErrNotEnabled is returned by StartPaint on a disabled engine.
	ErrNotEnabled = errors.New("termrender: engine not enabled")

	// ErrNoFont is returned by paint calls made before UpdateFont.
	ErrNoFont = errors.New("termrender: no font selected")
)
