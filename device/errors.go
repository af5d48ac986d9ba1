package device

import "errors"

var (
	ErrInvalidParams      = errors.New("device: invalid parameters")
	ErrInvalidMode        = errors.New("device: display mode not supported")
	ErrUnsupported        = errors.New("device: not supported")
	ErrNoCooperativeLevel = errors.New("device: cooperative level not set")
	ErrPrimaryExists      = errors.New("device: primary surface already exists")
	ErrOutOfVideoMemory   = errors.New("device: out of video memory")

	// ErrInUse is returned by Release while a live object still depends on the receiver.
	ErrInUse = errors.New("device: object still in use")
	// ErrReleased is returned by any call on a released object.
	ErrReleased = errors.New("device: object already released")

	ErrAlreadyAttached = errors.New("device: surface already attached")
	ErrNotAttached     = errors.New("device: not attached")
	ErrNoZBuffer       = errors.New("device: no z-buffer attached")
	ErrNoViewport      = errors.New("device: no current viewport")

	ErrLocked    = errors.New("device: surface is locked")
	ErrNotLocked = errors.New("device: surface is not locked")

	// ErrSurfaceLost means the surface memory was reclaimed; call Restore.
	ErrSurfaceLost = errors.New("device: surface lost")
	// ErrWasStillDrawing means the target is busy; retry or pass BltWait.
	ErrWasStillDrawing = errors.New("device: still drawing")
	ErrDeviceLost      = errors.New("device: device lost")
	ErrOccluded        = errors.New("device: window occluded")

	ErrInScene    = errors.New("device: already inside a scene")
	ErrNotInScene = errors.New("device: not inside a scene")
)
