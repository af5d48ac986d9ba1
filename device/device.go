// Package device defines a fixed-function rendering device model.
//
// A Provider is bound to a window and creates surfaces and a clipper. The
// Direct3D interface obtained from the provider enumerates devices and creates
// the rendering Device (always built from a back-buffer surface), viewports,
// materials and textures.
//
// Objects form a dependency graph. Implementations are expected to refuse
// releasing an object while another live object depends on it, and callers are
// expected to release in reverse creation order.
package device

import (
	"image"
	"iter"

	"github.com/go-gl/mathgl/mgl32"
)

// Releaser is implemented by every device object.
type Releaser interface {
	// Release frees the object.
	// It fails with ErrInUse when a live object still depends on
	// the receiver and with ErrReleased when called twice.
	Release() error
}

// Window is the on-screen window a provider renders into.
type Window interface {
	// ClientSize returns the size of the drawable client area.
	ClientSize() (w, h int)

	// ClientOrigin returns the screen position of the client
	// area's top-left corner.
	ClientOrigin() image.Point
}

// Provider is the display-surface provider.
type Provider interface {
	Releaser

	// SetCooperativeLevel binds the provider to win.
	// It must be called before any surface is created.
	SetCooperativeLevel(win Window, level CoopLevel) error

	// CreateSurface creates a surface as described by desc.
	// Only one primary surface may exist at a time.
	CreateSurface(desc SurfaceDesc) (Surface, error)

	// CreateClipper creates a clipper.
	CreateClipper() (Clipper, error)

	// DisplayMode returns the pixel format of the display.
	DisplayMode() (PixelFormat, error)

	// Direct3D returns the 3D interface of the provider.
	// Each call returns a new reference that must be released.
	Direct3D() (Direct3D, error)
}

// Surface is a block of pixel memory.
type Surface interface {
	Releaser

	// Desc returns the surface description, with width,
	// height and pixel format filled in.
	Desc() SurfaceDesc

	// AddAttachedSurface attaches s (a z-buffer) to the receiver.
	AddAttachedSurface(s Surface) error

	// DeleteAttachedSurface detaches s from the receiver.
	DeleteAttachedSurface(s Surface) error

	// SetClipper sets the clipper used by blits targeting the
	// receiver. The surface keeps its own reference to c.
	SetClipper(c Clipper) error

	// Blt copies srcRect of src into dst of the receiver,
	// scaling when sizes differ.
	// Without BltWait, a blit issued while the target is busy
	// fails with ErrWasStillDrawing.
	Blt(dst image.Rectangle, src Surface, srcRect image.Rectangle, flags BltFlags) error

	// Lock gives direct access to the surface memory.
	// Unlock must be called before the surface is used by a blit,
	// a device or another Lock.
	Lock() (LockedRect, error)
	Unlock() error

	// IsLost returns ErrSurfaceLost when the surface memory was
	// reclaimed and must be restored.
	IsLost() error

	// Restore reallocates the memory of a lost surface.
	// The contents are undefined afterwards.
	Restore() error
}

// LockedRect describes locked surface memory.
type LockedRect struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
	Format PixelFormat
}

// Clipper restricts blits to the visible part of a window.
type Clipper interface {
	Releaser

	// SetWindow binds the clip list to win's client area.
	SetWindow(win Window) error

	// ClipList returns the visible screen rectangles.
	ClipList() ([]image.Rectangle, error)
}

// Direct3D is the 3D interface of a provider.
type Direct3D interface {
	Releaser

	// Devices returns the available devices. The sequence is
	// evaluated lazily and may be abandoned at any point.
	Devices() iter.Seq[DeviceDesc]

	// CreateDevice creates the device identified by id that
	// renders into target. target must have been created with
	// Caps3DDevice.
	CreateDevice(id DeviceID, target Surface) (Device, error)

	CreateViewport() (Viewport, error)
	CreateMaterial() (Material, error)

	// CreateTexture wraps a surface created with CapsTexture.
	// The texture keeps its own reference to s.
	CreateTexture(s Surface) (Texture, error)
}

// Device is the fixed-function rendering device.
type Device interface {
	Releaser

	AddViewport(v Viewport) error
	DeleteViewport(v Viewport) error

	// SetCurrentViewport selects the viewport used by draw calls.
	// v must have been added to the device.
	SetCurrentViewport(v Viewport) error

	// TextureFormats returns the pixel formats usable for
	// texture surfaces, lazily.
	TextureFormats() iter.Seq[PixelFormat]

	SetTransform(state TransformState, m mgl32.Mat4) error
	SetRenderState(state RenderState, value uint32) error
	SetTextureStageState(stage int, state TextureStageState, value uint32) error

	// SetTexture binds t to a texture stage; nil unbinds.
	SetTexture(stage int, t Texture) error

	// BeginScene and EndScene bracket draw calls.
	BeginScene() error
	EndScene() error

	// DrawIndexedPrimitive draws vertices indexed by indices.
	// It must be called between BeginScene and EndScene.
	DrawIndexedPrimitive(pt PrimitiveType, vertices Vertices, indices []uint16) error
}

// Viewport is a drawing region with its clear state.
type Viewport interface {
	Releaser

	SetViewport(p ViewportParams) error
	Viewport() ViewportParams

	// SetBackground selects the material used by Clear.
	SetBackground(h MaterialHandle) error

	// Clear clears rects (in render-target coordinates, clipped
	// to the viewport) of the render target and/or its z-buffer,
	// using the background material color. No rects clears the
	// whole viewport.
	Clear(rects []image.Rectangle, flags ClearFlags) error

	// Clear2 is Clear with an explicit color and depth value.
	Clear2(rects []image.Rectangle, flags ClearFlags, color uint32, z float32) error
}

// Material describes a flat shading color.
type Material interface {
	Releaser

	SetMaterial(d MaterialDesc) error
	Material() MaterialDesc

	// Handle returns the handle identifying the material on dev.
	Handle(dev Device) (MaterialHandle, error)
}

// Texture is a surface usable by a device for texturing.
type Texture interface {
	Releaser

	Desc() SurfaceDesc

	// Handle returns the handle identifying the texture on dev.
	Handle(dev Device) (TextureHandle, error)
}
