// Package render drives one mesh through a fixed-function device.
//
// Initialize builds the device environment step by step and Teardown
// releases it in reverse. LoadTexture negotiates a texture format and uploads
// an image. Frame runs the per-frame clear, begin, draw, end and present
// cycle, and Animation spins the mesh about the vertical axis.
//
// An Environment is owned by one goroutine.
package render

import (
	"errors"
	"fmt"
	"image"
	"iter"

	"quarkcube/device"
	"quarkcube/hal"
	"quarkcube/quarkgl"
)

// Window is the window an Environment presents into.
type Window = device.Window

// Options configure Initialize.
type Options struct {
	// Depth attaches a z-buffer as deep as the first hardware device
	// supports.
	Depth bool

	// Device is created from the back buffer. Zero selects DeviceHAL.
	Device device.DeviceID

	// Camera defaults to quarkgl.DefaultCamera.
	Camera quarkgl.Camera

	// Background is the color of the viewport background material.
	Background device.ColorValue

	Logger hal.Logger
}

// DefaultOptions returns a HAL device without a z-buffer looking at the
// origin from the default camera, cleared to white.
func DefaultOptions() Options {
	return Options{
		Device:     device.DeviceHAL,
		Camera:     quarkgl.DefaultCamera(),
		Background: device.ColorValue{R: 1, G: 1, B: 1, A: 1},
	}
}

// Step identifies an initialization step.
type Step uint8

const (
	StepCooperativeLevel Step = iota + 1
	StepPrimarySurface
	StepBackBuffer
	StepDepthSurface
	StepAttachDepth
	StepClipper
	StepDirect3D
	StepDisplayMode
	StepDevice
	StepViewport
	StepMaterial
	StepScene
)

func (s Step) String() string {
	switch s {
	case StepCooperativeLevel:
		return "cooperative level"
	case StepPrimarySurface:
		return "primary surface"
	case StepBackBuffer:
		return "back buffer"
	case StepDepthSurface:
		return "depth surface"
	case StepAttachDepth:
		return "attach depth surface"
	case StepClipper:
		return "clipper"
	case StepDirect3D:
		return "direct3d"
	case StepDisplayMode:
		return "display mode"
	case StepDevice:
		return "device"
	case StepViewport:
		return "viewport"
	case StepMaterial:
		return "material"
	case StepScene:
		return "scene"
	default:
		return fmt.Sprintf("step(%d)", uint8(s))
	}
}

// InitError reports the initialization step that failed.
type InitError struct {
	Step Step
	Err  error
}

func (e *InitError) Error() string { return fmt.Sprintf("render: init %v: %v", e.Step, e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// Environment holds every device object needed to draw.
type Environment struct {
	opts Options
	log  hal.Logger
	win  Window

	provider device.Provider
	primary  device.Surface
	back     device.Surface
	depth    device.Surface
	d3d      device.Direct3D
	dev      device.Device
	viewport device.Viewport
	material device.Material
	texture  *Texture

	depthAttached  bool
	viewportAdded  bool
	materialHandle device.MaterialHandle

	width, height int
	depthBits     int
	hardware      device.DeviceDesc
	displayFormat device.PixelFormat

	viewRect   image.Rectangle // back buffer coordinates
	screenRect image.Rectangle // where the back buffer is presented
}

// Initialize builds an environment presenting into win. It takes ownership
// of p: on failure everything created so far, p included, is released and
// the returned error is an *InitError.
func Initialize(p device.Provider, win Window, opts Options) (*Environment, error) {
	if opts.Device == 0 {
		opts.Device = device.DeviceHAL
	}
	if opts.Camera == (quarkgl.Camera{}) {
		opts.Camera = quarkgl.DefaultCamera()
	}
	e := &Environment{opts: opts, log: opts.Logger, win: win, provider: p}
	if err := e.init(); err != nil {
		e.Teardown()
		return nil, err
	}
	e.logf("render: %dx%d on %v, display %v, depth %d bits", e.width, e.height, opts.Device, e.displayFormat, e.depthBits)
	return e, nil
}

type initStep struct {
	step Step
	run  func() error
}

func (e *Environment) init() error {
	if e.provider == nil || e.win == nil {
		return &InitError{Step: StepCooperativeLevel, Err: device.ErrInvalidParams}
	}

	steps := []initStep{
		{StepCooperativeLevel, e.setCooperativeLevel},
		{StepPrimarySurface, e.createPrimary},
		{StepBackBuffer, e.createBackBuffer},
	}
	if e.opts.Depth {
		// Enumerating devices needs the 3D interface.
		steps = append(steps,
			initStep{StepDirect3D, e.acquireDirect3D},
			initStep{StepDepthSurface, e.createDepth},
			initStep{StepAttachDepth, e.attachDepth},
		)
	}
	steps = append(steps,
		initStep{StepClipper, e.createClipper},
		initStep{StepDirect3D, e.acquireDirect3D},
		initStep{StepDisplayMode, e.checkDisplayMode},
		initStep{StepDevice, e.createDevice},
		initStep{StepViewport, e.createViewport},
		initStep{StepMaterial, e.createMaterial},
		initStep{StepScene, e.setupScene},
	)

	for _, s := range steps {
		if err := s.run(); err != nil {
			e.logf("render: init %v: %v", s.step, err)
			return &InitError{Step: s.step, Err: err}
		}
	}
	return nil
}

func (e *Environment) setCooperativeLevel() error {
	return e.provider.SetCooperativeLevel(e.win, device.CoopNormal)
}

func (e *Environment) createPrimary() error {
	s, err := e.provider.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	if err != nil {
		return err
	}
	e.primary = s
	return nil
}

func (e *Environment) createBackBuffer() error {
	w, h := e.win.ClientSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: client size %dx%d", device.ErrInvalidParams, w, h)
	}
	e.width, e.height = w, h
	e.viewRect = image.Rect(0, 0, w, h)
	e.screenRect = e.viewRect.Add(e.win.ClientOrigin())

	s, err := e.provider.CreateSurface(device.SurfaceDesc{
		Caps:   device.CapsOffscreenPlain | device.Caps3DDevice,
		Width:  w,
		Height: h,
	})
	if err != nil {
		return err
	}
	e.back = s
	return nil
}

func (e *Environment) acquireDirect3D() error {
	if e.d3d != nil {
		return nil
	}
	d, err := e.provider.Direct3D()
	if err != nil {
		return err
	}
	e.d3d = d
	return nil
}

func (e *Environment) createDepth() error {
	desc, ok := first(e.d3d.Devices(), func(d device.DeviceDesc) bool { return d.Hardware })
	if !ok {
		return fmt.Errorf("%w: no hardware device", device.ErrUnsupported)
	}
	bits := desc.ZBufferBitDepths.Deepest()
	if bits == 0 {
		return fmt.Errorf("%w: %s has no z-buffer", device.ErrUnsupported, desc.Name)
	}
	s, err := e.provider.CreateSurface(device.SurfaceDesc{
		Caps:            device.CapsZBuffer,
		Width:           e.width,
		Height:          e.height,
		ZBufferBitDepth: bits,
	})
	if err != nil {
		return err
	}
	e.depth = s
	e.depthBits = bits
	e.hardware = desc
	return nil
}

func (e *Environment) attachDepth() error {
	if err := e.back.AddAttachedSurface(e.depth); err != nil {
		return err
	}
	e.depthAttached = true
	return nil
}

// createClipper binds a clipper to the window and hands it to the primary
// surface, which keeps it alive.
func (e *Environment) createClipper() error {
	c, err := e.provider.CreateClipper()
	if err != nil {
		return err
	}
	defer e.release("clipper", c)
	if err := c.SetWindow(e.win); err != nil {
		return err
	}
	return e.primary.SetClipper(c)
}

func (e *Environment) checkDisplayMode() error {
	pf, err := e.provider.DisplayMode()
	if err != nil {
		return err
	}
	if pf.RGBBitCount <= 8 || pf.Flags&device.PFPaletteIndexed8 != 0 {
		return fmt.Errorf("%w: palettized %d-bit display", device.ErrInvalidMode, pf.RGBBitCount)
	}
	e.displayFormat = pf
	return nil
}

func (e *Environment) createDevice() error {
	d, err := e.d3d.CreateDevice(e.opts.Device, e.back)
	if err != nil {
		return err
	}
	e.dev = d
	return nil
}

func (e *Environment) createViewport() error {
	vp, err := e.d3d.CreateViewport()
	if err != nil {
		return err
	}
	e.viewport = vp
	if err := e.dev.AddViewport(vp); err != nil {
		return err
	}
	e.viewportAdded = true
	if err := vp.SetViewport(device.ViewportParams{
		Width:      e.width,
		Height:     e.height,
		ClipX:      -1,
		ClipY:      1,
		ClipWidth:  2,
		ClipHeight: 2,
		MinZ:       0,
		MaxZ:       1,
	}); err != nil {
		return err
	}
	return e.dev.SetCurrentViewport(vp)
}

func (e *Environment) createMaterial() error {
	m, err := e.d3d.CreateMaterial()
	if err != nil {
		return err
	}
	e.material = m
	bg := e.opts.Background
	if err := m.SetMaterial(device.MaterialDesc{Diffuse: bg, Ambient: bg, RampSize: 1}); err != nil {
		return err
	}
	h, err := m.Handle(e.dev)
	if err != nil {
		return err
	}
	e.materialHandle = h
	return e.viewport.SetBackground(h)
}

func (e *Environment) setupScene() error {
	view, err := e.opts.Camera.View()
	if err != nil {
		return err
	}
	proj, err := e.opts.Camera.Projection(quarkgl.Scalar(e.width) / quarkgl.Scalar(e.height))
	if err != nil {
		return err
	}
	for _, t := range []struct {
		state device.TransformState
		m     quarkgl.Mat4
	}{
		{device.TransformWorld, quarkgl.WorldMatrix(0)},
		{device.TransformView, view},
		{device.TransformProjection, proj},
	} {
		if err := e.dev.SetTransform(t.state, t.m); err != nil {
			return err
		}
	}

	zEnable := uint32(0)
	if e.depthAttached {
		zEnable = 1
	}
	for _, rs := range []struct {
		state device.RenderState
		value uint32
	}{
		{device.RenderStateCullMode, device.CullCCW},
		{device.RenderStateTexturePerspective, 1},
		{device.RenderStateZEnable, zEnable},
	} {
		if err := e.dev.SetRenderState(rs.state, rs.value); err != nil {
			return err
		}
	}
	return nil
}

// Teardown releases everything the environment holds, in reverse creation
// order. Calling it again is a no-op. Release failures are logged.
func (e *Environment) Teardown() {
	if e == nil {
		return
	}

	if e.texture != nil && e.dev != nil {
		e.check("unbind texture", e.dev.SetTexture(0, nil))
	}
	if e.viewport != nil {
		if e.viewportAdded {
			if e.materialHandle != 0 {
				e.check("clear background", e.viewport.SetBackground(0))
			}
			if e.dev != nil {
				e.check("delete viewport", e.dev.DeleteViewport(e.viewport))
			}
			e.viewportAdded = false
		}
		e.release("viewport", e.viewport)
		e.viewport = nil
	}
	if e.texture != nil {
		e.check("release texture", e.texture.Release())
		e.texture = nil
	}
	if e.material != nil {
		e.release("material", e.material)
		e.material = nil
		e.materialHandle = 0
	}
	if e.dev != nil {
		e.release("device", e.dev)
		e.dev = nil
	}
	if e.depth != nil {
		if e.depthAttached && e.back != nil {
			e.check("detach depth surface", e.back.DeleteAttachedSurface(e.depth))
			e.depthAttached = false
		}
		e.release("depth surface", e.depth)
		e.depth = nil
	}
	if e.back != nil {
		e.release("back buffer", e.back)
		e.back = nil
	}
	if e.primary != nil {
		e.release("primary surface", e.primary)
		e.primary = nil
	}
	if e.d3d != nil {
		e.release("direct3d", e.d3d)
		e.d3d = nil
	}
	if e.provider != nil {
		e.release("provider", e.provider)
		e.provider = nil
	}
}

func (e *Environment) release(name string, r device.Releaser) {
	e.check("release "+name, r.Release())
}

func (e *Environment) check(what string, err error) {
	if err != nil {
		e.logf("render: %s: %v", what, err)
	}
}

func (e *Environment) logf(format string, args ...any) {
	if e.log != nil {
		e.log.WriteLineString(fmt.Sprintf(format, args...))
	}
}

// Move records a new screen position of the window client area. The size
// stays what it was at initialization.
func (e *Environment) Move(x, y int) {
	if e == nil {
		return
	}
	e.screenRect = image.Rect(x, y, x+e.width, y+e.height)
}

// Restore reallocates lost surfaces. The texture is uploaded again; the
// other contents are redrawn by the next frame.
func (e *Environment) Restore() error {
	if e == nil {
		return ErrNoEnvironment
	}
	for _, s := range []device.Surface{e.primary, e.back, e.depth} {
		if s == nil {
			continue
		}
		if err := s.IsLost(); !errors.Is(err, device.ErrSurfaceLost) {
			continue
		}
		if err := s.Restore(); err != nil {
			return err
		}
	}
	return e.texture.restore()
}

// Device returns the rendering device, or nil after Teardown.
func (e *Environment) Device() device.Device { return e.dev }

// Direct3D returns the 3D interface, or nil after Teardown.
func (e *Environment) Direct3D() device.Direct3D { return e.d3d }

// Viewport returns the current viewport, or nil after Teardown.
func (e *Environment) Viewport() device.Viewport { return e.viewport }

func (e *Environment) Primary() device.Surface    { return e.primary }
func (e *Environment) BackBuffer() device.Surface { return e.back }

// DepthSurface returns the attached z-buffer, or nil without one.
func (e *Environment) DepthSurface() device.Surface { return e.depth }

// DepthBits returns the z-buffer depth, 0 without one.
func (e *Environment) DepthBits() int { return e.depthBits }

// Size returns the client size the environment was built for.
func (e *Environment) Size() (w, h int) { return e.width, e.height }

// ViewportRect returns the drawn rectangle in back buffer coordinates.
func (e *Environment) ViewportRect() image.Rectangle { return e.viewRect }

// ScreenRect returns where frames are presented on screen.
func (e *Environment) ScreenRect() image.Rectangle { return e.screenRect }

// DisplayFormat returns the pixel format of the display.
func (e *Environment) DisplayFormat() device.PixelFormat { return e.displayFormat }

// Texture returns the bound texture, or nil.
func (e *Environment) Texture() *Texture { return e.texture }

// first returns the first element of seq accepted by match.
func first[T any](seq iter.Seq[T], match func(T) bool) (T, bool) {
	for v := range seq {
		if match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
