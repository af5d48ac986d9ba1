package render

import (
	"errors"
	"fmt"
	"image"

	"quarkcube/device"
	"quarkcube/geometry"
)

// FrameState is the position of a Frame in its cycle.
type FrameState uint8

const (
	Idle FrameState = iota
	SceneBegun
	SceneEnded
	Presented
)

func (s FrameState) String() string {
	switch s {
	case Idle:
		return "idle"
	case SceneBegun:
		return "scene begun"
	case SceneEnded:
		return "scene ended"
	case Presented:
		return "presented"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ErrNoEnvironment is returned by Render after the environment was torn down.
var ErrNoEnvironment = errors.New("render: environment torn down")

// Result describes one rendered frame.
type Result struct {
	// Presented is set when the frame reached the screen.
	Presented bool

	// Abandoned is set when a recoverable error cut the frame short.
	// Err holds that error.
	Abandoned bool
	Err       error
}

// FrameStats counts frames since the Frame was created.
type FrameStats struct {
	Rendered  uint64
	Abandoned uint64
	LastErr   error
}

// Frame runs the clear, begin, draw, end and present cycle.
//
// A frame always ends in Idle. Failures after the clear abandon the frame
// without tearing anything down.
type Frame struct {
	// Filter is the minification and magnification filter of the texture
	// stage.
	Filter uint32

	// Overlay, when set, prints frame statistics over the picture.
	Overlay *Overlay

	state FrameState
	stats FrameStats
}

// NewFrame returns a frame with linear texture filtering.
func NewFrame() *Frame {
	return &Frame{Filter: device.FilterLinear}
}

func (f *Frame) State() FrameState { return f.state }
func (f *Frame) Stats() FrameStats { return f.stats }

// Render draws mesh into the back buffer of env and presents it.
//
// A failing clear is returned as an error. Failures of the scene, the draw
// or the present abandon the frame and are reported in the Result.
func (f *Frame) Render(env *Environment, mesh geometry.Mesh) (Result, error) {
	if env == nil || env.dev == nil || env.viewport == nil {
		return Result{}, ErrNoEnvironment
	}
	f.state = Idle

	if err := f.clear(env); err != nil {
		f.stats.LastErr = err
		return Result{}, fmt.Errorf("render: clear: %w", err)
	}

	if err := env.dev.BeginScene(); err != nil {
		return f.abandon(env, "begin scene", err), nil
	}
	f.state = SceneBegun

	drawErr := f.draw(env, mesh)
	endErr := env.dev.EndScene()
	if drawErr != nil {
		env.check("end scene", endErr)
		return f.abandon(env, "draw", drawErr), nil
	}
	if endErr != nil {
		return f.abandon(env, "end scene", endErr), nil
	}
	f.state = SceneEnded

	if f.Overlay != nil {
		env.check("overlay", f.Overlay.Draw(env.back, f.overlayLines(env, mesh)...))
	}

	if err := present(env); err != nil {
		if errors.Is(err, device.ErrSurfaceLost) {
			env.check("restore surfaces", env.Restore())
		}
		return f.abandon(env, "present", err), nil
	}
	f.state = Presented
	f.stats.Rendered++

	f.state = Idle
	return Result{Presented: true}, nil
}

func (f *Frame) clear(env *Environment) error {
	flags := device.ClearTarget
	if env.depthAttached {
		flags |= device.ClearZBuffer
	}
	return env.viewport.Clear([]image.Rectangle{env.viewRect}, flags)
}

func (f *Frame) draw(env *Environment, mesh geometry.Mesh) error {
	filter := f.Filter
	if filter == 0 {
		filter = device.FilterLinear
	}
	if err := env.dev.SetTextureStageState(0, device.TSSMinFilter, filter); err != nil {
		return err
	}
	if err := env.dev.SetTextureStageState(0, device.TSSMagFilter, filter); err != nil {
		return err
	}

	// Pre-lit vertices carry their own color.
	var h device.TextureHandle
	if t := env.texture; t != nil && mesh.Vertices.Format() == device.FormatVertex {
		h = t.handle
	}
	if err := env.dev.SetRenderState(device.RenderStateTextureHandle, uint32(h)); err != nil {
		return err
	}
	return env.dev.DrawIndexedPrimitive(device.TriangleList, mesh.Vertices, mesh.Indices)
}

// present copies the viewport of the back buffer to the window on screen.
func present(env *Environment) error {
	return env.primary.Blt(env.screenRect, env.back, env.viewRect, device.BltWait)
}

func (f *Frame) abandon(env *Environment, what string, err error) Result {
	env.logf("render: frame abandoned at %s: %v", what, err)
	f.state = Idle
	f.stats.Abandoned++
	f.stats.LastErr = err
	return Result{Abandoned: true, Err: err}
}

func (f *Frame) overlayLines(env *Environment, mesh geometry.Mesh) []string {
	lines := []string{
		fmt.Sprintf("%s %dx%d", mesh.Name, env.width, env.height),
		fmt.Sprintf("frame %d", f.stats.Rendered+1),
	}
	if f.stats.Abandoned > 0 {
		lines = append(lines, fmt.Sprintf("dropped %d", f.stats.Abandoned))
	}
	return lines
}
