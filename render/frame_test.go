package render

import (
	"errors"
	"image"
	"testing"

	"quarkcube/device"
	"quarkcube/device/soft"
	"quarkcube/geometry"
	"quarkcube/hal"
	"quarkcube/quarkgl"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameCycle(t *testing.T) {
	win := &testWindow{w: 640, h: 480}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	frame := NewFrame()
	mesh := geometry.TexturedCube()
	require.Equal(t, 24, mesh.Vertices.Len())
	require.Len(t, mesh.Indices, 36)

	res, err := frame.Render(env, mesh)
	require.NoError(t, err)
	assert.Equal(t, Result{Presented: true}, res)
	assert.Equal(t, Idle, frame.State())
	assert.Equal(t, uint64(1), frame.Stats().Rendered)

	rs := p.RenderStats()
	assert.Equal(t, 1, rs.Clears)
	assert.Equal(t, 1, rs.Scenes)
	assert.Equal(t, 1, rs.Draws)
	assert.Equal(t, 12, rs.Triangles)
	assert.Positive(t, rs.Drawn)
	assert.Positive(t, rs.Culled, "back faces are culled")
	assert.Equal(t, 1, rs.Blits)
}

func TestColoredCubeCenterPixel(t *testing.T) {
	win := &testWindow{w: 64, h: 48}
	env, _, fb := newEnv(t, win, soft.Config{}, DefaultOptions())

	res, err := NewFrame().Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	require.True(t, res.Presented)
	assert.NotEqual(t, white, fbPixel(fb, 32, 24))
	assert.Equal(t, white, fbPixel(fb, 0, 0), "background")
}

func TestDepthFrame(t *testing.T) {
	win := &testWindow{w: 64, h: 48}
	opts := DefaultOptions()
	opts.Depth = true
	env, p, fb := newEnv(t, win, soft.Config{}, opts)
	anim := &Animation{Step: quarkgl.FullTurn / 8}
	frame := NewFrame()

	for range 3 {
		require.NoError(t, anim.Update(env))
		res, err := frame.Render(env, geometry.ColoredCube())
		require.NoError(t, err)
		require.True(t, res.Presented)
	}
	assert.NotEqual(t, white, fbPixel(fb, 32, 24))

	env.Teardown()
	assertClean(t, p)
}

func TestBeginSceneFailureAbandonsFrame(t *testing.T) {
	win := &testWindow{w: 32, h: 24}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	frame := NewFrame()
	p.Faults().FailOnce(soft.OpBeginScene, device.ErrDeviceLost)

	res, err := frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err, "recoverable")
	assert.True(t, res.Abandoned)
	assert.False(t, res.Presented)
	assert.ErrorIs(t, res.Err, device.ErrDeviceLost)
	assert.Equal(t, Idle, frame.State())
	assert.Zero(t, p.RenderStats().Blits)

	res, err = frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Presented)
	st := frame.Stats()
	assert.Equal(t, uint64(1), st.Rendered)
	assert.Equal(t, uint64(1), st.Abandoned)
	assert.ErrorIs(t, st.LastErr, device.ErrDeviceLost)
}

func TestDrawFailureStillEndsScene(t *testing.T) {
	boom := errors.New("boom")
	win := &testWindow{w: 32, h: 24}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	frame := NewFrame()
	p.Faults().FailOnce(soft.OpDraw, boom)

	res, err := frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Abandoned)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, Idle, frame.State())
	assert.Zero(t, p.RenderStats().Blits, "abandoned frames are not presented")

	// BeginScene would fail with ErrInScene had the scene been left open.
	res, err = frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Presented)
}

func TestClearFailureIsReturned(t *testing.T) {
	win := &testWindow{w: 32, h: 24}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	frame := NewFrame()
	p.Faults().FailOnce(soft.OpClear, device.ErrOutOfVideoMemory)

	res, err := frame.Render(env, geometry.ColoredCube())
	assert.ErrorIs(t, err, device.ErrOutOfVideoMemory)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, Idle, frame.State())
	assert.Zero(t, p.RenderStats().Scenes, "nothing drawn into an uncleared buffer")
}

func TestPresentWaitsForBusyTarget(t *testing.T) {
	win := &testWindow{w: 32, h: 24}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	p.Faults().FailTimes(soft.OpBlt, device.ErrWasStillDrawing, 3)

	res, err := NewFrame().Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Presented)
}

func TestLostSurfaces(t *testing.T) {
	win := &testWindow{w: 32, h: 24}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	frame := NewFrame()

	p.LoseSurfaces()
	_, err := frame.Render(env, geometry.ColoredCube())
	require.ErrorIs(t, err, device.ErrSurfaceLost)
	require.NoError(t, env.Restore())

	res, err := frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Presented)

	p.Faults().FailOnce(soft.OpBlt, device.ErrSurfaceLost)
	res, err = frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Abandoned)
	assert.ErrorIs(t, res.Err, device.ErrSurfaceLost)
}

func TestMoveChangesPresentDestination(t *testing.T) {
	win := &testWindow{w: 64, h: 48}
	fb := hal.NewFramebuffer(200, 150, hal.PixelFormatRGB565)
	env, _, _ := newEnv(t, win, soft.Config{Display: fb}, DefaultOptions())
	frame := NewFrame()

	fb.ClearRGB(0, 0, 0)
	_, err := frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.Equal(t, white, fbPixel(fb, 0, 0))
	assert.Equal(t, [3]uint8{}, fbPixel(fb, 100, 80))

	win.origin = image.Pt(100, 80)
	env.Move(100, 80)
	fb.ClearRGB(0, 0, 0)
	_, err = frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{}, fbPixel(fb, 0, 0), "old position left alone")
	assert.Equal(t, white, fbPixel(fb, 100, 80))
	assert.NotEqual(t, white, fbPixel(fb, 132, 104))
}

func TestOverlayDrawsText(t *testing.T) {
	win := &testWindow{w: 64, h: 48}
	env, _, fb := newEnv(t, win, soft.Config{}, DefaultOptions())

	countDark := func() int {
		n := 0
		for y := 0; y < 10; y++ {
			for x := 0; x < 40; x++ {
				if fbPixel(fb, x, y) != white {
					n++
				}
			}
		}
		return n
	}

	frame := NewFrame()
	_, err := frame.Render(env, geometry.TexturedCube())
	require.NoError(t, err)
	assert.Zero(t, countDark())

	frame.Overlay = NewOverlay()
	_, err = frame.Render(env, geometry.TexturedCube())
	require.NoError(t, err)
	assert.Positive(t, countDark())
}

func TestRenderAfterTeardown(t *testing.T) {
	win := &testWindow{w: 32, h: 24}
	env, _, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	env.Teardown()

	_, err := NewFrame().Render(env, geometry.ColoredCube())
	assert.ErrorIs(t, err, ErrNoEnvironment)
	assert.ErrorIs(t, NewAnimation().Update(env), ErrNoEnvironment)
}

func TestAnimationWraps(t *testing.T) {
	a := &Animation{Step: quarkgl.FullTurn / 4}
	for range 5 {
		a.Advance()
	}
	assert.InDelta(t, math32.Pi/2, a.Angle, 1e-5)

	a = NewAnimation()
	assert.InDelta(t, math32.Pi/10000, a.Step, 1e-9)
	for range 20001 {
		angle := a.Advance()
		require.GreaterOrEqual(t, angle, quarkgl.Scalar(0))
		require.Less(t, angle, quarkgl.FullTurn)
	}
}

func TestOccludedPresentAbandonsFrame(t *testing.T) {
	win := &testWindow{w: 32, h: 24}
	env, p, _ := newEnv(t, win, soft.Config{}, DefaultOptions())
	frame := NewFrame()
	p.Faults().FailOnce(soft.OpBlt, device.ErrOccluded)

	res, err := frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Abandoned)
	assert.False(t, res.Presented)
	assert.ErrorIs(t, res.Err, device.ErrOccluded)
	assert.Equal(t, Idle, frame.State())

	res, err = frame.Render(env, geometry.ColoredCube())
	require.NoError(t, err)
	assert.True(t, res.Presented)
	assert.Equal(t, uint64(1), frame.Stats().Abandoned)
}
