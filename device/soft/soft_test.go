package soft

import (
	"image"
	"image/color"
	"testing"

	"quarkcube/device"
	"quarkcube/hal"
	"quarkcube/quarkgl"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testWindow struct {
	origin image.Point
	w, h   int
}

func (w *testWindow) ClientSize() (int, int)    { return w.w, w.h }
func (w *testWindow) ClientOrigin() image.Point { return w.origin }

const testW, testH = 64, 48

func newTestProvider(t *testing.T) (*Provider, hal.Framebuffer, *testWindow) {
	t.Helper()
	fb := hal.NewFramebuffer(testW, testH, hal.PixelFormatRGB565)
	p := New(Config{Display: fb})
	win := &testWindow{w: testW, h: testH}
	require.NoError(t, p.SetCooperativeLevel(win, device.CoopNormal))
	return p, fb, win
}

func newBackBuffer(t *testing.T, p *Provider) device.Surface {
	t.Helper()
	back, err := p.CreateSurface(device.SurfaceDesc{
		Caps:   device.CapsOffscreenPlain | device.Caps3DDevice,
		Width:  testW,
		Height: testH,
	})
	require.NoError(t, err)
	return back
}

func fbPixel(fb hal.Framebuffer, x, y int) [3]uint8 {
	bpp := fb.Format().BytesPerPixel()
	r, g, b := fb.Format().Load(fb.Buffer()[y*fb.StrideBytes()+x*bpp:])
	return [3]uint8{r, g, b}
}

func TestCreateSurfaceNeedsCooperativeLevel(t *testing.T) {
	p := New(Config{})
	_, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	assert.ErrorIs(t, err, device.ErrNoCooperativeLevel)
}

func TestSinglePrimary(t *testing.T) {
	p, fb, _ := newTestProvider(t)
	primary, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	require.NoError(t, err)
	assert.Equal(t, fb.Width(), primary.Desc().Width)
	assert.Equal(t, device.FormatRGB565, primary.Desc().Format)

	_, err = p.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	assert.ErrorIs(t, err, device.ErrPrimaryExists)

	require.NoError(t, primary.Release())
	primary, err = p.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	require.NoError(t, err)
	require.NoError(t, primary.Release())
}

func TestReleaseOrderIsEnforced(t *testing.T) {
	p, _, _ := newTestProvider(t)
	back := newBackBuffer(t, p)
	z, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsZBuffer, Width: testW, Height: testH, ZBufferBitDepth: 16})
	require.NoError(t, err)
	require.NoError(t, back.AddAttachedSurface(z))

	d3d, err := p.Direct3D()
	require.NoError(t, err)
	dev, err := d3d.CreateDevice(device.DeviceHAL, back)
	require.NoError(t, err)

	assert.ErrorIs(t, back.Release(), device.ErrInUse)
	assert.ErrorIs(t, z.Release(), device.ErrInUse)
	assert.ErrorIs(t, d3d.Release(), device.ErrInUse)
	assert.ErrorIs(t, p.Release(), device.ErrInUse)
	assert.Equal(t, 4, p.Ledger().OrderViolations)

	require.NoError(t, dev.Release())
	assert.ErrorIs(t, z.Release(), device.ErrInUse, "still attached")
	require.NoError(t, back.DeleteAttachedSurface(z))
	require.NoError(t, z.Release())
	require.NoError(t, back.Release())
	require.NoError(t, d3d.Release())
	require.NoError(t, p.Release())

	st := p.Ledger()
	assert.Zero(t, st.Live, "live objects: %v", p.LiveObjects())
	assert.Equal(t, st.Created, st.Released)
	assert.Zero(t, st.DoubleReleases)
}

func TestDoubleRelease(t *testing.T) {
	p, _, _ := newTestProvider(t)
	c, err := p.CreateClipper()
	require.NoError(t, err)
	require.NoError(t, c.Release())
	assert.ErrorIs(t, c.Release(), device.ErrReleased)
	assert.Equal(t, 1, p.Ledger().DoubleReleases)

	_, err = c.ClipList()
	assert.ErrorIs(t, err, device.ErrReleased)
}

func TestPrimaryKeepsClipper(t *testing.T) {
	p, _, win := newTestProvider(t)
	primary, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	require.NoError(t, err)
	c, err := p.CreateClipper()
	require.NoError(t, err)
	require.NoError(t, c.SetWindow(win))
	require.NoError(t, primary.SetClipper(c))
	require.NoError(t, c.Release())

	win.origin = image.Pt(3, 4)
	list, err := c.ClipList()
	require.NoError(t, err, "clipper must stay alive while the primary holds it")
	assert.Equal(t, []image.Rectangle{image.Rect(3, 4, 3+testW, 4+testH)}, list)

	before := p.Ledger().Live
	require.NoError(t, primary.Release())
	assert.Equal(t, before-2, p.Ledger().Live, "primary and clipper freed together")
}

func TestAttachRules(t *testing.T) {
	p, _, _ := newTestProvider(t)
	back := newBackBuffer(t, p)

	_, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsZBuffer, Width: testW, Height: testH, ZBufferBitDepth: 12})
	assert.ErrorIs(t, err, device.ErrInvalidParams)

	small, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsZBuffer, Width: 8, Height: 8, ZBufferBitDepth: 16})
	require.NoError(t, err)
	assert.ErrorIs(t, back.AddAttachedSurface(small), device.ErrInvalidParams)

	z, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsZBuffer, Width: testW, Height: testH, ZBufferBitDepth: 24})
	require.NoError(t, err)
	require.NoError(t, back.AddAttachedSurface(z))
	assert.ErrorIs(t, back.AddAttachedSurface(z), device.ErrAlreadyAttached)
	assert.ErrorIs(t, back.DeleteAttachedSurface(small), device.ErrNotAttached)
}

// scene builds a device rendering into a 64x48 back buffer with a white
// background material.
type scene struct {
	p       *Provider
	fb      hal.Framebuffer
	primary device.Surface
	back    device.Surface
	d3d     device.Direct3D
	dev     device.Device
	vp      device.Viewport
	mat     device.Material
}

func newScene(t *testing.T) *scene {
	t.Helper()
	p, fb, win := newTestProvider(t)
	s := &scene{p: p, fb: fb}
	var err error
	s.primary, err = p.CreateSurface(device.SurfaceDesc{Caps: device.CapsPrimarySurface})
	require.NoError(t, err)
	c, err := p.CreateClipper()
	require.NoError(t, err)
	require.NoError(t, c.SetWindow(win))
	require.NoError(t, s.primary.SetClipper(c))
	require.NoError(t, c.Release())

	s.back = newBackBuffer(t, p)
	s.d3d, err = p.Direct3D()
	require.NoError(t, err)
	s.dev, err = s.d3d.CreateDevice(device.DeviceHAL, s.back)
	require.NoError(t, err)

	s.vp, err = s.d3d.CreateViewport()
	require.NoError(t, err)
	require.NoError(t, s.dev.AddViewport(s.vp))
	require.NoError(t, s.vp.SetViewport(device.ViewportParams{
		Width: testW, Height: testH,
		ClipX: -1, ClipY: 1, ClipWidth: 2, ClipHeight: 2,
		MinZ: 0, MaxZ: 1,
	}))
	require.NoError(t, s.dev.SetCurrentViewport(s.vp))

	s.mat, err = s.d3d.CreateMaterial()
	require.NoError(t, err)
	require.NoError(t, s.mat.SetMaterial(device.MaterialDesc{Diffuse: device.ColorValue{R: 1, G: 1, B: 1, A: 1}}))
	h, err := s.mat.Handle(s.dev)
	require.NoError(t, err)
	require.NoError(t, s.vp.SetBackground(h))

	proj, err := quarkgl.ProjectionMatrix(math32.Pi/2, float32(testW)/testH, 1, 100)
	require.NoError(t, err)
	require.NoError(t, s.dev.SetTransform(device.TransformProjection, proj))
	return s
}

func (s *scene) teardown(t *testing.T) {
	t.Helper()
	s.teardownWithViolations(t, 0)
}

// teardownWithViolations releases the scene and checks the ledger saw
// exactly violations refused releases.
func (s *scene) teardownWithViolations(t *testing.T, violations int) {
	t.Helper()
	require.NoError(t, s.vp.SetBackground(0))
	require.NoError(t, s.mat.Release())
	require.NoError(t, s.dev.DeleteViewport(s.vp))
	require.NoError(t, s.vp.Release())
	require.NoError(t, s.dev.Release())
	require.NoError(t, s.back.Release())
	require.NoError(t, s.primary.Release())
	require.NoError(t, s.d3d.Release())
	require.NoError(t, s.p.Release())
	st := s.p.Ledger()
	assert.Zero(t, st.Live, "live objects: %v", s.p.LiveObjects())
	assert.Equal(t, violations, st.OrderViolations)
	assert.Zero(t, st.DoubleReleases)
}

// square is a red square at depth 5, wound clockwise on screen.
func square() (device.LVertexSlice, []uint16) {
	const red = 0xFFFF0000
	return device.LVertexSlice{
		{X: -1, Y: -1, Z: 5, Diffuse: red},
		{X: -1, Y: 1, Z: 5, Diffuse: red},
		{X: 1, Y: 1, Z: 5, Diffuse: red},
		{X: 1, Y: -1, Z: 5, Diffuse: red},
	}, []uint16{0, 1, 2, 0, 2, 3}
}

func TestDrawAndPresent(t *testing.T) {
	s := newScene(t)
	full := image.Rect(0, 0, testW, testH)

	require.NoError(t, s.vp.Clear([]image.Rectangle{full}, device.ClearTarget))
	require.NoError(t, s.dev.BeginScene())
	verts, idx := square()
	require.NoError(t, s.dev.DrawIndexedPrimitive(device.TriangleList, verts, idx))
	require.NoError(t, s.dev.EndScene())
	require.NoError(t, s.primary.Blt(full, s.back, full, device.BltWait))

	assert.Equal(t, [3]uint8{0xFF, 0, 0}, fbPixel(s.fb, testW/2, testH/2))
	assert.Equal(t, [3]uint8{0xFF, 0xFF, 0xFF}, fbPixel(s.fb, 0, 0))

	rs := s.p.RenderStats()
	assert.Equal(t, 1, rs.Scenes)
	assert.Equal(t, 2, rs.Drawn)
	assert.Equal(t, 1, rs.Blits)
	s.teardown(t)
}

func TestBackFacesCulledByDefault(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.dev.BeginScene())
	verts, _ := square()
	require.NoError(t, s.dev.DrawIndexedPrimitive(device.TriangleList, verts, []uint16{0, 2, 1, 0, 3, 2}))
	require.NoError(t, s.dev.EndScene())
	assert.Equal(t, 2, s.p.RenderStats().Culled)
	s.teardown(t)
}

func TestSceneBrackets(t *testing.T) {
	s := newScene(t)
	verts, idx := square()

	assert.ErrorIs(t, s.dev.EndScene(), device.ErrNotInScene)
	assert.ErrorIs(t, s.dev.DrawIndexedPrimitive(device.TriangleList, verts, idx), device.ErrNotInScene)
	require.NoError(t, s.dev.BeginScene())
	assert.ErrorIs(t, s.dev.BeginScene(), device.ErrInScene)
	assert.ErrorIs(t, s.dev.DrawIndexedPrimitive(device.TriangleList, verts, idx[:4]), device.ErrInvalidParams)
	assert.ErrorIs(t, s.dev.DrawIndexedPrimitive(device.PointList, verts, idx), device.ErrUnsupported)
	require.NoError(t, s.dev.EndScene())
	s.teardown(t)
}

func TestBltWaitRetriesBusyTarget(t *testing.T) {
	s := newScene(t)
	full := image.Rect(0, 0, testW, testH)

	s.p.Faults().FailOnce(OpBlt, device.ErrWasStillDrawing)
	assert.ErrorIs(t, s.primary.Blt(full, s.back, full, 0), device.ErrWasStillDrawing)

	s.p.Faults().FailTimes(OpBlt, device.ErrWasStillDrawing, 3)
	assert.NoError(t, s.primary.Blt(full, s.back, full, device.BltWait))
	s.teardown(t)
}

func TestBltClipsToWindow(t *testing.T) {
	s := newScene(t)
	full := image.Rect(0, 0, testW, testH)
	require.NoError(t, s.vp.Clear(nil, device.ClearTarget))

	s.fb.ClearRGB(0, 0, 0)
	half := image.Rect(testW/2, 0, testW+testW/2, testH)
	require.NoError(t, s.primary.Blt(half, s.back, full, device.BltWait))
	assert.Equal(t, [3]uint8{0, 0, 0}, fbPixel(s.fb, 1, 1))
	assert.Equal(t, [3]uint8{0xFF, 0xFF, 0xFF}, fbPixel(s.fb, testW-1, 1))
	s.teardown(t)
}

func TestLostSurfaceRestore(t *testing.T) {
	s := newScene(t)
	full := image.Rect(0, 0, testW, testH)

	s.p.LoseSurfaces()
	assert.ErrorIs(t, s.back.IsLost(), device.ErrSurfaceLost)
	assert.ErrorIs(t, s.dev.BeginScene(), device.ErrSurfaceLost)
	assert.ErrorIs(t, s.primary.Blt(full, s.back, full, device.BltWait), device.ErrSurfaceLost)

	require.NoError(t, s.primary.Restore())
	require.NoError(t, s.back.Restore())
	assert.NoError(t, s.back.IsLost())
	require.NoError(t, s.dev.BeginScene())
	require.NoError(t, s.dev.EndScene())
	s.teardown(t)
}

func TestClearZBufferNeedsDepth(t *testing.T) {
	s := newScene(t)
	assert.ErrorIs(t, s.vp.Clear(nil, device.ClearTarget|device.ClearZBuffer), device.ErrNoZBuffer)
	s.teardown(t)
}

func TestBoundTextureCannotBeReleased(t *testing.T) {
	s := newScene(t)
	ts, err := s.p.CreateSurface(device.SurfaceDesc{Caps: device.CapsTexture, Width: 2, Height: 2, Format: device.FormatXRGB8888})
	require.NoError(t, err)
	tex, err := s.d3d.CreateTexture(ts)
	require.NoError(t, err)
	require.NoError(t, ts.Release(), "texture keeps its own reference")

	h, err := tex.Handle(s.dev)
	require.NoError(t, err)
	h2, err := tex.Handle(s.dev)
	require.NoError(t, err)
	assert.Equal(t, h, h2)

	require.NoError(t, s.dev.SetRenderState(device.RenderStateTextureHandle, uint32(h)))
	assert.ErrorIs(t, tex.Release(), device.ErrInUse)
	require.NoError(t, s.dev.SetRenderState(device.RenderStateTextureHandle, 0))
	require.NoError(t, tex.Release())
	assert.ErrorIs(t, s.dev.SetRenderState(device.RenderStateTextureHandle, uint32(h)), device.ErrInvalidParams)
	s.teardownWithViolations(t, 1)
}

func TestTexturedDraw(t *testing.T) {
	s := newScene(t)
	ts, err := s.p.CreateSurface(device.SurfaceDesc{Caps: device.CapsTexture, Width: 1, Height: 1, Format: device.FormatXRGB8888})
	require.NoError(t, err)
	lr, err := ts.Lock()
	require.NoError(t, err)
	lr.Format.Store(lr.Pix, color.RGBA{G: 0xFF, A: 0xFF})
	require.NoError(t, ts.Unlock())
	tex, err := s.d3d.CreateTexture(ts)
	require.NoError(t, err)
	require.NoError(t, ts.Release())
	require.NoError(t, s.dev.SetTexture(0, tex))

	verts := device.VertexSlice{
		{X: -1, Y: -1, Z: 5, TU: 0, TV: 1},
		{X: -1, Y: 1, Z: 5, TU: 0, TV: 0},
		{X: 1, Y: 1, Z: 5, TU: 1, TV: 0},
		{X: 1, Y: -1, Z: 5, TU: 1, TV: 1},
	}
	require.NoError(t, s.dev.BeginScene())
	require.NoError(t, s.dev.DrawIndexedPrimitive(device.TriangleList, verts, []uint16{0, 1, 2, 0, 2, 3}))
	require.NoError(t, s.dev.EndScene())

	full := image.Rect(0, 0, testW, testH)
	require.NoError(t, s.primary.Blt(full, s.back, full, device.BltWait))
	assert.Equal(t, [3]uint8{0, 0xFF, 0}, fbPixel(s.fb, testW/2, testH/2))

	require.NoError(t, s.dev.SetTexture(0, nil))
	require.NoError(t, tex.Release())
	s.teardown(t)
}

func TestVideoMemoryLimit(t *testing.T) {
	fb := hal.NewFramebuffer(testW, testH, hal.PixelFormatRGB565)
	p := New(Config{Display: fb, VideoMemory: testW * testH * 2})
	require.NoError(t, p.SetCooperativeLevel(&testWindow{w: testW, h: testH}, device.CoopNormal))

	back := newBackBuffer(t, p)
	_, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsZBuffer, Width: testW, Height: testH, ZBufferBitDepth: 16})
	assert.ErrorIs(t, err, device.ErrOutOfVideoMemory)

	require.NoError(t, back.Release())
	z, err := p.CreateSurface(device.SurfaceDesc{Caps: device.CapsZBuffer, Width: testW, Height: testH, ZBufferBitDepth: 16})
	require.NoError(t, err, "memory is returned on release")
	require.NoError(t, z.Release())
}

func TestDisplayModeFromFramebuffer(t *testing.T) {
	for _, tc := range []struct {
		format hal.PixelFormat
		want   int
	}{
		{hal.PixelFormatRGB565, 16},
		{hal.PixelFormatRGBA8888, 32},
		{hal.PixelFormatIndexed8, 8},
	} {
		p := New(Config{Display: hal.NewFramebuffer(4, 4, tc.format)})
		f, err := p.DisplayMode()
		require.NoError(t, err)
		assert.Equal(t, tc.want, f.RGBBitCount, "%v", tc.format)
	}
}

func TestDevicesIsLazy(t *testing.T) {
	p, _, _ := newTestProvider(t)
	d3d, err := p.Direct3D()
	require.NoError(t, err)

	var seen int
	for desc := range d3d.Devices() {
		seen++
		if desc.Hardware {
			break
		}
	}
	assert.Equal(t, 2, seen, "stops at the first hardware device")

	_, err = d3d.CreateDevice(device.DeviceID(99), newBackBuffer(t, p))
	assert.ErrorIs(t, err, device.ErrUnsupported)
}

func TestFaultInjection(t *testing.T) {
	p, _, _ := newTestProvider(t)
	p.Faults().FailOnce(OpDirect3D, device.ErrUnsupported)
	_, err := p.Direct3D()
	assert.ErrorIs(t, err, device.ErrUnsupported)
	d3d, err := p.Direct3D()
	require.NoError(t, err)

	p.Faults().Fail(OpCreateViewport, device.ErrOutOfVideoMemory)
	for range 2 {
		_, err = d3d.CreateViewport()
		assert.ErrorIs(t, err, device.ErrOutOfVideoMemory)
	}
	p.Faults().Clear(OpCreateViewport)
	v, err := d3d.CreateViewport()
	require.NoError(t, err)
	require.NoError(t, v.Release())
}
