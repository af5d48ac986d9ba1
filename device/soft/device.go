package soft

import (
	"errors"
	"fmt"
	"iter"

	"quarkcube/device"
	"quarkcube/quarkgl"

	"github.com/go-gl/mathgl/mgl32"
)

type dev struct {
	p      *Provider
	obj    *object
	id     device.DeviceID
	target *surface
	pipe   *quarkgl.Pipeline

	viewports map[*viewport]struct{}
	current   *viewport

	textures   map[device.TextureHandle]*texture
	materials  map[device.MaterialHandle]*material
	nextHandle uint32

	bound   [device.MaxTextureStages]*texture
	filters [device.MaxTextureStages][2]uint32 // min, mag

	inScene bool
	zEnable bool
	verts   []quarkgl.Vertex
}

var _ device.Device = (*dev)(nil)

func (d *dev) Release() error { return d.p.led.release(d.obj) }

// free runs when the ledger frees the device.
func (d *dev) free() {
	if d.target != nil && d.target.device == d {
		d.target.device = nil
	}
	for _, t := range d.textures {
		delete(t.handles, d)
	}
	for _, m := range d.materials {
		delete(m.handles, d)
	}
	d.textures = nil
	d.materials = nil
	d.bound = [device.MaxTextureStages]*texture{}
	d.current = nil
}

func (d *dev) alive() bool { return d.p.led.alive(d.obj) }

func (d *dev) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *dev) AddViewport(v device.Viewport) error {
	if !d.alive() {
		return device.ErrReleased
	}
	if err := d.p.faults.check(OpAddViewport); err != nil {
		return err
	}
	vp, ok := v.(*viewport)
	if !ok || vp == nil || vp.p != d.p {
		return device.ErrInvalidParams
	}
	if !d.p.led.alive(vp.obj) {
		return device.ErrReleased
	}
	if vp.dev != nil {
		return device.ErrAlreadyAttached
	}
	vp.dev = d
	d.viewports[vp] = struct{}{}
	d.p.led.hold(vp.obj, d.obj)
	d.p.led.hold(d.obj, vp.obj)
	return nil
}

func (d *dev) DeleteViewport(v device.Viewport) error {
	vp, ok := v.(*viewport)
	if !ok || vp == nil || vp.dev != d {
		return device.ErrNotAttached
	}
	if d.current == vp {
		d.current = nil
	}
	delete(d.viewports, vp)
	vp.dev = nil
	d.p.led.drop(vp.obj, d.obj)
	d.p.led.drop(d.obj, vp.obj)
	return nil
}

func (d *dev) SetCurrentViewport(v device.Viewport) error {
	if !d.alive() {
		return device.ErrReleased
	}
	if err := d.p.faults.check(OpSetCurrentViewport); err != nil {
		return err
	}
	vp, ok := v.(*viewport)
	if !ok || vp == nil || vp.dev != d {
		return device.ErrNotAttached
	}
	d.current = vp
	return nil
}

func (d *dev) TextureFormats() iter.Seq[device.PixelFormat] {
	return func(yield func(device.PixelFormat) bool) {
		if !d.alive() {
			return
		}
		for _, f := range d.p.cfg.TextureFormats {
			if !yield(f) {
				return
			}
		}
	}
}

func (d *dev) SetTransform(state device.TransformState, m mgl32.Mat4) error {
	if !d.alive() {
		return device.ErrReleased
	}
	switch state {
	case device.TransformWorld:
		d.pipe.World = m
	case device.TransformView:
		d.pipe.View = m
	case device.TransformProjection:
		d.pipe.Projection = m
	default:
		return device.ErrInvalidParams
	}
	return nil
}

func (d *dev) SetRenderState(state device.RenderState, value uint32) error {
	if !d.alive() {
		return device.ErrReleased
	}
	switch state {
	case device.RenderStateCullMode:
		switch value {
		case device.CullNone:
			d.pipe.Cull = quarkgl.CullNone
		case device.CullCW:
			d.pipe.Cull = quarkgl.CullCW
		case device.CullCCW:
			d.pipe.Cull = quarkgl.CullCCW
		default:
			return fmt.Errorf("%w: cull mode %d", device.ErrInvalidParams, value)
		}
	case device.RenderStateFillMode:
		switch value {
		case device.FillPoint:
			d.pipe.Fill = quarkgl.FillPoint
		case device.FillWireframe:
			d.pipe.Fill = quarkgl.FillWireframe
		case device.FillSolid:
			d.pipe.Fill = quarkgl.FillSolid
		default:
			return fmt.Errorf("%w: fill mode %d", device.ErrInvalidParams, value)
		}
	case device.RenderStateTexturePerspective:
		d.pipe.Perspective = value != 0
	case device.RenderStateZEnable:
		d.zEnable = value != 0
	case device.RenderStateTextureHandle:
		if value == 0 {
			return d.bind(0, nil)
		}
		t, ok := d.textures[device.TextureHandle(value)]
		if !ok {
			return fmt.Errorf("%w: texture handle %d", device.ErrInvalidParams, value)
		}
		return d.bind(0, t)
	default:
		return fmt.Errorf("%w: render state %d", device.ErrInvalidParams, state)
	}
	return nil
}

func (d *dev) SetTextureStageState(stage int, state device.TextureStageState, value uint32) error {
	if !d.alive() {
		return device.ErrReleased
	}
	if stage < 0 || stage >= device.MaxTextureStages {
		return fmt.Errorf("%w: texture stage %d", device.ErrInvalidParams, stage)
	}
	if value != device.FilterPoint && value != device.FilterLinear {
		return fmt.Errorf("%w: filter %d", device.ErrInvalidParams, value)
	}
	switch state {
	case device.TSSMinFilter:
		d.filters[stage][0] = value
	case device.TSSMagFilter:
		d.filters[stage][1] = value
	default:
		return fmt.Errorf("%w: texture stage state %d", device.ErrInvalidParams, state)
	}
	return nil
}

func (d *dev) SetTexture(stage int, t device.Texture) error {
	if !d.alive() {
		return device.ErrReleased
	}
	if stage < 0 || stage >= device.MaxTextureStages {
		return fmt.Errorf("%w: texture stage %d", device.ErrInvalidParams, stage)
	}
	if t == nil {
		return d.bind(stage, nil)
	}
	tex, ok := t.(*texture)
	if !ok || tex == nil || tex.p != d.p {
		return device.ErrInvalidParams
	}
	if !d.p.led.alive(tex.obj) {
		return device.ErrReleased
	}
	return d.bind(stage, tex)
}

// bind makes t the texture of stage. A bound texture cannot be released
// before it is unbound or the device is gone.
func (d *dev) bind(stage int, t *texture) error {
	if prev := d.bound[stage]; prev != nil {
		d.p.led.drop(prev.obj, d.obj)
	}
	d.bound[stage] = t
	if t != nil {
		d.p.led.hold(t.obj, d.obj)
	}
	return nil
}

func (d *dev) BeginScene() error {
	if !d.alive() {
		return device.ErrReleased
	}
	if d.inScene {
		return device.ErrInScene
	}
	if err := d.p.faults.check(OpBeginScene); err != nil {
		return err
	}
	if d.target.lost {
		return device.ErrSurfaceLost
	}
	if d.target.locked {
		return device.ErrLocked
	}
	d.inScene = true
	d.p.render.Scenes++
	return nil
}

func (d *dev) EndScene() error {
	if !d.alive() {
		return device.ErrReleased
	}
	if !d.inScene {
		return device.ErrNotInScene
	}
	d.inScene = false
	return d.p.faults.check(OpEndScene)
}

func (d *dev) DrawIndexedPrimitive(pt device.PrimitiveType, vertices device.Vertices, indices []uint16) error {
	if !d.alive() {
		return device.ErrReleased
	}
	if !d.inScene {
		return device.ErrNotInScene
	}
	if err := d.p.faults.check(OpDraw); err != nil {
		return err
	}
	if d.current == nil {
		return device.ErrNoViewport
	}
	if pt != device.TriangleList {
		return fmt.Errorf("%w: primitive type %d", device.ErrUnsupported, pt)
	}
	if d.target.lost {
		return device.ErrSurfaceLost
	}
	if d.target.locked {
		return device.ErrLocked
	}

	d.verts = d.verts[:0]
	switch vs := vertices.(type) {
	case device.VertexSlice:
		for _, v := range vs {
			d.verts = append(d.verts, quarkgl.Vertex{
				Pos:   quarkgl.V3(v.X, v.Y, v.Z),
				Color: quarkgl.RGB(0xFF, 0xFF, 0xFF),
				U:     v.TU,
				V:     v.TV,
			})
		}
	case device.LVertexSlice:
		for _, v := range vs {
			d.verts = append(d.verts, quarkgl.Vertex{
				Pos:   quarkgl.V3(v.X, v.Y, v.Z),
				Color: quarkgl.ARGB(v.Diffuse),
				U:     v.TU,
				V:     v.TV,
			})
		}
	default:
		return fmt.Errorf("%w: vertex type %T", device.ErrUnsupported, vertices)
	}

	vp := d.current.params
	d.pipe.Viewport = quarkgl.Viewport{
		X: vp.X, Y: vp.Y, Width: vp.Width, Height: vp.Height,
		ClipX: vp.ClipX, ClipY: vp.ClipY, ClipWidth: vp.ClipWidth, ClipHeight: vp.ClipHeight,
		MinZ: vp.MinZ, MaxZ: vp.MaxZ,
	}
	d.pipe.Texture = nil
	if t := d.bound[0]; t != nil {
		d.pipe.Texture = sampler{s: t.surface}
	}
	d.pipe.MinFilter = toFilter(d.filters[0][0])
	d.pipe.MagFilter = toFilter(d.filters[0][1])

	var depth *quarkgl.DepthTarget
	if z := d.target.attached; z != nil && d.zEnable {
		depth = z.depth
	}

	st, err := d.pipe.DrawIndexed(target{s: d.target}, depth, d.verts, indices)
	if err != nil {
		if errors.Is(err, quarkgl.ErrIndexCount) || errors.Is(err, quarkgl.ErrIndexRange) {
			return fmt.Errorf("%w: %v", device.ErrInvalidParams, err)
		}
		return err
	}
	d.p.render.Draws++
	d.p.render.Triangles += st.Triangles
	d.p.render.Drawn += st.Drawn
	d.p.render.Culled += st.Culled
	return nil
}

func toFilter(v uint32) quarkgl.Filter {
	if v == device.FilterLinear {
		return quarkgl.FilterLinear
	}
	return quarkgl.FilterPoint
}

