package soft

import (
	"fmt"
	"image"
	"image/color"

	"quarkcube/device"
)

type viewport struct {
	p      *Provider
	obj    *object
	dev    *dev
	params device.ViewportParams
	bg     *material
}

var _ device.Viewport = (*viewport)(nil)

func (v *viewport) Release() error { return v.p.led.release(v.obj) }

func (v *viewport) SetViewport(params device.ViewportParams) error {
	if !v.p.led.alive(v.obj) {
		return device.ErrReleased
	}
	if err := v.p.faults.check(OpSetViewport); err != nil {
		return err
	}
	if params.Width <= 0 || params.Height <= 0 || params.ClipWidth == 0 || params.ClipHeight == 0 {
		return fmt.Errorf("%w: viewport %+v", device.ErrInvalidParams, params)
	}
	if params.MinZ < 0 || params.MaxZ > 1 || params.MinZ > params.MaxZ {
		return fmt.Errorf("%w: depth range [%v, %v]", device.ErrInvalidParams, params.MinZ, params.MaxZ)
	}
	if v.dev != nil && !params.Rect().In(v.dev.target.bounds()) {
		return fmt.Errorf("%w: viewport %v outside render target", device.ErrInvalidParams, params.Rect())
	}
	v.params = params
	return nil
}

func (v *viewport) Viewport() device.ViewportParams { return v.params }

func (v *viewport) SetBackground(h device.MaterialHandle) error {
	if !v.p.led.alive(v.obj) {
		return device.ErrReleased
	}
	if v.dev == nil {
		return device.ErrNotAttached
	}
	var next *material
	if h != 0 {
		m, ok := v.dev.materials[h]
		if !ok {
			return fmt.Errorf("%w: material handle %d", device.ErrInvalidParams, h)
		}
		next = m
	}
	if v.bg != nil {
		v.p.led.drop(v.bg.obj, v.obj)
	}
	v.bg = next
	if next != nil {
		v.p.led.hold(next.obj, v.obj)
	}
	return nil
}

func (v *viewport) Clear(rects []image.Rectangle, flags device.ClearFlags) error {
	var c uint32
	if v.bg != nil {
		c = v.bg.desc.Diffuse.ARGB()
	}
	return v.Clear2(rects, flags, c, 1)
}

// Clear2 clears rects in render-target coordinates, clipped to the viewport.
// An empty rects clears the whole viewport.
func (v *viewport) Clear2(rects []image.Rectangle, flags device.ClearFlags, argb uint32, z float32) error {
	if !v.p.led.alive(v.obj) {
		return device.ErrReleased
	}
	if v.dev == nil {
		return device.ErrNotAttached
	}
	if err := v.p.faults.check(OpClear); err != nil {
		return err
	}
	t := v.dev.target
	if t.lost {
		return device.ErrSurfaceLost
	}
	if t.locked {
		return device.ErrLocked
	}
	zb := t.attached
	if flags&device.ClearZBuffer != 0 {
		if zb == nil {
			return device.ErrNoZBuffer
		}
		if zb.lost {
			return device.ErrSurfaceLost
		}
	}
	if len(rects) == 0 {
		rects = []image.Rectangle{v.params.Rect()}
	}
	c := color.RGBA{R: uint8(argb >> 16), G: uint8(argb >> 8), B: uint8(argb), A: uint8(argb >> 24)}
	for _, r := range rects {
		r = r.Intersect(v.params.Rect()).Intersect(t.bounds())
		if flags&device.ClearTarget != 0 {
			t.fill(r, c)
		}
		if flags&device.ClearZBuffer != 0 {
			d := zb.depth
			for y := r.Min.Y; y < r.Max.Y; y++ {
				row := d.Buf[y*d.W : (y+1)*d.W]
				for x := r.Min.X; x < r.Max.X; x++ {
					row[x] = z
				}
			}
		}
	}
	v.p.render.Clears++
	return nil
}
