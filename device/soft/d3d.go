package soft

import (
	"fmt"
	"iter"

	"quarkcube/device"
	"quarkcube/quarkgl"
)

type direct3D struct {
	p   *Provider
	obj *object
}

var _ device.Direct3D = (*direct3D)(nil)

func (d *direct3D) Release() error { return d.p.led.release(d.obj) }

func (d *direct3D) Devices() iter.Seq[device.DeviceDesc] {
	return func(yield func(device.DeviceDesc) bool) {
		if !d.p.led.alive(d.obj) {
			return
		}
		for desc := range d.p.devices() {
			if !yield(desc) {
				return
			}
		}
	}
}

func (d *direct3D) CreateDevice(id device.DeviceID, t device.Surface) (device.Device, error) {
	if !d.p.led.alive(d.obj) {
		return nil, device.ErrReleased
	}
	if err := d.p.faults.check(OpCreateDevice); err != nil {
		return nil, err
	}
	s, ok := t.(*surface)
	if !ok || s == nil || s.p != d.p || !s.desc.Caps.Has(device.Caps3DDevice) {
		return nil, fmt.Errorf("%w: render target must be a 3D device surface", device.ErrInvalidParams)
	}
	if !d.p.led.alive(s.obj) {
		return nil, device.ErrReleased
	}
	if s.lost {
		return nil, device.ErrSurfaceLost
	}
	if s.desc.Format.Flags&device.PFPaletteIndexed8 != 0 {
		return nil, device.ErrInvalidMode
	}
	found := false
	for desc := range d.p.devices() {
		if desc.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: device %v", device.ErrUnsupported, id)
	}
	if s.device != nil {
		return nil, device.ErrAlreadyAttached
	}

	v := &dev{
		p:         d.p,
		id:        id,
		target:    s,
		pipe:      quarkgl.NewPipeline(s.desc.Width, s.desc.Height),
		viewports: make(map[*viewport]struct{}),
		textures:  make(map[device.TextureHandle]*texture),
		materials: make(map[device.MaterialHandle]*material),
		zEnable:   s.attached != nil,
	}
	v.pipe.Cull = quarkgl.CullCCW
	v.pipe.Perspective = false
	for i := range v.filters {
		v.filters[i] = [2]uint32{device.FilterPoint, device.FilterPoint}
	}
	v.obj = d.p.led.add("device", d.obj, s.obj)
	v.obj.onFree = v.free
	s.device = v
	return v, nil
}

func (d *direct3D) CreateViewport() (device.Viewport, error) {
	if !d.p.led.alive(d.obj) {
		return nil, device.ErrReleased
	}
	if err := d.p.faults.check(OpCreateViewport); err != nil {
		return nil, err
	}
	v := &viewport{p: d.p}
	v.obj = d.p.led.add("viewport", d.obj)
	return v, nil
}

func (d *direct3D) CreateMaterial() (device.Material, error) {
	if !d.p.led.alive(d.obj) {
		return nil, device.ErrReleased
	}
	if err := d.p.faults.check(OpCreateMaterial); err != nil {
		return nil, err
	}
	m := &material{p: d.p, handles: make(map[*dev]device.MaterialHandle)}
	m.obj = d.p.led.add("material", d.obj)
	m.obj.onFree = func() {
		for v, h := range m.handles {
			delete(v.materials, h)
		}
		m.handles = nil
	}
	return m, nil
}

func (d *direct3D) CreateTexture(s device.Surface) (device.Texture, error) {
	if !d.p.led.alive(d.obj) {
		return nil, device.ErrReleased
	}
	if err := d.p.faults.check(OpCreateTexture); err != nil {
		return nil, err
	}
	ts, ok := s.(*surface)
	if !ok || ts == nil || ts.p != d.p || !ts.desc.Caps.Has(device.CapsTexture) {
		return nil, fmt.Errorf("%w: not a texture surface", device.ErrInvalidParams)
	}
	if !d.p.led.alive(ts.obj) {
		return nil, device.ErrReleased
	}
	t := &texture{p: d.p, surface: ts, handles: make(map[*dev]device.TextureHandle)}
	t.obj = d.p.led.add("texture", d.obj)
	d.p.led.retain(ts.obj, t.obj)
	t.obj.onFree = func() {
		for v, h := range t.handles {
			delete(v.textures, h)
		}
		t.handles = nil
	}
	return t, nil
}
