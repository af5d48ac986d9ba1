package soft

import "quarkcube/device"

// material and texture keep every device they handed out a handle for alive
// until they are freed.
type material struct {
	p       *Provider
	obj     *object
	desc    device.MaterialDesc
	handles map[*dev]device.MaterialHandle
}

var _ device.Material = (*material)(nil)

func (m *material) Release() error { return m.p.led.release(m.obj) }

func (m *material) SetMaterial(d device.MaterialDesc) error {
	if !m.p.led.alive(m.obj) {
		return device.ErrReleased
	}
	m.desc = d
	return nil
}

func (m *material) Material() device.MaterialDesc { return m.desc }

func (m *material) Handle(d device.Device) (device.MaterialHandle, error) {
	if !m.p.led.alive(m.obj) {
		return 0, device.ErrReleased
	}
	if err := m.p.faults.check(OpMaterialHandle); err != nil {
		return 0, err
	}
	v, ok := d.(*dev)
	if !ok || v == nil || v.p != m.p {
		return 0, device.ErrInvalidParams
	}
	if !v.alive() {
		return 0, device.ErrReleased
	}
	if h, ok := m.handles[v]; ok {
		return h, nil
	}
	h := device.MaterialHandle(v.handle())
	m.handles[v] = h
	v.materials[h] = m
	m.p.led.hold(v.obj, m.obj)
	return h, nil
}

type texture struct {
	p       *Provider
	obj     *object
	surface *surface
	handles map[*dev]device.TextureHandle
}

var _ device.Texture = (*texture)(nil)

func (t *texture) Release() error { return t.p.led.release(t.obj) }

func (t *texture) Desc() device.SurfaceDesc { return t.surface.desc }

func (t *texture) Handle(d device.Device) (device.TextureHandle, error) {
	if !t.p.led.alive(t.obj) {
		return 0, device.ErrReleased
	}
	if err := t.p.faults.check(OpTextureHandle); err != nil {
		return 0, err
	}
	v, ok := d.(*dev)
	if !ok || v == nil || v.p != t.p {
		return 0, device.ErrInvalidParams
	}
	if !v.alive() {
		return 0, device.ErrReleased
	}
	if h, ok := t.handles[v]; ok {
		return h, nil
	}
	h := device.TextureHandle(v.handle())
	t.handles[v] = h
	v.textures[h] = t
	t.p.led.hold(v.obj, t.obj)
	return h, nil
}
