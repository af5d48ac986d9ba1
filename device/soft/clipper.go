package soft

import (
	"image"

	"quarkcube/device"
)

type clipper struct {
	p   *Provider
	obj *object
	win device.Window
}

var _ device.Clipper = (*clipper)(nil)

func (c *clipper) Release() error { return c.p.led.release(c.obj) }

func (c *clipper) SetWindow(win device.Window) error {
	if !c.p.led.alive(c.obj) {
		return device.ErrReleased
	}
	if err := c.p.faults.check(OpSetClipperWindow); err != nil {
		return err
	}
	if win == nil {
		return device.ErrInvalidParams
	}
	c.win = win
	return nil
}

// ClipList returns the client area of the window in screen coordinates.
func (c *clipper) ClipList() ([]image.Rectangle, error) {
	if !c.p.led.alive(c.obj) {
		return nil, device.ErrReleased
	}
	if c.win == nil {
		return nil, device.ErrNotAttached
	}
	w, h := c.win.ClientSize()
	o := c.win.ClientOrigin()
	return []image.Rectangle{image.Rect(o.X, o.Y, o.X+w, o.Y+h)}, nil
}
