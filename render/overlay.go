package render

import (
	"image/color"

	"quarkcube/device"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Overlay prints lines of text into the top-left corner of a surface.
type Overlay struct {
	Color color.RGBA
	Font  tinyfont.Fonter
}

// NewOverlay returns a black overlay in the Tom Thumb font.
func NewOverlay() *Overlay {
	return &Overlay{
		Color: color.RGBA{A: 0xFF},
		Font:  &tinyfont.TomThumb,
	}
}

// Draw writes lines into s, one per font line.
func (o *Overlay) Draw(s device.Surface, lines ...string) error {
	lr, err := s.Lock()
	if err != nil {
		return err
	}
	d := &surfaceDisplay{lr: lr}
	adv := int16(o.Font.GetYAdvance())
	y := int16(1)
	for _, line := range lines {
		y += adv
		tinyfont.WriteLine(d, o.Font, 2, y, line, o.Color)
	}
	return s.Unlock()
}

// surfaceDisplay draws into locked surface memory.
type surfaceDisplay struct {
	lr device.LockedRect
}

var _ drivers.Displayer = (*surfaceDisplay)(nil)

func (d *surfaceDisplay) Size() (x, y int16) {
	return int16(d.lr.Width), int16(d.lr.Height)
}

func (d *surfaceDisplay) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= d.lr.Width || iy >= d.lr.Height {
		return
	}
	bpp := d.lr.Format.BytesPerPixel()
	d.lr.Format.Store(d.lr.Pix[iy*d.lr.Stride+ix*bpp:], c)
}

func (d *surfaceDisplay) Display() error { return nil }
