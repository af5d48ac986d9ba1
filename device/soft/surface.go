package soft

import (
	"fmt"
	"image"
	"image/color"

	"quarkcube/device"
	"quarkcube/quarkgl"
)

// maxBltRetries bounds how long a BltWait blit spins on a busy target.
const maxBltRetries = 64

type surface struct {
	p    *Provider
	obj  *object
	desc device.SurfaceDesc

	pix    []byte
	stride int
	depth  *quarkgl.DepthTarget
	size   int

	attached   *surface // z-buffer attached to this surface
	attachedTo *surface
	clipper    *clipper
	device     *dev

	locked bool
	lost   bool
}

var _ device.Surface = (*surface)(nil)

func (p *Provider) CreateSurface(desc device.SurfaceDesc) (device.Surface, error) {
	if !p.led.alive(p.obj) {
		return nil, device.ErrReleased
	}
	if p.level == 0 {
		return nil, device.ErrNoCooperativeLevel
	}

	var size int
	switch {
	case desc.Caps.Has(device.CapsPrimarySurface):
		if err := p.faults.check(OpCreatePrimary); err != nil {
			return nil, err
		}
		if p.primary != nil {
			return nil, device.ErrPrimaryExists
		}
		desc.Format = p.displayFormat()
		desc.Width, desc.Height = 0, 0
		if d := p.cfg.Display; d != nil {
			desc.Width, desc.Height = d.Width(), d.Height()
		}
	case desc.Caps.Has(device.CapsZBuffer):
		if err := p.faults.check(OpCreateZBuffer); err != nil {
			return nil, err
		}
		switch desc.ZBufferBitDepth {
		case 8, 16, 24, 32:
		default:
			return nil, fmt.Errorf("%w: z-buffer depth %d", device.ErrInvalidParams, desc.ZBufferBitDepth)
		}
		if desc.Width <= 0 || desc.Height <= 0 {
			return nil, device.ErrInvalidParams
		}
		size = desc.Width * desc.Height * desc.ZBufferBitDepth / 8
	case desc.Caps.Has(device.CapsTexture):
		if err := p.faults.check(OpCreateTextureSurface); err != nil {
			return nil, err
		}
		if desc.Width <= 0 || desc.Height <= 0 {
			return nil, device.ErrInvalidParams
		}
		if desc.Format.BytesPerPixel() == 0 || desc.Format.Flags&device.PFPaletteIndexed8 != 0 {
			return nil, fmt.Errorf("%w: texture format %v", device.ErrUnsupported, desc.Format)
		}
		size = desc.Width * desc.Height * desc.Format.BytesPerPixel()
	case desc.Caps.Has(device.CapsOffscreenPlain):
		if err := p.faults.check(OpCreateOffscreen); err != nil {
			return nil, err
		}
		if desc.Width <= 0 || desc.Height <= 0 {
			return nil, device.ErrInvalidParams
		}
		if desc.Format == (device.PixelFormat{}) {
			desc.Format = p.displayFormat()
		}
		if desc.Format.BytesPerPixel() == 0 {
			return nil, fmt.Errorf("%w: surface format %v", device.ErrUnsupported, desc.Format)
		}
		size = desc.Width * desc.Height * desc.Format.BytesPerPixel()
	default:
		return nil, fmt.Errorf("%w: surface caps %#x", device.ErrInvalidParams, uint32(desc.Caps))
	}

	if !desc.Caps.Has(device.CapsSystemMemory) && p.cfg.VideoMemory > 0 && p.video+size > p.cfg.VideoMemory {
		return nil, device.ErrOutOfVideoMemory
	}

	s := &surface{p: p, desc: desc, size: size}
	s.alloc()
	if !desc.Caps.Has(device.CapsSystemMemory) {
		p.video += size
	}
	s.obj = p.led.add("surface", p.obj)
	s.obj.onFree = func() {
		if !s.desc.Caps.Has(device.CapsSystemMemory) {
			p.video -= s.size
		}
		if p.primary == s {
			p.primary = nil
		}
		delete(p.surfaces, s)
		s.pix = nil
		s.depth = nil
	}
	if desc.Caps.Has(device.CapsPrimarySurface) {
		p.primary = s
	}
	p.surfaces[s] = struct{}{}
	return s, nil
}

func (s *surface) alloc() {
	switch {
	case s.desc.Caps.Has(device.CapsPrimarySurface):
	case s.desc.Caps.Has(device.CapsZBuffer):
		s.depth = quarkgl.NewDepthTarget(s.desc.Width, s.desc.Height)
	default:
		s.stride = s.desc.Width * s.desc.Format.BytesPerPixel()
		s.pix = make([]byte, s.stride*s.desc.Height)
	}
}

func (s *surface) Release() error { return s.p.led.release(s.obj) }

func (s *surface) Desc() device.SurfaceDesc { return s.desc }

func (s *surface) bounds() image.Rectangle {
	return image.Rect(0, 0, s.desc.Width, s.desc.Height)
}

func (s *surface) isPrimary() bool { return s.desc.Caps.Has(device.CapsPrimarySurface) }
func (s *surface) isZBuffer() bool { return s.desc.Caps.Has(device.CapsZBuffer) }

func (s *surface) AddAttachedSurface(a device.Surface) error {
	z, ok := a.(*surface)
	if !ok || z == nil || z.p != s.p {
		return device.ErrInvalidParams
	}
	if !s.p.led.alive(s.obj) || !s.p.led.alive(z.obj) {
		return device.ErrReleased
	}
	if err := s.p.faults.check(OpAddAttachedSurface); err != nil {
		return err
	}
	if !z.isZBuffer() || s.isZBuffer() {
		return device.ErrInvalidParams
	}
	if s.attached != nil || z.attachedTo != nil {
		return device.ErrAlreadyAttached
	}
	if z.desc.Width != s.desc.Width || z.desc.Height != s.desc.Height {
		return fmt.Errorf("%w: z-buffer %dx%d for %dx%d surface", device.ErrInvalidParams,
			z.desc.Width, z.desc.Height, s.desc.Width, s.desc.Height)
	}
	s.attached = z
	z.attachedTo = s
	s.p.led.hold(z.obj, s.obj)
	s.p.led.hold(s.obj, z.obj)
	return nil
}

func (s *surface) DeleteAttachedSurface(a device.Surface) error {
	z, ok := a.(*surface)
	if !ok || z == nil || s.attached != z {
		return device.ErrNotAttached
	}
	s.attached = nil
	z.attachedTo = nil
	s.p.led.drop(z.obj, s.obj)
	s.p.led.drop(s.obj, z.obj)
	return nil
}

func (s *surface) SetClipper(c device.Clipper) error {
	if !s.p.led.alive(s.obj) {
		return device.ErrReleased
	}
	if err := s.p.faults.check(OpSetClipper); err != nil {
		return err
	}
	var next *clipper
	if c != nil {
		cc, ok := c.(*clipper)
		if !ok || cc.p != s.p {
			return device.ErrInvalidParams
		}
		if !s.p.led.alive(cc.obj) {
			return device.ErrReleased
		}
		next = cc
	}
	if prev := s.clipper; prev != nil {
		s.clipper = nil
		if err := s.p.led.unretain(prev.obj, s.obj); err != nil {
			return err
		}
	}
	if next != nil {
		s.p.led.retain(next.obj, s.obj)
		s.clipper = next
	}
	return nil
}

func (s *surface) Blt(dst image.Rectangle, src device.Surface, srcRect image.Rectangle, flags device.BltFlags) error {
	from, ok := src.(*surface)
	if !ok || from == nil || from.p != s.p {
		return device.ErrInvalidParams
	}
	if !s.p.led.alive(s.obj) || !s.p.led.alive(from.obj) {
		return device.ErrReleased
	}
	if s.isZBuffer() || from.isZBuffer() || from.isPrimary() {
		return device.ErrUnsupported
	}
	if s.lost || from.lost {
		return device.ErrSurfaceLost
	}
	if s.locked || from.locked {
		return device.ErrLocked
	}
	for try := 0; ; try++ {
		err := s.p.faults.check(OpBlt)
		if err == nil {
			break
		}
		if err != device.ErrWasStillDrawing || flags&device.BltWait == 0 || try >= maxBltRetries {
			return err
		}
	}

	if srcRect.Empty() {
		srcRect = from.bounds()
	}
	if !srcRect.In(from.bounds()) {
		return fmt.Errorf("%w: source rectangle %v outside %v", device.ErrInvalidParams, srcRect, from.bounds())
	}
	if dst.Empty() {
		dst = s.bounds()
	}

	clips := []image.Rectangle{s.bounds()}
	if s.clipper != nil {
		list, err := s.clipper.ClipList()
		if err != nil {
			return err
		}
		clips = clips[:0]
		for _, r := range list {
			clips = append(clips, r.Intersect(s.bounds()))
		}
	}

	s.p.render.Blits++
	if s.isPrimary() {
		fb := s.p.cfg.Display
		if fb == nil {
			return nil
		}
		fb.Lock()
		buf, stride, format := fb.Buffer(), fb.StrideBytes(), fb.Format()
		bpp := format.BytesPerPixel()
		for _, clip := range clips {
			copyScaled(dst, clip, srcRect, from, func(x, y int, c color.RGBA) {
				format.Store(buf[y*stride+x*bpp:], c.R, c.G, c.B)
			})
		}
		fb.Unlock()
		return fb.Present()
	}
	for _, clip := range clips {
		copyScaled(dst, clip, srcRect, from, s.set)
	}
	return nil
}

// copyScaled maps srcRect of src onto dst and writes the pixels inside clip.
func copyScaled(dst, clip, srcRect image.Rectangle, src *surface, set func(x, y int, c color.RGBA)) {
	r := dst.Intersect(clip)
	dw, dh := dst.Dx(), dst.Dy()
	sw, sh := srcRect.Dx(), srcRect.Dy()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		sy := srcRect.Min.Y + (y-dst.Min.Y)*sh/dh
		for x := r.Min.X; x < r.Max.X; x++ {
			sx := srcRect.Min.X + (x-dst.Min.X)*sw/dw
			set(x, y, src.at(sx, sy))
		}
	}
}

func (s *surface) at(x, y int) color.RGBA {
	bpp := s.desc.Format.BytesPerPixel()
	return s.desc.Format.Load(s.pix[y*s.stride+x*bpp:])
}

func (s *surface) set(x, y int, c color.RGBA) {
	bpp := s.desc.Format.BytesPerPixel()
	s.desc.Format.Store(s.pix[y*s.stride+x*bpp:], c)
}

func (s *surface) fill(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(s.bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s.set(x, y, c)
		}
	}
}

func (s *surface) Lock() (device.LockedRect, error) {
	if !s.p.led.alive(s.obj) {
		return device.LockedRect{}, device.ErrReleased
	}
	if s.isPrimary() || s.isZBuffer() {
		return device.LockedRect{}, device.ErrUnsupported
	}
	if s.lost {
		return device.LockedRect{}, device.ErrSurfaceLost
	}
	if s.locked {
		return device.LockedRect{}, device.ErrLocked
	}
	if err := s.p.faults.check(OpLock); err != nil {
		return device.LockedRect{}, err
	}
	s.locked = true
	return device.LockedRect{
		Pix:    s.pix,
		Stride: s.stride,
		Width:  s.desc.Width,
		Height: s.desc.Height,
		Format: s.desc.Format,
	}, nil
}

func (s *surface) Unlock() error {
	if !s.locked {
		return device.ErrNotLocked
	}
	s.locked = false
	return nil
}

func (s *surface) IsLost() error {
	if !s.p.led.alive(s.obj) {
		return device.ErrReleased
	}
	if s.lost {
		return device.ErrSurfaceLost
	}
	return nil
}

func (s *surface) Restore() error {
	if !s.p.led.alive(s.obj) {
		return device.ErrReleased
	}
	if !s.lost {
		return nil
	}
	s.alloc()
	s.locked = false
	s.lost = false
	return nil
}

// target adapts a surface to a quarkgl render target.
type target struct{ s *surface }

func (t target) Size() (int, int) { return t.s.desc.Width, t.s.desc.Height }

func (t target) SetPixel(x, y int, c quarkgl.Color) {
	if x < 0 || y < 0 || x >= t.s.desc.Width || y >= t.s.desc.Height {
		return
	}
	t.s.set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
}

func (t target) Clear(c quarkgl.Color) {
	t.s.fill(t.s.bounds(), color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
}

// sampler adapts a texture surface to a quarkgl sampler.
type sampler struct{ s *surface }

func (t sampler) Size() (int, int) { return t.s.desc.Width, t.s.desc.Height }

func (t sampler) Texel(x, y int) quarkgl.Color {
	c := t.s.at(x, y)
	return quarkgl.RGBA(c.R, c.G, c.B, c.A)
}
