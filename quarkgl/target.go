package quarkgl

// Target is a minimal pixel target for software rendering.
//
// Implementations should clip out-of-bounds coordinates.
type Target interface {
	Size() (w, h int)
	SetPixel(x, y int, c Color)
	Clear(c Color)
}

// FillMode selects the rasterization mode.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
	FillPoint
)

// CullMode selects which screen-space winding is discarded.
//
// Screen space has y pointing down; a clockwise triangle is one whose
// vertices turn right when walked in order on screen.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullCW
	CullCCW
)

// Filter selects how a texture is sampled.
type Filter uint8

const (
	FilterPoint Filter = iota
	FilterLinear
)

// Sampler returns texels for normalized texture coordinates.
type Sampler interface {
	Size() (w, h int)
	Texel(x, y int) Color
}

// DepthTarget is a float depth buffer. Depth values are in [0, 1], smaller is closer.
type DepthTarget struct {
	Buf []float32
	W   int
	H   int
}

// NewDepthTarget allocates a depth buffer of w*h cleared to the far plane.
func NewDepthTarget(w, h int) *DepthTarget {
	if w <= 0 || h <= 0 {
		return &DepthTarget{}
	}
	d := &DepthTarget{Buf: make([]float32, w*h), W: w, H: h}
	d.Clear(1)
	return d
}

func (d *DepthTarget) Clear(z float32) {
	if d == nil {
		return
	}
	for i := range d.Buf {
		d.Buf[i] = z
	}
}

// test reports whether z passes at (x, y) and records it when it does.
func (d *DepthTarget) test(x, y int, z float32) bool {
	if d == nil || d.Buf == nil {
		return true
	}
	if x < 0 || y < 0 || x >= d.W || y >= d.H {
		return false
	}
	idx := y*d.W + x
	if z < 0 || z > 1 || z >= d.Buf[idx] {
		return false
	}
	d.Buf[idx] = z
	return true
}
