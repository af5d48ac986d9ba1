package quarkgl

import (
	"errors"

	"github.com/chewxy/math32"
)

var (
	// ErrIndexCount means an indexed triangle list whose length is not a multiple of three.
	ErrIndexCount = errors.New("quarkgl: index count is not a multiple of 3")

	// ErrIndexRange means an index refers past the end of the vertex slice.
	ErrIndexRange = errors.New("quarkgl: index out of range")
)

// Vertex is a pipeline vertex: model-space position, diffuse color and texture coordinate.
type Vertex struct {
	Pos   Vec3
	Color Color
	U, V  Scalar
}

// Viewport maps the clip rectangle onto a pixel rectangle of the target.
//
// ClipX/ClipY name the top-left corner of the clip rectangle, so the usual
// full-screen mapping is ClipX=-1, ClipY=1, ClipWidth=2, ClipHeight=2.
type Viewport struct {
	X, Y          int
	Width, Height int

	ClipX, ClipY          Scalar
	ClipWidth, ClipHeight Scalar

	MinZ, MaxZ Scalar
}

// FullViewport returns the viewport covering a w×h target with clip bounds [-1,1]×[-1,1].
func FullViewport(w, h int) Viewport {
	return Viewport{
		Width: w, Height: h,
		ClipX: -1, ClipY: 1, ClipWidth: 2, ClipHeight: 2,
		MinZ: 0, MaxZ: 1,
	}
}

// Stats counts what one draw call did.
type Stats struct {
	Triangles int // submitted
	Culled    int
	Rejected  int // behind the eye or degenerate
	Drawn     int
}

// Pipeline is a fixed-function software pipeline.
//
// Create it once and reuse it to avoid allocations.
type Pipeline struct {
	World      Mat4
	View       Mat4
	Projection Mat4
	Viewport   Viewport

	Fill FillMode
	Cull CullMode

	// Texture is modulated with the interpolated vertex color; nil draws
	// vertex colors only.
	Texture     Sampler
	MinFilter   Filter
	MagFilter   Filter
	Perspective bool

	screen [3]screenVertex
}

// NewPipeline returns a pipeline with identity transforms and no culling.
func NewPipeline(w, h int) *Pipeline {
	return &Pipeline{
		World:       Mat4Identity(),
		View:        Mat4Identity(),
		Projection:  Mat4Identity(),
		Viewport:    FullViewport(w, h),
		Fill:        FillSolid,
		Cull:        CullNone,
		Perspective: true,
	}
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	u, v    float32 // divided by w when perspective-correct
	r, g, b float32
	a       float32
}

// DrawIndexed renders a triangle list into t, testing against depth when it is non-nil.
func (p *Pipeline) DrawIndexed(t Target, depth *DepthTarget, verts []Vertex, indices []uint16) (Stats, error) {
	var st Stats
	if p == nil || t == nil {
		return st, nil
	}
	if len(indices)%3 != 0 {
		return st, ErrIndexCount
	}
	for _, idx := range indices {
		if int(idx) >= len(verts) {
			return st, ErrIndexRange
		}
	}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return st, nil
	}

	mvp := Mat4Mul(p.Projection, Mat4Mul(p.View, p.World))

	for i := 0; i+2 < len(indices); i += 3 {
		st.Triangles++
		ok := true
		for k := 0; k < 3; k++ {
			v := verts[indices[i+k]]
			clip := Mat4MulV4(mvp, Vec4{v.Pos.X(), v.Pos.Y(), v.Pos.Z(), 1})
			sv, in := p.toScreen(clip, v)
			if !in {
				ok = false
				break
			}
			p.screen[k] = sv
		}
		if !ok {
			st.Rejected++
			continue
		}

		s0, s1, s2 := &p.screen[0], &p.screen[1], &p.screen[2]
		area := edgeFn(s0.x, s0.y, s1.x, s1.y, s2.x, s2.y)
		if area == 0 {
			st.Rejected++
			continue
		}
		// area < 0 is clockwise on a y-down screen.
		if (p.Cull == CullCW && area < 0) || (p.Cull == CullCCW && area > 0) {
			st.Culled++
			continue
		}

		switch p.Fill {
		case FillPoint:
			for k := range p.screen {
				sv := &p.screen[k]
				t.SetPixel(int(sv.x), int(sv.y), sv.color(sv.invW))
			}
		case FillWireframe:
			c := s0.color(s0.invW)
			p.drawLine(t, int(s0.x), int(s0.y), int(s1.x), int(s1.y), c)
			p.drawLine(t, int(s1.x), int(s1.y), int(s2.x), int(s2.y), c)
			p.drawLine(t, int(s2.x), int(s2.y), int(s0.x), int(s0.y), c)
		default:
			if area < 0 {
				s1, s2 = s2, s1
				area = -area
			}
			p.fillTriangle(t, depth, w, h, s0, s1, s2, area)
		}
		st.Drawn++
	}
	return st, nil
}

func (p *Pipeline) toScreen(clip Vec4, v Vertex) (screenVertex, bool) {
	cw := clip.W()
	if cw <= epsilon {
		return screenVertex{}, false
	}
	invW := 1 / cw
	nx := clip.X() * invW
	ny := clip.Y() * invW
	nz := clip.Z() * invW

	vp := p.Viewport
	cwid, chgt := vp.ClipWidth, vp.ClipHeight
	if cwid == 0 {
		cwid = 2
	}
	if chgt == 0 {
		chgt = 2
	}

	sv := screenVertex{
		x:    float32(vp.X) + (nx-vp.ClipX)/cwid*float32(vp.Width),
		y:    float32(vp.Y) + (vp.ClipY-ny)/chgt*float32(vp.Height),
		z:    vp.MinZ + nz*(vp.MaxZ-vp.MinZ),
		invW: 1,
		u:    v.U,
		v:    v.V,
		r:    float32(v.Color.R),
		g:    float32(v.Color.G),
		b:    float32(v.Color.B),
		a:    float32(v.Color.A),
	}
	if p.Perspective {
		sv.invW = invW
		sv.u *= invW
		sv.v *= invW
		sv.r *= invW
		sv.g *= invW
		sv.b *= invW
		sv.a *= invW
	}
	return sv, true
}

func (sv *screenVertex) color(invW float32) Color {
	if invW == 0 {
		invW = 1
	}
	return Color{
		R: toByte(sv.r/invW),
		G: toByte(sv.g/invW),
		B: toByte(sv.b/invW),
		A: toByte(sv.a/invW),
	}
}

// fillTriangle rasterizes a triangle whose edge function area is positive.
func (p *Pipeline) fillTriangle(t Target, depth *DepthTarget, w, h int, s0, s1, s2 *screenVertex, area float32) {
	minX := int(math32.Floor(min3(s0.x, s1.x, s2.x)))
	maxX := int(math32.Ceil(max3(s0.x, s1.x, s2.x)))
	minY := int(math32.Floor(min3(s0.y, s1.y, s2.y)))
	maxY := int(math32.Ceil(max3(s0.y, s1.y, s2.y)))

	vp := p.Viewport
	if minX < vp.X {
		minX = vp.X
	}
	if minY < vp.Y {
		minY = vp.Y
	}
	if right := vp.X + vp.Width; vp.Width > 0 && maxX >= right {
		maxX = right - 1
	}
	if bottom := vp.Y + vp.Height; vp.Height > 0 && maxY >= bottom {
		maxY = bottom - 1
	}
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if maxY >= h {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	filter := p.MagFilter
	var tw, th int
	if p.Texture != nil {
		tw, th = p.Texture.Size()
		if p.minifies(s0, s1, s2, area, tw, th) {
			filter = p.MinFilter
		}
	}

	invArea := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edgeFn(s1.x, s1.y, s2.x, s2.y, px, py)
			w1 := edgeFn(s2.x, s2.y, s0.x, s0.y, px, py)
			w2 := edgeFn(s0.x, s0.y, s1.x, s1.y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			a0 := w0 * invArea
			a1 := w1 * invArea
			a2 := w2 * invArea

			z := a0*s0.z + a1*s1.z + a2*s2.z
			if depth != nil && !depth.test(x, y, z) {
				continue
			}

			iw := a0*s0.invW + a1*s1.invW + a2*s2.invW
			if iw == 0 {
				continue
			}
			c := Color{
				R: toByte((a0*s0.r+a1*s1.r+a2*s2.r)/iw),
				G: toByte((a0*s0.g+a1*s1.g+a2*s2.g)/iw),
				B: toByte((a0*s0.b+a1*s1.b+a2*s2.b)/iw),
				A: toByte((a0*s0.a+a1*s1.a+a2*s2.a)/iw),
			}
			if p.Texture != nil {
				u := (a0*s0.u + a1*s1.u + a2*s2.u) / iw
				v := (a0*s0.v + a1*s1.v + a2*s2.v) / iw
				c = sample(p.Texture, tw, th, u, v, filter).Modulate(c)
			}
			t.SetPixel(x, y, c)
		}
	}
}

// minifies reports whether the triangle maps more texels than pixels.
func (p *Pipeline) minifies(s0, s1, s2 *screenVertex, area float32, tw, th int) bool {
	uv := func(s *screenVertex) (float32, float32) {
		if s.invW == 0 {
			return s.u, s.v
		}
		return s.u / s.invW, s.v / s.invW
	}
	u0, v0 := uv(s0)
	u1, v1 := uv(s1)
	u2, v2 := uv(s2)
	texArea := math32.Abs(edgeFn(u0, v0, u1, v1, u2, v2)) * float32(tw*th)
	return texArea > math32.Abs(area)
}

func sample(s Sampler, tw, th int, u, v float32, f Filter) Color {
	if tw <= 0 || th <= 0 {
		return RGB(0xFF, 0xFF, 0xFF)
	}
	fx := u * float32(tw)
	fy := v * float32(th)
	if f == FilterPoint {
		return s.Texel(wrapInt(int(math32.Floor(fx)), tw), wrapInt(int(math32.Floor(fy)), th))
	}

	fx -= 0.5
	fy -= 0.5
	x0 := math32.Floor(fx)
	y0 := math32.Floor(fy)
	tx := fx - x0
	ty := fy - y0
	ix := int(x0)
	iy := int(y0)

	c00 := s.Texel(wrapInt(ix, tw), wrapInt(iy, th))
	c10 := s.Texel(wrapInt(ix+1, tw), wrapInt(iy, th))
	c01 := s.Texel(wrapInt(ix, tw), wrapInt(iy+1, th))
	c11 := s.Texel(wrapInt(ix+1, tw), wrapInt(iy+1, th))
	return lerpColor(lerpColor(c00, c10, tx), lerpColor(c01, c11, tx), ty)
}

func (p *Pipeline) drawLine(t Target, x0, y0, x1, y1 int, c Color) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func edgeFn(x0, y0, x1, y1, x, y float32) float32 {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func wrapInt(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min3(a, b, c float32) float32 {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func max3(a, b, c float32) float32 {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}

// toByte rounds a channel value to the nearest byte.
func toByte(v float32) uint8 {
	return uint8(clampF32(v+0.5, 0, 255))
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
