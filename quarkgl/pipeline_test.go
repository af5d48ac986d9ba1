package quarkgl

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

type memTarget struct {
	w, h int
	pix  []Color
}

func newMemTarget(w, h int) *memTarget {
	return &memTarget{w: w, h: h, pix: make([]Color, w*h)}
}

func (t *memTarget) Size() (int, int) { return t.w, t.h }

func (t *memTarget) SetPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= t.w || y >= t.h {
		return
	}
	t.pix[y*t.w+x] = c
}

func (t *memTarget) Clear(c Color) {
	for i := range t.pix {
		t.pix[i] = c
	}
}

func (t *memTarget) at(x, y int) Color { return t.pix[y*t.w+x] }

type solidSampler struct{ c Color }

func (s solidSampler) Size() (int, int)     { return 1, 1 }
func (s solidSampler) Texel(int, int) Color { return s.c }

// quad returns a square at depth z facing the eye, wound clockwise on screen.
func quad(z Scalar, c Color) ([]Vertex, []uint16) {
	v := []Vertex{
		{Pos: V3(-1, -1, z), Color: c, U: 0, V: 1},
		{Pos: V3(-1, 1, z), Color: c, U: 0, V: 0},
		{Pos: V3(1, 1, z), Color: c, U: 1, V: 0},
		{Pos: V3(1, -1, z), Color: c, U: 1, V: 1},
	}
	return v, []uint16{0, 1, 2, 0, 2, 3}
}

func newTestPipeline(t *testing.T, w, h int) *Pipeline {
	t.Helper()
	p := NewPipeline(w, h)
	proj, err := ProjectionMatrix(math32.Pi/2, Scalar(w)/Scalar(h), 1, 100)
	if err != nil {
		t.Fatalf("ProjectionMatrix: %v", err)
	}
	p.Projection = proj
	p.Cull = CullCCW
	return p
}

func TestDrawIndexedFillsCenter(t *testing.T) {
	tgt := newMemTarget(32, 32)
	p := newTestPipeline(t, 32, 32)

	red := RGB(0xFF, 0, 0)
	v, idx := quad(5, red)
	st, err := p.DrawIndexed(tgt, nil, v, idx)
	if err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	if st.Triangles != 2 || st.Drawn != 2 {
		t.Fatalf("stats = %+v, want 2 drawn", st)
	}
	if got := tgt.at(16, 16); got != red {
		t.Fatalf("center = %+v, want %+v", got, red)
	}
	if got := tgt.at(0, 0); got != (Color{}) {
		t.Fatalf("corner = %+v, want untouched", got)
	}
}

func TestDrawIndexedCullsReversedWinding(t *testing.T) {
	tgt := newMemTarget(32, 32)
	p := newTestPipeline(t, 32, 32)

	v, _ := quad(5, RGB(0xFF, 0, 0))
	st, err := p.DrawIndexed(tgt, nil, v, []uint16{0, 2, 1, 0, 3, 2})
	if err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	if st.Culled != 2 || st.Drawn != 0 {
		t.Fatalf("stats = %+v, want both culled", st)
	}

	p.Cull = CullNone
	st, err = p.DrawIndexed(tgt, nil, v, []uint16{0, 2, 1, 0, 3, 2})
	if err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	if st.Drawn != 2 {
		t.Fatalf("stats = %+v, want 2 drawn without culling", st)
	}
	if got := tgt.at(16, 16); got != RGB(0xFF, 0, 0) {
		t.Fatalf("center = %+v after drawing with culling off", got)
	}
}

func TestDrawIndexedDepth(t *testing.T) {
	red := RGB(0xFF, 0, 0)
	blue := RGB(0, 0, 0xFF)

	for _, nearFirst := range []bool{true, false} {
		tgt := newMemTarget(32, 32)
		depth := NewDepthTarget(32, 32)
		p := newTestPipeline(t, 32, 32)

		nv, ni := quad(5, red)
		fv, fi := quad(10, blue)
		// Scale the far quad so it covers the same screen area.
		for i := range fv {
			fv[i].Pos = V3(fv[i].Pos.X()*2, fv[i].Pos.Y()*2, fv[i].Pos.Z())
		}

		draws := [][2]any{{nv, ni}, {fv, fi}}
		if !nearFirst {
			draws[0], draws[1] = draws[1], draws[0]
		}
		for _, d := range draws {
			if _, err := p.DrawIndexed(tgt, depth, d[0].([]Vertex), d[1].([]uint16)); err != nil {
				t.Fatalf("DrawIndexed: %v", err)
			}
		}
		if got := tgt.at(16, 16); got != red {
			t.Fatalf("nearFirst=%v: center = %+v, want near quad", nearFirst, got)
		}
	}
}

func TestDrawIndexedTextureModulates(t *testing.T) {
	tgt := newMemTarget(32, 32)
	p := newTestPipeline(t, 32, 32)
	green := RGB(0, 0xFF, 0)
	p.Texture = solidSampler{c: green}
	p.MinFilter = FilterLinear
	p.MagFilter = FilterLinear

	v, idx := quad(5, RGB(0xFF, 0xFF, 0xFF))
	if _, err := p.DrawIndexed(tgt, nil, v, idx); err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	if got := tgt.at(16, 16); got != green {
		t.Fatalf("center = %+v, want texel %+v", got, green)
	}
}

func TestDrawIndexedRejectsBehindEye(t *testing.T) {
	tgt := newMemTarget(16, 16)
	p := newTestPipeline(t, 16, 16)
	v, idx := quad(-5, RGB(0xFF, 0, 0))
	st, err := p.DrawIndexed(tgt, nil, v, idx)
	if err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	if st.Rejected != 2 {
		t.Fatalf("stats = %+v, want 2 rejected", st)
	}
}

func TestDrawIndexedBadIndices(t *testing.T) {
	tgt := newMemTarget(16, 16)
	p := newTestPipeline(t, 16, 16)
	v, _ := quad(5, RGB(0xFF, 0, 0))

	if _, err := p.DrawIndexed(tgt, nil, v, []uint16{0, 1}); !errors.Is(err, ErrIndexCount) {
		t.Fatalf("err = %v, want ErrIndexCount", err)
	}
	if _, err := p.DrawIndexed(tgt, nil, v, []uint16{0, 1, 9}); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("err = %v, want ErrIndexRange", err)
	}
}

func TestSamplePointWraps(t *testing.T) {
	s := checker{}
	if got := sample(s, 2, 2, 1.25, 0.25, FilterPoint); got != s.Texel(0, 0) {
		t.Fatalf("wrapped sample = %+v, want texel (0,0)", got)
	}
	if got := sample(s, 2, 2, 0.75, 0.25, FilterPoint); got != s.Texel(1, 0) {
		t.Fatalf("sample = %+v, want texel (1,0)", got)
	}
}

type checker struct{}

func (checker) Size() (int, int) { return 2, 2 }
func (checker) Texel(x, y int) Color {
	if (x+y)%2 == 0 {
		return RGB(0, 0, 0)
	}
	return RGB(0xFF, 0xFF, 0xFF)
}
