package geometry

import (
	"testing"

	"quarkcube/device"
	"quarkcube/quarkgl"
)

func positions(t *testing.T, m Mesh) []quarkgl.Vec3 {
	t.Helper()
	switch vs := m.Vertices.(type) {
	case device.VertexSlice:
		out := make([]quarkgl.Vec3, len(vs))
		for i, v := range vs {
			out[i] = quarkgl.V3(v.X, v.Y, v.Z)
		}
		return out
	case device.LVertexSlice:
		out := make([]quarkgl.Vec3, len(vs))
		for i, v := range vs {
			out[i] = quarkgl.V3(v.X, v.Y, v.Z)
		}
		return out
	}
	t.Fatalf("unexpected vertex type %T", m.Vertices)
	return nil
}

func TestCubeSizes(t *testing.T) {
	for _, tc := range []struct {
		mesh          Mesh
		verts, format int
	}{
		{TexturedCube(), 24, int(device.FormatVertex)},
		{ColoredCube(), 8, int(device.FormatLVertex)},
	} {
		if got := tc.mesh.Vertices.Len(); got != tc.verts {
			t.Fatalf("%s: %d vertices, want %d", tc.mesh.Name, got, tc.verts)
		}
		if got := int(tc.mesh.Vertices.Format()); got != tc.format {
			t.Fatalf("%s: format %d, want %d", tc.mesh.Name, got, tc.format)
		}
		if len(tc.mesh.Indices) != 36 || tc.mesh.Triangles() != 12 {
			t.Fatalf("%s: %d indices, want 36", tc.mesh.Name, len(tc.mesh.Indices))
		}
		for _, idx := range tc.mesh.Indices {
			if int(idx) >= tc.verts {
				t.Fatalf("%s: index %d out of range", tc.mesh.Name, idx)
			}
		}
	}
}

// Every triangle must wind the same way when seen from outside the cube, so
// one cull mode removes exactly the back faces.
func TestCubeWindingIsConsistent(t *testing.T) {
	for _, m := range []Mesh{TexturedCube(), ColoredCube()} {
		pos := positions(t, m)
		for i := 0; i < len(m.Indices); i += 3 {
			a, b, c := pos[m.Indices[i]], pos[m.Indices[i+1]], pos[m.Indices[i+2]]
			n := quarkgl.Cross(b.Sub(a), c.Sub(a))
			centroid := a.Add(b).Add(c).Mul(1.0 / 3)
			if d := quarkgl.Dot(n, centroid); d <= 0 {
				t.Fatalf("%s: triangle %d winds inward (dot=%v)", m.Name, i/3, d)
			}
		}
	}
}

func TestTexturedCubeCoordinates(t *testing.T) {
	vs := TexturedCube().Vertices.(device.VertexSlice)
	for i, v := range vs {
		if v.TU < 0 || v.TU > 1 || v.TV < 0 || v.TV > 1 {
			t.Fatalf("vertex %d: uv (%v,%v) outside [0,1]", i, v.TU, v.TV)
		}
		if v.NX != 0 || v.NY != 0 || v.NZ != 0 {
			t.Fatalf("vertex %d: normal (%v,%v,%v), want zero", i, v.NX, v.NY, v.NZ)
		}
	}
	// Each face covers the whole texture.
	for f := 0; f < 6; f++ {
		var sumU, sumV float32
		for _, v := range vs[f*4 : f*4+4] {
			sumU += v.TU
			sumV += v.TV
		}
		if sumU != 2 || sumV != 2 {
			t.Fatalf("face %d: uv sums (%v,%v), want (2,2)", f, sumU, sumV)
		}
	}
}

func TestColoredCubeCorners(t *testing.T) {
	vs := ColoredCube().Vertices.(device.LVertexSlice)
	seen := make(map[uint32]bool)
	for _, v := range vs {
		if v.Diffuse>>24 != 0xff {
			t.Fatalf("corner color %#x is not opaque", v.Diffuse)
		}
		seen[v.Diffuse] = true
	}
	if len(seen) != 8 {
		t.Fatalf("%d distinct corner colors, want 8", len(seen))
	}
}
