// Package geometry holds the static cube meshes.
package geometry

import "quarkcube/device"

// Mesh is an indexed triangle list. Meshes returned by this package share
// package-level tables and must not be modified.
type Mesh struct {
	Name     string
	Vertices device.Vertices
	Indices  []uint16
}

// Triangles returns the number of triangles in m.
func (m Mesh) Triangles() int { return len(m.Indices) / 3 }

// Corners of the colored cube.
const (
	cA = iota
	cB
	cC
	cD
	cE
	cF
	cG
	cH
)

var texturedVertices = device.VertexSlice{
	// y = -5
	{X: -5, Y: -5, Z: -5, TU: 1, TV: 1},
	{X: -5, Y: -5, Z: 5, TU: 1, TV: 0},
	{X: 5, Y: -5, Z: 5, TU: 0, TV: 0},
	{X: 5, Y: -5, Z: -5, TU: 0, TV: 1},
	// y = 5
	{X: -5, Y: 5, Z: -5, TU: 0, TV: 1},
	{X: 5, Y: 5, Z: -5, TU: 1, TV: 1},
	{X: 5, Y: 5, Z: 5, TU: 1, TV: 0},
	{X: -5, Y: 5, Z: 5, TU: 0, TV: 0},
	// z = -5
	{X: -5, Y: -5, Z: -5, TU: 0, TV: 1},
	{X: 5, Y: -5, Z: -5, TU: 1, TV: 1},
	{X: 5, Y: 5, Z: -5, TU: 1, TV: 0},
	{X: -5, Y: 5, Z: -5, TU: 0, TV: 0},
	// x = 5
	{X: 5, Y: -5, Z: -5, TU: 0, TV: 1},
	{X: 5, Y: -5, Z: 5, TU: 1, TV: 1},
	{X: 5, Y: 5, Z: 5, TU: 1, TV: 0},
	{X: 5, Y: 5, Z: -5, TU: 0, TV: 0},
	// z = 5
	{X: 5, Y: -5, Z: 5, TU: 0, TV: 1},
	{X: -5, Y: -5, Z: 5, TU: 1, TV: 1},
	{X: -5, Y: 5, Z: 5, TU: 1, TV: 0},
	{X: 5, Y: 5, Z: 5, TU: 0, TV: 0},
	// x = -5
	{X: -5, Y: -5, Z: 5, TU: 0, TV: 1},
	{X: -5, Y: -5, Z: -5, TU: 1, TV: 1},
	{X: -5, Y: 5, Z: -5, TU: 1, TV: 0},
	{X: -5, Y: 5, Z: 5, TU: 0, TV: 0},
}

var texturedIndices = []uint16{
	0, 2, 1, 2, 0, 3,
	4, 6, 5, 6, 4, 7,
	8, 10, 9, 10, 8, 11,
	12, 14, 13, 14, 12, 15,
	16, 18, 17, 18, 16, 19,
	20, 22, 21, 22, 20, 23,
}

var coloredVertices = device.LVertexSlice{
	cA: {X: -5, Y: -5, Z: -5, Diffuse: 0xffffffff},
	cB: {X: 5, Y: -5, Z: -5, Diffuse: 0xff000000},
	cC: {X: -5, Y: 5, Z: -5, Diffuse: 0xffff0000},
	cD: {X: 5, Y: 5, Z: -5, Diffuse: 0xff00ff00},
	cE: {X: -5, Y: -5, Z: 5, Diffuse: 0xff0000ff},
	cF: {X: 5, Y: -5, Z: 5, Diffuse: 0xffffff00},
	cG: {X: -5, Y: 5, Z: 5, Diffuse: 0xff00ffff},
	cH: {X: 5, Y: 5, Z: 5, Diffuse: 0xffff00ff},
}

var coloredIndices = []uint16{
	cA, cC, cD, cA, cD, cB, // front
	cE, cG, cC, cE, cC, cA, // left
	cG, cE, cF, cG, cF, cH, // back
	cB, cD, cH, cB, cH, cF, // right
	cC, cG, cH, cC, cH, cD, // top
	cE, cA, cB, cE, cB, cF, // bottom
}

// TexturedCube returns a 10-unit cube with four vertices per face so every
// face gets the whole texture.
func TexturedCube() Mesh {
	return Mesh{Name: "textured cube", Vertices: texturedVertices, Indices: texturedIndices}
}

// ColoredCube returns a 10-unit cube with one colored vertex per corner.
func ColoredCube() Mesh {
	return Mesh{Name: "colored cube", Vertices: coloredVertices, Indices: coloredIndices}
}
