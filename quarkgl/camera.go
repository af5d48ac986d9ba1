package quarkgl

// Camera describes a fixed camera aimed at the origin.
type Camera struct {
	Position Vec3
	Up       Vec3
	Right    Vec3 // right-axis hint; zero derives it from Up

	FOVYRad Scalar
	Near    Scalar
	Far     Scalar
}

// DefaultCamera returns the camera used by the cube samples: 15 units in
// front of the origin, 90° vertical field of view, depth range [1, 100].
func DefaultCamera() Camera {
	return Camera{
		Position: V3(0, 0, -15),
		Up:       V3(0, 1, 0),
		Right:    V3(1, 0, 0),
		FOVYRad:  FullTurn / 4,
		Near:     1,
		Far:      100,
	}
}

// View returns the camera view matrix.
func (c Camera) View() (Mat4, error) {
	up := c.Up
	if up == (Vec3{}) {
		up = V3(0, 1, 0)
	}
	return ViewMatrix(c.Position, up, c.Right)
}

// Projection returns the projection matrix for a target aspect (width/height).
func (c Camera) Projection(aspect Scalar) (Mat4, error) {
	return ProjectionMatrix(c.FOVYRad, aspect, c.Near, c.Far)
}
