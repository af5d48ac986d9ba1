// Package quarkgl provides the math and the fixed-function rasterizer behind the
// software device.
//
// Pipeline (fixed):
//
//	World → View → Projection → Cull → Viewport mapping → Rasterization → Target.
//
// Matrices follow the row-vector convention of classic fixed-function APIs
// (v' = v·M, translation in the last row). In memory that is exactly the
// column-major layout of mgl32.Mat4 with column vectors, so a matrix written as
// sixteen literals here is used unchanged by Mat4.Mul4x1.
//
// The rasterizer draws into a caller-provided Target and an optional DepthTarget.
// It does not allocate in the per-pixel path.
package quarkgl
