package device

import "image"

// CoopLevel is the cooperative level of a provider.
type CoopLevel uint8

const (
	// CoopNormal renders into a window alongside other applications.
	CoopNormal CoopLevel = iota + 1
	// CoopExclusive takes the whole display.
	CoopExclusive
)

// Caps are surface capability flags.
type Caps uint32

const (
	CapsPrimarySurface Caps = 1 << iota
	CapsOffscreenPlain
	Caps3DDevice
	CapsZBuffer
	CapsTexture
	CapsSystemMemory
)

func (c Caps) Has(f Caps) bool { return c&f == f }

// SurfaceDesc describes a surface.
//
// Width, Height and Format are ignored for the primary surface, which
// takes the size and format of the display. ZBufferBitDepth is only
// used with CapsZBuffer.
type SurfaceDesc struct {
	Caps            Caps
	Width           int
	Height          int
	Format          PixelFormat
	ZBufferBitDepth int
}

// BltFlags modify a blit.
type BltFlags uint32

const (
	// BltWait waits for the target to become available instead
	// of failing with ErrWasStillDrawing.
	BltWait BltFlags = 1 << iota
)

// ClearFlags select what a viewport clear touches.
type ClearFlags uint32

const (
	ClearTarget ClearFlags = 1 << iota
	ClearZBuffer
)

// DeviceID identifies a device type.
type DeviceID uint8

const (
	// DeviceHAL is the hardware-accelerated device.
	DeviceHAL DeviceID = iota + 1
	// DeviceRGB is the software emulation device.
	DeviceRGB
)

func (id DeviceID) String() string {
	switch id {
	case DeviceHAL:
		return "HAL"
	case DeviceRGB:
		return "RGB"
	default:
		return "unknown"
	}
}

// BitDepths is a set of supported bit depths.
type BitDepths uint32

const (
	BD32 BitDepths = 0x100
	BD24 BitDepths = 0x200
	BD16 BitDepths = 0x400
	BD8  BitDepths = 0x800
)

// Deepest returns the largest depth in the set, or 0 when the set is empty.
func (b BitDepths) Deepest() int {
	switch {
	case b&BD32 != 0:
		return 32
	case b&BD24 != 0:
		return 24
	case b&BD16 != 0:
		return 16
	case b&BD8 != 0:
		return 8
	default:
		return 0
	}
}

// DeviceDesc describes an enumerated device.
type DeviceDesc struct {
	ID               DeviceID
	Name             string
	Description      string
	Hardware         bool
	ZBufferBitDepths BitDepths
}

// TransformState selects a transform matrix.
type TransformState uint8

const (
	TransformWorld TransformState = iota
	TransformView
	TransformProjection
)

// RenderState selects a device render state.
type RenderState uint8

const (
	// RenderStateCullMode takes a Cull value.
	RenderStateCullMode RenderState = iota + 1
	// RenderStateTexturePerspective takes 0 or 1.
	RenderStateTexturePerspective
	// RenderStateTextureHandle takes a TextureHandle; 0 unbinds.
	RenderStateTextureHandle
	// RenderStateZEnable takes 0 or 1.
	RenderStateZEnable
	// RenderStateFillMode takes a Fill value.
	RenderStateFillMode
)

// Cull values for RenderStateCullMode, in screen-space winding.
const (
	CullNone uint32 = iota + 1
	CullCW
	CullCCW
)

// Fill values for RenderStateFillMode.
const (
	FillPoint uint32 = iota + 1
	FillWireframe
	FillSolid
)

// TextureStageState selects a texture stage state.
type TextureStageState uint8

const (
	TSSMinFilter TextureStageState = iota + 1
	TSSMagFilter
)

// Texture filter values.
const (
	FilterPoint uint32 = iota + 1
	FilterLinear
)

// MaxTextureStages is the number of texture stages a device exposes.
const MaxTextureStages = 8

// PrimitiveType is the topology of a draw call.
type PrimitiveType uint8

const (
	TriangleList PrimitiveType = iota + 1
	PointList
)

// VertexFormat identifies a vertex layout.
type VertexFormat uint8

const (
	// FormatVertex is position, normal, texture coordinate.
	FormatVertex VertexFormat = iota + 1
	// FormatLVertex is position, diffuse, specular, texture coordinate.
	FormatLVertex
)

// Vertex is an untransformed vertex with a normal and texture coordinate.
type Vertex struct {
	X, Y, Z    float32
	NX, NY, NZ float32
	TU, TV     float32
}

// LVertex is an untransformed, pre-lit vertex.
type LVertex struct {
	X, Y, Z  float32
	Diffuse  uint32 // 0xAARRGGBB
	Specular uint32
	TU, TV   float32
}

// Vertices is a vertex buffer passed to DrawIndexedPrimitive.
type Vertices interface {
	Format() VertexFormat
	Len() int
}

// VertexSlice is a Vertices of Vertex.
type VertexSlice []Vertex

func (s VertexSlice) Format() VertexFormat { return FormatVertex }
func (s VertexSlice) Len() int             { return len(s) }

// LVertexSlice is a Vertices of LVertex.
type LVertexSlice []LVertex

func (s LVertexSlice) Format() VertexFormat { return FormatLVertex }
func (s LVertexSlice) Len() int             { return len(s) }

// ViewportParams describe a viewport.
//
// X, Y, Width and Height are in render-target pixels. The clip rectangle
// names the top-left corner (ClipX, ClipY) and extent of the clip-space
// region mapped onto those pixels.
type ViewportParams struct {
	X, Y          int
	Width, Height int

	ClipX, ClipY          float32
	ClipWidth, ClipHeight float32

	MinZ, MaxZ float32
}

// Rect returns the pixel rectangle of the viewport.
func (p ViewportParams) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// ColorValue is a floating-point color with channels in [0, 1].
type ColorValue struct {
	R, G, B, A float32
}

// ARGB packs the color as 0xAARRGGBB.
func (c ColorValue) ARGB() uint32 {
	ch := func(v float32) uint32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 0xFF
		}
		return uint32(v*255 + 0.5)
	}
	return ch(c.A)<<24 | ch(c.R)<<16 | ch(c.G)<<8 | ch(c.B)
}

// MaterialDesc describes a material.
type MaterialDesc struct {
	Diffuse  ColorValue
	Ambient  ColorValue
	Specular ColorValue
	Emissive ColorValue
	Power    float32
	RampSize int
}

// MaterialHandle identifies a material on a device. Zero is no material.
type MaterialHandle uint32

// TextureHandle identifies a texture on a device. Zero is no texture.
type TextureHandle uint32
