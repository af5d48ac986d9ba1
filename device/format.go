package device

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math/bits"
)

// PixelFormatFlags describe what a pixel format encodes.
type PixelFormatFlags uint32

const (
	PFRGB PixelFormatFlags = 1 << iota
	PFAlphaPixels
	PFAlphaOnly
	PFLuminance
	PFBumpLuminance
	PFBumpDuDv
	PFFourCC
	PFPaletteIndexed8
)

// PixelFormat describes a pixel encoding by channel masks.
//
// Pixels are stored little-endian in RGBBitCount/8 bytes.
type PixelFormat struct {
	Flags       PixelFormatFlags
	FourCC      uint32
	RGBBitCount int
	RMask       uint32
	GMask       uint32
	BMask       uint32
	AMask       uint32
}

// Common pixel formats.
var (
	FormatPAL8     = PixelFormat{Flags: PFPaletteIndexed8, RGBBitCount: 8}
	FormatRGB565   = PixelFormat{Flags: PFRGB, RGBBitCount: 16, RMask: 0xF800, GMask: 0x07E0, BMask: 0x001F}
	FormatXRGB1555 = PixelFormat{Flags: PFRGB, RGBBitCount: 16, RMask: 0x7C00, GMask: 0x03E0, BMask: 0x001F}
	FormatARGB1555 = PixelFormat{Flags: PFRGB | PFAlphaPixels, RGBBitCount: 16, RMask: 0x7C00, GMask: 0x03E0, BMask: 0x001F, AMask: 0x8000}
	FormatARGB4444 = PixelFormat{Flags: PFRGB | PFAlphaPixels, RGBBitCount: 16, RMask: 0x0F00, GMask: 0x00F0, BMask: 0x000F, AMask: 0xF000}
	FormatRGB888   = PixelFormat{Flags: PFRGB, RGBBitCount: 24, RMask: 0xFF0000, GMask: 0x00FF00, BMask: 0x0000FF}
	FormatXRGB8888 = PixelFormat{Flags: PFRGB, RGBBitCount: 32, RMask: 0xFF0000, GMask: 0x00FF00, BMask: 0x0000FF}
	FormatARGB8888 = PixelFormat{Flags: PFRGB | PFAlphaPixels, RGBBitCount: 32, RMask: 0xFF0000, GMask: 0x00FF00, BMask: 0x0000FF, AMask: 0xFF000000}
	FormatL8       = PixelFormat{Flags: PFLuminance, RGBBitCount: 8, RMask: 0xFF}
	FormatA8       = PixelFormat{Flags: PFAlphaOnly, RGBBitCount: 8, AMask: 0xFF}
	FormatV8U8     = PixelFormat{Flags: PFBumpDuDv, RGBBitCount: 16, RMask: 0x00FF, GMask: 0xFF00}
	FormatL6V5U5   = PixelFormat{Flags: PFBumpLuminance, RGBBitCount: 16, RMask: 0x001F, GMask: 0x03E0, BMask: 0xFC00}
	FormatDXT1     = PixelFormat{Flags: PFFourCC, FourCC: MakeFourCC('D', 'X', 'T', '1')}
)

// MakeFourCC packs a four-character code.
func MakeFourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// BytesPerPixel returns the storage size of one pixel, or 0 for
// compressed formats.
func (f PixelFormat) BytesPerPixel() int {
	if f.Flags&PFFourCC != 0 {
		return 0
	}
	return (f.RGBBitCount + 7) / 8
}

// IsRGB reports whether the format stores direct RGB color.
func (f PixelFormat) IsRGB() bool {
	return f.Flags&PFRGB != 0 && f.Flags&(PFFourCC|PFPaletteIndexed8) == 0
}

// Pack encodes c into the raw pixel value of f.
func (f PixelFormat) Pack(c color.RGBA) uint32 {
	var v uint32
	v |= packChannel(c.R, f.RMask)
	v |= packChannel(c.G, f.GMask)
	v |= packChannel(c.B, f.BMask)
	if f.AMask != 0 {
		v |= packChannel(c.A, f.AMask)
	}
	if f.Flags&PFLuminance != 0 {
		l := uint8((uint32(c.R)*299 + uint32(c.G)*587 + uint32(c.B)*114) / 1000)
		v = packChannel(l, f.RMask)
	}
	return v
}

// Unpack decodes a raw pixel value of f.
func (f PixelFormat) Unpack(v uint32) color.RGBA {
	if f.Flags&PFLuminance != 0 {
		l := unpackChannel(v, f.RMask)
		return color.RGBA{R: l, G: l, B: l, A: 0xFF}
	}
	c := color.RGBA{
		R: unpackChannel(v, f.RMask),
		G: unpackChannel(v, f.GMask),
		B: unpackChannel(v, f.BMask),
		A: 0xFF,
	}
	if f.AMask != 0 {
		c.A = unpackChannel(v, f.AMask)
	}
	return c
}

// Store writes c at the start of dst.
func (f PixelFormat) Store(dst []byte, c color.RGBA) {
	v := f.Pack(c)
	switch f.BytesPerPixel() {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 3:
		dst[0], dst[1], dst[2] = byte(v), byte(v>>8), byte(v>>16)
	case 4:
		binary.LittleEndian.PutUint32(dst, v)
	}
}

// Load reads the pixel at the start of src.
func (f PixelFormat) Load(src []byte) color.RGBA {
	var v uint32
	switch f.BytesPerPixel() {
	case 1:
		v = uint32(src[0])
	case 2:
		v = uint32(binary.LittleEndian.Uint16(src))
	case 3:
		v = uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
	case 4:
		v = binary.LittleEndian.Uint32(src)
	}
	return f.Unpack(v)
}

func (f PixelFormat) String() string {
	switch {
	case f.Flags&PFFourCC != 0:
		b := []byte{byte(f.FourCC), byte(f.FourCC >> 8), byte(f.FourCC >> 16), byte(f.FourCC >> 24)}
		return fmt.Sprintf("FOURCC(%s)", b)
	case f.Flags&PFPaletteIndexed8 != 0:
		return "PAL8"
	case f.Flags&PFLuminance != 0:
		return fmt.Sprintf("L%d", f.RGBBitCount)
	case f.Flags&PFAlphaOnly != 0:
		return fmt.Sprintf("A%d", f.RGBBitCount)
	case f.Flags&(PFBumpDuDv|PFBumpLuminance) != 0:
		return fmt.Sprintf("BUMP%d", f.RGBBitCount)
	}
	return fmt.Sprintf("RGB%d(a=%d r=%d g=%d b=%d)", f.RGBBitCount,
		bits.OnesCount32(f.AMask), bits.OnesCount32(f.RMask), bits.OnesCount32(f.GMask), bits.OnesCount32(f.BMask))
}

func packChannel(v uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	max := uint32(1)<<width - 1
	return ((uint32(v)*max + 127) / 255) << shift & mask
}

func unpackChannel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	max := uint32(1)<<width - 1
	return uint8(((v&mask)>>shift*255 + max/2) / max)
}
