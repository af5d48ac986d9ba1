package hal

// Store encodes an opaque color into the first pixel of dst.
func (f PixelFormat) Store(dst []byte, r, g, b uint8) {
	switch f {
	case PixelFormatRGB565:
		p := rgb565(r, g, b)
		dst[0] = byte(p)
		dst[1] = byte(p >> 8)
	case PixelFormatRGBA8888:
		dst[0] = r
		dst[1] = g
		dst[2] = b
		dst[3] = 0xFF
	case PixelFormatIndexed8:
		dst[0] = paletteIndex(r, g, b)
	}
}

// Load decodes the first pixel of src.
func (f PixelFormat) Load(src []byte) (r, g, b uint8) {
	switch f {
	case PixelFormatRGB565:
		return rgb888From565(uint16(src[0]) | uint16(src[1])<<8)
	case PixelFormatRGBA8888:
		return src[0], src[1], src[2]
	case PixelFormatIndexed8:
		return paletteColor(src[0])
	}
	return 0, 0, 0
}

func rgb565(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>2) & 0x3F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 5) | bb
}

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}

// The indexed palette is fixed 3-3-2.
func paletteIndex(r, g, b uint8) uint8 {
	return (r & 0xE0) | (g&0xE0)>>3 | b>>6
}

func paletteColor(i uint8) (r, g, b uint8) {
	r = uint8(uint16(i>>5) * 255 / 7)
	g = uint8(uint16((i>>2)&0x07) * 255 / 7)
	b = uint8(uint16(i&0x03) * 255 / 3)
	return r, g, b
}
