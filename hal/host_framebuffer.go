package hal

import (
	"image"
	"sync"
)

type hostFramebuffer struct {
	mu       sync.Mutex
	width    int
	height   int
	stride   int
	format   PixelFormat
	buf      []byte
	presents uint64
}

// NewFramebuffer returns an in-memory framebuffer.
func NewFramebuffer(width, height int, format PixelFormat) Framebuffer {
	if format.BytesPerPixel() == 0 {
		format = PixelFormatRGB565
	}
	stride := width * format.BytesPerPixel()
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		format: format,
		buf:    make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Lock()               { f.mu.Lock() }
func (f *hostFramebuffer) Unlock()             { f.mu.Unlock() }
func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return f.format }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }

func (f *hostFramebuffer) Present() error {
	f.mu.Lock()
	f.presents++
	f.mu.Unlock()
	return nil
}

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.format {
	case PixelFormatRGB565:
		pixel := rgb565(r, g, b)
		lo := byte(pixel)
		hi := byte(pixel >> 8)
		for i := 0; i+1 < len(f.buf); i += 2 {
			f.buf[i] = lo
			f.buf[i+1] = hi
		}
	case PixelFormatRGBA8888:
		for i := 0; i+3 < len(f.buf); i += 4 {
			f.buf[i+0] = r
			f.buf[i+1] = g
			f.buf[i+2] = b
			f.buf[i+3] = 0xFF
		}
	case PixelFormatIndexed8:
		idx := paletteIndex(r, g, b)
		for i := range f.buf {
			f.buf[i] = idx
		}
	}
}

// snapshotRGBA copies region r of the screen into dst as RGBA bytes.
// Pixels outside the screen are black.
func (f *hostFramebuffer) snapshotRGBA(dst []byte, r image.Rectangle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bpp := f.format.BytesPerPixel()
	w := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			j := ((y-r.Min.Y)*w + (x - r.Min.X)) * 4
			if j+3 >= len(dst) {
				return
			}
			var cr, cg, cb uint8
			if x >= 0 && y >= 0 && x < f.width && y < f.height {
				off := y*f.stride + x*bpp
				switch f.format {
				case PixelFormatRGB565:
					cr, cg, cb = rgb888From565(uint16(f.buf[off]) | uint16(f.buf[off+1])<<8)
				case PixelFormatRGBA8888:
					cr, cg, cb = f.buf[off], f.buf[off+1], f.buf[off+2]
				case PixelFormatIndexed8:
					cr, cg, cb = paletteColor(f.buf[off])
				}
			}
			dst[j+0] = cr
			dst[j+1] = cg
			dst[j+2] = cb
			dst[j+3] = 0xFF
		}
	}
}

func (f *hostFramebuffer) presentCount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presents
}
