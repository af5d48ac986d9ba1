package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"iter"
	"os"

	"quarkcube/device"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// ErrFormatNotFound means the device offers no usable texture format of any
// requested depth.
var ErrFormatNotFound = errors.New("render: no usable texture format")

// PreferredDepths are the texture bit depths LoadTexture asks for, in order.
var PreferredDepths = []int{32, 16}

// Decoder decodes an image file.
type Decoder func(r io.Reader) (image.Image, error)

// DecodeBMP decodes an uncompressed Windows bitmap.
func DecodeBMP(r io.Reader) (image.Image, error) { return bmp.Decode(r) }

// usableTextureFormat accepts plain RGB formats: no alpha, luminance, bump
// map, palette or compressed encodings.
func usableTextureFormat(pf device.PixelFormat) bool {
	if pf.Flags&(device.PFLuminance|device.PFAlphaPixels|device.PFAlphaOnly) != 0 {
		return false
	}
	if pf.Flags&(device.PFBumpLuminance|device.PFBumpDuDv) != 0 {
		return false
	}
	if pf.Flags&(device.PFFourCC|device.PFPaletteIndexed8) != 0 || pf.FourCC != 0 {
		return false
	}
	return pf.Flags&device.PFRGB != 0
}

// NegotiateFormat returns the first usable format of formats whose bit count
// is depths[0], then depths[1] and so on.
func NegotiateFormat(formats iter.Seq[device.PixelFormat], depths ...int) (device.PixelFormat, error) {
	for _, want := range depths {
		pf, ok := first(formats, func(pf device.PixelFormat) bool {
			return pf.RGBBitCount == want && usableTextureFormat(pf)
		})
		if ok {
			return pf, nil
		}
	}
	return device.PixelFormat{}, ErrFormatNotFound
}

// LoadStage is the texture loading stage that failed.
type LoadStage uint8

const (
	StageOpen LoadStage = iota + 1
	StageDecode
	StageNegotiate
	StageCreateSurface
	StageCopy
	StageCreateTexture
	StageHandle
)

func (s LoadStage) String() string {
	switch s {
	case StageOpen:
		return "open"
	case StageDecode:
		return "decode"
	case StageNegotiate:
		return "negotiate format"
	case StageCreateSurface:
		return "create surface"
	case StageCopy:
		return "copy pixels"
	case StageCreateTexture:
		return "create texture"
	case StageHandle:
		return "texture handle"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// LoadError reports why a texture could not be loaded.
type LoadError struct {
	Path  string
	Stage LoadStage
	Err   error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("render: texture %v: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("render: texture %s: %v: %v", e.Path, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Texture is an image uploaded to the device of an environment.
type Texture struct {
	tex    device.Texture
	handle device.TextureHandle

	// surf and img refill the texture after its surface was lost.
	surf device.Surface
	img  image.Image

	Path   string
	Width  int
	Height int
	Format device.PixelFormat
}

// Handle returns the device handle of t.
func (t *Texture) Handle() device.TextureHandle { return t.handle }

// Release frees the texture. It must not be bound to a device.
func (t *Texture) Release() error {
	if t == nil || t.tex == nil {
		return nil
	}
	if err := t.tex.Release(); err != nil {
		return err
	}
	t.tex = nil
	t.handle = 0
	if t.surf != nil {
		if err := t.surf.Release(); err != nil {
			return err
		}
		t.surf = nil
	}
	t.img = nil
	return nil
}

// restore reallocates a lost texture surface and copies the image back in.
func (t *Texture) restore() error {
	if t == nil || t.surf == nil {
		return nil
	}
	if err := t.surf.IsLost(); !errors.Is(err, device.ErrSurfaceLost) {
		return nil
	}
	if err := t.surf.Restore(); err != nil {
		return err
	}
	return copyImage(t.surf, t.img)
}

// LoadTexture decodes the image at path and uploads it. A nil decode reads
// a bitmap.
func LoadTexture(env *Environment, path string, decode Decoder) (*Texture, error) {
	if decode == nil {
		decode = DecodeBMP
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Stage: StageOpen, Err: errors.WithStack(err)}
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, &LoadError{Path: path, Stage: StageDecode, Err: errors.Wrap(err, "decode image")}
	}
	t, err := UploadTexture(env, img)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	t.Path = path
	return t, nil
}

// UploadTexture creates a texture holding img in the best format the device
// of env offers.
func UploadTexture(env *Environment, img image.Image) (*Texture, error) {
	if env == nil || env.dev == nil {
		return nil, &LoadError{Stage: StageNegotiate, Err: errors.WithStack(device.ErrReleased)}
	}
	pf, err := NegotiateFormat(env.dev.TextureFormats(), PreferredDepths...)
	if err != nil {
		return nil, &LoadError{Stage: StageNegotiate, Err: err}
	}

	b := img.Bounds()
	s, err := env.provider.CreateSurface(device.SurfaceDesc{
		Caps:   device.CapsTexture,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: pf,
	})
	if err != nil {
		return nil, &LoadError{Stage: StageCreateSurface, Err: errors.Wrapf(err, "%dx%d %v", b.Dx(), b.Dy(), pf)}
	}
	if err := copyImage(s, img); err != nil {
		env.release("texture surface", s)
		return nil, &LoadError{Stage: StageCopy, Err: errors.WithStack(err)}
	}
	tex, err := env.d3d.CreateTexture(s)
	if err != nil {
		env.release("texture surface", s)
		return nil, &LoadError{Stage: StageCreateTexture, Err: errors.WithStack(err)}
	}
	h, err := tex.Handle(env.dev)
	if err != nil {
		env.release("texture", tex)
		env.release("texture surface", s)
		return nil, &LoadError{Stage: StageHandle, Err: errors.WithStack(err)}
	}
	return &Texture{
		tex:    tex,
		handle: h,
		surf:   s,
		img:    img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: pf,
	}, nil
}

// copyImage stores img into the memory of s pixel by pixel.
func copyImage(s device.Surface, img image.Image) error {
	lr, err := s.Lock()
	if err != nil {
		return err
	}
	b := img.Bounds()
	bpp := lr.Format.BytesPerPixel()
	for y := 0; y < lr.Height; y++ {
		row := lr.Pix[y*lr.Stride:]
		for x := 0; x < lr.Width; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			lr.Format.Store(row[x*bpp:], c)
		}
	}
	return s.Unlock()
}

// SetTexture loads path and draws it on the mesh from the next frame on.
// On failure the previous texture is kept and the error is returned; the
// caller may carry on untextured.
func (e *Environment) SetTexture(path string, decode Decoder) error {
	t, err := LoadTexture(e, path, decode)
	if err != nil {
		e.logf("render: texture unavailable: %v", err)
		return err
	}
	e.replaceTexture(t)
	e.logf("render: texture %s %dx%d %v", path, t.Width, t.Height, t.Format)
	return nil
}

// SetTextureImage is SetTexture for a decoded image.
func (e *Environment) SetTextureImage(img image.Image) error {
	t, err := UploadTexture(e, img)
	if err != nil {
		e.logf("render: texture unavailable: %v", err)
		return err
	}
	e.replaceTexture(t)
	return nil
}

func (e *Environment) replaceTexture(t *Texture) {
	if prev := e.texture; prev != nil {
		e.check("unbind texture", e.dev.SetTexture(0, nil))
		e.check("release texture", prev.Release())
	}
	e.texture = t
}

// Checkerboard returns a size×size image of cells×cells squares alternating
// between a and b. It stands in when no texture file is given.
func Checkerboard(size, cells int, a, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	if cells <= 0 {
		cells = 1
	}
	cell := max(size/cells, 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
