package app

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"quarkcube/device"
	"quarkcube/device/soft"
	"quarkcube/geometry"
	"quarkcube/hal"
	"quarkcube/internal/buildinfo"
	"quarkcube/quarkgl"
	"quarkcube/render"
)

// Variant selects the mesh drawn by the app.
type Variant string

const (
	VariantTextured Variant = "textured"
	VariantColored  Variant = "colored"
)

// ParseVariant parses a -variant flag value.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantTextured, VariantColored:
		return v, nil
	default:
		return "", fmt.Errorf("unknown variant %q (want textured or colored)", s)
	}
}

type Config struct {
	Variant Variant

	// Texture is a bitmap path for the textured variant. Empty uses a
	// checkerboard.
	Texture string

	Depth   bool
	Overlay bool
	Camera  quarkgl.Camera

	// DisplayBits overrides the display depth reported by the device:
	// 8, 16 or 32. Zero follows the framebuffer.
	DisplayBits int
}

// DefaultConfig returns the textured cube without a z-buffer seen from the
// default camera.
func DefaultConfig() Config {
	return Config{
		Variant: VariantTextured,
		Camera:  quarkgl.DefaultCamera(),
	}
}

func displayFormat(bits int) (device.PixelFormat, error) {
	switch bits {
	case 0:
		return device.PixelFormat{}, nil
	case 8:
		return device.FormatPAL8, nil
	case 16:
		return device.FormatRGB565, nil
	case 32:
		return device.FormatXRGB8888, nil
	default:
		return device.PixelFormat{}, fmt.Errorf("unsupported display depth %d", bits)
	}
}

// App draws the cube once per Step.
type App struct {
	h   hal.HAL
	log hal.Logger
	cfg Config

	env   *render.Environment
	frame *render.Frame
	anim  *render.Animation
	mesh  geometry.Mesh

	keys   <-chan hal.KeyEvent
	events <-chan hal.WindowEvent

	closeOnce sync.Once
}

var _ hal.App = (*App)(nil)

// New builds the device environment on the display of h.
func New(h hal.HAL, cfg Config) (*App, error) {
	if cfg.Variant == "" {
		cfg.Variant = VariantTextured
	}
	a := &App{
		h:     h,
		log:   h.Logger(),
		cfg:   cfg,
		frame: render.NewFrame(),
		anim:  render.NewAnimation(),
	}

	var fb hal.Framebuffer
	if d := h.Display(); d != nil {
		fb = d.Framebuffer()
	}
	if fb == nil {
		return nil, errors.New("app: no framebuffer")
	}
	win := h.Window()
	if win == nil {
		return nil, errors.New("app: no window")
	}
	df, err := displayFormat(cfg.DisplayBits)
	if err != nil {
		return nil, err
	}

	p := soft.New(soft.Config{Display: fb, DisplayFormat: df, Logger: a.log})
	opts := render.DefaultOptions()
	opts.Depth = cfg.Depth
	opts.Logger = a.log
	if cfg.Camera != (quarkgl.Camera{}) {
		opts.Camera = cfg.Camera
	}
	a.env, err = render.Initialize(p, win, opts)
	if err != nil {
		return nil, err
	}

	switch cfg.Variant {
	case VariantColored:
		a.mesh = geometry.ColoredCube()
	default:
		a.mesh = geometry.TexturedCube()
		a.loadTexture()
	}
	if cfg.Overlay {
		a.frame.Overlay = render.NewOverlay()
	}

	if in := h.Input(); in != nil {
		if kbd := in.Keyboard(); kbd != nil {
			a.keys = kbd.Events()
		}
	}
	a.events = win.Events()

	a.logf("cube %s: %s, depth=%v", buildinfo.Short(), a.mesh.Name, cfg.Depth)
	return a, nil
}

// loadTexture binds the configured texture. The cube is drawn untextured
// when it cannot be loaded.
func (a *App) loadTexture() {
	if a.cfg.Texture != "" {
		if err := a.env.SetTexture(a.cfg.Texture, nil); err == nil {
			return
		}
	}
	img := render.Checkerboard(64, 8,
		color.RGBA{R: 0xD0, G: 0x30, B: 0x30, A: 0xFF},
		color.RGBA{R: 0xF0, G: 0xE0, B: 0x90, A: 0xFF})
	if err := a.env.SetTextureImage(img); err != nil {
		a.logf("app: drawing untextured")
	}
}

// Environment returns the device environment, nil after Close.
func (a *App) Environment() *render.Environment { return a.env }

// Frame returns the frame state machine.
func (a *App) Frame() *render.Frame { return a.frame }

// Step handles pending window and keyboard events and renders one frame.
// It returns hal.ErrQuit when the window was closed or escape pressed.
func (a *App) Step() (err error) {
	defer a.recoverPanic(&err)

	if err := a.poll(); err != nil {
		return err
	}
	if err := a.anim.Update(a.env); err != nil {
		return err
	}
	if _, err := a.frame.Render(a.env, a.mesh); err != nil {
		if errors.Is(err, device.ErrSurfaceLost) {
			return a.env.Restore()
		}
		return err
	}
	return nil
}

func (a *App) poll() error {
	for {
		select {
		case ev := <-a.events:
			switch ev.Kind {
			case hal.WindowMoved:
				a.env.Move(ev.X, ev.Y)
			case hal.WindowClosed:
				a.logf("app: window closed")
				return hal.ErrQuit
			}
		case ev := <-a.keys:
			if ev.Press && ev.Code == hal.KeyEscape {
				a.logf("app: escape")
				return hal.ErrQuit
			}
		default:
			return nil
		}
	}
}

// Close tears the environment down. Only the first call does anything.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		st := a.frame.Stats()
		a.logf("app: %d frames, %d dropped", st.Rendered, st.Abandoned)
		a.env.Teardown()
		a.env = nil
	})
}

func (a *App) logf(format string, args ...any) {
	if a.log != nil {
		a.log.WriteLineString(fmt.Sprintf(format, args...))
	}
}
