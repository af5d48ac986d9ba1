package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig describes the host screen and window.
type HostConfig struct {
	Title string

	// Width and Height are the client area size.
	Width, Height int

	// X and Y are the initial screen position of the client area.
	X, Y int

	// ScreenWidth and ScreenHeight default to the smallest screen
	// that holds the window.
	ScreenWidth, ScreenHeight int

	// Format defaults to PixelFormatRGB565.
	Format PixelFormat

	// Log defaults to os.Stdout.
	Log io.Writer
}

// DefaultHostConfig returns a 640x480 window at the screen origin.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		Title:  "Cube",
		Width:  640,
		Height: 480,
		Format: PixelFormatRGB565,
	}
}

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	win    *hostWindow
}

// New returns a host HAL implementation.
func New(cfg HostConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg HostConfig) *hostHAL {
	def := DefaultHostConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.Format == 0 {
		cfg.Format = def.Format
	}
	if cfg.ScreenWidth < cfg.X+cfg.Width {
		cfg.ScreenWidth = cfg.X + cfg.Width
	}
	if cfg.ScreenHeight < cfg.Y+cfg.Height {
		cfg.ScreenHeight = cfg.Y + cfg.Height
	}
	w := cfg.Log
	if w == nil {
		w = os.Stdout
	}
	return &hostHAL{
		logger: &hostLogger{w: w},
		fb:     NewFramebuffer(cfg.ScreenWidth, cfg.ScreenHeight, cfg.Format).(*hostFramebuffer),
		kbd:    newHostKeyboard(),
		win:    newHostWindow(cfg.X, cfg.Y, cfg.Width, cfg.Height),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Window() Window   { return h.win }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

// NewLogger returns a Logger writing one line per call to w.
func NewLogger(w io.Writer) Logger {
	return &hostLogger{w: w}
}

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
