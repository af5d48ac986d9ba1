// Package hal is the host abstraction the renderer runs on: a line logger,
// a display framebuffer, keyboard input and the window the picture is
// presented in.
package hal

import (
	"errors"
	"image"
	"sync"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// ErrQuit is returned by App.Step to stop the runner cleanly.
var ErrQuit = errors.New("quit")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb, little-endian.
	PixelFormatRGB565 PixelFormat = iota + 1
	// PixelFormatRGBA8888 is 32bpp, bytes in R, G, B, A order.
	PixelFormatRGBA8888
	// PixelFormatIndexed8 is 8bpp palette indices.
	PixelFormatIndexed8
)

// BytesPerPixel returns the storage size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGB565:
		return 2
	case PixelFormatRGBA8888:
		return 4
	case PixelFormatIndexed8:
		return 1
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGB565:
		return "RGB565"
	case PixelFormatRGBA8888:
		return "RGBA8888"
	case PixelFormatIndexed8:
		return "Indexed8"
	default:
		return "unknown"
	}
}

// Framebuffer is the screen: a pixel buffer plus a "present" hook.
//
// Writers hold the lock while touching Buffer.
type Framebuffer interface {
	sync.Locker

	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeySpace
	KeyF1
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// WindowEventKind is the kind of a WindowEvent.
type WindowEventKind uint8

const (
	// WindowMoved reports a new client origin in X, Y.
	WindowMoved WindowEventKind = iota + 1
	// WindowClosed reports that the user closed the window.
	WindowClosed
)

func (k WindowEventKind) String() string {
	switch k {
	case WindowMoved:
		return "moved"
	case WindowClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WindowEvent is a window message.
type WindowEvent struct {
	Kind WindowEventKind
	X, Y int
}

// Window is the on-screen window the picture is presented in.
type Window interface {
	// ClientSize returns the size of the drawable client area.
	ClientSize() (w, h int)

	// ClientOrigin returns the screen position of the client area's
	// top-left corner.
	ClientOrigin() image.Point

	// Events delivers window messages. Events are dropped when the
	// consumer falls behind.
	Events() <-chan WindowEvent

	// Move places the client origin at (x, y) and emits WindowMoved.
	Move(x, y int)

	// Close emits WindowClosed.
	Close()
}

// App is what a runner drives: Step once per tick, Close once on exit.
type App interface {
	// Step advances the application by one frame. Returning ErrQuit
	// stops the runner without an error.
	Step() error

	// Close releases everything the application holds.
	Close()
}

// HAL provides the only contact point between the renderer and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Window() Window
}
