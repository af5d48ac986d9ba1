//go:build cgo

package hal

import (
	"errors"
	"image"

	"quarkcube/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens a desktop window showing the part of the screen under its
// client area and forwards keyboard and window messages.
// It blocks until the window closes or the app quits.
func RunWindow(newApp func(HAL) (App, error), cfg HostConfig) error {
	if cfg.ScreenWidth == 0 && cfg.ScreenHeight == 0 {
		cfg.ScreenWidth, cfg.ScreenHeight = ebiten.ScreenSizeInFullscreen()
	}
	h := newHost(cfg)
	app, err := newApp(h)
	if err != nil {
		return err
	}
	defer app.Close()

	g := &hostGame{h: h, app: app}
	title := cfg.Title
	if title == "" {
		title = DefaultHostConfig().Title
	}
	w, hh := h.win.ClientSize()
	ebiten.SetWindowTitle(title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(w, hh)
	o := h.win.ClientOrigin()
	ebiten.SetWindowPosition(o.X, o.Y)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

type hostGame struct {
	h     *hostHAL
	app   App
	img   []byte
	fbImg *ebiten.Image
}

func (g *hostGame) Update() error {
	g.h.kbd.poll()
	x, y := ebiten.WindowPosition()
	g.h.win.Move(x, y)
	if ebiten.IsWindowBeingClosed() {
		g.h.win.Close()
	}
	if err := g.app.Step(); err != nil {
		if errors.Is(err, ErrQuit) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	r := g.h.win.clientRect()
	w, h := r.Dx(), r.Dy()
	if g.fbImg == nil || g.fbImg.Bounds() != image.Rect(0, 0, w, h) {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(w, h)
		g.img = make([]byte, w*h*4)
	}

	g.h.fb.snapshotRGBA(g.img, r)
	g.fbImg.WritePixels(g.img)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.win.ClientSize()
}
