package hal

import (
	"image"
	"sync"
)

type hostWindow struct {
	mu     sync.Mutex
	origin image.Point
	w, h   int
	ch     chan WindowEvent
}

func newHostWindow(x, y, w, h int) *hostWindow {
	return &hostWindow{
		origin: image.Pt(x, y),
		w:      w,
		h:      h,
		ch:     make(chan WindowEvent, 64),
	}
}

func (w *hostWindow) ClientSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

func (w *hostWindow) ClientOrigin() image.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.origin
}

func (w *hostWindow) Events() <-chan WindowEvent { return w.ch }

func (w *hostWindow) Move(x, y int) {
	w.mu.Lock()
	if w.origin == image.Pt(x, y) {
		w.mu.Unlock()
		return
	}
	w.origin = image.Pt(x, y)
	w.mu.Unlock()
	w.emit(WindowEvent{Kind: WindowMoved, X: x, Y: y})
}

func (w *hostWindow) Close() {
	w.emit(WindowEvent{Kind: WindowClosed})
}

func (w *hostWindow) emit(ev WindowEvent) {
	select {
	case w.ch <- ev:
	default:
	}
}

// clientRect returns the client area in screen coordinates.
func (w *hostWindow) clientRect() image.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return image.Rectangle{Min: w.origin, Max: w.origin.Add(image.Pt(w.w, w.h))}
}
