package gui

import (
	"sync"

	"screen-overlay-llm/src/hotkey"
	"screen-overlay-llm/src/overlay"
)

// Gestures receives pointer input in screen coordinates.
type Gestures interface {
	PointerDown(p overlay.Point)
	PointerMove(p overlay.Point)
	PointerUp(p overlay.Point)
	HoverEnter()
	HoverLeave()
	OutsideClick()
}

// WindowState is what the forwarder needs to hit-test the overlay.
type WindowState interface {
	Bounds() overlay.Rect
	Minimized() bool
}

// PointerForwarder turns the global pointer stream into overlay gestures. The
// minimized icon is click-through most of the time, so the window itself never
// sees these events.
type PointerForwarder struct {
	gestures Gestures
	window   WindowState

	mu      sync.Mutex
	inside  bool
	pressed bool
}

func NewPointerForwarder(g Gestures, w WindowState) *PointerForwarder {
	return &PointerForwarder{gestures: g, window: w}
}

// Handle is safe to register with hotkey.Listener.OnPointer.
func (f *PointerForwarder) Handle(e hotkey.PointerEvent) {
	p := overlay.Point{X: e.X, Y: e.Y}
	minimized := f.window.Minimized()
	inside := f.window.Bounds().Contains(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch e.Kind {
	case hotkey.PointerMoved:
		if f.pressed {
			f.gestures.PointerMove(p)
			return
		}
		if inside == f.inside {
			return
		}
		f.inside = inside
		if !minimized {
			return
		}
		if inside {
			f.gestures.HoverEnter()
		} else {
			f.gestures.HoverLeave()
		}

	case hotkey.PointerPressed:
		switch {
		case minimized && inside:
			f.pressed = true
			f.gestures.PointerDown(p)
		case !minimized && !inside:
			f.gestures.OutsideClick()
		}

	case hotkey.PointerReleased:
		if !f.pressed {
			return
		}
		f.pressed = false
		f.gestures.PointerUp(p)
	}
}
