package overlay

import (
	"image"
	"log"
	"sync"

	"fyne.io/fyne/v2"
)

// NativeWindow drives a fyne window. Placement, click-through and z-order go
// through the platform layer when one is available; elsewhere only the size is
// applied and the position is tracked virtually.
type NativeWindow struct {
	win   fyne.Window
	title string

	mu     sync.Mutex
	bounds Rect
	handle uintptr
}

func NewNativeWindow(win fyne.Window) *NativeWindow {
	return &NativeWindow{win: win, title: win.Title()}
}

// nativeHandle resolves the platform handle lazily; the native window only
// exists once fyne has shown it.
func (w *NativeWindow) nativeHandle() uintptr {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handle == 0 {
		w.handle = findWindow(w.title)
		if w.handle != 0 {
			hideFromTaskbar(w.handle)
		}
	}
	return w.handle
}

// SetBounds records r and applies it on the fyne goroutine. Placement failures
// are logged there since the call returns before they happen.
func (w *NativeWindow) SetBounds(r Rect) error {
	w.mu.Lock()
	w.bounds = r
	w.mu.Unlock()

	fyne.Do(func() {
		w.win.Resize(fyne.NewSize(float32(r.W), float32(r.H)))
		if h := w.nativeHandle(); h != 0 {
			if err := moveResize(h, r); err != nil {
				log.Printf("Overlay: placing window at %s failed: %v", r, err)
			}
		}
	})
	return nil
}

func (w *NativeWindow) Bounds() Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

// SetIgnoreMouseEvents toggles click-through. Forwarding needs no native support:
// pointer moves arrive through the global input hook either way.
func (w *NativeWindow) SetIgnoreMouseEvents(ignore, _ bool) error {
	h := w.nativeHandle()
	if h == 0 {
		return nil
	}
	return setClickThrough(h, ignore)
}

func (w *NativeWindow) SetAlwaysOnTop(onTop bool) error {
	h := w.nativeHandle()
	if h == 0 {
		return nil
	}
	return setTopmost(h, onTop)
}

func (w *NativeWindow) Show() {
	fyne.Do(func() {
		w.win.Show()
		if h := w.nativeHandle(); h != 0 {
			b := w.Bounds()
			if b.W > 0 && b.H > 0 {
				if err := moveResize(h, b); err != nil {
					log.Printf("Overlay: reapplying bounds after show failed: %v", err)
				}
			}
		}
	})
}

func (w *NativeWindow) Focus() {
	fyne.Do(func() {
		w.win.RequestFocus()
		if h := w.nativeHandle(); h != 0 {
			bringToFront(h)
		}
	})
}

func (w *NativeWindow) Destroy() {
	fyne.Do(func() { w.win.Close() })
}

// ScreenDisplay answers WorkArea from the OS when it can, then from the primary
// display bounds, then from a 1920x1080 default.
type ScreenDisplay struct {
	Primary func() (image.Rectangle, error)
}

func (d ScreenDisplay) WorkArea() Rect {
	if r, ok := workArea(); ok {
		return r
	}
	if d.Primary != nil {
		if b, err := d.Primary(); err == nil && !b.Empty() {
			return Rect{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()}
		}
	}
	return Rect{W: 1920, H: 1080}
}
