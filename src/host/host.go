// Package host owns the overlay window: its minimized/expanded state, click-through,
// icon dragging and the persisted icon position. It also serves the controller's
// capture, analyze and chat requests.
package host

import (
	"context"
	"fmt"
	"log"
	"sync"

	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/overlay"
	"screen-overlay-llm/src/settings"
)

// Capturer grabs the primary display as PNG.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Inference answers image and text prompts.
type Inference interface {
	DescribeImage(ctx context.Context, image []byte, query string) (string, error)
	Chat(ctx context.Context, message string) (string, error)
}

// Sizes are the window geometry constants.
type Sizes struct {
	Minimized overlay.Size
	Expanded  overlay.Size
	Margin    int
}

// DefaultSizes matches the 30x30 icon and 400x600 panel, 20px from the work-area edge.
var DefaultSizes = Sizes{
	Minimized: overlay.Size{W: 30, H: 30},
	Expanded:  overlay.Size{W: 400, H: 600},
	Margin:    20,
}

type Options struct {
	Window   overlay.Window
	Display  overlay.Display
	Store    settings.Store
	Capturer Capturer
	AI       Inference
	// Notify receives WindowStateChanged after each toggle.
	Notify func(messages.Message)
	Sizes  Sizes
}

type Host struct {
	win      overlay.Window
	display  overlay.Display
	store    settings.Store
	capturer Capturer
	ai       Inference
	notify   func(messages.Message)
	sizes    Sizes

	mu          sync.Mutex
	minimized   bool
	ignoreMouse bool
	dragStart   *overlay.Point

	quitMu   sync.Mutex
	onQuit   []func()
	quitOnce sync.Once
}

func New(opts Options) *Host {
	sizes := opts.Sizes
	if sizes == (Sizes{}) {
		sizes = DefaultSizes
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(messages.Message) {}
	}
	store := opts.Store
	if store == nil {
		store = settings.NewMemoryStore()
	}
	return &Host{
		win:       opts.Window,
		display:   opts.Display,
		store:     store,
		capturer:  opts.Capturer,
		ai:        opts.AI,
		notify:    notify,
		sizes:     sizes,
		minimized: true,
	}
}

// OnQuit registers a shutdown hook. Hooks run once, most recent first.
func (h *Host) OnQuit(fn func()) {
	h.quitMu.Lock()
	defer h.quitMu.Unlock()
	h.onQuit = append(h.onQuit, fn)
}

// Start places the window as the minimized icon and shows it.
func (h *Host) Start() error {
	h.mu.Lock()
	pos := h.iconPosition()
	h.minimized = true
	h.ignoreMouse = false
	h.dragStart = nil
	h.mu.Unlock()

	if err := h.win.SetBounds(overlay.NewRect(pos, h.sizes.Minimized)); err != nil {
		return fmt.Errorf("place overlay: %w", err)
	}
	if err := h.win.SetIgnoreMouseEvents(false, false); err != nil {
		log.Printf("Host: clearing click-through failed: %v", err)
	}
	h.win.Show()
	if err := h.win.SetAlwaysOnTop(true); err != nil {
		log.Printf("Host: always-on-top failed: %v", err)
	}
	log.Printf("Host: started minimized at (%d,%d)", pos.X, pos.Y)
	return nil
}

// DefaultIconPosition is the bottom-right corner of the work area, inset by the margin.
func (h *Host) DefaultIconPosition() overlay.Point {
	wa := h.display.WorkArea()
	return overlay.Point{
		X: wa.X + wa.W - h.sizes.Minimized.W - h.sizes.Margin,
		Y: wa.Y + wa.H - h.sizes.Minimized.H - h.sizes.Margin,
	}
}

// iconPosition returns the persisted icon position or the default. Caller holds h.mu.
func (h *Host) iconPosition() overlay.Point {
	var p overlay.Point
	found, err := h.store.Get(settings.KeyIconPosition, &p)
	if err != nil {
		log.Printf("Host: reading icon position failed, using default: %v", err)
		return h.DefaultIconPosition()
	}
	if !found {
		return h.DefaultIconPosition()
	}
	return p
}

// saveIconPosition persists the current window origin. Caller holds h.mu.
func (h *Host) saveIconPosition() {
	p := h.win.Bounds().Origin()
	if err := h.store.Set(settings.KeyIconPosition, p); err != nil {
		log.Printf("Host: saving icon position failed: %v", err)
		return
	}
	log.Printf("Host: icon position saved (%d,%d)", p.X, p.Y)
}

// ToggleWindow switches between the minimized icon and the expanded panel and
// notifies the controller of the new state.
func (h *Host) ToggleWindow() {
	h.mu.Lock()
	if h.minimized {
		h.saveIconPosition()
		h.minimized = false
		h.setIgnore(false, false)

		wa := h.display.WorkArea()
		exp := h.sizes.Expanded
		r := overlay.Rect{
			X: wa.X + wa.W - exp.W - h.sizes.Margin,
			Y: wa.Y + wa.H - exp.H - h.sizes.Margin,
			W: exp.W,
			H: exp.H,
		}
		if err := h.win.SetBounds(r); err != nil {
			log.Printf("Host: expanding failed: %v", err)
		}
	} else {
		pos := h.iconPosition()
		if err := h.win.SetBounds(overlay.NewRect(pos, h.sizes.Minimized)); err != nil {
			log.Printf("Host: minimizing failed: %v", err)
		}
		h.setIgnore(true, true)
		h.minimized = true
	}
	h.dragStart = nil
	minimized := h.minimized
	h.mu.Unlock()

	log.Printf("Host: window toggled, minimized=%v", minimized)
	h.notify(messages.WindowStateChanged{Minimized: minimized})
}

// setIgnore applies click-through. Caller holds h.mu.
func (h *Host) setIgnore(ignore, forward bool) {
	if err := h.win.SetIgnoreMouseEvents(ignore, forward); err != nil {
		log.Printf("Host: click-through %v failed: %v", ignore, err)
		return
	}
	h.ignoreMouse = ignore
}

// SetIgnoreMouseEvents turns click-through on (with pointer forwarding) or off.
func (h *Host) SetIgnoreMouseEvents(ignore bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setIgnore(ignore, ignore)
}

// ToggleClickThrough sets click-through to enabled, always forwarding pointer moves.
func (h *Host) ToggleClickThrough(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setIgnore(enabled, true)
}

// DragIcon moves the minimized icon to the drag start plus the cumulative delta.
// It is ignored while expanded and never persists.
func (h *Host) DragIcon(dx, dy int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.minimized {
		return
	}
	if h.dragStart == nil {
		start := h.win.Bounds().Origin()
		h.dragStart = &start
	}
	r := overlay.NewRect(h.dragStart.Add(dx, dy), h.sizes.Minimized)
	if err := h.win.SetBounds(r); err != nil {
		log.Printf("Host: drag move failed: %v", err)
	}
}

// DragIconEnd persists the icon position when minimized and always ends the drag.
func (h *Host) DragIconEnd() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.minimized {
		h.saveIconPosition()
	}
	h.dragStart = nil
}

// CaptureScreenshot grabs the primary display as PNG.
func (h *Host) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	if h.capturer == nil {
		return nil, fmt.Errorf("no capturer configured")
	}
	return h.capturer.Capture(ctx)
}

// Rescue brings the window back to the front. Bound to the global hotkey, the
// tray and a second launch.
func (h *Host) Rescue() {
	log.Printf("Host: rescue requested")
	h.win.Show()
	if err := h.win.SetAlwaysOnTop(true); err != nil {
		log.Printf("Host: always-on-top failed: %v", err)
	}
	h.win.Focus()
}

// Quit destroys the window and runs the shutdown hooks. Safe to call more than once.
func (h *Host) Quit() {
	h.quitOnce.Do(func() {
		log.Printf("Host: quitting")
		h.win.Destroy()

		h.quitMu.Lock()
		hooks := append([]func(){}, h.onQuit...)
		h.quitMu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
	})
}

// Bounds returns the current window bounds.
func (h *Host) Bounds() overlay.Rect { return h.win.Bounds() }

func (h *Host) Minimized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.minimized
}

func (h *Host) ignoringMouse() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ignoreMouse
}
