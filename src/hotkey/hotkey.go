// Package hotkey listens to the global keyboard and pointer streams. Key combos
// trigger bound callbacks; pointer events feed the overlay's gesture handling.
package hotkey

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

type PointerKind int

const (
	PointerMoved PointerKind = iota
	PointerPressed
	PointerReleased
)

func (k PointerKind) String() string {
	switch k {
	case PointerMoved:
		return "moved"
	case PointerPressed:
		return "pressed"
	case PointerReleased:
		return "released"
	}
	return "unknown"
}

// PointerEvent is a global pointer event in screen coordinates.
type PointerEvent struct {
	Kind PointerKind
	X, Y int
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

type binding struct {
	combo    string
	keys     []keyState
	callback func()
}

// Listener fans the global input hook out to key bindings and pointer
// subscribers. Callbacks run on the hook goroutine and must not block.
type Listener struct {
	mu       sync.Mutex
	bindings []*binding
	pointer  []func(PointerEvent)
	cursorX  int
	cursorY  int
	hasPos   bool
	running  bool
	done     chan struct{}
}

func NewListener() *Listener {
	return &Listener{}
}

// Bind registers callback for a combo such as "Alt+S" or "Ctrl+Shift+F13".
func (l *Listener) Bind(combo string, callback func()) error {
	var keys []keyState
	for _, name := range parseHotkey(combo) {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return fmt.Errorf("hotkey %q: unknown key %q", combo, name)
		}
		keys = append(keys, keyState{name: name, rawcodes: rawcodes})
	}
	if len(keys) == 0 {
		return fmt.Errorf("hotkey %q: no keys", combo)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.bindings = append(l.bindings, &binding{combo: combo, keys: keys, callback: callback})
	log.Printf("Hotkey: bound %s", combo)
	return nil
}

// OnPointer subscribes fn to global pointer events.
func (l *Listener) OnPointer(fn func(PointerEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pointer = append(l.pointer, fn)
}

// cursor returns the last pointer position seen by the hook.
func (l *Listener) cursor() (x, y int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursorX, l.cursorY, l.hasPos
}

// Start installs the OS hook and begins dispatching. It is a no-op when already
// running.
func (l *Listener) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		log.Printf("Hotkey: global hook started")
		l.consume(evChan)
		log.Printf("Hotkey: event channel closed")
	}()
}

// Stop removes the OS hook and waits for the dispatcher to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	done := l.done
	l.mu.Unlock()

	gohook.End()
	<-done
}

func (l *Listener) consume(events <-chan gohook.Event) {
	for ev := range events {
		l.dispatch(ev)
	}
}

func (l *Listener) dispatch(ev gohook.Event) {
	switch ev.Kind {
	case gohook.KeyDown, gohook.KeyHold:
		l.keyPressed(ev.Rawcode)
	case gohook.KeyUp:
		l.keyReleased(ev.Rawcode)
	case gohook.MouseMove, gohook.MouseDrag:
		l.pointerEvent(PointerMoved, ev)
	case gohook.MouseHold:
		l.pointerEvent(PointerPressed, ev)
	case gohook.MouseDown, gohook.MouseUp:
		l.pointerEvent(PointerReleased, ev)
	}
}

func (l *Listener) keyPressed(rawcode uint16) {
	var fire []func()

	l.mu.Lock()
	for _, b := range l.bindings {
		matched := false
		for i := range b.keys {
			if containsCode(b.keys[i].rawcodes, rawcode) {
				b.keys[i].pressed = true
				matched = true
			}
		}
		if !matched || !allPressed(b.keys) {
			continue
		}
		log.Printf("Hotkey: %s detected", b.combo)
		for i := range b.keys {
			b.keys[i].pressed = false
		}
		if b.callback != nil {
			fire = append(fire, b.callback)
		}
	}
	l.mu.Unlock()

	for _, cb := range fire {
		cb()
	}
}

func (l *Listener) keyReleased(rawcode uint16) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.bindings {
		for i := range b.keys {
			if containsCode(b.keys[i].rawcodes, rawcode) {
				b.keys[i].pressed = false
			}
		}
	}
}

func (l *Listener) pointerEvent(kind PointerKind, ev gohook.Event) {
	pe := PointerEvent{Kind: kind, X: int(ev.X), Y: int(ev.Y)}

	l.mu.Lock()
	l.cursorX, l.cursorY, l.hasPos = pe.X, pe.Y, true
	subs := make([]func(PointerEvent), len(l.pointer))
	copy(subs, l.pointer)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(pe)
	}
}

func containsCode(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func allPressed(keys []keyState) bool {
	for _, k := range keys {
		if !k.pressed {
			return false
		}
	}
	return true
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "option":
			keys = append(keys, "alt")
		case "win", "cmd", "super", "meta":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// keyNameToRawcodes maps a key name to Windows virtual key codes. Modifiers
// return both the left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // VK 0x41-0x5A
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48} // VK 0x30-0x39
		}
	}
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}

	switch keyName {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "win", "cmd", "super":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32}
	case "enter", "return":
		return []uint16{13}
	case "esc", "escape":
		return []uint16{27}
	case "tab":
		return []uint16{9}
	case "backspace":
		return []uint16{8}
	case "delete", "del":
		return []uint16{46}
	case "insert", "ins":
		return []uint16{45}
	case "home":
		return []uint16{36}
	case "end":
		return []uint16{35}
	case "pageup", "pgup":
		return []uint16{33}
	case "pagedown", "pgdn":
		return []uint16{34}
	case "left":
		return []uint16{37}
	case "up":
		return []uint16{38}
	case "right":
		return []uint16{39}
	case "down":
		return []uint16{40}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
