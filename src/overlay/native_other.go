//go:build !windows

package overlay

// Without a platform layer the window handle is never found, so NativeWindow
// falls back to fyne sizing and virtual positions.

func findWindow(string) uintptr           { return 0 }
func moveResize(uintptr, Rect) error      { return nil }
func setClickThrough(uintptr, bool) error { return nil }
func setTopmost(uintptr, bool) error      { return nil }
func bringToFront(uintptr)                {}
func hideFromTaskbar(uintptr)             {}
func workArea() (Rect, bool)              { return Rect{}, false }
