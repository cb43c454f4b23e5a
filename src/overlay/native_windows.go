//go:build windows

package overlay

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
)

const lwaAlpha = 0x00000002

func findWindow(title string) uintptr {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0
	}
	return uintptr(win.FindWindow(nil, titlePtr))
}

func moveResize(h uintptr, r Rect) error {
	if !win.MoveWindow(win.HWND(h), int32(r.X), int32(r.Y), int32(r.W), int32(r.H), true) {
		return fmt.Errorf("MoveWindow failed: %w", windows.GetLastError())
	}
	return nil
}

// setClickThrough toggles WS_EX_TRANSPARENT. The layered style needs an alpha
// value or the window stops drawing.
func setClickThrough(h uintptr, on bool) error {
	hwnd := win.HWND(h)
	exStyle := win.GetWindowLong(hwnd, win.GWL_EXSTYLE)
	newStyle := exStyle &^ win.WS_EX_TRANSPARENT
	if on {
		newStyle = exStyle | win.WS_EX_TRANSPARENT | win.WS_EX_LAYERED
	}
	win.SetWindowLong(hwnd, win.GWL_EXSTYLE, newStyle)
	if newStyle&win.WS_EX_LAYERED != 0 {
		ret, _, err := procSetLayeredWindowAttributes.Call(h, 0, 255, lwaAlpha)
		if ret == 0 {
			return fmt.Errorf("SetLayeredWindowAttributes failed: %w", err)
		}
	}
	return nil
}

func setTopmost(h uintptr, on bool) error {
	insertAfter := win.HWND_NOTOPMOST
	if on {
		insertAfter = win.HWND_TOPMOST
	}
	if !win.SetWindowPos(win.HWND(h), insertAfter, 0, 0, 0, 0, win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOACTIVATE) {
		return fmt.Errorf("SetWindowPos failed: %w", windows.GetLastError())
	}
	return nil
}

func bringToFront(h uintptr) {
	hwnd := win.HWND(h)
	win.ShowWindow(hwnd, win.SW_RESTORE)
	win.SetWindowPos(hwnd, win.HWND_TOPMOST, 0, 0, 0, 0, win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_SHOWWINDOW)
	win.BringWindowToTop(hwnd)
	win.SetForegroundWindow(hwnd)
}

// hideFromTaskbar turns the overlay into a tool window.
func hideFromTaskbar(h uintptr) {
	hwnd := win.HWND(h)
	exStyle := win.GetWindowLong(hwnd, win.GWL_EXSTYLE)
	win.SetWindowLong(hwnd, win.GWL_EXSTYLE, (exStyle|win.WS_EX_TOOLWINDOW)&^win.WS_EX_APPWINDOW)
}

func workArea() (Rect, bool) {
	var r win.RECT
	if !win.SystemParametersInfo(win.SPI_GETWORKAREA, 0, unsafe.Pointer(&r), 0) {
		return Rect{}, false
	}
	if r.Right <= r.Left || r.Bottom <= r.Top {
		return Rect{}, false
	}
	return Rect{X: int(r.Left), Y: int(r.Top), W: int(r.Right - r.Left), H: int(r.Bottom - r.Top)}, true
}
