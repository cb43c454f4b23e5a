//go:build windows

package notification

import (
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

func showMessageBox(title, message string) error {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	msgPtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}
	win.MessageBox(0, msgPtr, titlePtr, win.MB_OK|win.MB_ICONERROR|win.MB_SYSTEMMODAL)
	return nil
}
