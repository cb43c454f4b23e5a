// Package tray puts the overlay's recovery menu in the system tray.
package tray

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Manager owns the tray menu.
type Manager struct {
	app    fyne.App
	menu   *fyne.Menu
	onShow func()
	onQuit func()
}

func New(app fyne.App, onShow, onQuit func()) *Manager {
	return &Manager{app: app, onShow: onShow, onQuit: onQuit}
}

// Setup installs the tray icon and menu. It fails where the driver has no tray.
func (m *Manager) Setup(title string) error {
	desk, ok := m.app.(desktop.App)
	if !ok {
		return fmt.Errorf("system tray not supported on this platform")
	}

	m.menu = fyne.NewMenu(title, m.Items()...)
	desk.SetSystemTrayMenu(m.menu)
	desk.SetSystemTrayIcon(Icon())
	log.Println("System tray initialized")
	return nil
}

// Items are the tray entries. Marking Quit stops fyne adding its own, which
// would skip the overlay's shutdown hooks.
func (m *Manager) Items() []*fyne.MenuItem {
	show := fyne.NewMenuItem("Show Overlay", func() {
		if m.onShow != nil {
			m.onShow()
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if m.onQuit != nil {
			m.onQuit()
		}
	})
	quit.IsQuit = true
	return []*fyne.MenuItem{show, fyne.NewMenuItemSeparator(), quit}
}
