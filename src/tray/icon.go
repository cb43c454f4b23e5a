package tray

import "fyne.io/fyne/v2"

// iconSVG is a speech bubble over a screen frame.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="1.5" y="2" width="13" height="9" rx="1.5" fill="none" stroke="#ffffff" stroke-width="1.2"/>
  <line x1="5" y1="14" x2="11" y2="14" stroke="#ffffff" stroke-width="1.2" stroke-linecap="round"/>
  <path d="M5 5.2h6a1 1 0 0 1 1 1v1.6a1 1 0 0 1-1 1H7.4L5.6 10V8.8H5a1 1 0 0 1-1-1V6.2a1 1 0 0 1 1-1z" fill="#ffffff"/>
</svg>`

// Icon is used for both the tray and the minimized overlay.
func Icon() fyne.Resource {
	return fyne.NewStaticResource("overlay.svg", []byte(iconSVG))
}
