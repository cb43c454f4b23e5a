// Package gui is the fyne front end: the minimized icon, the chat panel and
// the glue that forwards global pointer input to the controller.
package gui

import (
	"image/color"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screen-overlay-llm/src/transcript"
)

// WindowTitle is also how the platform layer finds the native window.
const WindowTitle = "Screen Overlay LLM"

var (
	colorPanel = color.RGBA{32, 33, 35, 235}
	colorIcon  = color.RGBA{88, 140, 236, 255}
)

// Actions are the user intents the panel can raise.
type Actions interface {
	Capture()
	Submit(query string)
	ToggleAutoAnalyze()
	ClearScreenshot()
	CopyLastAnswer()
	RequestToggle()
	Quit()
}

// UI owns the overlay window's content. Its View methods may be called from any
// goroutine; widget updates are marshalled with fyne.Do.
type UI struct {
	win     fyne.Window
	actions Actions

	iconView  *fyne.Container
	panelView *fyne.Container

	chat       *fyne.Container
	scroll     *container.Scroll
	preview    *canvas.Image
	previewBox *fyne.Container
	progress   *widget.ProgressBarInfinite
	input      *widget.Entry
	sendBtn    *widget.Button
	autoBtn    *widget.Button
}

// NewWindow creates the undecorated overlay window.
func NewWindow(app fyne.App) fyne.Window {
	var win fyne.Window
	if drv, ok := app.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
		win.SetTitle(WindowTitle)
	} else {
		win = app.NewWindow(WindowTitle)
	}
	win.SetPadded(false)
	return win
}

func New(win fyne.Window, icon fyne.Resource) *UI {
	u := &UI{win: win}

	iconImg := canvas.NewImageFromResource(icon)
	iconImg.FillMode = canvas.ImageFillContain
	bubble := canvas.NewCircle(colorIcon)
	u.iconView = container.NewStack(bubble, container.NewPadded(iconImg))

	u.chat = container.NewVBox()
	u.scroll = container.NewVScroll(u.chat)

	u.preview = canvas.NewImageFromResource(nil)
	u.preview.FillMode = canvas.ImageFillContain
	u.preview.SetMinSize(fyne.NewSize(0, 120))
	clearBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { u.act(Actions.ClearScreenshot) })
	u.previewBox = container.NewBorder(nil, nil, nil, container.NewVBox(clearBtn), u.preview)
	u.previewBox.Hide()

	u.progress = widget.NewProgressBarInfinite()
	u.progress.Stop()
	u.progress.Hide()

	u.input = widget.NewEntry()
	u.input.SetPlaceHolder("Ask about the screenshot or chat...")
	u.input.OnSubmitted = func(text string) {
		if u.actions != nil {
			u.actions.Submit(text)
		}
	}
	u.sendBtn = widget.NewButtonWithIcon("", theme.MailSendIcon(), func() {
		if u.actions != nil {
			u.actions.Submit(u.input.Text)
		}
	})

	u.autoBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { u.act(Actions.ToggleAutoAnalyze) })
	header := container.NewHBox(
		widget.NewLabelWithStyle("AI Assistant", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		layout.NewSpacer(),
		u.autoBtn,
		widget.NewButtonWithIcon("", theme.MediaPhotoIcon(), func() { u.act(Actions.Capture) }),
		widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() { u.act(Actions.CopyLastAnswer) }),
		widget.NewButtonWithIcon("", theme.WindowMinimizeIcon(), func() { u.act(Actions.RequestToggle) }),
		widget.NewButtonWithIcon("", theme.WindowCloseIcon(), func() { u.act(Actions.Quit) }),
	)
	footer := container.NewVBox(
		u.previewBox,
		u.progress,
		container.NewBorder(nil, nil, nil, u.sendBtn, u.input),
	)
	body := container.NewBorder(header, footer, nil, nil, u.scroll)
	u.panelView = container.NewStack(canvas.NewRectangle(colorPanel), container.NewPadded(body))
	u.panelView.Hide()

	win.SetContent(container.NewStack(u.iconView, u.panelView))
	return u
}

// Bind connects the panel's buttons to a. Closing the window counts as quit.
func (u *UI) Bind(a Actions) {
	u.actions = a
	u.win.SetCloseIntercept(a.Quit)
}

func (u *UI) act(fn func(Actions)) {
	if u.actions == nil {
		return
	}
	fn(u.actions)
}

func (u *UI) ShowMinimized(minimized bool) {
	fyne.Do(func() {
		if minimized {
			u.panelView.Hide()
			u.iconView.Show()
			return
		}
		u.iconView.Hide()
		u.panelView.Show()
		u.scroll.ScrollToBottom()
	})
}

func (u *UI) AppendEntry(e transcript.Entry) {
	fyne.Do(func() {
		rt := widget.NewRichText(segments(e)...)
		rt.Wrapping = fyne.TextWrapWord
		u.chat.Add(rt)
		u.scroll.ScrollToBottom()
	})
}

func (u *UI) SetBusy(busy bool) {
	fyne.Do(func() {
		if busy {
			u.progress.Show()
			u.progress.Start()
			return
		}
		u.progress.Stop()
		u.progress.Hide()
	})
}

func (u *UI) SetInputEnabled(enabled bool) {
	fyne.Do(func() {
		if enabled {
			u.input.Enable()
			u.sendBtn.Enable()
			return
		}
		u.input.Disable()
		u.sendBtn.Disable()
	})
}

func (u *UI) ClearInput() {
	fyne.Do(func() { u.input.SetText("") })
}

func (u *UI) FocusInput() {
	fyne.Do(func() { u.win.Canvas().Focus(u.input) })
}

func (u *UI) ShowPreview(png []byte) {
	fyne.Do(func() {
		if len(png) == 0 {
			u.preview.Resource = nil
			u.preview.Refresh()
			u.previewBox.Hide()
			return
		}
		u.preview.Resource = fyne.NewStaticResource("screenshot.png", png)
		u.preview.Refresh()
		u.previewBox.Show()
	})
}

func (u *UI) SetAutoAnalyze(on bool) {
	fyne.Do(func() {
		if on {
			u.autoBtn.SetIcon(theme.MediaPlayIcon())
			u.autoBtn.Importance = widget.HighImportance
		} else {
			u.autoBtn.SetIcon(theme.MediaPauseIcon())
			u.autoBtn.Importance = widget.MediumImportance
		}
		u.autoBtn.Refresh()
		log.Printf("GUI: auto-analyze %v", on)
	})
}
