package gui

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"

	"screen-overlay-llm/src/transcript"
)

type actionLog struct {
	calls []string
}

func (a *actionLog) Capture()           { a.calls = append(a.calls, "capture") }
func (a *actionLog) Submit(q string)    { a.calls = append(a.calls, "submit:"+q) }
func (a *actionLog) ToggleAutoAnalyze() { a.calls = append(a.calls, "auto") }
func (a *actionLog) ClearScreenshot()   { a.calls = append(a.calls, "clear") }
func (a *actionLog) CopyLastAnswer()    { a.calls = append(a.calls, "copy") }
func (a *actionLog) RequestToggle()     { a.calls = append(a.calls, "toggle") }
func (a *actionLog) Quit()              { a.calls = append(a.calls, "quit") }

func newTestUI(t *testing.T) (*UI, *actionLog) {
	t.Helper()
	app := test.NewTempApp(t)
	win := app.NewWindow(WindowTitle)
	u := New(win, theme.FyneLogo())
	actions := &actionLog{}
	u.Bind(actions)
	return u, actions
}

func TestShowMinimizedSwapsViews(t *testing.T) {
	u, _ := newTestUI(t)
	assert.True(t, u.iconView.Visible())
	assert.False(t, u.panelView.Visible())

	u.ShowMinimized(false)
	assert.False(t, u.iconView.Visible())
	assert.True(t, u.panelView.Visible())

	u.ShowMinimized(true)
	assert.True(t, u.iconView.Visible())
}

func TestAppendEntryAddsRichText(t *testing.T) {
	u, _ := newTestUI(t)

	u.AppendEntry(transcript.Entry{Role: transcript.RoleUser, Text: "hi"})
	u.AppendEntry(transcript.Entry{Role: transcript.RoleAssistant, Text: "**hello**"})

	assert.Len(t, u.chat.Objects, 2)
}

func TestInputControls(t *testing.T) {
	u, actions := newTestUI(t)

	u.SetInputEnabled(false)
	assert.True(t, u.input.Disabled())
	assert.True(t, u.sendBtn.Disabled())

	u.SetInputEnabled(true)
	u.input.SetText("what is this?")
	test.Tap(u.sendBtn)
	assert.Equal(t, []string{"submit:what is this?"}, actions.calls)

	u.ClearInput()
	assert.Empty(t, u.input.Text)
}

func TestPreviewAndBusy(t *testing.T) {
	u, _ := newTestUI(t)

	u.ShowPreview([]byte("png"))
	assert.True(t, u.previewBox.Visible())
	assert.NotNil(t, u.preview.Resource)

	u.ShowPreview(nil)
	assert.False(t, u.previewBox.Visible())

	u.SetBusy(true)
	assert.True(t, u.progress.Visible())
	u.SetBusy(false)
	assert.False(t, u.progress.Visible())
}
