package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-overlay-llm/src/llm"
	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/overlay"
	"screen-overlay-llm/src/screenshot"
	"screen-overlay-llm/src/transcript"
)

const (
	waitFor = time.Second
	tick    = 2 * time.Millisecond
)

type fakeBus struct {
	mu      sync.Mutex
	sent    []messages.Message
	invoked []messages.Message
	handler func(ctx context.Context, msg messages.Message) (messages.Message, error)
}

func (b *fakeBus) Send(msg messages.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, msg)
	return nil
}

func (b *fakeBus) Invoke(ctx context.Context, msg messages.Message) (messages.Message, error) {
	b.mu.Lock()
	b.invoked = append(b.invoked, msg)
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		return nil, errors.New("no handler")
	}
	return h(ctx, msg)
}

func (b *fakeBus) sentMessages() []messages.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messages.Message(nil), b.sent...)
}

func (b *fakeBus) invokedMessages() []messages.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messages.Message(nil), b.invoked...)
}

func (b *fakeBus) sentCount(msg messages.Message) int {
	n := 0
	for _, m := range b.sentMessages() {
		if assert.ObjectsAreEqual(msg, m) {
			n++
		}
	}
	return n
}

type fakeView struct {
	mu           sync.Mutex
	minimized    []bool
	entries      []transcript.Entry
	busy         bool
	inputEnabled bool
	cleared      int
	focused      int
	preview      []byte
	previewCalls int
	autoAnalyze  bool
}

func (v *fakeView) ShowMinimized(m bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.minimized = append(v.minimized, m)
}

func (v *fakeView) AppendEntry(e transcript.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, e)
}

func (v *fakeView) SetBusy(b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = b
}

func (v *fakeView) SetInputEnabled(e bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputEnabled = e
}

func (v *fakeView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *fakeView) FocusInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused++
}

func (v *fakeView) ShowPreview(png []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = png
	v.previewCalls++
}

func (v *fakeView) SetAutoAnalyze(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.autoAnalyze = on
}

func (v *fakeView) texts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		out = append(out, e.Text)
	}
	return out
}

func (v *fakeView) state() (busy, input bool, focused int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.busy, v.inputEnabled, v.focused
}

type harness struct {
	ctrl   *Controller
	bus    *fakeBus
	view   *fakeView
	notify chan messages.MessageEnvelope
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.AutoAnalyzeDelay = 5 * time.Millisecond
	opts.ReleaseDelay = 5 * time.Millisecond
	opts.ClickDelay = time.Millisecond
	return opts
}

func start(t *testing.T, opts Options, bus *fakeBus) *harness {
	t.Helper()
	if bus == nil {
		bus = &fakeBus{}
	}
	h := &harness{
		bus:    bus,
		view:   &fakeView{},
		notify: make(chan messages.MessageEnvelope, 4),
	}
	h.ctrl = New(bus, h.view, opts)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.ctrl.Run(ctx, h.notify)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	h.sync(t)
	return h
}

// sync waits until every previously posted event has run.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	h.ctrl.post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("controller loop stuck")
	}
}

func (h *harness) setMinimized(t *testing.T, minimized bool) {
	t.Helper()
	h.view.mu.Lock()
	seen := len(h.view.minimized)
	h.view.mu.Unlock()

	h.notify <- messages.MessageEnvelope{
		From:    messages.ProcessHost,
		To:      messages.ProcessController,
		Message: messages.WindowStateChanged{Minimized: minimized},
	}
	require.Eventually(t, func() bool {
		h.view.mu.Lock()
		defer h.view.mu.Unlock()
		return len(h.view.minimized) > seen
	}, waitFor, tick)
	h.sync(t)
}

func TestClickTogglesWithoutDrag(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.PointerDown(overlay.Point{X: 100, Y: 100})
	h.ctrl.PointerMove(overlay.Point{X: 101, Y: 99})
	h.ctrl.PointerUp(overlay.Point{X: 101, Y: 99})

	assert.Eventually(t, func() bool {
		return h.bus.sentCount(messages.ToggleWindow{}) == 1
	}, waitFor, tick)
	assert.Equal(t, messages.SetIgnoreMouseEvents{Ignore: false}, h.bus.sentMessages()[0])
	for _, m := range h.bus.sentMessages() {
		assert.NotEqual(t, messages.TypeDragIcon, m.Type())
		assert.NotEqual(t, messages.TypeDragIconEnd, m.Type())
	}
}

func TestDragMovesIconAndDoesNotToggle(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.PointerDown(overlay.Point{X: 100, Y: 100})
	h.ctrl.PointerMove(overlay.Point{X: 105, Y: 100})
	h.ctrl.PointerUp(overlay.Point{X: 105, Y: 100})

	assert.Eventually(t, func() bool {
		return h.bus.sentCount(messages.SetIgnoreMouseEvents{Ignore: true}) == 1
	}, waitFor, tick, "click-through comes back after the release delay")

	assert.Equal(t, []messages.Message{
		messages.SetIgnoreMouseEvents{Ignore: false},
		messages.DragIcon{DeltaX: 5, DeltaY: 0},
		messages.DragIconEnd{},
		messages.SetIgnoreMouseEvents{Ignore: true},
	}, h.bus.sentMessages())

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, h.bus.sentCount(messages.ToggleWindow{}))
}

func TestDragDeltasAreCumulative(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.PointerDown(overlay.Point{X: 10, Y: 10})
	h.ctrl.PointerMove(overlay.Point{X: 30, Y: 10})
	h.ctrl.PointerMove(overlay.Point{X: 11, Y: 10})
	h.ctrl.PointerMove(overlay.Point{X: 0, Y: -5})
	h.ctrl.PointerUp(overlay.Point{X: 0, Y: -5})
	h.sync(t)

	var drags []messages.Message
	for _, m := range h.bus.sentMessages() {
		if m.Type() == messages.TypeDragIcon {
			drags = append(drags, m)
		}
	}
	// The move back within the threshold is not re-sent, but the gesture stays a drag.
	assert.Equal(t, []messages.Message{
		messages.DragIcon{DeltaX: 20, DeltaY: 0},
		messages.DragIcon{DeltaX: -10, DeltaY: -15},
	}, drags)
	assert.Equal(t, 1, h.bus.sentCount(messages.DragIconEnd{}))
}

func TestPointerIgnoredWhileExpanded(t *testing.T) {
	h := start(t, fastOptions(), nil)
	h.setMinimized(t, false)
	before := len(h.bus.sentMessages())

	h.ctrl.PointerDown(overlay.Point{X: 0, Y: 0})
	h.ctrl.PointerMove(overlay.Point{X: 50, Y: 50})
	h.ctrl.PointerUp(overlay.Point{X: 50, Y: 50})
	h.sync(t)
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, h.bus.sentMessages(), before)
}

func TestMoveWithoutPressIsIgnored(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.PointerMove(overlay.Point{X: 50, Y: 50})
	h.ctrl.PointerUp(overlay.Point{X: 50, Y: 50})
	h.sync(t)

	assert.Empty(t, h.bus.sentMessages())
}

func TestHover(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.HoverEnter()
	h.ctrl.HoverLeave()
	h.sync(t)
	assert.Equal(t, []messages.Message{
		messages.SetIgnoreMouseEvents{Ignore: false},
		messages.SetIgnoreMouseEvents{Ignore: true},
	}, h.bus.sentMessages())

	h.setMinimized(t, false)
	before := len(h.bus.sentMessages())
	h.ctrl.HoverLeave()
	h.sync(t)
	assert.Len(t, h.bus.sentMessages(), before, "leaving while expanded keeps the panel clickable")
}

func TestOutsideClickCollapsesOnlyWhenExpanded(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.OutsideClick()
	h.sync(t)
	assert.Zero(t, h.bus.sentCount(messages.ToggleWindow{}))

	h.setMinimized(t, false)
	h.ctrl.OutsideClick()
	h.sync(t)
	assert.Equal(t, 1, h.bus.sentCount(messages.ToggleWindow{}))
}

func TestWindowStateChangedUpdatesView(t *testing.T) {
	h := start(t, fastOptions(), nil)
	h.setMinimized(t, false)
	h.setMinimized(t, true)

	h.view.mu.Lock()
	defer h.view.mu.Unlock()
	assert.Equal(t, []bool{true, false, true}, h.view.minimized)
}

func TestButtonsSendCommands(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.RequestToggle()
	h.ctrl.Quit()
	h.sync(t)

	assert.Equal(t, []messages.Message{messages.ToggleWindow{}, messages.QuitApp{}}, h.bus.sentMessages())
}

func TestSingleFlight(t *testing.T) {
	release := make(chan struct{})
	bus := &fakeBus{handler: func(ctx context.Context, msg messages.Message) (messages.Message, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return messages.AssistantReply{Text: "first answer"}, nil
	}}
	h := start(t, fastOptions(), bus)

	h.ctrl.Submit("first")
	h.sync(t)
	h.ctrl.Submit("second")
	h.ctrl.Capture()
	h.sync(t)

	assert.Len(t, bus.invokedMessages(), 1)
	assert.Equal(t, []string{"first"}, h.view.texts())
	busy, input, _ := h.view.state()
	assert.True(t, busy)
	assert.True(t, input, "no screenshot held, chat keeps the input open")

	close(release)
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)
	assert.Equal(t, []string{"first", "first answer"}, h.view.texts())
	assert.Len(t, bus.invokedMessages(), 1)

	busy, input, _ = h.view.state()
	assert.False(t, busy)
	assert.True(t, input)
}

func TestInputOpenDuringChatWithoutScreenshot(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	bus := &fakeBus{handler: func(ctx context.Context, msg messages.Message) (messages.Message, error) {
		<-release
		return messages.AssistantReply{Text: "x"}, nil
	}}
	h := start(t, fastOptions(), bus)

	h.ctrl.Submit("hello")
	h.sync(t)
	busy, input, _ := h.view.state()
	assert.True(t, busy)
	assert.True(t, input)
}

func TestInputLockedWhileAnalyzingHeldScreenshot(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	bus := captureBus(func(q string) (messages.Message, error) {
		<-release
		return messages.AssistantReply{Text: "described"}, nil
	})
	opts := fastOptions()
	opts.AutoAnalyze = false
	h := start(t, opts, bus)

	h.ctrl.Capture()
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 1 }, waitFor, tick)
	h.sync(t)
	_, input, _ := h.view.state()
	assert.True(t, input)

	h.ctrl.Submit("what is this?")
	h.sync(t)
	busy, input, _ := h.view.state()
	assert.True(t, busy)
	assert.False(t, input)

	// Dropping the screenshot mid-request reopens the input.
	h.ctrl.ClearScreenshot()
	h.sync(t)
	busy, input, _ = h.view.state()
	assert.True(t, busy)
	assert.True(t, input)
}

func TestKeepInputEnabled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	bus := captureBus(func(q string) (messages.Message, error) {
		<-release
		return messages.AssistantReply{Text: "x"}, nil
	})
	opts := fastOptions()
	opts.AutoAnalyze = false
	opts.KeepInputEnabled = true
	h := start(t, opts, bus)

	h.ctrl.Capture()
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 1 }, waitFor, tick)
	h.ctrl.Submit("hi")
	h.sync(t)
	busy, input, _ := h.view.state()
	assert.True(t, busy)
	assert.True(t, input)
}

func TestChatWithoutScreenshot(t *testing.T) {
	bus := &fakeBus{handler: func(_ context.Context, msg messages.Message) (messages.Message, error) {
		return messages.AssistantReply{Text: "**hi** there"}, nil
	}}
	h := start(t, fastOptions(), bus)

	h.ctrl.Submit("  hello  ")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)

	assert.Equal(t, []messages.Message{messages.Chat{Message: "hello"}}, bus.invokedMessages())
	assert.Equal(t, []string{"hello", "**hi** there"}, h.view.texts())

	entries := h.ctrl.Transcript().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, transcript.RoleUser, entries[0].Role)
	assert.Equal(t, transcript.RoleAssistant, entries[1].Role)
	assert.Equal(t, transcript.Span{Text: "hi", Bold: true}, entries[1].Spans[0])
}

func TestEmptySubmitWithoutScreenshotIsNoop(t *testing.T) {
	bus := &fakeBus{}
	h := start(t, fastOptions(), bus)

	h.ctrl.Submit("   ")
	h.sync(t)

	assert.Empty(t, bus.invokedMessages())
	assert.Empty(t, h.view.texts())
}

func captureBus(analyze func(q string) (messages.Message, error)) *fakeBus {
	return &fakeBus{handler: func(_ context.Context, msg messages.Message) (messages.Message, error) {
		switch m := msg.(type) {
		case messages.CaptureScreenshot:
			return messages.ScreenshotCaptured{Image: []byte("png-bytes")}, nil
		case messages.AnalyzeScreenshot:
			return analyze(m.Query)
		case messages.Chat:
			return messages.AssistantReply{Text: "chat: " + m.Message}, nil
		}
		return nil, errors.New("unexpected")
	}}
}

func TestCaptureAutoAnalyzes(t *testing.T) {
	bus := captureBus(func(q string) (messages.Message, error) {
		return messages.AssistantReply{Text: "ANSWER: B"}, nil
	})
	h := start(t, fastOptions(), bus)

	h.ctrl.Capture()
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)

	assert.Equal(t, []string{"📸 Screenshot captured!", "ANSWER: B"}, h.view.texts())
	assert.Equal(t, []messages.Message{
		messages.CaptureScreenshot{},
		messages.AnalyzeScreenshot{Image: []byte("png-bytes"), Query: AnalysisPrompt},
	}, bus.invokedMessages())

	h.view.mu.Lock()
	assert.Equal(t, []byte("png-bytes"), h.view.preview)
	h.view.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, bus.invokedMessages(), 2, "exactly one analysis per capture")
}

func TestCaptureWithoutAutoAnalyze(t *testing.T) {
	bus := captureBus(func(q string) (messages.Message, error) {
		return messages.AssistantReply{Text: "described"}, nil
	})
	opts := fastOptions()
	opts.AutoAnalyze = false
	opts.ShowPreview = false
	h := start(t, opts, bus)

	h.ctrl.Capture()
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 1 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)

	assert.Len(t, bus.invokedMessages(), 1)
	_, input, focused := h.view.state()
	assert.True(t, input)
	assert.Equal(t, 1, focused)
	h.view.mu.Lock()
	assert.Zero(t, h.view.previewCalls)
	h.view.mu.Unlock()

	// Empty query with a held screenshot asks for a description.
	h.ctrl.Submit("")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)
	assert.Equal(t, messages.AnalyzeScreenshot{Image: []byte("png-bytes"), Query: llm.DefaultDescribePrompt},
		bus.invokedMessages()[1])
	assert.Equal(t, []string{"📸 Screenshot captured!", "described"}, h.view.texts())

	h.ctrl.Submit("what is the error?")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 4 }, waitFor, tick)
	assert.Equal(t, messages.AnalyzeScreenshot{Image: []byte("png-bytes"), Query: "what is the error?"},
		bus.invokedMessages()[2])

	h.ctrl.ClearScreenshot()
	h.ctrl.Submit("plain chat")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 6 }, waitFor, tick)
	assert.Equal(t, messages.Chat{Message: "plain chat"}, bus.invokedMessages()[3])
	h.view.mu.Lock()
	assert.Nil(t, h.view.preview)
	h.view.mu.Unlock()
}

func TestRateLimitedProducesOneEntry(t *testing.T) {
	bus := &fakeBus{handler: func(context.Context, messages.Message) (messages.Message, error) {
		return nil, llm.ErrRateLimited
	}}
	h := start(t, fastOptions(), bus)

	h.ctrl.Submit("hi")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"hi", "❌ Error: Rate limit reached. Please wait a moment and try again."}, h.view.texts())
	assert.Len(t, bus.invokedMessages(), 1, "no retry")
}

func TestCaptureFailure(t *testing.T) {
	bus := &fakeBus{handler: func(context.Context, messages.Message) (messages.Message, error) {
		return nil, screenshot.ErrNoScreenSource
	}}
	opts := fastOptions()
	opts.Emoji = false
	h := start(t, opts, bus)

	h.ctrl.Capture()
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"Failed to capture screenshot: No screen available to capture."}, h.view.texts())

	busy, _, _ := h.view.state()
	assert.False(t, busy)
}

func TestEmptyReply(t *testing.T) {
	bus := &fakeBus{handler: func(context.Context, messages.Message) (messages.Message, error) {
		return messages.AssistantReply{Text: "  "}, nil
	}}
	h := start(t, fastOptions(), bus)

	h.ctrl.Submit("hi")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)
	assert.Equal(t, "❌ No response from AI. Please try again.", h.view.texts()[1])
}

func TestToggleAutoAnalyze(t *testing.T) {
	h := start(t, fastOptions(), nil)

	h.ctrl.ToggleAutoAnalyze()
	h.ctrl.ToggleAutoAnalyze()
	h.sync(t)

	assert.Equal(t, []string{
		"⏸️ Auto-analyze disabled. You can ask custom questions.",
		"✅ Auto-analyze enabled! Screenshots will be automatically described.",
	}, h.view.texts())
	h.view.mu.Lock()
	assert.True(t, h.view.autoAnalyze)
	h.view.mu.Unlock()
}

func TestCopyLastAnswer(t *testing.T) {
	var copied []string
	opts := fastOptions()
	opts.Clipboard = func(text string) error {
		copied = append(copied, text)
		return nil
	}
	bus := &fakeBus{handler: func(_ context.Context, msg messages.Message) (messages.Message, error) {
		return messages.AssistantReply{Text: "the answer"}, nil
	}}
	h := start(t, opts, bus)

	h.ctrl.CopyLastAnswer()
	h.sync(t)
	assert.Empty(t, copied, "nothing to copy yet")

	h.ctrl.Submit("q")
	assert.Eventually(t, func() bool { return len(h.view.texts()) == 2 }, waitFor, tick)
	h.ctrl.ToggleAutoAnalyze()
	h.ctrl.CopyLastAnswer()
	h.sync(t)
	assert.Equal(t, []string{"the answer"}, copied, "notices are never copied")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{llm.ErrInvalidCredential, "Invalid API key. Check GROQ_API_KEY or the key file."},
		{llm.ErrTimeout, "The request timed out. Please try again."},
		{llm.ErrMalformedResponse, "The AI returned an empty or unreadable response."},
		{&llm.UpstreamError{StatusCode: 500, Message: "model overloaded"}, "model overloaded"},
		{&llm.UpstreamError{Message: "connection refused"}, "Could not reach the AI service: connection refused"},
		{screenshot.ErrCaptureFailed, "The screen could not be captured."},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeError(tt.err))
	}
}
