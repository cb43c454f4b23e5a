// Package controller is the overlay's interaction state machine. It turns
// pointer gestures into window commands, runs capture/analyze/chat requests one
// at a time and keeps the transcript.
package controller

import (
	"context"
	"log"
	"strings"
	"time"

	"screen-overlay-llm/src/llm"
	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/overlay"
	"screen-overlay-llm/src/transcript"
	"screen-overlay-llm/src/worker"
)

// AnalysisPrompt is sent with every automatic analysis.
const AnalysisPrompt = `Analyze this screenshot professionally and intelligently:

1. First, identify what type of content this is (code, error message, UI/interface, document, MCQ question, diagram, etc.)

2. Based on the content type, provide the most relevant and actionable information:
   - If it's a MULTIPLE CHOICE QUESTION (MCQ):
     * Clearly state: "ANSWER: [Option Letter]" at the very beginning
     * Then provide a brief, clear explanation of WHY that's the correct answer
     * Keep it concise and focused on the key concept

   - If it's CODE: Identify the language, explain what it does, and note any issues or improvements
   - If it's an ERROR: Explain what the error means and suggest how to fix it
   - If it's a UI/INTERFACE: Describe the main functionality and purpose
   - If it's a DOCUMENT/TEXT: Summarize the key points concisely
   - If it's a QUESTION: Provide a direct, professional answer
   - If it's a DIAGRAM/CHART: Explain what it represents and key insights

3. Be concise, professional, and focus on what matters most.
4. Use simple formatting - avoid excessive markdown.

Provide your analysis in a clear, structured format.`

// Bus reaches the host.
type Bus interface {
	Send(msg messages.Message) error
	Invoke(ctx context.Context, msg messages.Message) (messages.Message, error)
}

// View renders controller state. Implementations must be safe to call from the
// controller goroutine.
type View interface {
	ShowMinimized(minimized bool)
	AppendEntry(e transcript.Entry)
	SetBusy(busy bool)
	SetInputEnabled(enabled bool)
	ClearInput()
	FocusInput()
	// ShowPreview displays the held screenshot; nil hides it.
	ShowPreview(png []byte)
	SetAutoAnalyze(on bool)
}

type Options struct {
	AutoAnalyze      bool
	AutoAnalyzeDelay time.Duration
	// ReleaseDelay is how long after a drag ends click-through comes back.
	ReleaseDelay time.Duration
	// ClickDelay is how long after a click the toggle is sent.
	ClickDelay time.Duration
	// DragThreshold is the per-axis distance a press must travel to become a drag.
	DragThreshold    int
	KeepInputEnabled bool
	ShowPreview      bool
	Emoji            bool
	AnalysisPrompt   string
	DescribePrompt   string
	// Clipboard receives CopyLastAnswer text; nil disables copying.
	Clipboard func(text string) error
}

func DefaultOptions() Options {
	return Options{
		AutoAnalyze:      true,
		AutoAnalyzeDelay: 500 * time.Millisecond,
		ReleaseDelay:     100 * time.Millisecond,
		ClickDelay:       10 * time.Millisecond,
		DragThreshold:    1,
		ShowPreview:      true,
		Emoji:            true,
		AnalysisPrompt:   AnalysisPrompt,
		DescribePrompt:   llm.DefaultDescribePrompt,
	}
}

type gesture struct {
	start    overlay.Point
	dragging bool
}

// Controller is one overlay session. Every field below the channels is owned by
// the Run goroutine.
type Controller struct {
	bus  Bus
	view View
	opts Options
	pool *worker.Pool
	log  *transcript.Log

	events chan func()
	done   chan struct{}
	ctx    context.Context

	minimized   bool
	gesture     *gesture
	processing  bool
	screenshot  []byte
	autoAnalyze bool
	lastAnswer  string
}

func New(bus Bus, view View, opts Options) *Controller {
	if opts.AnalysisPrompt == "" {
		opts.AnalysisPrompt = AnalysisPrompt
	}
	if opts.DescribePrompt == "" {
		opts.DescribePrompt = llm.DefaultDescribePrompt
	}
	return &Controller{
		bus:         bus,
		view:        view,
		opts:        opts,
		pool:        worker.New(1),
		log:         transcript.NewLog(),
		events:      make(chan func(), 64),
		done:        make(chan struct{}),
		ctx:         context.Background(),
		minimized:   true,
		autoAnalyze: opts.AutoAnalyze,
	}
}

// Transcript exposes the chat log for read-only use.
func (c *Controller) Transcript() *transcript.Log { return c.log }

// Run processes UI events, host notifications and request completions until
// ctx is done.
func (c *Controller) Run(ctx context.Context, notifications <-chan messages.MessageEnvelope) {
	// Deferred in reverse: done closes first so worker callbacks stop posting
	// before the pool waits for them.
	defer c.pool.Close()
	defer close(c.done)

	c.ctx = ctx
	c.view.ShowMinimized(c.minimized)
	c.view.SetAutoAnalyze(c.autoAnalyze)
	c.view.SetInputEnabled(true)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Controller: stopping: %v", ctx.Err())
			return
		case fn := <-c.events:
			fn()
		case env, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			c.handleNotification(env)
		}
	}
}

// post queues fn for the Run goroutine. Dropped after Run returns.
func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

func (c *Controller) after(d time.Duration, fn func()) {
	if d <= 0 {
		c.post(fn)
		return
	}
	time.AfterFunc(d, func() { c.post(fn) })
}

func (c *Controller) send(msg messages.Message) {
	if err := c.bus.Send(msg); err != nil {
		log.Printf("Controller: sending %s failed: %v", msg.Type(), err)
	}
}

func (c *Controller) handleNotification(env messages.MessageEnvelope) {
	switch m := env.Message.(type) {
	case messages.WindowStateChanged:
		c.windowStateChanged(m.Minimized)
	default:
		log.Printf("Controller: ignoring %s from %s", env.Message.Type(), env.From)
	}
}

func (c *Controller) windowStateChanged(minimized bool) {
	c.minimized = minimized
	c.gesture = nil
	c.view.ShowMinimized(minimized)
	c.send(messages.SetIgnoreMouseEvents{Ignore: minimized})
}

// RequestToggle switches between icon and panel (expand/minimize buttons).
func (c *Controller) RequestToggle() {
	c.post(func() { c.send(messages.ToggleWindow{}) })
}

// Quit asks the host to shut everything down.
func (c *Controller) Quit() {
	c.post(func() { c.send(messages.QuitApp{}) })
}

func (c *Controller) appendEntry(role transcript.Role, text string) {
	e := c.log.Append(role, text)
	c.view.AppendEntry(e)
}

func (c *Controller) notice(emoji, text string) {
	if c.opts.Emoji && emoji != "" {
		text = emoji + " " + text
	}
	c.appendEntry(transcript.RoleAssistant, text)
}

// inputEnabled reports whether the query box accepts text right now. It is
// locked only while a held screenshot is being worked on.
func (c *Controller) inputEnabled() bool {
	return c.screenshot == nil || !c.processing || c.opts.KeepInputEnabled
}

func (c *Controller) setProcessing(on bool) {
	c.processing = on
	c.view.SetBusy(on)
	c.view.SetInputEnabled(c.inputEnabled())
}

func trimmed(s string) string { return strings.TrimSpace(s) }
