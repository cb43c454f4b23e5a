package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-overlay-llm/src/host"
	"screen-overlay-llm/src/llm"
	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/overlay"
	"screen-overlay-llm/src/router"
)

type stubWindow struct {
	mu     sync.Mutex
	bounds overlay.Rect
}

func (w *stubWindow) SetBounds(r overlay.Rect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bounds = r
	return nil
}

func (w *stubWindow) Bounds() overlay.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *stubWindow) SetIgnoreMouseEvents(bool, bool) error { return nil }
func (w *stubWindow) SetAlwaysOnTop(bool) error             { return nil }
func (w *stubWindow) Show()                                 {}
func (w *stubWindow) Focus()                                {}
func (w *stubWindow) Destroy()                              {}

type fixedDisplay struct{}

func (fixedDisplay) WorkArea() overlay.Rect { return overlay.Rect{W: 1920, H: 1080} }

// recordingBus keeps every error a request came back with.
type recordingBus struct {
	Bus
	mu   sync.Mutex
	errs []error
}

func (b *recordingBus) Invoke(ctx context.Context, msg messages.Message) (messages.Message, error) {
	reply, err := b.Bus.Invoke(ctx, msg)
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
	return reply, err
}

func (b *recordingBus) errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]error(nil), b.errs...)
}

func TestRateLimitThroughHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for model"}}`))
	}))
	defer srv.Close()

	client := llm.New(llm.Config{APIKey: "test-key", BaseURL: srv.URL, Timeout: 5 * time.Second})

	r := router.NewRouter()
	defer r.Shutdown()
	hostInbox, err := r.RegisterProcess(messages.ProcessHost, 8)
	require.NoError(t, err)
	ctrlInbox, err := r.RegisterProcess(messages.ProcessController, 8)
	require.NoError(t, err)

	toController := r.Endpoint(messages.ProcessHost, messages.ProcessController)
	hst := host.New(host.Options{
		Window:  &stubWindow{},
		Display: fixedDisplay{},
		AI:      client,
		Notify:  func(m messages.Message) { _ = toController.Send(m) },
	})

	bus := &recordingBus{Bus: r.Endpoint(messages.ProcessController, messages.ProcessHost)}
	view := &fakeView{}
	ctrl := New(bus, view, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); hst.Run(ctx, hostInbox) }()
	go func() { defer wg.Done(); ctrl.Run(ctx, ctrlInbox) }()
	defer func() {
		cancel()
		wg.Wait()
	}()

	ctrl.Submit("hi")
	assert.Eventually(t, func() bool { return len(view.texts()) == 2 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"hi", "❌ Error: Rate limit reached. Please wait a moment and try again."}, view.texts())
	assert.Equal(t, int32(1), hits.Load(), "no retry")

	errs := bus.errors()
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], llm.ErrRateLimited), "got %v", errs[0])
	assert.Contains(t, errs[0].Error(), "Rate limit reached for model")
}
