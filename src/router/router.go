package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"screen-overlay-llm/src/messages"
)

// ErrShutdown is returned once the router has been shut down.
var ErrShutdown = errors.New("router is shutting down")

const sendTimeout = 5 * time.Second

// ChannelInfo holds information about a process channel
type ChannelInfo struct {
	Channel   chan messages.MessageEnvelope
	ProcessID string
	Active    bool
}

// Router handles message routing between the controller and the host
type Router struct {
	channels map[string]*ChannelInfo
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	quiet    map[string]bool
}

// NewRouter creates a new message router
func NewRouter() *Router {
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		channels: make(map[string]*ChannelInfo),
		ctx:      ctx,
		cancel:   cancel,
		quiet:    make(map[string]bool),
	}
}

// RegisterProcess registers a process with the router
func (r *Router) RegisterProcess(processID string, bufferSize int) (<-chan messages.MessageEnvelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[processID]; exists {
		return nil, fmt.Errorf("process %s already registered", processID)
	}

	ch := make(chan messages.MessageEnvelope, bufferSize)
	r.channels[processID] = &ChannelInfo{
		Channel:   ch,
		ProcessID: processID,
		Active:    true,
	}

	log.Printf("Router: Registered process %s with buffer size %d", processID, bufferSize)
	return ch, nil
}

// Send delivers a message to a specific process
func (r *Router) Send(envelope messages.MessageEnvelope) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.quiet[envelope.Message.Type()] {
		log.Printf("Router: %s -> %s: %s", envelope.From, envelope.To, envelope.Message.Type())
	}

	if r.ctx.Err() != nil {
		return ErrShutdown
	}

	info, exists := r.channels[envelope.To]
	if !exists {
		return fmt.Errorf("process %s not found", envelope.To)
	}

	if !info.Active {
		return fmt.Errorf("process %s is not active", envelope.To)
	}

	select {
	case info.Channel <- envelope:
		return nil
	case <-time.After(sendTimeout):
		return fmt.Errorf("timeout sending message to process %s", envelope.To)
	case <-r.ctx.Done():
		return ErrShutdown
	}
}

// Invoke sends a request and waits for the receiver to answer it with
// MessageEnvelope.Respond.
func (r *Router) Invoke(ctx context.Context, from, to string, msg messages.Message) (messages.Message, error) {
	reply := make(chan messages.Reply, 1)
	env := messages.MessageEnvelope{
		ID:      uuid.NewString(),
		From:    from,
		To:      to,
		Message: msg,
		Reply:   reply,
	}
	if err := r.Send(env); err != nil {
		return nil, err
	}

	select {
	case rep := <-reply:
		return rep.Message, rep.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.ctx.Done():
		return nil, ErrShutdown
	}
}

// SetQuiet keeps high-frequency message types (pointer drags) out of the log.
func (r *Router) SetQuiet(types ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.quiet[t] = true
	}
}

// Shutdown gracefully shuts down the router
func (r *Router) Shutdown() {
	log.Printf("Router: Shutting down...")

	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for processID, info := range r.channels {
		if info.Active {
			info.Active = false
			close(info.Channel)
			log.Printf("Router: Closed channel for process %s", processID)
		}
	}

	r.channels = make(map[string]*ChannelInfo)

	log.Printf("Router: Shutdown complete")
}

// Endpoint is one side of a conversation between two registered processes.
type Endpoint struct {
	r    *Router
	self string
	peer string
}

func (r *Router) Endpoint(self, peer string) *Endpoint {
	return &Endpoint{r: r, self: self, peer: peer}
}

// Send delivers a one-way message to the peer.
func (e *Endpoint) Send(msg messages.Message) error {
	return e.r.Send(messages.MessageEnvelope{From: e.self, To: e.peer, Message: msg})
}

// Invoke sends a request to the peer and waits for its reply.
func (e *Endpoint) Invoke(ctx context.Context, msg messages.Message) (messages.Message, error) {
	return e.r.Invoke(ctx, e.self, e.peer, msg)
}
