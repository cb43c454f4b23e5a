// Package process supervises the long-running loops of the overlay (window host
// and interaction controller) as named goroutines.
package process

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// RunFunc is one loop. It must return once ctx is done.
type RunFunc func(ctx context.Context)

// State is the lifecycle state of a managed loop.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Info holds what the manager knows about one loop.
type Info struct {
	State     State
	StartTime time.Time
	LastError error
}

// Manager starts loops under a shared context and records how they end. A loop
// that panics is marked crashed and reported to OnCrash; it is not restarted,
// since the loops own channels that cannot be reopened.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	procs   map[string]*Info
	onCrash func(name string, err error)
}

func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel, procs: make(map[string]*Info)}
}

// OnCrash sets the callback for a panicking loop. It runs on the crashed
// loop's goroutine.
func (m *Manager) OnCrash(fn func(name string, err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCrash = fn
}

// Go starts run under name. Names are unique for the manager's lifetime.
func (m *Manager) Go(name string, run RunFunc) error {
	m.mu.Lock()
	if _, exists := m.procs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("process %s already registered", name)
	}
	if err := m.ctx.Err(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("process %s not started: %w", name, err)
	}
	info := &Info{State: StateRunning, StartTime: time.Now()}
	m.procs[name] = info
	m.wg.Add(1)
	m.mu.Unlock()

	log.Printf("Process %s started", name)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.markCrashed(name, fmt.Errorf("panic: %v", r))
				return
			}
			m.mu.Lock()
			info.State = StateStopped
			m.mu.Unlock()
			log.Printf("Process %s stopped", name)
		}()
		run(m.ctx)
	}()
	return nil
}

func (m *Manager) markCrashed(name string, err error) {
	m.mu.Lock()
	info := m.procs[name]
	info.State = StateCrashed
	info.LastError = err
	onCrash := m.onCrash
	m.mu.Unlock()

	log.Printf("Process %s crashed: %v", name, err)
	if onCrash != nil {
		onCrash(name, err)
	}
}

// Status returns a snapshot of every loop's state.
func (m *Manager) Status() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := make(map[string]State, len(m.procs))
	for name, info := range m.procs {
		status[name] = info.State
	}
	return status
}

// Info returns a copy of the named loop's record.
func (m *Manager) Info(name string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.procs[name]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// StopAll cancels every loop and waits up to timeout for them to return. It
// reports whether all of them did.
func (m *Manager) StopAll(timeout time.Duration) bool {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		log.Printf("Process manager: loops still running after %v: %v", timeout, m.Status())
		return false
	}
}
