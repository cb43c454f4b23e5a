package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"screen-overlay-llm/src/messages"
)

// Task is one asynchronous operation (capture, analyze, chat).
type Task func(ctx context.Context) (messages.Message, error)

// ResultCallback is invoked on task completion (from a worker goroutine).
// The controller passes a closure that posts back into its loop.
type ResultCallback func(msg messages.Message, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: Starting %s", j.name)
				msg, err := runWithContext(j.ctx, j.task)
				log.Printf("Worker: %s completed, err=%v", j.name, err)
				j.cb(msg, err)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runWithContext runs task, returning early with ctx.Err() once ctx is done.
func runWithContext(ctx context.Context, task Task) (messages.Message, error) {
	// Fast path: no deadline and no cancellation.
	if ctx.Done() == nil {
		return task(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resCh := make(chan struct {
		msg messages.Message
		err error
	}, 1)
	go func() {
		msg, err := task(ctx)
		resCh <- struct {
			msg messages.Message
			err error
		}{msg, err}
	}()
	select {
	case r := <-resCh:
		return r.msg, r.err
	case <-ctx.Done():
		// The task keeps running in the background; the caller gets the ctx error.
		return nil, ctx.Err()
	}
}
