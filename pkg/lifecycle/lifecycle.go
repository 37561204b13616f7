// Package lifecycle coordinates startup work and teardown of long-lived
// resources such as the upload workflow and its storage backends.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Coordinator runs startup hooks concurrently and, on Shutdown, cancels its
// context before running every registered teardown hook.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	startupWg sync.WaitGroup

	mu       sync.Mutex
	teardown []hook
	ready    bool
	stopped  bool
}

type hook struct {
	name string
	fn   func()
}

// New creates a Coordinator whose context is derived from parent.
func New(parent context.Context, logger *slog.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("system", "lifecycle"),
	}
}

// Context returns the coordinator's context. It is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. WaitForStartup blocks until all such hooks return.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers a named teardown hook. Hooks run concurrently after the
// context is cancelled. Registering after Shutdown has started runs fn immediately.
func (c *Coordinator) OnShutdown(name string, fn func()) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		fn()
		return
	}
	c.teardown = append(c.teardown, hook{name: name, fn: fn})
	c.mu.Unlock()
}

// Ready reports whether WaitForStartup has completed.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// WaitForStartup blocks until every startup hook has returned.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

// Shutdown cancels the context and waits up to timeout for teardown hooks.
// Calling Shutdown more than once is a no-op.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	hooks := c.teardown
	c.teardown = nil
	c.mu.Unlock()

	c.cancel()

	var wg sync.WaitGroup
	for _, h := range hooks {
		wg.Go(func() {
			h.fn()
			c.logger.Debug("teardown complete", "hook", h.name)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
