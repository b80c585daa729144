// Package goroutine runs background work with a concurrency cap and panic
// isolation. The app uses a Manager for its janitor and other fire-and-forget
// tasks so a crash in one never takes the process down.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/otpgate/otpgate/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine scales the fallback concurrency cap per CPU.
const DefaultMaxGoroutine int = 100

// Manager schedules functions onto goroutines, bounded by a semaphore, and
// gathers their errors for Wait.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

// NewManager builds a Manager allowing at most maxGoroutine concurrent tasks.
// A non-positive value falls back to DefaultMaxGoroutine per CPU.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go runs f on its own goroutine when a slot is free. At capacity, or after
// Wait has been called, the task is dropped with a warning; background work
// here is best-effort by contract.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Add(1)
	default:
		g.mu.Unlock()
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine")
		return
	}
	g.mu.Unlock()

	go func() {
		defer func() {
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "because", rvr, "stack", frames)
				} else {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
				}
			}

			g.wg.Done()
		}()

		if err := pCtx.Err(); err != nil {
			slog.WarnContext(pCtx, "goroutine canceled", "because", err)
			return
		}

		if err := f(pCtx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
}

// Wait refuses new tasks, blocks until running ones finish, and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
