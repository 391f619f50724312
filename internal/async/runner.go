package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Runner starts fire-and-forget tasks and keeps count of the ones still
// in flight so shutdown can wait for them. Tasks never block each other.
type Runner struct {
	wg sync.WaitGroup

	mu       sync.Mutex
	inFlight int
	closed   bool
}

func NewRunner() *Runner {
	return &Runner{}
}

// Go runs fn on its own goroutine. Panics are recovered and logged
// through the logger carried by ctx. After Wait has been called new
// tasks are rejected and logged.
func (r *Runner) Go(ctx context.Context, fn func(ctx context.Context)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		zerolog.Ctx(ctx).Warn().Msg("runner closed, dropping task")
		return
	}
	r.inFlight++
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.done()
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(ctx).Error().
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("background task panicked")
			}
		}()
		fn(ctx)
	}()
}

func (r *Runner) done() {
	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
	r.wg.Done()
}

// InFlight reports how many tasks are still running.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Wait stops accepting tasks and blocks until the running ones finish
// or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d background tasks still running: %w", r.InFlight(), ctx.Err())
	}
}
