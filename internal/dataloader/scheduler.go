package dataloader

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scheduler coordinates the goroutines resolving one request with the
// loaders bound to it.
//
// Every goroutine started through Run is counted as running. A goroutine stops
// counting while it is parked inside Load waiting for a batch. When the count
// drops to zero, the current scheduling turn is over: no running code can add
// more keys, so the goroutine that observed the transition drains the pending
// keys of every loader and dispatches them. Waiters woken by a dispatch are
// counted again before they resume, so a turn never ends early.
type Scheduler struct {
	mu      sync.Mutex
	running int
	loaders []batcher

	fetchLimit int
}

// batcher is the scheduler's view of a Loader.
type batcher interface {
	// drain removes the pending key set and returns one dispatch func per
	// chunk, or nil when nothing is pending.
	drain() []func()
}

type SchedulerOption func(*Scheduler)

// WithFetchConcurrency bounds how many batch fetches of one turn run at the
// same time. Zero or less means unbounded.
func WithFetchConcurrency(n int) SchedulerOption {
	return func(s *Scheduler) { s.fetchLimit = n }
}

// NewScheduler returns a scheduler with no loaders. It must not be shared
// between requests.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{}
	for _, o := range opts {
		o(s)
	}
	return s
}

type trackKey struct{}

// Run executes fns as tracked goroutines and returns when all of them have
// finished. Loads issued by fns are batched together.
//
// Run may be called from a goroutine that is itself tracked; the caller is
// parked while it waits.
func (s *Scheduler) Run(ctx context.Context, fns ...func(ctx context.Context)) {
	if len(fns) == 0 {
		return
	}
	var wg sync.WaitGroup
	s.acquire(len(fns))
	for _, fn := range fns {
		s.spawn(ctx, &wg, fn)
	}
	s.park(ctx, wg.Wait)
}

// spawn starts fn on a goroutine the caller has already counted.
func (s *Scheduler) spawn(ctx context.Context, wg *sync.WaitGroup, fn func(ctx context.Context)) {
	tctx := context.WithValue(ctx, trackKey{}, s)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer s.release()
		fn(tctx)
	}()
}

// park runs block with the calling goroutine uncounted if it is tracked.
func (s *Scheduler) park(ctx context.Context, block func()) {
	if !s.tracks(ctx) {
		block()
		return
	}
	s.release()
	block()
	s.acquire(1)
}

func (s *Scheduler) tracks(ctx context.Context) bool {
	owner, _ := ctx.Value(trackKey{}).(*Scheduler)
	return owner == s
}

// track makes sure the calling goroutine is counted for the duration of a
// load. Goroutines started by Run already are; anything else is counted
// until the returned func is called.
func (s *Scheduler) track(ctx context.Context) (context.Context, func()) {
	if s.tracks(ctx) {
		return ctx, func() {}
	}
	s.acquire(1)
	return context.WithValue(ctx, trackKey{}, s), s.release
}

func (s *Scheduler) register(b batcher) {
	s.mu.Lock()
	s.loaders = append(s.loaders, b)
	s.mu.Unlock()
}

func (s *Scheduler) acquire(n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.running += n
	s.mu.Unlock()
}

// release stops counting the calling goroutine. If it was the last running
// goroutine, it flushes pending batches until either nothing is pending or a
// woken waiter is running again.
func (s *Scheduler) release() {
	s.mu.Lock()
	s.running--
	for s.running == 0 {
		var dispatches []func()
		for _, b := range s.loaders {
			dispatches = append(dispatches, b.drain()...)
		}
		if len(dispatches) == 0 {
			break
		}
		// The flush itself counts as running so no other goroutine can start
		// a second flush while this one is in flight.
		s.running++
		s.mu.Unlock()
		s.dispatch(dispatches)
		s.mu.Lock()
		s.running--
	}
	s.mu.Unlock()
}

func (s *Scheduler) dispatch(dispatches []func()) {
	if len(dispatches) == 1 {
		dispatches[0]()
		return
	}
	var g errgroup.Group
	if s.fetchLimit > 0 {
		g.SetLimit(s.fetchLimit)
	}
	for _, d := range dispatches {
		g.Go(func() error {
			d()
			return nil
		})
	}
	_ = g.Wait()
}
