// Package dataloader coalesces the key lookups issued during one scheduling
// turn into a single fetch per loader, and caches the outcome per key for the
// lifetime of the loader.
//
// A Loader is bound to a Scheduler, which decides when a turn ends. Both are
// meant to live for a single request.
package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
)

// ErrPanic wraps a panic recovered from a FetchFunc.
var ErrPanic = errors.New("dataloader: fetch panicked")

// FetchFunc loads values for a set of distinct keys. Keys missing from the
// returned map resolve as not found. A non-nil error fails every key of the
// batch.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Result is the outcome of one key of LoadMany.
type Result[V any] struct {
	Value V
	Found bool
	Err   error
}

type Option func(*options)

type options struct {
	maxBatch int
}

// WithMaxBatch splits dispatches into fetches of at most n keys.
func WithMaxBatch(n int) Option {
	return func(o *options) { o.maxBatch = n }
}

type thunk[V any] struct {
	done     chan struct{}
	value    V
	found    bool
	err      error
	resolved bool
	waiters  int
}

type entry[K comparable, V any] struct {
	key K
	t   *thunk[V]
}

// Loader batches and caches lookups of V by K.
type Loader[K comparable, V any] struct {
	name  string
	sched *Scheduler
	fetch FetchFunc[K, V]
	opts  options

	mu         sync.Mutex
	cache      map[K]*thunk[V]
	pending    []entry[K, V]
	pendingCtx context.Context
}

// New creates a loader named name and registers it with s.
func New[K comparable, V any](s *Scheduler, name string, fetch FetchFunc[K, V], opts ...Option) *Loader[K, V] {
	l := &Loader[K, V]{
		name:  name,
		sched: s,
		fetch: fetch,
		cache: make(map[K]*thunk[V]),
	}
	for _, o := range opts {
		o(&l.opts)
	}
	s.register(l)
	return l
}

// Load returns the value for key. found is false when the fetch did not
// return the key.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (value V, found bool, err error) {
	r := l.LoadMany(ctx, []K{key})[0]
	return r.Value, r.Found, r.Err
}

// LoadMany returns one result per key, in order. All keys join the same
// pending batch.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) []Result[V] {
	if len(keys) == 0 {
		return []Result[V]{}
	}
	ctx, untrack := l.sched.track(ctx)
	defer untrack()

	thunks := l.enqueue(ctx, keys)
	out := make([]Result[V], len(keys))
	for i, t := range thunks {
		if err := l.wait(ctx, t); err != nil {
			out[i] = Result[V]{Err: err}
			continue
		}
		out[i] = Result[V]{Value: t.value, Found: t.found, Err: t.err}
	}
	return out
}

// Prime stores value for key unless the key is already cached or pending.
// It reports whether the value was stored.
func (l *Loader[K, V]) Prime(key K, value V) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[key]; ok {
		return false
	}
	done := make(chan struct{})
	close(done)
	l.cache[key] = &thunk[V]{done: done, value: value, found: true, resolved: true}
	return true
}

// Clear drops key from the cache. A pending fetch for the key still
// completes for the callers already waiting on it.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
}

func (l *Loader[K, V]) enqueue(ctx context.Context, keys []K) []*thunk[V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*thunk[V], len(keys))
	for i, k := range keys {
		t, ok := l.cache[k]
		if !ok {
			t = &thunk[V]{done: make(chan struct{})}
			l.cache[k] = t
			if len(l.pending) == 0 {
				l.pendingCtx = ctx
			}
			l.pending = append(l.pending, entry[K, V]{key: k, t: t})
		}
		out[i] = t
	}
	return out
}

// wait parks the calling goroutine until t resolves or ctx is done.
func (l *Loader[K, V]) wait(ctx context.Context, t *thunk[V]) error {
	l.mu.Lock()
	if t.resolved {
		l.mu.Unlock()
		return nil
	}
	t.waiters++
	l.mu.Unlock()

	l.sched.release()
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	if t.resolved {
		// The dispatcher already counted this goroutine as woken.
		l.mu.Unlock()
		<-t.done
		return nil
	}
	t.waiters--
	l.mu.Unlock()
	l.sched.acquire(1)
	return ctx.Err()
}

func (l *Loader[K, V]) drain() []func() {
	l.mu.Lock()
	pending, ctx := l.pending, l.pendingCtx
	l.pending, l.pendingCtx = nil, nil
	l.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	size := len(pending)
	if l.opts.maxBatch > 0 && l.opts.maxBatch < size {
		size = l.opts.maxBatch
	}
	var out []func()
	for start := 0; start < len(pending); start += size {
		chunk := pending[start:min(start+size, len(pending))]
		out = append(out, func() { l.dispatch(ctx, chunk) })
	}
	return out
}

func (l *Loader[K, V]) dispatch(ctx context.Context, batch []entry[K, V]) {
	keys := make([]K, len(batch))
	for i, e := range batch {
		keys[i] = e.key
	}

	start := time.Now()
	values, err := l.safeFetch(ctx, keys)
	eventbus.Publish(ctx, events.LoaderBatch{
		Loader:   l.name,
		Keys:     len(keys),
		Err:      err,
		Duration: time.Since(start),
	})

	woken := 0
	l.mu.Lock()
	for _, e := range batch {
		if err != nil {
			e.t.err = err
			if l.cache[e.key] == e.t {
				delete(l.cache, e.key)
			}
		} else {
			e.t.value, e.t.found = values[e.key]
		}
		e.t.resolved = true
		woken += e.t.waiters
	}
	l.mu.Unlock()

	l.sched.acquire(woken)
	for _, e := range batch {
		close(e.t.done)
	}
}

func (l *Loader[K, V]) safeFetch(ctx context.Context, keys []K) (values map[K]V, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("%w: %s: %v", ErrPanic, l.name, r)
		}
	}()
	return l.fetch(ctx, keys)
}
