// Package workerpool runs jobs with bounded concurrency and collects exactly
// one result per submitted job.
//
// A job failure never stops its siblings. Abort cancels the context shared by
// every job; job functions are expected to observe it and return promptly
// with a result that records the cancellation.
package workerpool

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// DefaultSize is used when New receives a non-positive size.
const DefaultSize = 5

// Func processes one job. It must return a result even when ctx is done.
type Func[J, R any] func(ctx context.Context, job J) R

// Option configures a Pool.
type Option[R any] func(*options[R])

type options[R any] struct {
	onResult func(R)
}

// WithResultHook registers fn to be called once per result as jobs finish.
// Calls are serialized.
func WithResultHook[R any](fn func(R)) Option[R] {
	return func(o *options[R]) {
		o.onResult = fn
	}
}

// Pool is a bounded worker pool.
type Pool[J, R any] struct {
	fn       Func[J, R]
	onResult func(R)

	ctx    context.Context
	cancel context.CancelFunc
	slots  chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	closed  bool
	done    bool
	results []R

	hookMu     sync.Mutex
	streamOnce sync.Once
	stream     chan R
	closeOnce  sync.Once
}

// New creates a pool running at most size jobs at once.
func New[J, R any](ctx context.Context, size int, fn Func[J, R], opts ...Option[R]) *Pool[J, R] {
	if size <= 0 {
		size = DefaultSize
	}
	var o options[R]
	for _, opt := range opts {
		opt(&o)
	}
	poolCtx, cancel := context.WithCancel(ctx)
	p := &Pool[J, R]{
		fn:       fn,
		onResult: o.onResult,
		ctx:      poolCtx,
		cancel:   cancel,
		slots:    make(chan struct{}, size),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Size returns the concurrency bound.
func (p *Pool[J, R]) Size() int {
	return cap(p.slots)
}

// Submit schedules job. It never blocks on running work.
func (p *Pool[J, R]) Submit(job J) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(job)
	return nil
}

func (p *Pool[J, R]) run(job J) {
	defer p.wg.Done()

	p.slots <- struct{}{}
	result := p.fn(p.ctx, job)
	<-p.slots

	p.mu.Lock()
	p.results = append(p.results, result)
	p.cond.Broadcast()
	p.mu.Unlock()

	if p.onResult != nil {
		p.hookMu.Lock()
		p.onResult(result)
		p.hookMu.Unlock()
	}
}

// Close stops accepting jobs. Already submitted jobs still run.
func (p *Pool[J, R]) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		go func() {
			p.wg.Wait()
			p.mu.Lock()
			p.done = true
			p.cond.Broadcast()
			p.mu.Unlock()
		}()
	})
}

// Abort cancels the context shared by all jobs. Jobs not yet started still
// run their Func with the cancelled context so each yields a result.
func (p *Pool[J, R]) Abort() {
	p.cancel()
}

// Aborted reports whether Abort was called or the parent context ended.
func (p *Pool[J, R]) Aborted() bool {
	return p.ctx.Err() != nil
}

// Results streams results in completion order. The channel closes after
// Close once every job has finished. Results and Wait may both be used.
func (p *Pool[J, R]) Results() <-chan R {
	p.streamOnce.Do(func() {
		p.stream = make(chan R)
		go p.forward()
	})
	return p.stream
}

func (p *Pool[J, R]) forward() {
	defer close(p.stream)
	for i := 0; ; i++ {
		p.mu.Lock()
		for i >= len(p.results) && !p.done {
			p.cond.Wait()
		}
		if i >= len(p.results) {
			p.mu.Unlock()
			return
		}
		result := p.results[i]
		p.mu.Unlock()
		p.stream <- result
	}
}

// Wait closes the pool, blocks until every job has finished and returns all
// results in completion order.
func (p *Pool[J, R]) Wait() []R {
	p.Close()
	p.mu.Lock()
	for !p.done {
		p.cond.Wait()
	}
	out := make([]R, len(p.results))
	copy(out, p.results)
	p.mu.Unlock()
	p.cancel()
	return out
}
