package evangelho

import (
	"context"
	"sync"
	"sync/atomic"
)

// updateQueue is a single-consumer queue of state mutations. Producers are
// provider completion goroutines; the only consumer is the drain context.
type updateQueue struct {
	ch        chan func()
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	draining  atomic.Bool
	closeOnce sync.Once
}

func newUpdateQueue(buffer int) *updateQueue {
	if buffer <= 0 {
		buffer = 1
	}
	return &updateQueue{
		ch:   make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// start drains the queue on a goroutine owned by the queue.
func (q *updateQueue) start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.run(context.Background())
	}()
}

// run applies updates on the calling goroutine until ctx ends or the queue
// closes. On close, updates already queued are still applied.
func (q *updateQueue) run(ctx context.Context) error {
	if !q.draining.CompareAndSwap(false, true) {
		return ErrManualDrainRequired
	}
	defer q.draining.Store(false)

	for {
		select {
		case fn := <-q.ch:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			q.drainPending()
			return nil
		}
	}
}

// drainPending applies every queued update without blocking.
func (q *updateQueue) drainPending() int {
	n := 0
	for {
		select {
		case fn := <-q.ch:
			fn()
			n++
		default:
			return n
		}
	}
}

// submit enqueues fn. It blocks while the queue is full and gives up only
// when the queue closes; a completed provider call is never discarded
// because the caller stopped waiting.
func (q *updateQueue) submit(fn func()) error {
	if q.closed.Load() {
		return ErrControllerClosed
	}
	select {
	case q.ch <- fn:
		return nil
	case <-q.done:
		return ErrControllerClosed
	}
}

func (q *updateQueue) close() {
	q.shut()
	q.wg.Wait()
}

// shut stops the queue without waiting for the drain goroutine to exit.
func (q *updateQueue) shut() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}
