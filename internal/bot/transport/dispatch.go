package transport

import (
	"context"
	"sync"
)

// Dispatcher runs a handler with per-user ordering: events of one UID are
// handled one at a time in arrival order, different UIDs run concurrently.
// A worker goroutine exists only while its user has queued events.
type Dispatcher struct {
	handler Handler

	mu     sync.Mutex
	queues map[string][]Event
	wg     sync.WaitGroup
}

func NewDispatcher(h Handler) *Dispatcher {
	return &Dispatcher{handler: h, queues: make(map[string][]Event)}
}

// Dispatch queues ev and returns without waiting for it to be handled.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, running := d.queues[ev.UID]
	d.queues[ev.UID] = append(q, ev)
	if !running {
		d.wg.Add(1)
		go d.run(ctx, ev.UID)
	}
}

func (d *Dispatcher) run(ctx context.Context, uid string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[uid]
		if len(q) == 0 {
			delete(d.queues, uid)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.queues[uid] = q[1:]
		d.mu.Unlock()

		d.handler.Handle(ctx, ev)
	}
}

// Wait blocks until every queued event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
