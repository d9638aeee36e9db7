// Package dispatch fans activation events out to subscribers without blocking the frame thread.
package dispatch

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pick/engine/tracker"
)

// Handler receives activation events.
type Handler func(ev tracker.ActivationEvent)

// dispatcher is the implementation of the Dispatcher interface.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
	closed   bool

	pool        worker.DynamicWorkerPool
	queue       chan delivery
	dropped     atomic.Int64
	workers     int
	queueSize   int
	idleTimeout time.Duration
	synchronous bool

	inflight sync.WaitGroup
	taskID   atomic.Int64
	logger   *log.Logger
}

// delivery is one event bound for one subscriber.
type delivery struct {
	handler Handler
	event   tracker.ActivationEvent
}

// Dispatcher delivers activation events to every subscriber. Delivery runs on a bounded worker pool and Publish never
// waits for it: once the queue is full further deliveries are dropped and counted. Events carry their own Start time,
// as delivery order across subscribers and workers is not guaranteed.
type Dispatcher interface {
	// Subscribe registers h for every later event.
	//
	// Parameters:
	//   - h: the handler to call
	//
	// Returns:
	//   - func(): a function that removes the subscription; calling it more than once is harmless
	Subscribe(h Handler) func()

	// Publish delivers ev to every current subscriber. It is a no-op after Close.
	//
	// Parameters:
	//   - ev: the event to deliver
	Publish(ev tracker.ActivationEvent)

	// Subscribers returns the number of current subscriptions.
	//
	// Returns:
	//   - int: the subscription count
	Subscribers() int

	// Dropped returns how many deliveries were discarded because the queue was full.
	//
	// Returns:
	//   - int64: the dropped delivery count
	Dropped() int64

	// Wait blocks until every queued delivery has run.
	Wait()

	// Close stops accepting events, waits for queued deliveries to finish and stops the workers.
	Close()
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher with the given options applied.
//
// Parameters:
//   - opts: optional pool sizing, logging and synchronous delivery
//
// Returns:
//   - Dispatcher: the dispatcher
func NewDispatcher(opts ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcher{
		handlers:    make(map[int]Handler),
		workers:     2,
		queueSize:   64,
		idleTimeout: time.Second,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if !d.synchronous {
		d.pool = worker.NewDynamicWorkerPool(d.workers, d.queueSize, d.idleTimeout)
		d.queue = make(chan delivery, d.queueSize)
		go d.feed()
	}
	return d
}

func (d *dispatcher) Subscribe(h Handler) func() {
	if h == nil {
		return func() {}
	}
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.handlers[id] = h
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.handlers, id)
			d.mu.Unlock()
		})
	}
}

func (d *dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

func (d *dispatcher) Publish(ev tracker.ActivationEvent) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return
	}
	handlers := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		handlers = append(handlers, h)
	}
	d.inflight.Add(len(handlers))

	if !d.synchronous {
		// Sends happen under the read lock so Close cannot close the queue beneath them.
		for _, h := range handlers {
			select {
			case d.queue <- delivery{handler: h, event: ev}:
			default:
				d.inflight.Done()
				n := d.dropped.Add(1)
				d.logger.Printf("[Dispatch] queue full, dropped activation of manipulator %d (%d dropped)", ev.Identity, n)
			}
		}
		d.mu.RUnlock()
		return
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		d.deliver(h, ev)
	}
}

func (d *dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.handlers = make(map[int]Handler)
	d.mu.Unlock()
	d.inflight.Wait()

	if !d.synchronous {
		close(d.queue)
		d.pool.Stop()
	}
}

// feed moves queued deliveries onto the worker pool. It is the only goroutine that can block on a full pool.
func (d *dispatcher) feed() {
	for job := range d.queue {
		d.pool.SubmitTask(worker.Task{
			ID: int(d.taskID.Add(1)),
			Do: func() (any, error) {
				d.deliver(job.handler, job.event)
				return nil, nil
			},
		})
	}
}

// deliver runs one handler, keeping a panicking subscriber from taking down the worker.
func (d *dispatcher) deliver(h Handler, ev tracker.ActivationEvent) {
	defer d.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("[Dispatch] subscriber panicked on manipulator %d: %v", ev.Identity, r)
		}
	}()
	h(ev)
}
