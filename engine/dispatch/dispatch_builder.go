package dispatch

import (
	"log"
	"time"
)

// DispatcherBuilderOption is a functional option used to configure a Dispatcher during construction.
type DispatcherBuilderOption func(*dispatcher)

// WithWorkers sets the maximum number of goroutines delivering events. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - DispatcherBuilderOption: a function that sets the worker count
func WithWorkers(n int) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets how many deliveries may be queued before Publish starts dropping them. Values below 1 are ignored.
//
// Parameters:
//   - n: the queue size
//
// Returns:
//   - DispatcherBuilderOption: a function that sets the queue size
func WithQueueSize(n int) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker waits for work before exiting.
//
// Parameters:
//   - timeout: the idle timeout
//
// Returns:
//   - DispatcherBuilderOption: a function that sets the idle timeout
func WithIdleTimeout(timeout time.Duration) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if timeout > 0 {
			d.idleTimeout = timeout
		}
	}
}

// WithSynchronous delivers events on the publishing goroutine instead of the worker pool.
//
// Parameters:
//   - sync: true to deliver synchronously
//
// Returns:
//   - DispatcherBuilderOption: a function that sets synchronous delivery
func WithSynchronous(sync bool) DispatcherBuilderOption {
	return func(d *dispatcher) {
		d.synchronous = sync
	}
}

// WithLogger sets the logger subscriber panics and dropped deliveries are reported to.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - DispatcherBuilderOption: a function that sets the logger
func WithLogger(l *log.Logger) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
