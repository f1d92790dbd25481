package dispatch

import "sync"

// Broker defers pipeline runs for asynchronous execution.
type Broker interface {
	Enqueue(run func())
}

// GoroutineBroker runs each deferred job on its own goroutine. It is the
// single-process stand-in for an external work queue.
type GoroutineBroker struct {
	wg sync.WaitGroup
}

// NewGoroutineBroker creates the broker.
func NewGoroutineBroker() *GoroutineBroker {
	return &GoroutineBroker{}
}

// Enqueue implements Broker.
func (b *GoroutineBroker) Enqueue(run func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		run()
	}()
}

// Wait blocks until every enqueued job has finished. Used during shutdown
// and by tests.
func (b *GoroutineBroker) Wait() {
	b.wg.Wait()
}
