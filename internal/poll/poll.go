// Package poll runs a fetch on a fixed wall-clock interval and hands every
// outcome to a sink until stopped.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/ramops/bagdesk/internal/logging"
)

const (
	// DefaultInterval applies when a controller is built with interval <= 0.
	DefaultInterval = 5 * time.Second
	defaultTimeout  = 5 * time.Second
)

// FetchFunc performs one fetch.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Sink receives the outcome of each fetch: data on success, err otherwise.
type Sink[T any] func(data T, err error)

// Observer receives per-tick measurements.
type Observer interface {
	ObservePoll(poller string, records int, elapsed time.Duration, err error)
}

// Controller repeats fetch every interval. Fetches never overlap: a tick
// that arrives while a fetch is running is dropped.
type Controller[T any] struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fetch    FetchFunc[T]
	sink     Sink[T]
	size     func(T) int
	log      logging.Logger
	observer Observer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customises a Controller.
type Option[T any] func(*Controller[T])

// WithTimeout bounds each fetch.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(c *Controller[T]) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs each tick outcome.
func WithLogger[T any](l logging.Logger) Option[T] {
	return func(c *Controller[T]) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver reports tick latency and outcome.
func WithObserver[T any](o Observer) Option[T] {
	return func(c *Controller[T]) { c.observer = o }
}

// WithSize tells the controller how many records a result holds, for logs
// and metrics.
func WithSize[T any](size func(T) int) Option[T] {
	return func(c *Controller[T]) { c.size = size }
}

// New builds a stopped controller.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], sink Sink[T], opts ...Option[T]) *Controller[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Controller[T]{
		name:     name,
		interval: interval,
		timeout:  defaultTimeout,
		fetch:    fetch,
		sink:     sink,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("poller", name)
	return c
}

// Name returns the controller name.
func (c *Controller[T]) Name() string { return c.name }

// Interval returns the poll interval.
func (c *Controller[T]) Interval() time.Duration { return c.interval }

// Start launches the loop. The first fetch runs immediately. Calling Start
// on a running controller does nothing.
func (c *Controller[T]) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			c.tick(loopCtx)
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the loop, including any in-flight fetch, and waits for it to
// exit. The sink is never called after Stop returns. Stop is idempotent.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (c *Controller[T]) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Refresh runs one fetch synchronously and delivers it to the sink.
func (c *Controller[T]) Refresh(ctx context.Context) {
	c.tick(ctx)
}

func (c *Controller[T]) tick(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	start := time.Now()
	data, err := c.fetch(fetchCtx)
	elapsed := time.Since(start)
	cancel()

	if ctx.Err() != nil {
		// Torn down mid-fetch; drop the result.
		return
	}

	records := 0
	if err == nil && c.size != nil {
		records = c.size(data)
	}
	if c.observer != nil {
		c.observer.ObservePoll(c.name, records, elapsed, err)
	}
	if err != nil {
		c.log.Warn("poll failed", "error", err, "elapsed", elapsed)
	} else {
		c.log.Debug("poll ok", "records", records, "elapsed", elapsed)
	}
	c.sink(data, err)
}
