// Package telemetry batches feedback/analytics events and flushes them
// periodically to an injected sink. The recorder is explicitly constructed
// and owned by the session: init at startup, Close drains on shutdown.
// There is no package-level shared instance.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one analytics record.
type Event struct {
	Time   time.Time
	Name   string
	Fields map[string]string
}

// Sink receives flushed event batches. Delivery transport is the caller's
// concern; tests and the CLI use local sinks.
type Sink interface {
	Write(ctx context.Context, events []Event) error
}

// Options tunes batching and the retry buffer.
type Options struct {
	// FlushInterval is the periodic flush cadence. Zero disables the
	// background flusher; events then flush only via Flush/Close.
	FlushInterval time.Duration
	// BufferLimit caps the pending queue, retried events included. When a
	// flush fails, its events re-enter the queue and the oldest entries
	// beyond the cap are dropped: sustained sink failure must not grow
	// memory without bound.
	BufferLimit int
}

const defaultBufferLimit = 1000

// Recorder accumulates events and flushes them in batches.
type Recorder struct {
	sink   Sink
	logger *zap.Logger
	opts   Options

	mu      sync.Mutex
	pending []Event
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// NewRecorder starts a recorder flushing to sink.
func NewRecorder(sink Sink, logger *zap.Logger, opts Options) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BufferLimit <= 0 {
		opts.BufferLimit = defaultBufferLimit
	}

	r := &Recorder{
		sink:   sink,
		logger: logger,
		opts:   opts,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if opts.FlushInterval > 0 {
		go r.flushLoop()
	} else {
		close(r.done)
	}
	return r
}

// Record queues one event. Events recorded after Close are dropped.
func (r *Recorder) Record(name string, fields map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.pending = append(r.pending, Event{Time: time.Now(), Name: name, Fields: fields})
	r.trimLocked()
}

// Flush delivers all pending events now. On sink failure the batch
// re-enters the queue (bounded, drop-oldest) and the error is returned.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := r.sink.Write(ctx, batch); err != nil {
		r.mu.Lock()
		r.pending = append(batch, r.pending...)
		dropped := r.trimLocked()
		r.mu.Unlock()

		r.logger.Warn("telemetry flush failed, events re-queued",
			zap.Int("requeued", len(batch)), zap.Int("dropped", dropped), zap.Error(err))
		return err
	}
	return nil
}

// Close stops the background flusher and drains pending events.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if r.opts.FlushInterval > 0 {
		close(r.stop)
		<-r.done
	}
	return r.Flush(ctx)
}

// Pending returns the queued event count.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Recorder) flushLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Flush(context.Background()); err != nil {
				// Already logged; the events wait for the next tick.
				continue
			}
		case <-r.stop:
			return
		}
	}
}

// trimLocked enforces the buffer cap, dropping the oldest entries first.
// Returns how many were dropped. Callers hold r.mu.
func (r *Recorder) trimLocked() int {
	over := len(r.pending) - r.opts.BufferLimit
	if over <= 0 {
		return 0
	}
	r.pending = append([]Event(nil), r.pending[over:]...)
	return over
}
