package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-customizer/internal/infra/logger"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher hands events to its sinks on a single background worker.
// Publish never blocks: when the queue is full the event is dropped and logged.
type Dispatcher struct {
	log         *logger.Logger
	sinks       []Sink
	queue       chan Event
	sinkTimeout time.Duration
	mu          sync.RWMutex
	closed      bool
	done        chan struct{}
}

func NewDispatcher(log *logger.Logger, queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		log:         log.With("service", "EventDispatcher"),
		sinks:       sinks,
		queue:       make(chan Event, queueSize),
		sinkTimeout: 5 * time.Second,
		done:        make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Publish(_ context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.Source == "" {
		e.Source = SourceDashboard
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("event dropped after close", "event", e.Name, "store_id", e.StoreID)
		return
	}
	select {
	case d.queue <- e:
	default:
		d.log.Warn("event queue full, dropping event", "event", e.Name, "store_id", e.StoreID)
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		for _, s := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
			if err := s.Deliver(ctx, e); err != nil {
				d.log.Warn("event delivery failed", "sink", s.Name(), "event", e.Name, "event_id", e.ID, "error", err)
			}
			cancel()
		}
	}
}
