package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbdigital/doc-ledger/internal/domain/event"
)

// DefaultQueueSize bounds the number of events waiting for async delivery.
const DefaultQueueSize = 256

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// SubscribeNamed registers a handler for an event type under a name
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// DispatchAsync queues the event and returns immediately.
	// Queued events are delivered one at a time in the order they were queued;
	// handlers run in registration order and a failing handler does not stop the rest.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Close stops accepting events and waits for the queue to drain
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type queuedEvent struct {
	ctx context.Context
	evt *event.Event
}

// eventDispatcher is the concrete implementation of Dispatcher
type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]subscription
	logger   Logger

	queueSize int
	queue     chan queuedEvent
	drained   chan struct{}

	// closeMu orders queue sends against close(queue)
	closeMu sync.RWMutex
	closed  bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithQueueSize sets the async queue capacity. Events queued beyond it are dropped and logged.
func WithQueueSize(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// NewDispatcher creates a dispatcher and starts its delivery goroutine
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers:  make(map[event.Type][]subscription),
		queueSize: DefaultQueueSize,
		drained:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.queue = make(chan queuedEvent, d.queueSize)
	go d.run()

	return d
}

// SubscribeNamed registers a handler with a specific name for debugging
func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], subscription{name: name, handler: handler})

	d.logInfo("Handler registered",
		"event_type", eventType,
		"handler_name", name,
	)
}

// DispatchAsync queues the event for the delivery goroutine.
// The caller's cancellation is detached so a finished request does not cancel delivery.
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	if d.closed {
		d.logError("Cannot dispatch async event, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
		)
		return
	}

	select {
	case d.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), evt: evt}:
	default:
		d.logError("Event queue full, dropping event",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"queue_size", d.queueSize,
		)
	}
}

// Close stops accepting events and waits for queued events to be delivered
func (d *eventDispatcher) Close() error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	d.closed = true
	close(d.queue)
	d.closeMu.Unlock()

	d.logInfo("Closing dispatcher, draining queued events")
	<-d.drained
	d.logInfo("Dispatcher closed")

	return nil
}

func (d *eventDispatcher) run() {
	defer close(d.drained)

	for q := range d.queue {
		for _, info := range d.handlersFor(q.evt.Type) {
			if err := d.safeExecute(q.ctx, q.evt, info); err != nil {
				d.logError("Async handler error",
					"event_type", q.evt.Type,
					"event_id", q.evt.ID,
					"handler_name", info.name,
					"error", err,
				)
			}
		}
	}
}

func (d *eventDispatcher) handlersFor(eventType event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[eventType]
	out := make([]subscription, len(handlers))
	copy(out, handlers)
	return out
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return info.handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
