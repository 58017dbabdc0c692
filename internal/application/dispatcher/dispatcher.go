// Package dispatcher fans domain events out to in-process subscribers:
// the reviewer notifier and anything observing turns or status changes.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
)

// ErrClosed is returned when dispatching on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes domain events to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler under a generated name
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler that can later be removed by name
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes every handler registered under name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs the handlers in registration order and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync starts every handler in its own goroutine and returns immediately
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Handlers returns the handler names registered for an event type
	Handlers(eventType event.Type) []string

	// Close rejects further events and waits for running async handlers
	Close() error
}

type eventDispatcher struct {
	logger *zap.Logger

	mu     sync.RWMutex
	routes map[event.Type][]subscription
	closed bool

	inflight sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger *zap.Logger) Option {
	return func(d *eventDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		logger: zap.NewNop(),
		routes: make(map[event.Type][]subscription),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := string(eventType) + "#" + strconv.Itoa(len(d.routes[eventType]))
	d.routes[eventType] = append(d.routes[eventType], subscription{name: name, handler: handler})
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[eventType] = append(d.routes[eventType], subscription{name: name, handler: handler})
	d.logger.Debug("Subscribed", zap.Stringer("event_type", eventType), zap.String("handler", name))
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.routes[eventType][:0:0]
	for _, sub := range d.routes[eventType] {
		if sub.name != name {
			kept = append(kept, sub)
		}
	}
	d.routes[eventType] = kept
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	subs, ok := d.subscribers(evt.Type)
	if !ok {
		return ErrClosed
	}

	for _, sub := range subs {
		if err := d.deliver(ctx, evt, sub); err != nil {
			return fmt.Errorf("handler %s: %w", sub.name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Event dropped, dispatcher closed",
			zap.Stringer("event_type", evt.Type),
			zap.String("aggregate_id", evt.AggregateID))
		return
	}

	// Handlers outlive the request that produced the event
	ctx = context.WithoutCancel(ctx)

	// Add under the read lock so Close cannot start waiting before these are counted
	for _, sub := range d.routes[evt.Type] {
		d.inflight.Add(1)
		go func(sub subscription) {
			defer d.inflight.Done()
			_ = d.deliver(ctx, evt, sub)
		}(sub)
	}
}

func (d *eventDispatcher) Handlers(eventType event.Type) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.routes[eventType]))
	for _, sub := range d.routes[eventType] {
		names = append(names, sub.name)
	}
	return names
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	d.inflight.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}

// subscribers copies the route so handlers may subscribe while being dispatched
func (d *eventDispatcher) subscribers(eventType event.Type) ([]subscription, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, false
	}
	return append([]subscription(nil), d.routes[eventType]...), true
}

// deliver runs one handler, turning a panic into an error. Failures are logged here.
func (d *eventDispatcher) deliver(ctx context.Context, evt *event.Event, sub subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			d.logger.Error("Event handler failed",
				zap.Stringer("event_type", evt.Type),
				zap.String("event_id", evt.ID),
				zap.String("handler", sub.name),
				zap.Error(err))
		}
	}()
	return sub.handler(ctx, evt)
}
