package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"

	"golang.org/x/sync/errgroup"
)

// InMemoryBus dispatches events to subscribers within the same process.
// Publish runs handlers on their own goroutines; handler errors and panics
// are logged, never propagated to the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event asynchronously to all subscribers.
// The publisher is never blocked and never sees handler failures.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, handler := range b.subscribers(event.EventName()) {
		h := handler
		go func() {
			defer b.recoverPanic(event.EventName())
			if err := h.Handle(context.WithoutCancel(ctx), event); err != nil {
				b.log.Error("event handler failed",
					"event", event.EventName(),
					"error", err,
				)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for every subscriber,
// returning the first handler error.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, handler := range b.subscribers(event.EventName()) {
		h := handler
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("event handler panic: %v", r)
				}
			}()
			return h.Handle(gctx, event)
		})
	}
	return g.Wait()
}

func (b *InMemoryBus) subscribers(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	registered := b.handlers[eventName]
	out := make([]Handler, len(registered))
	copy(out, registered)
	return out
}

func (b *InMemoryBus) recoverPanic(eventName string) {
	if r := recover(); r != nil {
		b.log.Error("event handler panicked", "event", eventName, "panic", r)
	}
}

// Compile-time check that InMemoryBus implements Bus.
var _ Bus = (*InMemoryBus)(nil)
