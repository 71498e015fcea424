package service

import (
	"sync"

	"github.com/danor93/chat-router/internal/models"
)

// Handler receives a single newly persisted entry.
type Handler func(models.TimelineEntry)

// EventBus is the explicit subscribe/unsubscribe interface the §9
// "Observable service" redesign flag calls for: the service publishes
// message:new events without knowing which transport, if any, is
// listening.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[int]Handler)}
}

// Subscription is the token returned by On, passed to Off to unsubscribe.
// Every On call registers a new handler under a new token; a token only
// ever unsubscribes the specific handler it was issued for.
type Subscription int

// On registers a handler invoked synchronously after every successful
// ingest. Safe to call from multiple goroutines.
func (b *EventBus) On(h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	return Subscription(id)
}

// Off removes a previously registered handler. A no-op if the
// subscription was already removed.
func (b *EventBus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, int(sub))
}

// Emit invokes every currently registered handler in turn, synchronously,
// in the same goroutine as the caller.
func (b *EventBus) Emit(entry models.TimelineEntry) {
	b.mu.RLock()
	snapshot := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(entry)
	}
}
