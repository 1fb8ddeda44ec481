// Package bus broadcasts session progress events to subscribers such as
// gateway clients. The per-session ordered event channel stays inside
// internal/agent; the bus is the fan-out layer on top of it.
package bus

import (
	"sync"

	"github.com/deskpilot/deskpilot/internal/agent"
)

// SessionEvent wraps one agent progress event with its session identity.
type SessionEvent struct {
	SessionID string      `json:"sessionId"`
	Event     agent.Event `json:"event"`
}

// Handler receives broadcast events. Handlers must not block.
type Handler func(SessionEvent)

// Bus fans session events out to registered subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]Handler
}

func New() *Bus {
	return &Bus{subscribers: make(map[string]Handler)}
}

// Subscribe registers a handler under the given subscriber ID.
func (b *Bus) Subscribe(id string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Broadcast delivers an event to all subscribers.
func (b *Bus) Broadcast(ev SessionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.subscribers {
		handler(ev)
	}
}

// SubscriberCount returns the number of registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
