// Package events is a small in-process pub/sub bus. Components publish
// lifecycle notifications (vault created, run finished) and interested
// surfaces subscribe without holding references to each other.
package events

import "sync"

// Event is a published notification.
type Event struct {
	// Name identifies the event kind, e.g. "vault.created" or "run.finished".
	Name string
	// Payload carries event-specific data. May be nil.
	Payload any
}

// Handler receives published events.
type Handler func(Event)

// Bus fans events out to subscribers. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for events with the given name. The returned
// function removes the subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(name string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[name] == nil {
		b.subs[name] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[name][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[name], id)
	}
}

// Publish delivers the event to every handler subscribed to its name.
// Handlers run synchronously on the caller's goroutine.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Name]))
	for _, h := range b.subs[e.Name] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
