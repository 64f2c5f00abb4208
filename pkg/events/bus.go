// Package events fans engine events out to multiple consumers. The
// engine exposes a single event channel; the bus lets the UI and the
// play-history recorder each see every event.
package events

import (
	"sync"

	"github.com/jscyril/concerto/api"
)

// Bus distributes player events using channels
type Bus struct {
	subscribers map[api.EventType][]chan api.Event
	mu          sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[api.EventType][]chan api.Event),
	}
}

// Subscribe returns a channel for receiving events of the specified type
func (b *Bus) Subscribe(eventType api.EventType) <-chan api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.Event, 16)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll returns a channel for receiving all event types
func (b *Bus) SubscribeAll() <-chan api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.Event, 32)
	for _, eventType := range []api.EventType{
		api.EventTrackStarted,
		api.EventPlaybackStopped,
		api.EventError,
	} {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}
	return ch
}

// Publish broadcasts an event to all subscribers of that event type.
// A subscriber with a full channel misses the event rather than
// blocking the publisher.
func (b *Bus) Publish(event api.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Forward pumps events from the engine channel into the bus until the
// channel closes. Run it in its own goroutine.
func (b *Bus) Forward(events <-chan api.Event) {
	for event := range events {
		b.Publish(event)
	}
}

// Unsubscribe removes a subscriber channel
func (b *Bus) Unsubscribe(ch <-chan api.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close closes all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	closed := make(map[chan api.Event]bool)
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !closed[ch] {
				close(ch)
				closed[ch] = true
			}
		}
	}
	b.subscribers = make(map[api.EventType][]chan api.Event)
}
