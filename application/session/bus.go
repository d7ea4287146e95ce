// Package session tracks sign-in state and notifies subscribers of
// authentication transitions.
package session

import (
	"sync"
	"time"

	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// EventType is an authentication state transition
type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is delivered to subscribers after a transition completed
type Event struct {
	Type    EventType
	Session *auth.Session
	At      time.Time
}

// Listener receives auth events. Listeners run synchronously on the
// publishing goroutine and must not block.
type Listener func(Event)

// Bus fans auth events out to subscribers
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a function that removes it
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ls := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		ls = append(ls, l)
	}
	b.mu.RUnlock()

	for _, l := range ls {
		l(e)
	}
}
