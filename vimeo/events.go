package vimeo

import (
	"sync"

	"github.com/s0up4200/vimeokit/account"
)

// EventKind identifies a client lifecycle event.
type EventKind int

const (
	// EventAccountChanged fires when the client's authenticated account is
	// installed, replaced or cleared. Account carries the new account, nil
	// on logout.
	EventAccountChanged EventKind = iota

	// EventServiceUnavailable fires when a request fails with HTTP 503.
	EventServiceUnavailable

	// EventInvalidToken fires when a request fails with HTTP 401, meaning
	// the current access token was rejected.
	EventInvalidToken
)

// String returns the event name for logging.
func (k EventKind) String() string {
	switch k {
	case EventAccountChanged:
		return "account_changed"
	case EventServiceUnavailable:
		return "service_unavailable"
	case EventInvalidToken:
		return "invalid_token"
	default:
		return "unknown"
	}
}

// Event is a fire-and-forget signal published by the client. Events are not
// part of any request's result contract.
type Event struct {
	Kind    EventKind
	Account *account.Account // set for EventAccountChanged
	Err     error            // set for error-classified events
}

// Notifier delivers client events to registered observers. Each client owns
// its notifier; there is no process-wide singleton. Observers are invoked
// synchronously in registration order and must not block.
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	observers map[int]func(Event)
}

// NewNotifier returns a notifier with no observers.
func NewNotifier() *Notifier {
	return &Notifier{
		observers: make(map[int]func(Event)),
	}
}

// Subscribe registers an observer and returns its unsubscribe func.
func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.observers, id)
	}
}

// Publish delivers an event to every observer.
func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	observers := make([]func(Event), 0, len(n.observers))
	for _, fn := range n.observers {
		observers = append(observers, fn)
	}
	n.mu.RUnlock()

	for _, fn := range observers {
		fn(event)
	}
}
