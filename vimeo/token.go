package vimeo

import "sync"

// RequestToken is the cancellation handle returned by Client.Do. Cancel
// aborts the network leg of the request; a cache-only leg already in flight
// still delivers. A canceled request never invokes its completion.
type RequestToken struct {
	mu       sync.Mutex
	canceled bool
	inFlight InFlight
}

// Cancel aborts the request's network leg. Safe to call more than once and
// before the network call has been issued; a later-attached call is canceled
// on arrival.
func (t *RequestToken) Cancel() {
	t.mu.Lock()
	t.canceled = true
	handle := t.inFlight
	t.mu.Unlock()

	if handle != nil {
		handle.Cancel()
	}
}

// attach records the current in-flight call. Retries re-attach, so Cancel
// always reaches the newest call.
func (t *RequestToken) attach(handle InFlight) {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		handle.Cancel()
		return
	}
	t.inFlight = handle
	t.mu.Unlock()
}

// isCanceled reports whether Cancel has been called. Checked before
// scheduling retries so a canceled request stays silent.
func (t *RequestToken) isCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}
