package watchhub

import (
	"sync"
)

// Hub fans reload signals out to every open reload stream.
// Each subscriber owns a single-slot channel; a signal that finds the slot
// already full is dropped, so a burst of changes collapses into one reload.

type Hub struct {
	mu     sync.Mutex
	closed bool
	subs   map[<-chan struct{}]chan struct{}
}

func New() *Hub {
	return &Hub{subs: make(map[<-chan struct{}]chan struct{})}
}

// Register adds a subscriber. It returns nil once the hub is closed.
func (h *Hub) Register() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan struct{}, 1)
	h.subs[ch] = ch
	return ch
}

// Unregister removes ch. Calling it twice, or after Close, is a no-op.
func (h *Hub) Unregister(ch <-chan struct{}) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Broadcast never blocks: subscribers with a pending signal are skipped.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
			// already pending
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel so streams can return, and makes
// further Register calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for key, ch := range h.subs {
		close(ch)
		delete(h.subs, key)
	}
}
