package navigation

import "sync"

// Hub fans committed frames out to subscribers. A subscriber that falls a
// full buffer behind is dropped and its channel closed.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Frame]struct{}
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan Frame]struct{})}
}

// Register adds a subscriber with the given buffer size.
func (h *Hub) Register(buffer int) chan Frame {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Frame, buffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unregister removes and closes a subscriber. It is safe to call twice.
func (h *Hub) Unregister(ch chan Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast delivers f to every subscriber without blocking.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- f:
		default:
			delete(h.clients, ch)
			close(ch)
		}
	}
}

// Len reports the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
