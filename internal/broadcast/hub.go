package broadcast

import "sync"

// Subscriber receives broadcast payloads on a buffered channel. A subscriber
// that falls behind misses updates rather than blocking the broadcaster; the
// next update carries the full depth anyway.
type Subscriber struct {
	C chan []byte
}

// Hub fans broadcast payloads out to subscribers grouped by topic (one topic
// per asset).
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Subscriber]struct{})}
}

func (h *Hub) Subscribe(topic string, buffer int) *Subscriber {
	sub := &Subscriber{C: make(chan []byte, buffer)}
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(topic string, sub *Subscriber) {
	h.mu.Lock()
	if subs, ok := h.topics[topic]; ok {
		if _, member := subs[sub]; member {
			delete(subs, sub)
			close(sub.C)
		}
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
}

// Broadcast delivers payload to every subscriber of the topic without
// blocking: full channels are skipped.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.C <- payload:
		default:
		}
	}
}

// SubscriberCount reports the current audience of a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
