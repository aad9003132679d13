package events

import (
	"sync"

	"go.uber.org/zap"
)

const subscriberBufferSize = 100

// Hub rebroadcasts events to every connected participant except the one that
// emitted them, so internal components can reuse the same transport for their
// own progress reporting without hearing themselves. Delivery is best-effort:
// with no participants connected Emit is a no-op, and a participant whose
// buffer is full has the event dropped rather than blocking the producer.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	logger *zap.SugaredLogger
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]chan Event),
		logger: zap.S().Named("events"),
	}
}

// Subscribe connects a participant under the given identity. The returned
// function disconnects it and closes the channel.
func (h *Hub) Subscribe(id string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBufferSize)
	h.subs[id] = ch

	unsub := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok && existing == ch {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, unsub
}

// Emit rebroadcasts the event to every participant other than the sender.
func (h *Hub) Emit(senderID string, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		if id == senderID {
			continue
		}
		select {
		case ch <- e:
		default:
			h.logger.Warnf("participant %q is slow, dropping %s event", id, e.Type)
		}
	}
}

// Participants reports the connected identities, mostly for diagnostics.
func (h *Hub) Participants() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
