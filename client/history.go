package client

import (
	"sync"

	"github.com/meetflow/chat-relay/internal/domain"
)

// History merges messages from two sources: local sends rendered
// optimistically and relay echoes arriving over the wire. The relay echoes
// a sent message back to its sender, so both paths deliver the same
// message; deduplication by ID keeps it from showing up twice.
type History struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	messages []domain.Message
}

func NewHistory() *History {
	return &History{
		seen: make(map[string]struct{}),
	}
}

// AddLocal records a message the user just sent, before the relay echo
// lands. Returns false when the message was already present.
func (h *History) AddLocal(msg *domain.Message) bool {
	return h.add(msg)
}

// AddRemote records a message delivered by the relay. Returns false when
// the message was already rendered locally.
func (h *History) AddRemote(msg *domain.Message) bool {
	return h.add(msg)
}

func (h *History) add(msg *domain.Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.seen[msg.ID]; ok {
		return false
	}

	h.seen[msg.ID] = struct{}{}
	h.messages = append(h.messages, *msg)
	return true
}

// Messages returns the merged timeline in arrival order.
func (h *History) Messages() []domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}
