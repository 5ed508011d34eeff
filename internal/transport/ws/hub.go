package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"chestshop.dev/internal/protocol"
)

// Hub tracks connected sessions and delivers notices to them. It implements
// the market Messenger contract; notices for actors without a live session
// are dropped.
type Hub struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]chan []byte
}

func NewHub() *Hub {
	return &Hub{sessions: map[uuid.UUID]chan []byte{}}
}

func (h *Hub) attach(actor uuid.UUID, out chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.sessions[actor]; ok {
		close(old)
	}
	h.sessions[actor] = out
}

func (h *Hub) detach(actor uuid.UUID, out chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Only the current session may detach itself; a reconnect already
	// replaced (and closed) the old channel.
	if cur, ok := h.sessions[actor]; ok && cur == out {
		delete(h.sessions, actor)
		close(cur)
	}
}

// Send marshals a NOTICE and queues it on the actor's session. Non-blocking:
// a slow client loses notices rather than stalling the coordinator. The lock
// is held through the send so attach cannot close the channel underneath it.
func (h *Hub) Send(actor uuid.UUID, messageID string, args ...any) {
	b, err := json.Marshal(protocol.NoticeMsg{
		Type:            protocol.TypeNotice,
		ProtocolVersion: protocol.Version,
		MessageID:       messageID,
		Args:            args,
	})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.sessions[actor]
	if !ok {
		return
	}
	select {
	case out <- b:
	default:
	}
}

// Online reports whether the actor has a live session.
func (h *Hub) Online(actor uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[actor]
	return ok
}
