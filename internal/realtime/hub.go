package realtime

import (
	"log/slog"
	"sync"
)

// Hub is the broadcast group: a concurrency-safe registry of connected,
// authenticated sessions. Add and remove are idempotent, so a disconnect
// racing a server-side close deregisters exactly once.
type Hub struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:      log.With(slog.String("component", "hub")),
		sessions: make(map[string]*Session),
	}
}

// Register adds a session to the broadcast group.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	h.log.Info("session registered", slog.String("session", s.id), slog.String("user", s.username))
}

// Unregister removes a session from the broadcast group. A session that was
// already removed is a no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	if ok {
		h.log.Info("session unregistered", slog.String("session", id))
	}
}

// Count returns the number of currently registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Publish delivers the event to every currently registered session.
// Delivery is fire-and-forget: a session whose outbound queue is full is
// skipped and the event is dropped for it, never blocking the caller. A
// session not registered at publish time receives nothing, now or later.
func (h *Hub) Publish(ev Event) {
	payload, err := ev.marshal()
	if err != nil {
		h.log.Error("marshal event", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.enqueue(payload) {
			h.log.Warn("event dropped for slow or closed session",
				slog.String("session", s.id),
				slog.String("user", s.username),
				slog.String("fileId", ev.FileID))
		}
	}
}
