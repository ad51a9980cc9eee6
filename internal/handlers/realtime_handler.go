package handlers

import (
	"log/slog"

	"cloud-storage-api/internal/middleware"
	"cloud-storage-api/internal/realtime"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RealtimeHandler upgrades connections into broadcast sessions
type RealtimeHandler struct {
	hub        *realtime.Hub
	sendBuffer int
	log        *slog.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, sendBuffer int, log *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        hub,
		sendBuffer: sendBuffer,
		log:        log,
	}
}

// Handle accepts an upgraded connection. Unauthenticated connections are
// closed with their 4001-range code and never join the broadcast group.
func (h *RealtimeHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		user, closeCode := middleware.WsUser(conn)
		if user == nil {
			realtime.Reject(conn, closeCode, "authentication required")
			return
		}

		session := realtime.NewSession(conn, user.Username, h.sendBuffer, h.log)
		session.Run(h.hub)
	})
}
