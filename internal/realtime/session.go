package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Close codes for connections rejected before entering the broadcast group.
const (
	CloseAuthRequired = 4001
	CloseTokenExpired = 4004
	CloseTokenInvalid = 4005
)

// Session relays broadcast events to one websocket connection and answers
// inbound heartbeats. Each connection gets its own Session; the only state
// shared between connections is the Hub registry.
type Session struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	log      *slog.Logger
}

func NewSession(conn *websocket.Conn, username string, sendBuffer int, log *slog.Logger) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		log:      log.With(slog.String("session", id), slog.String("user", username)),
	}
}

// Run registers the session with the hub and services the connection until
// the transport closes, from either side. Deregistration happens exactly
// once on the way out.
func (s *Session) Run(hub *Hub) {
	hub.Register(s)
	defer func() {
		hub.Unregister(s.id)
		s.close()
	}()

	go s.writePump()
	s.readLoop()
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("session read failed", slog.String("error", err.Error()))
			}
			return
		}
		if reply := s.handleInbound(data); reply != nil {
			s.enqueue(reply)
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case payload := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				// Treated as disconnected; readLoop unwinds on its own.
				s.log.Warn("session write failed", slog.String("error", err.Error()))
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// handleInbound parses one client message and returns the reply payload, or
// nil when no reply is due. Malformed JSON is answered with a structured
// error and the session stays connected.
func (s *Session) handleInbound(data []byte) []byte {
	var msg struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		reply, _ := json.Marshal(errorMessage{Error: "Invalid JSON format", Status: "error"})
		return reply
	}

	if msg.Action == "ping" {
		reply, _ := json.Marshal(pongMessage{Action: "pong", User: s.username, Status: "authenticated"})
		return reply
	}

	return nil
}

// enqueue offers a payload to the writer. It reports false when the session
// is closed or its buffer is full; the payload is dropped in both cases.
func (s *Session) enqueue(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Reject closes an unauthenticated connection with the given close code
// without ever registering it; the client receives no other messages.
func Reject(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = conn.Close()
}
