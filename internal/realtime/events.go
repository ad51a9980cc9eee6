package realtime

import (
	"encoding/json"
	"time"
)

// Action describes what happened to a file.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is a file-change notification fanned out to connected sessions.
type Event struct {
	FileID    string
	Action    Action
	Actor     string
	Data      map[string]interface{}
	Timestamp time.Time
}

// fileUpdateMessage is the wire form of an Event.
type fileUpdateMessage struct {
	Type      string                 `json:"type"`
	FileID    string                 `json:"fileId"`
	Action    Action                 `json:"action"`
	Data      map[string]interface{} `json:"data,omitempty"`
	User      string                 `json:"user"`
	Timestamp string                 `json:"timestamp"`
}

type pongMessage struct {
	Action string `json:"action"`
	User   string `json:"user"`
	Status string `json:"status"`
}

type errorMessage struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func (e Event) marshal() ([]byte, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return json.Marshal(fileUpdateMessage{
		Type:      "file_update",
		FileID:    e.FileID,
		Action:    e.Action,
		Data:      e.Data,
		User:      e.Actor,
		Timestamp: ts.UTC().Format(time.RFC3339),
	})
}
