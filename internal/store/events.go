package store

import (
	"encoding/json"
	"time"
)

// Event is one entry of the lifecycle outbox. The presentation layer
// polls these to refresh its views; the realtime fan-out uses the
// queue-called hook instead.
type Event struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	EventQueueAdded     = "queue.added"
	EventQueueMoved     = "queue.moved"
	EventQueueDeleted   = "queue.deleted"
	EventQueueCalled    = "queue.called"
	EventDoctorAssigned = "doctor.assigned"
	EventDoctorStatus   = "doctor.status"
)
