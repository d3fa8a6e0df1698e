package models

import "time"

type Room struct {
	RoomID       string `json:"room_id"`
	Name         string `json:"name"`
	CurrentQueue *int   `json:"current_queue,omitempty"`
	Status       string `json:"status"`
}

type Doctor struct {
	DoctorID       string  `json:"doctor_id"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization,omitempty"`
	RoomID         *string `json:"room_id,omitempty"`
	Active         bool    `json:"active"`
}

type Patient struct {
	PatientID   string    `json:"patient_id"`
	HN          string    `json:"hn"`
	Name        string    `json:"name"`
	RoomID      *string   `json:"room_id,omitempty"`
	QueueNumber *int      `json:"queue_number,omitempty"`
	Status      string    `json:"status"`
	ArrivalTime time.Time `json:"arrival_time"`
}

// Snapshot is a consistent read of the whole dataset, taken at one
// point in time.
type Snapshot struct {
	Rooms    []Room    `json:"rooms"`
	Doctors  []Doctor  `json:"doctors"`
	Patients []Patient `json:"patients"`
}

const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

const (
	RoomActive   = "active"
	RoomInactive = "inactive"
)
