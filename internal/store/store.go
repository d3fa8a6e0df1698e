package store

import (
	"context"
	"time"

	"clinicq/queue-service/internal/models"
)

type CreatePatientInput struct {
	HN          string
	Name        string
	ArrivalTime time.Time
}

type CreateDoctorInput struct {
	Name           string
	Specialization string
	RoomID         string
}

type AddQueueInput struct {
	HN     string
	RoomID string
}

type CallQueueInput struct {
	RoomID      string
	QueueNumber int
	CalledAt    time.Time
}

// CallEvent describes one successful call action; it is handed to the
// queue-called hook for external announcement.
type CallEvent struct {
	RoomID      string    `json:"room_id"`
	QueueNumber int       `json:"queue_number"`
	PatientID   string    `json:"patient_id"`
	CalledAt    time.Time `json:"called_at"`
}

// Store is the single mutation and query surface for rooms, doctors,
// and patients. Every mutating method is atomic: it either applies
// fully or returns an error leaving the dataset untouched.
type Store interface {
	AddQueue(ctx context.Context, input AddQueueInput) (models.Patient, error)
	MoveQueue(ctx context.Context, patientID, roomID string) (models.Patient, error)
	DeleteQueue(ctx context.Context, patientID string) (models.Patient, error)
	CallQueue(ctx context.Context, input CallQueueInput) (models.Patient, error)

	AssignDoctor(ctx context.Context, doctorID string, roomID *string) (models.Doctor, error)
	SetDoctorActive(ctx context.Context, doctorID string, active bool) (models.Doctor, error)
	CreateDoctor(ctx context.Context, input CreateDoctorInput) (models.Doctor, error)
	RemoveDoctor(ctx context.Context, doctorID string) error
	ListDoctors(ctx context.Context) ([]models.Doctor, error)

	CreateRoom(ctx context.Context, name string) (models.Room, error)
	RenameRoom(ctx context.Context, roomID, name string) (models.Room, error)
	SetRoomStatus(ctx context.Context, roomID, status string) (models.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	ListRooms(ctx context.Context) ([]models.Room, error)

	CreatePatient(ctx context.Context, input CreatePatientInput) (models.Patient, error)
	GetPatient(ctx context.Context, patientID string) (models.Patient, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	FindPatientByHN(ctx context.Context, code string) (models.Patient, bool, error)

	Snapshot(ctx context.Context) (models.Snapshot, error)
	ListEvents(ctx context.Context, after time.Time, limit int) ([]Event, error)
}

// Notifier receives the queue-called hook. Implementations must not
// call back into the store synchronously.
type Notifier interface {
	QueueCalled(event CallEvent)
}

type NotifierFunc func(event CallEvent)

func (f NotifierFunc) QueueCalled(event CallEvent) { f(event) }
