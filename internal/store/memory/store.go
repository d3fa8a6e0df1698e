// Package memory implements the queue store on plain in-process maps.
// It is the authoritative dataset for a single-process deployment; the
// postgres package implements the same interface for persistence.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"clinicq/queue-service/internal/models"
	"clinicq/queue-service/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	rooms    map[string]models.Room
	doctors  map[string]models.Doctor
	patients map[string]models.Patient
	events   []store.Event
	notifier store.Notifier
}

type Options struct {
	Notifier store.Notifier
}

func NewStore(options Options) *Store {
	return &Store{
		rooms:    make(map[string]models.Room),
		doctors:  make(map[string]models.Doctor),
		patients: make(map[string]models.Patient),
		notifier: options.Notifier,
	}
}

// SetNotifier replaces the queue-called hook. Intended for wiring at
// startup, before the store is shared.
func (s *Store) SetNotifier(n store.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

func (s *Store) AddQueue(ctx context.Context, input store.AddQueueInput) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.findByHNLocked(input.HN)
	if !ok {
		return models.Patient{}, store.ErrPatientNotFound
	}
	room, ok := s.rooms[input.RoomID]
	if !ok {
		return models.Patient{}, store.ErrRoomNotFound
	}
	if room.Status != models.RoomActive {
		return models.Patient{}, store.ErrRoomInactive
	}

	number := s.maxQueueNumberLocked(room.RoomID, patient.PatientID) + 1
	patient.RoomID = &room.RoomID
	patient.QueueNumber = &number
	patient.Status = models.StatusWaiting
	s.patients[patient.PatientID] = patient

	s.appendEventLocked(store.EventQueueAdded, patient)
	return clonePatient(patient), nil
}

func (s *Store) MoveQueue(ctx context.Context, patientID, roomID string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.patients[patientID]
	if !ok {
		return models.Patient{}, store.ErrPatientNotFound
	}
	if patient.RoomID == nil || !store.ValidTransition("move", patient.Status) {
		return models.Patient{}, store.ErrInvalidState
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return models.Patient{}, store.ErrRoomNotFound
	}
	if room.Status != models.RoomActive {
		return models.Patient{}, store.ErrRoomInactive
	}

	number := s.maxQueueNumberLocked(room.RoomID, patient.PatientID) + 1
	patient.RoomID = &room.RoomID
	patient.QueueNumber = &number
	patient.Status = models.StatusWaiting
	s.patients[patient.PatientID] = patient

	s.appendEventLocked(store.EventQueueMoved, patient)
	return clonePatient(patient), nil
}

func (s *Store) DeleteQueue(ctx context.Context, patientID string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.patients[patientID]
	if !ok {
		return models.Patient{}, store.ErrPatientNotFound
	}
	if !store.ValidTransition("delete", patient.Status) {
		// Deleting twice is a no-op, not an error.
		return clonePatient(patient), nil
	}

	patient.RoomID = nil
	patient.QueueNumber = nil
	patient.Status = models.StatusCompleted
	s.patients[patient.PatientID] = patient

	s.appendEventLocked(store.EventQueueDeleted, patient)
	return clonePatient(patient), nil
}

func (s *Store) CallQueue(ctx context.Context, input store.CallQueueInput) (models.Patient, error) {
	s.mu.Lock()

	room, ok := s.rooms[input.RoomID]
	if !ok {
		s.mu.Unlock()
		return models.Patient{}, store.ErrRoomNotFound
	}

	called, ok := s.findByQueueNumberLocked(room.RoomID, input.QueueNumber)
	if !ok || !store.ValidTransition("call", called.Status) {
		s.mu.Unlock()
		return models.Patient{}, store.ErrQueueNotFound
	}

	// One active patient per room: whoever was being served goes back
	// to waiting before the called patient becomes active.
	for id, other := range s.patients {
		if id == called.PatientID {
			continue
		}
		if other.RoomID != nil && *other.RoomID == room.RoomID && other.Status == models.StatusActive {
			other.Status = models.StatusWaiting
			s.patients[id] = other
		}
	}

	number := input.QueueNumber
	room.CurrentQueue = &number
	s.rooms[room.RoomID] = room

	called.Status = models.StatusActive
	s.patients[called.PatientID] = called

	calledAt := input.CalledAt
	if calledAt.IsZero() {
		calledAt = time.Now().UTC()
	}
	event := store.CallEvent{
		RoomID:      room.RoomID,
		QueueNumber: input.QueueNumber,
		PatientID:   called.PatientID,
		CalledAt:    calledAt,
	}
	s.appendEventLocked(store.EventQueueCalled, event)
	notifier := s.notifier
	result := clonePatient(called)
	s.mu.Unlock()

	// The hook runs outside the lock so a subscriber reading the store
	// from its callback cannot deadlock.
	if notifier != nil {
		notifier.QueueCalled(event)
	}
	return result, nil
}

func (s *Store) AssignDoctor(ctx context.Context, doctorID string, roomID *string) (models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctor, ok := s.doctors[doctorID]
	if !ok {
		return models.Doctor{}, store.ErrDoctorNotFound
	}
	if roomID != nil {
		room, ok := s.rooms[*roomID]
		if !ok {
			return models.Doctor{}, store.ErrRoomNotFound
		}
		if s.roomStaffedLocked(room.RoomID, doctor.DoctorID) {
			return models.Doctor{}, store.ErrRoomStaffed
		}
		id := room.RoomID
		doctor.RoomID = &id
	} else {
		doctor.RoomID = nil
	}
	s.doctors[doctor.DoctorID] = doctor

	s.appendEventLocked(store.EventDoctorAssigned, doctor)
	return cloneDoctor(doctor), nil
}

func (s *Store) SetDoctorActive(ctx context.Context, doctorID string, active bool) (models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctor, ok := s.doctors[doctorID]
	if !ok {
		return models.Doctor{}, store.ErrDoctorNotFound
	}
	if active && doctor.RoomID != nil && s.roomStaffedLocked(*doctor.RoomID, doctor.DoctorID) {
		return models.Doctor{}, store.ErrRoomStaffed
	}
	doctor.Active = active
	s.doctors[doctor.DoctorID] = doctor

	s.appendEventLocked(store.EventDoctorStatus, doctor)
	return cloneDoctor(doctor), nil
}

func (s *Store) CreateDoctor(ctx context.Context, input store.CreateDoctorInput) (models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctor := models.Doctor{
		DoctorID:       uuid.NewString(),
		Name:           input.Name,
		Specialization: input.Specialization,
		Active:         true,
	}
	if input.RoomID != "" {
		room, ok := s.rooms[input.RoomID]
		if !ok {
			return models.Doctor{}, store.ErrRoomNotFound
		}
		if s.roomStaffedLocked(room.RoomID, doctor.DoctorID) {
			return models.Doctor{}, store.ErrRoomStaffed
		}
		id := room.RoomID
		doctor.RoomID = &id
	}
	s.doctors[doctor.DoctorID] = doctor
	return cloneDoctor(doctor), nil
}

func (s *Store) RemoveDoctor(ctx context.Context, doctorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doctors[doctorID]; !ok {
		return store.ErrDoctorNotFound
	}
	delete(s.doctors, doctorID)
	return nil
}

func (s *Store) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listDoctorsLocked(), nil
}

func (s *Store) CreateRoom(ctx context.Context, name string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := models.Room{
		RoomID: uuid.NewString(),
		Name:   name,
		Status: models.RoomActive,
	}
	s.rooms[room.RoomID] = room
	return cloneRoom(room), nil
}

func (s *Store) RenameRoom(ctx context.Context, roomID, name string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.Room{}, store.ErrRoomNotFound
	}
	room.Name = name
	s.rooms[room.RoomID] = room
	return cloneRoom(room), nil
}

func (s *Store) SetRoomStatus(ctx context.Context, roomID, status string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return models.Room{}, store.ErrRoomNotFound
	}
	room.Status = status
	s.rooms[room.RoomID] = room
	return cloneRoom(room), nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return store.ErrRoomNotFound
	}
	for _, patient := range s.patients {
		if patient.RoomID != nil && *patient.RoomID == roomID && patient.Status != models.StatusCompleted {
			return store.ErrRoomHasQueue
		}
	}
	for id, doctor := range s.doctors {
		if doctor.RoomID != nil && *doctor.RoomID == roomID {
			doctor.RoomID = nil
			s.doctors[id] = doctor
		}
	}
	delete(s.rooms, roomID)
	return nil
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRoomsLocked(), nil
}

func (s *Store) CreatePatient(ctx context.Context, input store.CreatePatientInput) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.patients {
		if existing.HN == input.HN {
			return models.Patient{}, store.ErrDuplicateHN
		}
	}

	arrival := input.ArrivalTime
	if arrival.IsZero() {
		arrival = time.Now().UTC()
	}
	patient := models.Patient{
		PatientID:   uuid.NewString(),
		HN:          input.HN,
		Name:        input.Name,
		Status:      models.StatusWaiting,
		ArrivalTime: arrival,
	}
	s.patients[patient.PatientID] = patient
	return clonePatient(patient), nil
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.patients[patientID]
	if !ok {
		return models.Patient{}, store.ErrPatientNotFound
	}
	return clonePatient(patient), nil
}

func (s *Store) ListPatients(ctx context.Context) ([]models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPatientsLocked(), nil
}

// FindPatientByHN resolves a patient code: exact match first, then the
// first substring match in HN order. A miss is a normal outcome, not
// an error.
func (s *Store) FindPatientByHN(ctx context.Context, code string) (models.Patient, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patient, ok := s.findByHNLocked(code); ok {
		return clonePatient(patient), true, nil
	}

	patients := s.listPatientsLocked()
	sort.Slice(patients, func(i, j int) bool { return patients[i].HN < patients[j].HN })
	for _, patient := range patients {
		if strings.Contains(patient.HN, code) {
			return patient, true, nil
		}
	}
	return models.Patient{}, false, nil
}

func (s *Store) Snapshot(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.Snapshot{
		Rooms:    s.listRoomsLocked(),
		Doctors:  s.listDoctorsLocked(),
		Patients: s.listPatientsLocked(),
	}, nil
}

func (s *Store) ListEvents(ctx context.Context, after time.Time, limit int) ([]store.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	events := make([]store.Event, 0, limit)
	for _, event := range s.events {
		if !after.IsZero() && !event.CreatedAt.After(after) {
			continue
		}
		events = append(events, event)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *Store) findByHNLocked(hn string) (models.Patient, bool) {
	for _, patient := range s.patients {
		if patient.HN == hn {
			return patient, true
		}
	}
	return models.Patient{}, false
}

func (s *Store) findByQueueNumberLocked(roomID string, number int) (models.Patient, bool) {
	for _, patient := range s.patients {
		if patient.RoomID != nil && *patient.RoomID == roomID &&
			patient.QueueNumber != nil && *patient.QueueNumber == number {
			return patient, true
		}
	}
	return models.Patient{}, false
}

// maxQueueNumberLocked returns the highest queue number held by a
// non-completed patient in the room, excluding excludeID so moves
// within a room do not count the moving patient's own slot.
func (s *Store) maxQueueNumberLocked(roomID, excludeID string) int {
	max := 0
	for _, patient := range s.patients {
		if patient.PatientID == excludeID || patient.Status == models.StatusCompleted {
			continue
		}
		if patient.RoomID == nil || *patient.RoomID != roomID || patient.QueueNumber == nil {
			continue
		}
		if *patient.QueueNumber > max {
			max = *patient.QueueNumber
		}
	}
	return max
}

func (s *Store) roomStaffedLocked(roomID, excludeDoctorID string) bool {
	for _, doctor := range s.doctors {
		if doctor.DoctorID == excludeDoctorID {
			continue
		}
		if doctor.Active && doctor.RoomID != nil && *doctor.RoomID == roomID {
			return true
		}
	}
	return false
}

func (s *Store) appendEventLocked(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.events = append(s.events, store.Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Store) listRoomsLocked() []models.Room {
	rooms := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, cloneRoom(room))
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

func (s *Store) listDoctorsLocked() []models.Doctor {
	doctors := make([]models.Doctor, 0, len(s.doctors))
	for _, doctor := range s.doctors {
		doctors = append(doctors, cloneDoctor(doctor))
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors
}

func (s *Store) listPatientsLocked() []models.Patient {
	patients := make([]models.Patient, 0, len(s.patients))
	for _, patient := range s.patients {
		patients = append(patients, clonePatient(patient))
	}
	sort.Slice(patients, func(i, j int) bool {
		if !patients[i].ArrivalTime.Equal(patients[j].ArrivalTime) {
			return patients[i].ArrivalTime.Before(patients[j].ArrivalTime)
		}
		return patients[i].PatientID < patients[j].PatientID
	})
	return patients
}

func cloneRoom(room models.Room) models.Room {
	if room.CurrentQueue != nil {
		number := *room.CurrentQueue
		room.CurrentQueue = &number
	}
	return room
}

func cloneDoctor(doctor models.Doctor) models.Doctor {
	if doctor.RoomID != nil {
		id := *doctor.RoomID
		doctor.RoomID = &id
	}
	return doctor
}

func clonePatient(patient models.Patient) models.Patient {
	if patient.RoomID != nil {
		id := *patient.RoomID
		patient.RoomID = &id
	}
	if patient.QueueNumber != nil {
		number := *patient.QueueNumber
		patient.QueueNumber = &number
	}
	return patient
}
