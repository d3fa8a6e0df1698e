package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicq/queue-service/internal/models"
	"clinicq/queue-service/internal/store"
)

type recordingNotifier struct {
	events []store.CallEvent
}

func (r *recordingNotifier) QueueCalled(event store.CallEvent) {
	r.events = append(r.events, event)
}

func newTestStore(t *testing.T) (*Store, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	return NewStore(Options{Notifier: notifier}), notifier
}

func mustCreateRoom(t *testing.T, s *Store, name string) models.Room {
	t.Helper()
	room, err := s.CreateRoom(context.Background(), name)
	if err != nil {
		t.Fatalf("create room %q: %v", name, err)
	}
	return room
}

func mustCreatePatient(t *testing.T, s *Store, hn, name string) models.Patient {
	t.Helper()
	patient, err := s.CreatePatient(context.Background(), store.CreatePatientInput{
		HN:          hn,
		Name:        name,
		ArrivalTime: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create patient %q: %v", hn, err)
	}
	return patient
}

func mustAddQueue(t *testing.T, s *Store, hn, roomID string) models.Patient {
	t.Helper()
	patient, err := s.AddQueue(context.Background(), store.AddQueueInput{HN: hn, RoomID: roomID})
	if err != nil {
		t.Fatalf("add queue %q to %q: %v", hn, roomID, err)
	}
	return patient
}

func TestAddQueueNumbersFromOne(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	mustCreatePatient(t, s, "HN001", "First")
	mustCreatePatient(t, s, "HN002", "Second")

	first := mustAddQueue(t, s, "HN001", room.RoomID)
	if first.QueueNumber == nil || *first.QueueNumber != 1 {
		t.Fatalf("expected queue number 1, got %v", first.QueueNumber)
	}
	if first.RoomID == nil || *first.RoomID != room.RoomID {
		t.Fatalf("expected room %q, got %v", room.RoomID, first.RoomID)
	}
	if first.Status != models.StatusWaiting {
		t.Fatalf("expected waiting, got %q", first.Status)
	}

	second := mustAddQueue(t, s, "HN002", room.RoomID)
	if second.QueueNumber == nil || *second.QueueNumber != 2 {
		t.Fatalf("expected queue number 2, got %v", second.QueueNumber)
	}
}

func TestAddQueueNeverReusesNumbers(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	first := mustCreatePatient(t, s, "HN001", "First")
	mustCreatePatient(t, s, "HN002", "Second")
	mustCreatePatient(t, s, "HN003", "Third")

	mustAddQueue(t, s, "HN001", room.RoomID)
	mustAddQueue(t, s, "HN002", room.RoomID)

	if _, err := s.DeleteQueue(context.Background(), first.PatientID); err != nil {
		t.Fatalf("delete queue: %v", err)
	}

	// Number 2 is still held, so the next entry gets 3, not 1.
	third := mustAddQueue(t, s, "HN003", room.RoomID)
	if third.QueueNumber == nil || *third.QueueNumber != 3 {
		t.Fatalf("expected queue number 3, got %v", third.QueueNumber)
	}
}

func TestAddQueueErrors(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	mustCreatePatient(t, s, "HN001", "First")

	if _, err := s.AddQueue(context.Background(), store.AddQueueInput{HN: "HN999", RoomID: room.RoomID}); !errors.Is(err, store.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
	if _, err := s.AddQueue(context.Background(), store.AddQueueInput{HN: "HN001", RoomID: "missing"}); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	if _, err := s.SetRoomStatus(context.Background(), room.RoomID, models.RoomInactive); err != nil {
		t.Fatalf("set room status: %v", err)
	}
	if _, err := s.AddQueue(context.Background(), store.AddQueueInput{HN: "HN001", RoomID: room.RoomID}); !errors.Is(err, store.ErrRoomInactive) {
		t.Fatalf("expected ErrRoomInactive, got %v", err)
	}

	// A rejected add leaves the patient untouched.
	patient, _, err := s.FindPatientByHN(context.Background(), "HN001")
	if err != nil || patient.RoomID != nil || patient.QueueNumber != nil {
		t.Fatalf("patient mutated by failed add: %+v err=%v", patient, err)
	}
}

func TestMoveQueueFreesOldSlot(t *testing.T) {
	s, _ := newTestStore(t)
	room1 := mustCreateRoom(t, s, "Room 1")
	room2 := mustCreateRoom(t, s, "Room 2")
	mustCreatePatient(t, s, "HN001", "First")
	second := mustCreatePatient(t, s, "HN002", "Second")
	mustCreatePatient(t, s, "HN003", "Third")

	mustAddQueue(t, s, "HN001", room1.RoomID)
	mustAddQueue(t, s, "HN002", room1.RoomID)

	moved, err := s.MoveQueue(context.Background(), second.PatientID, room2.RoomID)
	if err != nil {
		t.Fatalf("move queue: %v", err)
	}
	if moved.RoomID == nil || *moved.RoomID != room2.RoomID {
		t.Fatalf("expected room %q, got %v", room2.RoomID, moved.RoomID)
	}
	if moved.QueueNumber == nil || *moved.QueueNumber != 1 {
		t.Fatalf("expected queue number 1 in empty room, got %v", moved.QueueNumber)
	}

	// The moved patient no longer counts toward room 1's numbering.
	third := mustAddQueue(t, s, "HN003", room1.RoomID)
	if third.QueueNumber == nil || *third.QueueNumber != 2 {
		t.Fatalf("expected queue number 2, got %v", third.QueueNumber)
	}
}

func TestMoveQueueRequiresAssignment(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	patient := mustCreatePatient(t, s, "HN001", "First")

	if _, err := s.MoveQueue(context.Background(), patient.PatientID, room.RoomID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for unqueued patient, got %v", err)
	}
	if _, err := s.MoveQueue(context.Background(), "missing", room.RoomID); !errors.Is(err, store.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestDeleteQueueIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	patient := mustCreatePatient(t, s, "HN001", "First")
	mustAddQueue(t, s, "HN001", room.RoomID)

	first, err := s.DeleteQueue(context.Background(), patient.PatientID)
	if err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if first.Status != models.StatusCompleted || first.RoomID != nil || first.QueueNumber != nil {
		t.Fatalf("unexpected state after delete: %+v", first)
	}

	eventsBefore, err := s.ListEvents(context.Background(), time.Time{}, 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}

	second, err := s.DeleteQueue(context.Background(), patient.PatientID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if second.Status != models.StatusCompleted || second.RoomID != nil || second.QueueNumber != nil {
		t.Fatalf("second delete changed state: %+v", second)
	}

	eventsAfter, err := s.ListEvents(context.Background(), time.Time{}, 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(eventsAfter) != len(eventsBefore) {
		t.Fatalf("no-op delete emitted an event: %d -> %d", len(eventsBefore), len(eventsAfter))
	}
}

func TestCallQueueActivatesAndDemotes(t *testing.T) {
	s, notifier := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	mustCreatePatient(t, s, "HN001", "First")
	mustCreatePatient(t, s, "HN002", "Second")
	first := mustAddQueue(t, s, "HN001", room.RoomID)
	second := mustAddQueue(t, s, "HN002", room.RoomID)

	if _, err := s.CallQueue(context.Background(), store.CallQueueInput{RoomID: room.RoomID, QueueNumber: *first.QueueNumber}); err != nil {
		t.Fatalf("call first: %v", err)
	}
	called, err := s.CallQueue(context.Background(), store.CallQueueInput{RoomID: room.RoomID, QueueNumber: *second.QueueNumber})
	if err != nil {
		t.Fatalf("call second: %v", err)
	}
	if called.Status != models.StatusActive {
		t.Fatalf("expected active, got %q", called.Status)
	}

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.Rooms[0].CurrentQueue == nil || *snapshot.Rooms[0].CurrentQueue != *second.QueueNumber {
		t.Fatalf("room current queue not updated: %+v", snapshot.Rooms[0])
	}

	activeCount := 0
	for _, patient := range snapshot.Patients {
		if patient.Status == models.StatusActive {
			activeCount++
		}
		if patient.PatientID == first.PatientID && patient.Status != models.StatusWaiting {
			t.Fatalf("previously active patient not demoted: %+v", patient)
		}
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active patient, got %d", activeCount)
	}

	if len(notifier.events) != 2 {
		t.Fatalf("expected 2 call events, got %d", len(notifier.events))
	}
	last := notifier.events[1]
	if last.RoomID != room.RoomID || last.QueueNumber != *second.QueueNumber || last.PatientID != second.PatientID {
		t.Fatalf("unexpected call event: %+v", last)
	}
}

func TestCallQueueUnknownNumber(t *testing.T) {
	s, notifier := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	mustCreatePatient(t, s, "HN001", "First")
	mustAddQueue(t, s, "HN001", room.RoomID)

	before, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if _, err := s.CallQueue(context.Background(), store.CallQueueInput{RoomID: room.RoomID, QueueNumber: 42}); !errors.Is(err, store.ErrQueueNotFound) {
		t.Fatalf("expected ErrQueueNotFound, got %v", err)
	}
	if _, err := s.CallQueue(context.Background(), store.CallQueueInput{RoomID: "missing", QueueNumber: 1}); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	after, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(after.Patients) != len(before.Patients) || after.Patients[0].Status != before.Patients[0].Status {
		t.Fatalf("failed call mutated state")
	}
	if after.Rooms[0].CurrentQueue != nil {
		t.Fatalf("failed call set current queue: %v", *after.Rooms[0].CurrentQueue)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("failed call fired the hook %d times", len(notifier.events))
	}
}

func TestCallQueueAfterDelete(t *testing.T) {
	s, notifier := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	patient := mustCreatePatient(t, s, "HN001", "First")
	queued := mustAddQueue(t, s, "HN001", room.RoomID)

	if _, err := s.DeleteQueue(context.Background(), patient.PatientID); err != nil {
		t.Fatalf("delete queue: %v", err)
	}

	if _, err := s.CallQueue(context.Background(), store.CallQueueInput{RoomID: room.RoomID, QueueNumber: *queued.QueueNumber}); !errors.Is(err, store.ErrQueueNotFound) {
		t.Fatalf("expected ErrQueueNotFound for a retired number, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("failed call fired the hook %d times", len(notifier.events))
	}
}

func TestQueueNumbersUniquePerRoom(t *testing.T) {
	s, _ := newTestStore(t)
	room1 := mustCreateRoom(t, s, "Room 1")
	room2 := mustCreateRoom(t, s, "Room 2")
	hns := []string{"HN001", "HN002", "HN003", "HN004", "HN005"}
	for _, hn := range hns {
		mustCreatePatient(t, s, hn, hn)
	}
	mustAddQueue(t, s, "HN001", room1.RoomID)
	mustAddQueue(t, s, "HN002", room1.RoomID)
	mustAddQueue(t, s, "HN003", room2.RoomID)
	mustAddQueue(t, s, "HN004", room2.RoomID)
	patient := mustAddQueue(t, s, "HN005", room1.RoomID)
	if _, err := s.MoveQueue(context.Background(), patient.PatientID, room2.RoomID); err != nil {
		t.Fatalf("move: %v", err)
	}

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	seen := map[string]map[int]bool{}
	for _, p := range snapshot.Patients {
		if p.Status == models.StatusCompleted || p.RoomID == nil || p.QueueNumber == nil {
			continue
		}
		if seen[*p.RoomID] == nil {
			seen[*p.RoomID] = map[int]bool{}
		}
		if seen[*p.RoomID][*p.QueueNumber] {
			t.Fatalf("duplicate queue number %d in room %s", *p.QueueNumber, *p.RoomID)
		}
		seen[*p.RoomID][*p.QueueNumber] = true
	}
}

func TestAssignDoctorConflict(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")

	d1, err := s.CreateDoctor(context.Background(), store.CreateDoctorInput{Name: "Dr. A", RoomID: room.RoomID})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	d2, err := s.CreateDoctor(context.Background(), store.CreateDoctorInput{Name: "Dr. B"})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	if _, err := s.AssignDoctor(context.Background(), d2.DoctorID, &room.RoomID); !errors.Is(err, store.ErrRoomStaffed) {
		t.Fatalf("expected ErrRoomStaffed, got %v", err)
	}

	doctors, err := s.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	for _, doctor := range doctors {
		if doctor.DoctorID == d2.DoctorID && doctor.RoomID != nil {
			t.Fatalf("rejected assignment mutated doctor: %+v", doctor)
		}
	}

	// Deactivating the incumbent releases the room.
	if _, err := s.SetDoctorActive(context.Background(), d1.DoctorID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	assigned, err := s.AssignDoctor(context.Background(), d2.DoctorID, &room.RoomID)
	if err != nil {
		t.Fatalf("assign after deactivation: %v", err)
	}
	if assigned.RoomID == nil || *assigned.RoomID != room.RoomID {
		t.Fatalf("doctor not assigned: %+v", assigned)
	}

	// And reactivating the old doctor in the now-staffed room conflicts.
	if _, err := s.SetDoctorActive(context.Background(), d1.DoctorID, true); !errors.Is(err, store.ErrRoomStaffed) {
		t.Fatalf("expected ErrRoomStaffed on reactivation, got %v", err)
	}
}

func TestAssignDoctorUnassign(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	doctor, err := s.CreateDoctor(context.Background(), store.CreateDoctorInput{Name: "Dr. A", RoomID: room.RoomID})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	unassigned, err := s.AssignDoctor(context.Background(), doctor.DoctorID, nil)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if unassigned.RoomID != nil {
		t.Fatalf("expected no room, got %v", *unassigned.RoomID)
	}
}

func TestFindPatientByHN(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreatePatient(t, s, "HN001234", "Exact")
	mustCreatePatient(t, s, "HN001235", "Partial")

	exact, found, err := s.FindPatientByHN(context.Background(), "HN001235")
	if err != nil || !found || exact.Name != "Partial" {
		t.Fatalf("exact match failed: %+v found=%v err=%v", exact, found, err)
	}

	partial, found, err := s.FindPatientByHN(context.Background(), "1234")
	if err != nil || !found || partial.HN != "HN001234" {
		t.Fatalf("substring match failed: %+v found=%v err=%v", partial, found, err)
	}

	_, found, err = s.FindPatientByHN(context.Background(), "HN999")
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if found {
		t.Fatalf("expected no match")
	}
}

func TestCreatePatientDuplicateHN(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreatePatient(t, s, "HN001", "First")

	_, err := s.CreatePatient(context.Background(), store.CreatePatientInput{HN: "HN001", Name: "Clone"})
	if !errors.Is(err, store.ErrDuplicateHN) {
		t.Fatalf("expected ErrDuplicateHN, got %v", err)
	}
}

func TestDeleteRoomGuards(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	patient := mustCreatePatient(t, s, "HN001", "First")
	mustAddQueue(t, s, "HN001", room.RoomID)
	doctor, err := s.CreateDoctor(context.Background(), store.CreateDoctorInput{Name: "Dr. A", RoomID: room.RoomID})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	if err := s.DeleteRoom(context.Background(), room.RoomID); !errors.Is(err, store.ErrRoomHasQueue) {
		t.Fatalf("expected ErrRoomHasQueue, got %v", err)
	}

	if _, err := s.DeleteQueue(context.Background(), patient.PatientID); err != nil {
		t.Fatalf("delete queue: %v", err)
	}
	if err := s.DeleteRoom(context.Background(), room.RoomID); err != nil {
		t.Fatalf("delete room: %v", err)
	}

	doctors, err := s.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(doctors) != 1 || doctors[0].DoctorID != doctor.DoctorID || doctors[0].RoomID != nil {
		t.Fatalf("doctor should be unassigned after room delete: %+v", doctors)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustCreateRoom(t, s, "Room 1")
	mustCreatePatient(t, s, "HN001", "First")
	patient := mustAddQueue(t, s, "HN001", room.RoomID)

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if _, err := s.CallQueue(context.Background(), store.CallQueueInput{RoomID: room.RoomID, QueueNumber: *patient.QueueNumber}); err != nil {
		t.Fatalf("call: %v", err)
	}

	if snapshot.Patients[0].Status != models.StatusWaiting {
		t.Fatalf("snapshot observed a later mutation")
	}
	if snapshot.Rooms[0].CurrentQueue != nil {
		t.Fatalf("snapshot room observed a later mutation")
	}
}

func TestSeedDemo(t *testing.T) {
	s, _ := newTestStore(t)
	s.SeedDemo()
	s.SeedDemo() // second call is a no-op

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Rooms) != 4 || len(snapshot.Doctors) != 4 || len(snapshot.Patients) != 6 {
		t.Fatalf("unexpected seed sizes: %d rooms, %d doctors, %d patients",
			len(snapshot.Rooms), len(snapshot.Doctors), len(snapshot.Patients))
	}
}
