// Package postgres implements the queue store on PostgreSQL via pgx.
// Numbering relies on row-locking the target room so two concurrent
// adds cannot hand out the same queue number.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"clinicq/queue-service/internal/models"
	"clinicq/queue-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool     *pgxpool.Pool
	notifier store.Notifier
}

type Options struct {
	Notifier store.Notifier
}

func NewStore(pool *pgxpool.Pool, options Options) *Store {
	return &Store{pool: pool, notifier: options.Notifier}
}

func (s *Store) SetNotifier(n store.Notifier) {
	s.notifier = n
}

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	room_id       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	current_queue INT,
	status        TEXT NOT NULL DEFAULT 'active'
);
CREATE TABLE IF NOT EXISTS doctors (
	doctor_id      TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	specialization TEXT NOT NULL DEFAULT '',
	room_id        TEXT REFERENCES rooms(room_id),
	active         BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS patients (
	patient_id   TEXT PRIMARY KEY,
	hn           TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	room_id      TEXT REFERENCES rooms(room_id),
	queue_number INT,
	status       TEXT NOT NULL,
	arrival_time TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	event_id   TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_patients_room ON patients (room_id) WHERE status <> 'completed';
CREATE INDEX IF NOT EXISTS idx_events_created ON events (created_at);
`

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) AddQueue(ctx context.Context, input store.AddQueueInput) (models.Patient, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Patient{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock order is room then patient across every queue mutation so
	// concurrent add, move, and call cannot deadlock.
	if err = lockActiveRoom(ctx, tx, input.RoomID); err != nil {
		return models.Patient{}, err
	}
	patientID, err := patientIDByHN(ctx, tx, input.HN)
	if err != nil {
		return models.Patient{}, err
	}

	patient, err := assignQueueNumber(ctx, tx, patientID, input.RoomID)
	if err != nil {
		return models.Patient{}, err
	}
	if err = insertEvent(ctx, tx, store.EventQueueAdded, patient); err != nil {
		return models.Patient{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (s *Store) MoveQueue(ctx context.Context, patientID, roomID string) (models.Patient, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Patient{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockActiveRoom(ctx, tx, roomID); err != nil {
		return models.Patient{}, err
	}
	current, err := getPatientTx(ctx, tx, patientID)
	if err != nil {
		return models.Patient{}, err
	}
	if current.RoomID == nil || !store.ValidTransition("move", current.Status) {
		err = store.ErrInvalidState
		return models.Patient{}, err
	}

	patient, err := assignQueueNumber(ctx, tx, patientID, roomID)
	if err != nil {
		return models.Patient{}, err
	}
	if err = insertEvent(ctx, tx, store.EventQueueMoved, patient); err != nil {
		return models.Patient{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (s *Store) DeleteQueue(ctx context.Context, patientID string) (models.Patient, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Patient{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := getPatientTx(ctx, tx, patientID)
	if err != nil {
		return models.Patient{}, err
	}
	if !store.ValidTransition("delete", current.Status) {
		if err = tx.Commit(ctx); err != nil {
			return models.Patient{}, err
		}
		return current, nil
	}

	patient, err := scanPatientRow(tx.QueryRow(ctx, `
		UPDATE patients
		SET room_id = NULL, queue_number = NULL, status = $2
		WHERE patient_id = $1
		RETURNING patient_id, hn, name, room_id, queue_number, status, arrival_time
	`, patientID, models.StatusCompleted))
	if err != nil {
		return models.Patient{}, err
	}
	if err = insertEvent(ctx, tx, store.EventQueueDeleted, patient); err != nil {
		return models.Patient{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (s *Store) CallQueue(ctx context.Context, input store.CallQueueInput) (models.Patient, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Patient{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockRoom(ctx, tx, input.RoomID); err != nil {
		return models.Patient{}, err
	}

	var calledID, calledStatus string
	row := tx.QueryRow(ctx, `
		SELECT patient_id, status FROM patients
		WHERE room_id = $1 AND queue_number = $2
		FOR UPDATE
	`, input.RoomID, input.QueueNumber)
	if err = row.Scan(&calledID, &calledStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrQueueNotFound
		}
		return models.Patient{}, err
	}
	if !store.ValidTransition("call", calledStatus) {
		err = store.ErrQueueNotFound
		return models.Patient{}, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE patients SET status = $3
		WHERE room_id = $1 AND status = $2 AND patient_id <> $4
	`, input.RoomID, models.StatusActive, models.StatusWaiting, calledID); err != nil {
		return models.Patient{}, err
	}

	patient, err := scanPatientRow(tx.QueryRow(ctx, `
		UPDATE patients SET status = $2
		WHERE patient_id = $1
		RETURNING patient_id, hn, name, room_id, queue_number, status, arrival_time
	`, calledID, models.StatusActive))
	if err != nil {
		return models.Patient{}, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE rooms SET current_queue = $2 WHERE room_id = $1
	`, input.RoomID, input.QueueNumber); err != nil {
		return models.Patient{}, err
	}

	calledAt := input.CalledAt
	if calledAt.IsZero() {
		calledAt = time.Now().UTC()
	}
	event := store.CallEvent{
		RoomID:      input.RoomID,
		QueueNumber: input.QueueNumber,
		PatientID:   calledID,
		CalledAt:    calledAt,
	}
	if err = insertEvent(ctx, tx, store.EventQueueCalled, event); err != nil {
		return models.Patient{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Patient{}, err
	}

	if s.notifier != nil {
		s.notifier.QueueCalled(event)
	}
	return patient, nil
}

func (s *Store) AssignDoctor(ctx context.Context, doctorID string, roomID *string) (models.Doctor, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Doctor{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = getDoctorTx(ctx, tx, doctorID); err != nil {
		return models.Doctor{}, err
	}
	if roomID != nil {
		if err = lockRoom(ctx, tx, *roomID); err != nil {
			return models.Doctor{}, err
		}
		var staffed bool
		if err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM doctors
				WHERE room_id = $1 AND active AND doctor_id <> $2
			)
		`, *roomID, doctorID).Scan(&staffed); err != nil {
			return models.Doctor{}, err
		}
		if staffed {
			err = store.ErrRoomStaffed
			return models.Doctor{}, err
		}
	}

	doctor, err := scanDoctorRow(tx.QueryRow(ctx, `
		UPDATE doctors SET room_id = $2
		WHERE doctor_id = $1
		RETURNING doctor_id, name, specialization, room_id, active
	`, doctorID, roomID))
	if err != nil {
		return models.Doctor{}, err
	}
	if err = insertEvent(ctx, tx, store.EventDoctorAssigned, doctor); err != nil {
		return models.Doctor{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Doctor{}, err
	}
	return doctor, nil
}

func (s *Store) SetDoctorActive(ctx context.Context, doctorID string, active bool) (models.Doctor, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Doctor{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := getDoctorTx(ctx, tx, doctorID)
	if err != nil {
		return models.Doctor{}, err
	}
	if active && current.RoomID != nil {
		var staffed bool
		if err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM doctors
				WHERE room_id = $1 AND active AND doctor_id <> $2
			)
		`, *current.RoomID, doctorID).Scan(&staffed); err != nil {
			return models.Doctor{}, err
		}
		if staffed {
			err = store.ErrRoomStaffed
			return models.Doctor{}, err
		}
	}

	doctor, err := scanDoctorRow(tx.QueryRow(ctx, `
		UPDATE doctors SET active = $2
		WHERE doctor_id = $1
		RETURNING doctor_id, name, specialization, room_id, active
	`, doctorID, active))
	if err != nil {
		return models.Doctor{}, err
	}
	if err = insertEvent(ctx, tx, store.EventDoctorStatus, doctor); err != nil {
		return models.Doctor{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Doctor{}, err
	}
	return doctor, nil
}

func (s *Store) CreateDoctor(ctx context.Context, input store.CreateDoctorInput) (models.Doctor, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Doctor{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var roomID *string
	if input.RoomID != "" {
		if err = lockRoom(ctx, tx, input.RoomID); err != nil {
			return models.Doctor{}, err
		}
		var staffed bool
		if err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM doctors WHERE room_id = $1 AND active)
		`, input.RoomID).Scan(&staffed); err != nil {
			return models.Doctor{}, err
		}
		if staffed {
			err = store.ErrRoomStaffed
			return models.Doctor{}, err
		}
		id := input.RoomID
		roomID = &id
	}

	doctor, err := scanDoctorRow(tx.QueryRow(ctx, `
		INSERT INTO doctors (doctor_id, name, specialization, room_id, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING doctor_id, name, specialization, room_id, active
	`, uuid.NewString(), input.Name, input.Specialization, roomID))
	if err != nil {
		return models.Doctor{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Doctor{}, err
	}
	return doctor, nil
}

func (s *Store) RemoveDoctor(ctx context.Context, doctorID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM doctors WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDoctorNotFound
	}
	return nil
}

func (s *Store) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doctor_id, name, specialization, room_id, active
		FROM doctors ORDER BY name, doctor_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

func (s *Store) CreateRoom(ctx context.Context, name string) (models.Room, error) {
	return scanRoomRow(s.pool.QueryRow(ctx, `
		INSERT INTO rooms (room_id, name, status)
		VALUES ($1, $2, $3)
		RETURNING room_id, name, current_queue, status
	`, uuid.NewString(), name, models.RoomActive))
}

func (s *Store) RenameRoom(ctx context.Context, roomID, name string) (models.Room, error) {
	room, err := scanRoomRow(s.pool.QueryRow(ctx, `
		UPDATE rooms SET name = $2 WHERE room_id = $1
		RETURNING room_id, name, current_queue, status
	`, roomID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Room{}, store.ErrRoomNotFound
	}
	return room, err
}

func (s *Store) SetRoomStatus(ctx context.Context, roomID, status string) (models.Room, error) {
	room, err := scanRoomRow(s.pool.QueryRow(ctx, `
		UPDATE rooms SET status = $2 WHERE room_id = $1
		RETURNING room_id, name, current_queue, status
	`, roomID, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Room{}, store.ErrRoomNotFound
	}
	return room, err
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockRoom(ctx, tx, roomID); err != nil {
		return err
	}
	var occupied bool
	if err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patients WHERE room_id = $1 AND status <> $2)
	`, roomID, models.StatusCompleted).Scan(&occupied); err != nil {
		return err
	}
	if occupied {
		err = store.ErrRoomHasQueue
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE doctors SET room_id = NULL WHERE room_id = $1`, roomID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE patients SET room_id = NULL, queue_number = NULL WHERE room_id = $1`, roomID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM rooms WHERE room_id = $1`, roomID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT room_id, name, current_queue, status
		FROM rooms ORDER BY name, room_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRooms(rows)
}

func (s *Store) CreatePatient(ctx context.Context, input store.CreatePatientInput) (models.Patient, error) {
	arrival := input.ArrivalTime
	if arrival.IsZero() {
		arrival = time.Now().UTC()
	}
	patient, err := scanPatientRow(s.pool.QueryRow(ctx, `
		INSERT INTO patients (patient_id, hn, name, status, arrival_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hn) DO NOTHING
		RETURNING patient_id, hn, name, room_id, queue_number, status, arrival_time
	`, uuid.NewString(), input.HN, input.Name, models.StatusWaiting, arrival))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Patient{}, store.ErrDuplicateHN
	}
	return patient, err
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (models.Patient, error) {
	patient, err := scanPatientRow(s.pool.QueryRow(ctx, `
		SELECT patient_id, hn, name, room_id, queue_number, status, arrival_time
		FROM patients WHERE patient_id = $1
	`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Patient{}, store.ErrPatientNotFound
	}
	return patient, err
}

func (s *Store) ListPatients(ctx context.Context) ([]models.Patient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT patient_id, hn, name, room_id, queue_number, status, arrival_time
		FROM patients ORDER BY arrival_time, patient_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPatients(rows)
}

func (s *Store) FindPatientByHN(ctx context.Context, code string) (models.Patient, bool, error) {
	// Exact matches sort before substring matches, then lowest HN wins.
	patient, err := scanPatientRow(s.pool.QueryRow(ctx, `
		SELECT patient_id, hn, name, room_id, queue_number, status, arrival_time
		FROM patients
		WHERE hn = $1 OR POSITION($1 IN hn) > 0
		ORDER BY (hn <> $1), hn
		LIMIT 1
	`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Patient{}, false, nil
	}
	if err != nil {
		return models.Patient{}, false, err
	}
	return patient, true, nil
}

func (s *Store) Snapshot(ctx context.Context) (models.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return models.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snapshot models.Snapshot

	roomRows, err := tx.Query(ctx, `
		SELECT room_id, name, current_queue, status FROM rooms ORDER BY name, room_id
	`)
	if err != nil {
		return models.Snapshot{}, err
	}
	snapshot.Rooms, err = collectRooms(roomRows)
	roomRows.Close()
	if err != nil {
		return models.Snapshot{}, err
	}

	doctorRows, err := tx.Query(ctx, `
		SELECT doctor_id, name, specialization, room_id, active FROM doctors ORDER BY name, doctor_id
	`)
	if err != nil {
		return models.Snapshot{}, err
	}
	snapshot.Doctors, err = collectDoctors(doctorRows)
	doctorRows.Close()
	if err != nil {
		return models.Snapshot{}, err
	}

	patientRows, err := tx.Query(ctx, `
		SELECT patient_id, hn, name, room_id, queue_number, status, arrival_time
		FROM patients ORDER BY arrival_time, patient_id
	`)
	if err != nil {
		return models.Snapshot{}, err
	}
	snapshot.Patients, err = collectPatients(patientRows)
	patientRows.Close()
	if err != nil {
		return models.Snapshot{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *Store) ListEvents(ctx context.Context, after time.Time, limit int) ([]store.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, type, payload, created_at
		FROM events
		WHERE created_at > $1
		ORDER BY created_at
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]store.Event, 0, limit)
	for rows.Next() {
		var event store.Event
		if err := rows.Scan(&event.EventID, &event.Type, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func patientIDByHN(ctx context.Context, tx pgx.Tx, hn string) (string, error) {
	var patientID string
	err := tx.QueryRow(ctx, `SELECT patient_id FROM patients WHERE hn = $1 FOR UPDATE`, hn).Scan(&patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", store.ErrPatientNotFound
	}
	return patientID, err
}

func lockRoom(ctx context.Context, tx pgx.Tx, roomID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT room_id FROM rooms WHERE room_id = $1 FOR UPDATE`, roomID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrRoomNotFound
	}
	return err
}

func lockActiveRoom(ctx context.Context, tx pgx.Tx, roomID string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM rooms WHERE room_id = $1 FOR UPDATE`, roomID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if status != models.RoomActive {
		return store.ErrRoomInactive
	}
	return nil
}

// assignQueueNumber gives the patient max+1 among non-completed
// patients in the room; the caller must hold the room lock.
func assignQueueNumber(ctx context.Context, tx pgx.Tx, patientID, roomID string) (models.Patient, error) {
	var number int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(queue_number), 0) + 1
		FROM patients
		WHERE room_id = $1 AND status <> $2 AND patient_id <> $3
	`, roomID, models.StatusCompleted, patientID).Scan(&number); err != nil {
		return models.Patient{}, err
	}

	return scanPatientRow(tx.QueryRow(ctx, `
		UPDATE patients
		SET room_id = $2, queue_number = $3, status = $4
		WHERE patient_id = $1
		RETURNING patient_id, hn, name, room_id, queue_number, status, arrival_time
	`, patientID, roomID, number, models.StatusWaiting))
}

func getPatientTx(ctx context.Context, tx pgx.Tx, patientID string) (models.Patient, error) {
	patient, err := scanPatientRow(tx.QueryRow(ctx, `
		SELECT patient_id, hn, name, room_id, queue_number, status, arrival_time
		FROM patients WHERE patient_id = $1
		FOR UPDATE
	`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Patient{}, store.ErrPatientNotFound
	}
	return patient, err
}

func getDoctorTx(ctx context.Context, tx pgx.Tx, doctorID string) (models.Doctor, error) {
	doctor, err := scanDoctorRow(tx.QueryRow(ctx, `
		SELECT doctor_id, name, specialization, room_id, active
		FROM doctors WHERE doctor_id = $1
		FOR UPDATE
	`, doctorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Doctor{}, store.ErrDoctorNotFound
	}
	return doctor, err
}

func insertEvent(ctx context.Context, tx pgx.Tx, eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO events (event_id, type, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), eventType, raw, time.Now().UTC())
	return err
}

func scanRoomRow(row pgx.Row) (models.Room, error) {
	var room models.Room
	var currentNull sql.NullInt32
	if err := row.Scan(&room.RoomID, &room.Name, &currentNull, &room.Status); err != nil {
		return models.Room{}, err
	}
	if currentNull.Valid {
		number := int(currentNull.Int32)
		room.CurrentQueue = &number
	}
	return room, nil
}

func scanDoctorRow(row pgx.Row) (models.Doctor, error) {
	var doctor models.Doctor
	var roomNull sql.NullString
	if err := row.Scan(&doctor.DoctorID, &doctor.Name, &doctor.Specialization, &roomNull, &doctor.Active); err != nil {
		return models.Doctor{}, err
	}
	doctor.RoomID = nullStringPtr(roomNull)
	return doctor, nil
}

func scanPatientRow(row pgx.Row) (models.Patient, error) {
	var patient models.Patient
	var roomNull sql.NullString
	var numberNull sql.NullInt32
	if err := row.Scan(&patient.PatientID, &patient.HN, &patient.Name, &roomNull, &numberNull, &patient.Status, &patient.ArrivalTime); err != nil {
		return models.Patient{}, err
	}
	patient.RoomID = nullStringPtr(roomNull)
	if numberNull.Valid {
		number := int(numberNull.Int32)
		patient.QueueNumber = &number
	}
	return patient, nil
}

func collectRooms(rows pgx.Rows) ([]models.Room, error) {
	rooms := []models.Room{}
	for rows.Next() {
		room, err := scanRoomRow(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func collectDoctors(rows pgx.Rows) ([]models.Doctor, error) {
	doctors := []models.Doctor{}
	for rows.Next() {
		doctor, err := scanDoctorRow(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, doctor)
	}
	return doctors, rows.Err()
}

func collectPatients(rows pgx.Rows) ([]models.Patient, error) {
	patients := []models.Patient{}
	for rows.Next() {
		patient, err := scanPatientRow(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, rows.Err()
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
