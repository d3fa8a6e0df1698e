package memory

import (
	"time"

	"clinicq/queue-service/internal/models"

	"github.com/google/uuid"
)

// SeedDemo loads a small demo dataset: four staffed rooms and a handful
// of queued patients. Used for local development and screen demos.
func (s *Store) SeedDemo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) > 0 || len(s.doctors) > 0 || len(s.patients) > 0 {
		return
	}

	type seedRoom struct {
		name    string
		current int
		doctor  string
		spec    string
	}
	rooms := []seedRoom{
		{"Room 1", 5, "Dr. Somchai", "Internal Medicine"},
		{"Room 2", 3, "Dr. Somsai", "Pediatrics"},
		{"Room 3", 7, "Dr. Wichan", "Surgery"},
		{"Room 4", 2, "Dr. Jinda", "Obstetrics"},
	}

	roomIDs := make([]string, len(rooms))
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i, sr := range rooms {
		roomID := uuid.NewString()
		roomIDs[i] = roomID
		current := sr.current
		s.rooms[roomID] = models.Room{
			RoomID:       roomID,
			Name:         sr.name,
			CurrentQueue: &current,
			Status:       models.RoomActive,
		}
		doctorID := uuid.NewString()
		id := roomID
		s.doctors[doctorID] = models.Doctor{
			DoctorID:       doctorID,
			Name:           sr.doctor,
			Specialization: sr.spec,
			RoomID:         &id,
			Active:         true,
		}
	}

	type seedPatient struct {
		hn      string
		name    string
		room    int
		number  int
		status  string
		arrival time.Duration
	}
	patients := []seedPatient{
		{"HN001234", "Somsak Jaidee", 0, 5, models.StatusActive, 9*time.Hour + 30*time.Minute},
		{"HN001235", "Supap Deengam", 0, 6, models.StatusWaiting, 9*time.Hour + 45*time.Minute},
		{"HN001236", "Praphan Rakrian", 1, 3, models.StatusActive, 8*time.Hour + 15*time.Minute},
		{"HN001237", "Wilai Jaisue", 1, 4, models.StatusWaiting, 10 * time.Hour},
		{"HN001238", "Somchai Hankla", 2, 7, models.StatusActive, 8*time.Hour + 30*time.Minute},
		{"HN001239", "Manee Onwan", 3, 2, models.StatusActive, 9 * time.Hour},
	}
	for _, sp := range patients {
		patientID := uuid.NewString()
		roomID := roomIDs[sp.room]
		number := sp.number
		s.patients[patientID] = models.Patient{
			PatientID:   patientID,
			HN:          sp.hn,
			Name:        sp.name,
			RoomID:      &roomID,
			QueueNumber: &number,
			Status:      sp.status,
			ArrivalTime: today.Add(sp.arrival),
		}
	}
}
