// Package views computes read-only aggregates over a snapshot. Nothing
// here mutates state; every function is safe to call concurrently.
package views

import "clinicq/queue-service/internal/models"

type Stats struct {
	TotalRooms        int `json:"total_rooms"`
	ActiveDoctors     int `json:"active_doctors"`
	CurrentQueueTotal int `json:"current_queue_total"`
}

func BuildStats(snapshot models.Snapshot) Stats {
	return Stats{
		TotalRooms:        len(snapshot.Rooms),
		ActiveDoctors:     ActiveDoctorCount(snapshot),
		CurrentQueueTotal: CurrentQueueTotal(snapshot),
	}
}

func ActiveDoctorCount(snapshot models.Snapshot) int {
	count := 0
	for _, doctor := range snapshot.Doctors {
		if doctor.Active {
			count++
		}
	}
	return count
}

// CurrentQueueTotal sums the queue number each room is presently
// serving; rooms serving nobody contribute zero.
func CurrentQueueTotal(snapshot models.Snapshot) int {
	total := 0
	for _, room := range snapshot.Rooms {
		if room.CurrentQueue != nil {
			total += *room.CurrentQueue
		}
	}
	return total
}

// CurrentPatient returns the patient whose queue number matches the
// room's current queue number, if the room is serving anyone.
func CurrentPatient(snapshot models.Snapshot, roomID string) (models.Patient, bool) {
	var current *int
	for _, room := range snapshot.Rooms {
		if room.RoomID == roomID {
			current = room.CurrentQueue
			break
		}
	}
	if current == nil {
		return models.Patient{}, false
	}
	for _, patient := range snapshot.Patients {
		if patient.Status == models.StatusCompleted {
			continue
		}
		if patient.RoomID != nil && *patient.RoomID == roomID &&
			patient.QueueNumber != nil && *patient.QueueNumber == *current {
			return patient, true
		}
	}
	return models.Patient{}, false
}

func WaitingCount(snapshot models.Snapshot, roomID string) int {
	count := 0
	for _, patient := range snapshot.Patients {
		if patient.Status != models.StatusWaiting {
			continue
		}
		if patient.RoomID != nil && *patient.RoomID == roomID {
			count++
		}
	}
	return count
}
