package store

import "clinicq/queue-service/internal/models"

var transitionMap = map[string][]string{
	"move":   {models.StatusWaiting, models.StatusActive},
	"call":   {models.StatusWaiting, models.StatusActive},
	"delete": {models.StatusWaiting, models.StatusActive},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
