package domain

import "time"

// Event is the occasion teams are formed around. Only its existence matters to team workflows.
type Event struct {
	ID          string
	Name        string
	OrganizerID string
	StartsAt    time.Time
	CreatedAt   time.Time
}
