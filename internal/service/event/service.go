package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

// CreateInput describes a new event.
type CreateInput struct {
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
}

// View is the outward projection of an event.
type View struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OrganizerID string `json:"organizer_id"`
	StartsAt    string `json:"starts_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Service manages events.
type Service struct {
	events repository.EventRepository
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(events repository.EventRepository, logger *slog.Logger) Service {
	return Service{events: events, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Create registers an event. Organizers and admins may create events.
func (s Service) Create(ctx context.Context, organizerID string, role domain.Role, input CreateInput) (*View, error) {
	if role != domain.RoleOrganizer && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only organizers may create events", domain.ErrForbidden)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", domain.ErrValidation)
	}
	ev := &domain.Event{
		ID:          uuid.NewString(),
		Name:        name,
		OrganizerID: organizerID,
		StartsAt:    input.StartsAt.UTC(),
		CreatedAt:   s.now(),
	}
	if err := s.events.CreateEvent(ctx, ev); err != nil {
		return nil, domain.StorageError(err)
	}
	s.logger.Info("event created", "event_id", ev.ID, "organizer_id", organizerID)
	view := newView(*ev)
	return &view, nil
}

// Get returns an event by id.
func (s Service) Get(ctx context.Context, eventID string) (*View, error) {
	ev, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
		}
		return nil, domain.StorageError(err)
	}
	view := newView(*ev)
	return &view, nil
}

// Exists reports whether eventID refers to a stored event.
func (s Service) Exists(ctx context.Context, eventID string) (bool, error) {
	_, err := s.events.GetEventByID(ctx, eventID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	}
	return false, domain.StorageError(err)
}

func newView(ev domain.Event) View {
	v := View{
		ID:          ev.ID,
		Name:        ev.Name,
		OrganizerID: ev.OrganizerID,
		CreatedAt:   ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !ev.StartsAt.IsZero() {
		v.StartsAt = ev.StartsAt.UTC().Format(time.RFC3339)
	}
	return v
}
