package team

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

// Service handles team formation and roster changes.
type Service struct {
	teams  repository.TeamRepository
	users  repository.UserRepository
	events repository.EventRepository
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(teams repository.TeamRepository, users repository.UserRepository, events repository.EventRepository, logger *slog.Logger) Service {
	return Service{teams: teams, users: users, events: events, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput describes a team to form. OwnerID comes from the authenticated caller.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"-"`
	EventID     string `json:"event_id"`
	MaxMembers  int    `json:"max_members"`
	Tags        string `json:"tags"`
	LookingFor  string `json:"looking_for"`
}

func (in CreateInput) normalized() CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	in.EventID = strings.TrimSpace(in.EventID)
	in.Tags = strings.TrimSpace(in.Tags)
	in.LookingFor = strings.TrimSpace(in.LookingFor)
	return in
}

func (in CreateInput) validate() error {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"description", in.Description},
		{"owner_id", in.OwnerID},
		{"event_id", in.EventID},
		{"tags", in.Tags},
		{"looking_for", in.LookingFor},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	if in.MaxMembers < domain.MinTeamMembers || in.MaxMembers > domain.MaxTeamMembers {
		return fmt.Errorf("%w: max_members must be between %d and %d", domain.ErrValidation, domain.MinTeamMembers, domain.MaxTeamMembers)
	}
	return nil
}

// Create forms a team with its owner as the first active member. Both rows are written in one
// atomic step, so a team is never left ownerless.
func (s Service) Create(ctx context.Context, input CreateInput) (*View, error) {
	in := input.normalized()
	if err := in.validate(); err != nil {
		return nil, err
	}
	owner, err := s.users.GetUserByID(ctx, in.OwnerID)
	if err != nil {
		return nil, lookupError("owner", in.OwnerID, err)
	}
	if !owner.Visible() {
		return nil, fmt.Errorf("%w: owner %s", domain.ErrNotFound, in.OwnerID)
	}
	if _, err := s.events.GetEventByID(ctx, in.EventID); err != nil {
		return nil, lookupError("event", in.EventID, err)
	}

	now := s.now()
	team := &domain.Team{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		EventID:     in.EventID,
		OwnerID:     owner.ID,
		MaxMembers:  in.MaxMembers,
		Tags:        in.Tags,
		LookingFor:  in.LookingFor,
		IsActive:    true,
		CreatedAt:   now,
	}
	member := &domain.TeamMember{
		ID:       uuid.NewString(),
		TeamID:   team.ID,
		UserID:   owner.ID,
		Role:     domain.MemberRoleOwner,
		JoinedAt: now,
		IsActive: true,
	}
	if err := s.teams.CreateTeamWithOwner(ctx, team, member); err != nil {
		s.logger.Error("team creation failed", "owner_id", owner.ID, "event_id", in.EventID, "error", err)
		return nil, domain.StorageError(err)
	}
	s.logger.Info("team created", "team_id", team.ID, "owner_id", owner.ID, "event_id", team.EventID)
	view := NewView(*team, 1)
	return &view, nil
}

// Get returns the team projection with its live member count.
func (s Service) Get(ctx context.Context, teamID string) (*View, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, lookupError("team", teamID, err)
	}
	count, err := s.teams.CountActiveMembers(ctx, teamID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	view := NewView(*team, count)
	return &view, nil
}

// ListByEvent returns the active teams of an event.
func (s Service) ListByEvent(ctx context.Context, eventID string) ([]View, error) {
	if _, err := s.events.GetEventByID(ctx, eventID); err != nil {
		return nil, lookupError("event", eventID, err)
	}
	teams, err := s.teams.ListTeamsByEvent(ctx, eventID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return s.views(ctx, teams)
}

// ListByUser returns the teams a user actively belongs to.
func (s Service) ListByUser(ctx context.Context, userID string) ([]View, error) {
	teams, err := s.teams.ListTeamsByUser(ctx, userID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return s.views(ctx, teams)
}

func (s Service) views(ctx context.Context, teams []domain.Team) ([]View, error) {
	out := make([]View, 0, len(teams))
	for _, t := range teams {
		count, err := s.teams.CountActiveMembers(ctx, t.ID)
		if err != nil {
			return nil, domain.StorageError(err)
		}
		out = append(out, NewView(t, count))
	}
	return out, nil
}

// ListMembers returns the active roster.
func (s Service) ListMembers(ctx context.Context, teamID string) ([]MemberView, error) {
	if _, err := s.teams.GetTeamByID(ctx, teamID); err != nil {
		return nil, lookupError("team", teamID, err)
	}
	members, err := s.teams.ListActiveMembers(ctx, teamID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, NewMemberView(m))
	}
	return out, nil
}

// RemoveMember deactivates a member. Only the owner may remove, and the owner cannot be removed.
func (s Service) RemoveMember(ctx context.Context, callerID, teamID, userID string) error {
	team, err := s.ownedTeam(ctx, callerID, teamID)
	if err != nil {
		return err
	}
	if userID == team.OwnerID {
		return fmt.Errorf("%w: the owner cannot be removed", domain.ErrConflict)
	}
	if err := s.deactivate(ctx, teamID, userID); err != nil {
		return err
	}
	s.logger.Info("team member removed", "team_id", teamID, "user_id", userID, "removed_by", callerID)
	return nil
}

// Leave deactivates the caller's own membership. Owners cannot leave their team.
func (s Service) Leave(ctx context.Context, userID, teamID string) error {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return lookupError("team", teamID, err)
	}
	if userID == team.OwnerID {
		return fmt.Errorf("%w: the owner cannot leave the team", domain.ErrConflict)
	}
	if err := s.deactivate(ctx, teamID, userID); err != nil {
		return err
	}
	s.logger.Info("team member left", "team_id", teamID, "user_id", userID)
	return nil
}

// Deactivate retires the team and every membership in it.
func (s Service) Deactivate(ctx context.Context, callerID, teamID string) error {
	if _, err := s.ownedTeam(ctx, callerID, teamID); err != nil {
		return err
	}
	if err := s.teams.DeactivateTeam(ctx, teamID, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrStateChanged):
			return fmt.Errorf("%w: team %s is already inactive", domain.ErrConflict, teamID)
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%w: team %s", domain.ErrNotFound, teamID)
		}
		return domain.StorageError(err)
	}
	s.logger.Info("team deactivated", "team_id", teamID, "owner_id", callerID)
	return nil
}

func (s Service) deactivate(ctx context.Context, teamID, userID string) error {
	if err := s.teams.DeactivateMember(ctx, teamID, userID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: no active membership for user %s", domain.ErrNotFound, userID)
		}
		return domain.StorageError(err)
	}
	return nil
}

func (s Service) ownedTeam(ctx context.Context, callerID, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, lookupError("team", teamID, err)
	}
	if team.OwnerID != callerID {
		return nil, fmt.Errorf("%w: only the team owner may do this", domain.ErrForbidden)
	}
	return team, nil
}

func lookupError(what, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, what, id)
	}
	return domain.StorageError(err)
}
