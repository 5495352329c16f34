package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

const (
	maxBioLength = 2000
	maxSkills    = 30
)

// Service manages account visibility and profiles.
type Service struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Service.
func New(users repository.UserRepository, profiles repository.ProfileRepository, logger *slog.Logger) Service {
	return Service{users: users, profiles: profiles, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Caller identifies who is acting, as supplied by the auth layer.
type Caller struct {
	ID   string
	Role domain.Role
}

func (c Caller) isAdmin() bool { return c.Role == domain.RoleAdmin }

// View is the outward projection of a user.
type View struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Role      string       `json:"role"`
	IsActive  bool         `json:"is_active"`
	Deleted   bool         `json:"deleted"`
	DeletedAt string       `json:"deleted_at,omitempty"`
	CreatedAt string       `json:"created_at"`
	Profile   *ProfileView `json:"profile,omitempty"`
}

// ProfileView is the outward projection of a profile.
type ProfileView struct {
	AvatarURL string   `json:"avatar_url,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// NewProfileView projects a profile.
func NewProfileView(p domain.Profile) ProfileView {
	v := ProfileView{AvatarURL: p.AvatarURL, Bio: p.Bio, Skills: append([]string{}, p.Skills...)}
	if !p.UpdatedAt.IsZero() {
		v.UpdatedAt = p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return v
}

// ProfileInput holds the editable display fields.
type ProfileInput struct {
	AvatarURL string   `json:"avatar_url"`
	Bio       string   `json:"bio"`
	Skills    []string `json:"skills"`
}

// Get returns a user. Deleted accounts are only visible to themselves and admins, and email
// is only shown to the same audience.
func (s Service) Get(ctx context.Context, caller Caller, userID string) (*View, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	privileged := caller.ID == u.ID || caller.isAdmin()
	deleted := u.Deleted || domain.IsLegacyDeletedName(u.Name)
	if deleted && !privileged {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	view := newView(*u, privileged)
	profile, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil:
		pv := NewProfileView(*profile)
		view.Profile = &pv
	case !errors.Is(err, repository.ErrNotFound):
		return nil, domain.StorageError(err)
	}
	return &view, nil
}

// SoftDelete hides a user from every discovery and listing query while keeping the record.
// Users may delete themselves; admins may delete anyone.
func (s Service) SoftDelete(ctx context.Context, caller Caller, userID string) error {
	if caller.ID != userID && !caller.isAdmin() {
		return fmt.Errorf("%w: cannot delete another user", domain.ErrForbidden)
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if u.Deleted || domain.IsLegacyDeletedName(u.Name) {
		return fmt.Errorf("%w: user %s is already deleted", domain.ErrConflict, userID)
	}
	if err := s.users.MarkUserDeleted(ctx, userID, s.now()); err != nil {
		return domain.StorageError(err)
	}
	s.logger.Info("user soft-deleted", "user_id", userID, "actor_id", caller.ID)
	return nil
}

// Restore makes a soft-deleted user visible again, recovering the original name from a legacy
// deletion marker when present. Admin only.
func (s Service) Restore(ctx context.Context, caller Caller, userID string) (*View, error) {
	if !caller.isAdmin() {
		return nil, fmt.Errorf("%w: only admins may restore users", domain.ErrForbidden)
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Deleted && !domain.IsLegacyDeletedName(u.Name) {
		return nil, fmt.Errorf("%w: user %s is not deleted", domain.ErrConflict, userID)
	}
	name := domain.StripDeletedMarker(u.Name)
	if err := s.users.RestoreUser(ctx, userID, name); err != nil {
		return nil, domain.StorageError(err)
	}
	s.logger.Info("user restored", "user_id", userID, "actor_id", caller.ID)
	u.Name = name
	u.Deleted = false
	u.DeletedAt = nil
	view := newView(*u, true)
	return &view, nil
}

// UpsertProfile replaces the caller's display fields.
func (s Service) UpsertProfile(ctx context.Context, userID string, input ProfileInput) (*ProfileView, error) {
	bio := strings.TrimSpace(input.Bio)
	if len(bio) > maxBioLength {
		return nil, fmt.Errorf("%w: bio exceeds %d characters", domain.ErrValidation, maxBioLength)
	}
	skills := normalizeSkills(input.Skills)
	if len(skills) > maxSkills {
		return nil, fmt.Errorf("%w: at most %d skills", domain.ErrValidation, maxSkills)
	}
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	profile := &domain.Profile{
		UserID:    userID,
		AvatarURL: strings.TrimSpace(input.AvatarURL),
		Bio:       bio,
		Skills:    skills,
		UpdatedAt: s.now(),
	}
	if err := s.profiles.UpsertProfile(ctx, profile); err != nil {
		return nil, domain.StorageError(err)
	}
	s.logger.Info("profile updated", "user_id", userID)
	view := NewProfileView(*profile)
	return &view, nil
}

func (s Service) load(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return nil, domain.StorageError(err)
	}
	return u, nil
}

func newView(u domain.User, withEmail bool) View {
	v := View{
		ID:        u.ID,
		Name:      u.Name,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		Deleted:   u.Deleted || domain.IsLegacyDeletedName(u.Name),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if withEmail {
		v.Email = u.Email
	}
	if u.DeletedAt != nil {
		v.DeletedAt = u.DeletedAt.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func normalizeSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, skill := range in {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
