// Package memory implements the repository interfaces in process. Every method runs inside a
// single critical section, which gives each atomic primitive the same all-or-nothing and
// serialization guarantees the Postgres store gets from its transactions.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

type memberKey struct {
	teamID string
	userID string
}

type swipeKey struct {
	swiperID string
	swipeeID string
}

// Store keeps every entity in maps guarded by one mutex.
type Store struct {
	mu          sync.Mutex
	users       map[string]domain.User
	profiles    map[string]domain.Profile
	events      map[string]domain.Event
	teams       map[string]domain.Team
	members     map[memberKey]domain.TeamMember
	requests    map[string]domain.JoinRequest
	invitations map[string]domain.TeamInvitation
	swipes      map[swipeKey]domain.Swipe
	matches     map[string]domain.Match
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		profiles:    make(map[string]domain.Profile),
		events:      make(map[string]domain.Event),
		teams:       make(map[string]domain.Team),
		members:     make(map[memberKey]domain.TeamMember),
		requests:    make(map[string]domain.JoinRequest),
		invitations: make(map[string]domain.TeamInvitation),
		swipes:      make(map[swipeKey]domain.Swipe),
		matches:     make(map[string]domain.Match),
	}
}

var (
	_ repository.UserRepository        = (*Store)(nil)
	_ repository.ProfileRepository     = (*Store)(nil)
	_ repository.EventRepository       = (*Store)(nil)
	_ repository.TeamRepository        = (*Store)(nil)
	_ repository.JoinRequestRepository = (*Store)(nil)
	_ repository.InvitationRepository  = (*Store)(nil)
	_ repository.SwipeRepository       = (*Store)(nil)
	_ repository.DiscoveryRepository   = (*Store)(nil)
)

// CreateUser inserts a user; emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	s.users[user.ID] = cloneUser(*user)
	return nil
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetUserByID retrieves a user by identifier.
func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

// MarkUserDeleted soft-deletes a user.
func (s *Store) MarkUserDeleted(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Deleted = true
	u.DeletedAt = &at
	u.UpdatedAt = at
	s.users[id] = u
	return nil
}

// RestoreUser clears the soft-delete state and sets the user's name.
func (s *Store) RestoreUser(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Deleted = false
	u.DeletedAt = nil
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

// GetProfile returns the profile for userID.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

// UpsertProfile creates or replaces a profile.
func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[profile.UserID]; !ok {
		return repository.ErrNotFound
	}
	s.profiles[profile.UserID] = cloneProfile(*profile)
	return nil
}

// CreateEvent inserts an event.
func (s *Store) CreateEvent(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; ok {
		return repository.ErrDuplicate
	}
	s.events[event.ID] = *event
	return nil
}

// GetEventByID fetches an event.
func (s *Store) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func cloneUser(u domain.User) domain.User {
	u.PasswordHash = slices.Clone(u.PasswordHash)
	if u.DeletedAt != nil {
		at := *u.DeletedAt
		u.DeletedAt = &at
	}
	return u
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.Skills = slices.Clone(p.Skills)
	return p
}
