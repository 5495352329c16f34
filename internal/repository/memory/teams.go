package memory

import (
	"context"
	"sort"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

// CreateTeamWithOwner writes the team and its owner membership together. Every
// check runs before either row is stored, so a rejected owner leaves no team.
// Missing users, events or teams report ErrNotFound like the foreign keys in Postgres.
func (s *Store) CreateTeamWithOwner(ctx context.Context, team *domain.Team, owner *domain.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.events[team.EventID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[team.OwnerID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[owner.UserID]; !ok {
		return repository.ErrNotFound
	}
	if owner.TeamID != team.ID {
		if _, ok := s.teams[owner.TeamID]; !ok {
			return repository.ErrNotFound
		}
	}
	key := memberKey{teamID: owner.TeamID, userID: owner.UserID}
	if _, ok := s.members[key]; ok {
		return repository.ErrDuplicate
	}
	if s.memberIDTaken(owner.ID) {
		return repository.ErrDuplicate
	}
	if team.UpdatedAt.IsZero() {
		team.UpdatedAt = team.CreatedAt
	}
	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = owner.JoinedAt
	}
	owner.UpdatedAt = owner.CreatedAt
	s.teams[team.ID] = *team
	s.members[key] = *owner
	return nil
}

func (s *Store) memberIDTaken(id string) bool {
	for _, m := range s.members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// GetTeamByID returns a team by identifier.
func (s *Store) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// ListTeamsByEvent returns active teams formed around eventID, newest first.
func (s *Store) ListTeamsByEvent(ctx context.Context, eventID string) ([]domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teams := make([]domain.Team, 0)
	for _, t := range s.teams {
		if t.EventID == eventID && t.IsActive {
			teams = append(teams, t)
		}
	}
	sortTeams(teams)
	return teams, nil
}

// ListTeamsByUser returns teams the user actively belongs to.
func (s *Store) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teams := make([]domain.Team, 0)
	for key, m := range s.members {
		if key.userID != userID || !m.IsActive {
			continue
		}
		if t, ok := s.teams[key.teamID]; ok {
			teams = append(teams, t)
		}
	}
	sortTeams(teams)
	return teams, nil
}

// GetMember returns the membership row for the pair, active or not.
func (s *Store) GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey{teamID: teamID, userID: userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

// ListActiveMembers returns active members ordered by join time.
func (s *Store) ListActiveMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]domain.TeamMember, 0)
	for key, m := range s.members {
		if key.teamID == teamID && m.IsActive {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

// CountActiveMembers counts active memberships of a team.
func (s *Store) CountActiveMembers(ctx context.Context, teamID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countActiveLocked(teamID), nil
}

// DeactivateMember marks an active membership inactive.
func (s *Store) DeactivateMember(ctx context.Context, teamID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{teamID: teamID, userID: userID}
	m, ok := s.members[key]
	if !ok || !m.IsActive {
		return repository.ErrNotFound
	}
	m.IsActive = false
	m.UpdatedAt = at
	s.members[key] = m
	return nil
}

// DeactivateTeam marks the team and all of its memberships inactive.
func (s *Store) DeactivateTeam(ctx context.Context, teamID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	if !t.IsActive {
		return repository.ErrStateChanged
	}
	t.IsActive = false
	t.UpdatedAt = at
	s.teams[teamID] = t
	for key, m := range s.members {
		if key.teamID == teamID && m.IsActive {
			m.IsActive = false
			m.UpdatedAt = at
			s.members[key] = m
		}
	}
	return nil
}

func (s *Store) countActiveLocked(teamID string) int {
	count := 0
	for key, m := range s.members {
		if key.teamID == teamID && m.IsActive {
			count++
		}
	}
	return count
}

// activateLocked inserts or reactivates member, enforcing capacity. Callers hold s.mu.
func (s *Store) activateLocked(member *domain.TeamMember) error {
	team, ok := s.teams[member.TeamID]
	if !ok {
		return repository.ErrNotFound
	}
	if !team.IsActive {
		return repository.ErrInactive
	}
	key := memberKey{teamID: member.TeamID, userID: member.UserID}
	existing, exists := s.members[key]
	if exists && existing.IsActive {
		return repository.ErrAlreadyMember
	}
	if s.countActiveLocked(member.TeamID) >= team.MaxMembers {
		return repository.ErrTeamFull
	}
	if exists {
		existing.Role = member.Role
		existing.JoinedAt = member.JoinedAt
		existing.IsActive = true
		existing.UpdatedAt = member.JoinedAt
		*member = existing
	} else {
		member.IsActive = true
		member.CreatedAt = member.JoinedAt
		member.UpdatedAt = member.JoinedAt
	}
	s.members[key] = *member
	return nil
}

func sortTeams(teams []domain.Team) {
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].ID < teams[j].ID
		}
		return teams[i].CreatedAt.After(teams[j].CreatedAt)
	})
}
