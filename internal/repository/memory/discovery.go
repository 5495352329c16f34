package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/splax/teamup/internal/domain"
)

// ListCandidates returns visible users userID has not swiped, newest first.
func (s *Store) ListCandidates(ctx context.Context, userID string, limit int) ([]domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectLocked(limit, func(u domain.User) bool {
		if u.ID == userID {
			return false
		}
		_, swiped := s.swipes[swipeKey{swiperID: userID, swipeeID: u.ID}]
		return !swiped
	}), nil
}

// SearchUsers returns visible users whose name contains query.
func (s *Store) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(query))
	return s.collectLocked(limit, func(u domain.User) bool {
		return u.ID != excludeID && strings.Contains(strings.ToLower(u.Name), needle)
	}), nil
}

func (s *Store) collectLocked(limit int, keep func(domain.User) bool) []domain.Candidate {
	users := make([]domain.User, 0)
	for _, u := range s.users {
		if u.Visible() && keep(u) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	out := make([]domain.Candidate, 0, len(users))
	for _, u := range users {
		c := domain.Candidate{User: cloneUser(u)}
		if p, ok := s.profiles[u.ID]; ok {
			profile := cloneProfile(p)
			c.Profile = &profile
		}
		out = append(out, c)
	}
	return out
}
