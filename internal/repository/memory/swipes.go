package memory

import (
	"context"
	"sort"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

// RecordSwipe stores swipe and materializes the match resolve returns, at most once per pair.
func (s *Store) RecordSwipe(ctx context.Context, swipe *domain.Swipe, resolve repository.MatchResolver) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := swipeKey{swiperID: swipe.SwiperID, swipeeID: swipe.SwipeeID}
	if _, ok := s.swipes[key]; ok {
		return nil, repository.ErrDuplicate
	}
	s.swipes[key] = *swipe

	var reverse *domain.Swipe
	if rs, ok := s.swipes[swipeKey{swiperID: swipe.SwipeeID, swipeeID: swipe.SwiperID}]; ok {
		reverse = &rs
	}
	if resolve == nil {
		return nil, nil
	}
	candidate := resolve(*swipe, reverse)
	if candidate == nil {
		return nil, nil
	}
	for _, m := range s.matches {
		if m.UserAID == candidate.UserAID && m.UserBID == candidate.UserBID {
			return &m, nil
		}
	}
	if candidate.UpdatedAt.IsZero() {
		candidate.UpdatedAt = candidate.CreatedAt
	}
	s.matches[candidate.ID] = *candidate
	out := *candidate
	return &out, nil
}

// GetMatch fetches a match.
func (s *Store) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

// ListMatchesByUser lists matches involving userID, newest first.
func (s *Store) ListMatchesByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Match, 0)
	for _, m := range s.matches {
		if !m.Involves(userID) || (activeOnly && !m.IsActive) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeactivateMatch marks an active match inactive.
func (s *Store) DeactivateMatch(ctx context.Context, id string, at time.Time) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !m.IsActive {
		return nil, repository.ErrStateChanged
	}
	m.IsActive = false
	m.UpdatedAt = at
	s.matches[id] = m
	return &m, nil
}
