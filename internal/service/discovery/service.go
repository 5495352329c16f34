package discovery

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

// Limits bounds how many people one call returns.
type Limits struct {
	Default int
	Max     int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// PersonSummary is a discoverable user merged with their optional profile.
type PersonSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills"`
	CreatedAt string   `json:"created_at"`
}

// Service surfaces candidates for the swipe flow.
type Service struct {
	candidates repository.DiscoveryRepository
	users      repository.UserRepository
	logger     *slog.Logger
	limits     Limits
}

// New constructs a Service. Zero limits fall back to 20 by default and 100 at most.
func New(candidates repository.DiscoveryRepository, users repository.UserRepository, logger *slog.Logger, limits Limits) Service {
	if limits.Default <= 0 {
		limits.Default = defaultLimit
	}
	if limits.Max <= 0 {
		limits.Max = maxLimit
	}
	if limits.Default > limits.Max {
		limits.Default = limits.Max
	}
	return Service{candidates: candidates, users: users, logger: logger, limits: limits}
}

// Discover returns people userID has not yet swiped, newest first. An empty result means there
// is nobody left to evaluate.
func (s Service) Discover(ctx context.Context, userID string, limit int) ([]PersonSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	found, err := s.candidates.ListCandidates(ctx, userID, s.clamp(limit))
	if err != nil {
		return nil, domain.StorageError(err)
	}
	out := summarize(found, userID)
	s.logger.Debug("candidates discovered", "user_id", userID, "count", len(out))
	return out, nil
}

// Search finds visible people by name. Swipe history does not filter search results.
func (s Service) Search(ctx context.Context, userID, query string, limit int) ([]PersonSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrValidation)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	found, err := s.candidates.SearchUsers(ctx, userID, query, s.clamp(limit))
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return summarize(found, userID), nil
}

func (s Service) requireUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return domain.StorageError(err)
	}
	// Deleted and deactivated accounts cannot browse people.
	if !u.Visible() {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return nil
}

func (s Service) clamp(limit int) int {
	if limit <= 0 {
		return s.limits.Default
	}
	if limit > s.limits.Max {
		return s.limits.Max
	}
	return limit
}

// summarize projects candidates, dropping any without an id or that should not be visible.
func summarize(candidates []domain.Candidate, requesterID string) []PersonSummary {
	out := make([]PersonSummary, 0, len(candidates))
	for _, c := range candidates {
		if c.User.ID == "" || c.User.ID == requesterID || !c.User.Visible() {
			continue
		}
		p := PersonSummary{
			ID:        c.User.ID,
			Name:      c.User.Name,
			Role:      string(c.User.Role),
			Skills:    []string{},
			CreatedAt: c.User.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if c.Profile != nil {
			p.AvatarURL = c.Profile.AvatarURL
			p.Bio = c.Profile.Bio
			if len(c.Profile.Skills) > 0 {
				p.Skills = append(p.Skills, c.Profile.Skills...)
			}
		}
		out = append(out, p)
	}
	return out
}
