package match

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

// Notifier receives match transitions after they commit.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) {}

// Service records swipes and resolves mutual interest into matches.
type Service struct {
	swipes   repository.SwipeRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Service. A nil notifier disables notifications.
func New(swipes repository.SwipeRepository, users repository.UserRepository, notifier Notifier, logger *slog.Logger) Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return Service{swipes: swipes, users: users, notifier: notifier, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SwipeResult reports the recorded swipe and, on mutual like, the pair's match.
type SwipeResult struct {
	Swipe   SwipeView  `json:"swipe"`
	Match   *MatchView `json:"match,omitempty"`
	Matched bool       `json:"matched"`
}

// Resolve is the reciprocity rule: a like answered by a prior like from the other side yields
// a match on the normalized pair. Anything else yields nil.
func Resolve(swipe domain.Swipe, reverse *domain.Swipe) *domain.Match {
	if swipe.Decision != domain.DecisionLike || reverse == nil || reverse.Decision != domain.DecisionLike {
		return nil
	}
	if reverse.SwiperID != swipe.SwipeeID || reverse.SwipeeID != swipe.SwiperID {
		return nil
	}
	a, b := domain.OrderedPair(swipe.SwiperID, swipe.SwipeeID)
	return &domain.Match{
		ID:        uuid.NewString(),
		UserAID:   a,
		UserBID:   b,
		IsActive:  true,
		CreatedAt: swipe.CreatedAt,
		UpdatedAt: swipe.CreatedAt,
	}
}

// Swipe records swiperID's decision about swipeeID. A user decides about a given person once.
func (s Service) Swipe(ctx context.Context, swiperID, swipeeID string, decision domain.Decision) (*SwipeResult, error) {
	swiperID = strings.TrimSpace(swiperID)
	swipeeID = strings.TrimSpace(swipeeID)
	switch {
	case swiperID == "" || swipeeID == "":
		return nil, fmt.Errorf("%w: swiper and swipee are required", domain.ErrValidation)
	case !decision.Valid():
		return nil, fmt.Errorf("%w: decision must be like or pass", domain.ErrValidation)
	case swiperID == swipeeID:
		return nil, fmt.Errorf("%w: cannot swipe on yourself", domain.ErrValidation)
	}
	if err := s.requireVisible(ctx, swiperID); err != nil {
		return nil, err
	}
	if err := s.requireVisible(ctx, swipeeID); err != nil {
		return nil, err
	}

	swipe := &domain.Swipe{
		ID:        uuid.NewString(),
		SwiperID:  swiperID,
		SwipeeID:  swipeeID,
		Decision:  decision,
		CreatedAt: s.now(),
	}
	m, err := s.swipes.RecordSwipe(ctx, swipe, Resolve)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Warn("duplicate swipe", "swiper_id", swiperID, "swipee_id", swipeeID)
			return nil, fmt.Errorf("%w: already swiped on user %s", domain.ErrConflict, swipeeID)
		}
		return nil, domain.StorageError(err)
	}

	result := &SwipeResult{Swipe: NewSwipeView(*swipe)}
	s.logger.Info("swipe recorded", "swipe_id", swipe.ID, "swiper_id", swiperID, "swipee_id", swipeeID, "decision", string(decision))
	if m == nil {
		return result, nil
	}
	view := NewMatchView(*m, swiperID)
	result.Match = &view
	result.Matched = true
	s.logger.Info("match created", "match_id", m.ID, "user_a_id", m.UserAID, "user_b_id", m.UserBID)
	for _, uid := range []string{m.UserAID, m.UserBID} {
		s.notifier.Notify(ctx, domain.Notification{
			Kind: domain.NotifyMatchCreated, UserID: uid, SubjectID: m.ID, ActorID: swiperID, At: swipe.CreatedAt,
		})
	}
	return result, nil
}

// ListMatches returns the active matches of userID.
func (s Service) ListMatches(ctx context.Context, userID string) ([]MatchView, error) {
	matches, err := s.swipes.ListMatchesByUser(ctx, userID, true)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, NewMatchView(m, userID))
	}
	return out, nil
}

// Unmatch deactivates a match for one of its participants. There is no way back to active.
func (s Service) Unmatch(ctx context.Context, userID, matchID string) (*MatchView, error) {
	m, err := s.swipes.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: match %s", domain.ErrNotFound, matchID)
		}
		return nil, domain.StorageError(err)
	}
	if !m.Involves(userID) {
		return nil, fmt.Errorf("%w: not a participant of match %s", domain.ErrForbidden, matchID)
	}
	if !m.IsActive {
		return nil, fmt.Errorf("%w: match %s is already inactive", domain.ErrConflict, matchID)
	}
	updated, err := s.swipes.DeactivateMatch(ctx, matchID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, fmt.Errorf("%w: match %s is already inactive", domain.ErrConflict, matchID)
		}
		return nil, domain.StorageError(err)
	}
	s.logger.Info("match deactivated", "match_id", matchID, "user_id", userID)
	view := NewMatchView(*updated, userID)
	return &view, nil
}

func (s Service) requireVisible(ctx context.Context, userID string) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return domain.StorageError(err)
	}
	if !u.Visible() {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return nil
}
