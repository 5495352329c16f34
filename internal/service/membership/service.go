package membership

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

const maxMessageLength = 1000

// Notifier receives workflow transitions after they commit. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) {}

// Service runs the join request and invitation state machines.
type Service struct {
	teams       repository.TeamRepository
	requests    repository.JoinRequestRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	notifier    Notifier
	logger      *slog.Logger
	ttl         time.Duration
	now         func() time.Time
}

// Repositories groups the stores the workflow reads and writes.
type Repositories struct {
	Teams       repository.TeamRepository
	Requests    repository.JoinRequestRepository
	Invitations repository.InvitationRepository
	Users       repository.UserRepository
}

// New constructs a Service. A nil notifier disables notifications; a non-positive ttl falls back
// to domain.DefaultInvitationTTL.
func New(repos Repositories, notifier Notifier, logger *slog.Logger, ttl time.Duration) Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if ttl <= 0 {
		ttl = domain.DefaultInvitationTTL
	}
	return Service{
		teams:       repos.Teams,
		requests:    repos.Requests,
		invitations: repos.Invitations,
		users:       repos.Users,
		notifier:    notifier,
		logger:      logger,
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RequestToJoin records userID's application to teamID.
func (s Service) RequestToJoin(ctx context.Context, userID, teamID, message string) (*RequestView, error) {
	message, err := cleanMessage(message)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(teamID) == "" {
		return nil, fmt.Errorf("%w: user id and team id are required", domain.ErrValidation)
	}
	team, err := s.activeTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.ensureNotMember(ctx, teamID, userID); err != nil {
		return nil, err
	}

	now := s.now()
	req := &domain.JoinRequest{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		UserID:    userID,
		Message:   message,
		Status:    domain.JoinRequestPending,
		CreatedAt: now,
	}
	if err := s.requests.CreateJoinRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Warn("duplicate join request", "team_id", teamID, "user_id", userID)
			return nil, fmt.Errorf("%w: a join request for this team already exists", domain.ErrConflict)
		}
		return nil, domain.StorageError(err)
	}
	s.logger.Info("join request created", "request_id", req.ID, "team_id", teamID, "user_id", userID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyJoinRequested, UserID: team.OwnerID, TeamID: teamID, SubjectID: req.ID, ActorID: userID, At: now,
	})
	view := NewRequestView(*req)
	return &view, nil
}

// ApproveRequest admits the applicant. The capacity check and the status flip happen in the same
// atomic store step; a full team leaves the request pending.
func (s Service) ApproveRequest(ctx context.Context, callerID, requestID string) (*RequestView, error) {
	req, err := s.request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedTeam(ctx, callerID, req.TeamID); err != nil {
		return nil, err
	}
	if req.Status != domain.JoinRequestPending {
		return nil, fmt.Errorf("%w: join request is already %s", domain.ErrConflict, req.Status)
	}

	now := s.now()
	member := newMember(now)
	approved, err := s.requests.ApproveJoinRequest(ctx, requestID, member)
	if err != nil {
		s.logger.Warn("join request approval refused", "request_id", requestID, "team_id", req.TeamID, "error", err)
		return nil, transitionError(err)
	}
	s.logger.Info("join request approved", "request_id", requestID, "team_id", approved.TeamID, "user_id", approved.UserID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyJoinApproved, UserID: approved.UserID, TeamID: approved.TeamID, SubjectID: approved.ID, ActorID: callerID, At: now,
	})
	view := NewRequestView(*approved)
	return &view, nil
}

// RejectRequest declines a pending application. Membership is untouched.
func (s Service) RejectRequest(ctx context.Context, callerID, requestID string) (*RequestView, error) {
	req, err := s.request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedTeam(ctx, callerID, req.TeamID); err != nil {
		return nil, err
	}
	now := s.now()
	rejected, err := s.requests.RejectJoinRequest(ctx, requestID, now)
	if err != nil {
		return nil, transitionError(err)
	}
	s.logger.Info("join request rejected", "request_id", requestID, "team_id", rejected.TeamID, "user_id", rejected.UserID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyJoinRejected, UserID: rejected.UserID, TeamID: rejected.TeamID, SubjectID: rejected.ID, ActorID: callerID, At: now,
	})
	view := NewRequestView(*rejected)
	return &view, nil
}

// ListTeamRequests lists a team's requests for its owner. An empty status lists all.
func (s Service) ListTeamRequests(ctx context.Context, callerID, teamID string, status domain.JoinRequestStatus) ([]RequestView, error) {
	switch status {
	case "", domain.JoinRequestPending, domain.JoinRequestApproved, domain.JoinRequestRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if _, err := s.ownedTeam(ctx, callerID, teamID); err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListJoinRequestsByTeam(ctx, teamID, status)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return requestViews(reqs), nil
}

// ListUserRequests lists the applications userID has made.
func (s Service) ListUserRequests(ctx context.Context, userID string) ([]RequestView, error) {
	reqs, err := s.requests.ListJoinRequestsByUser(ctx, userID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return requestViews(reqs), nil
}

func (s Service) request(ctx context.Context, requestID string) (*domain.JoinRequest, error) {
	req, err := s.requests.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, lookupError("join request", requestID, err)
	}
	return req, nil
}

func (s Service) activeTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, lookupError("team", teamID, err)
	}
	if !team.IsActive {
		return nil, fmt.Errorf("%w: team %s is not active", domain.ErrConflict, teamID)
	}
	return team, nil
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

func (s Service) visibleUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupError("user", userID, err)
	}
	if !user.Visible() {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return user, nil
}

func (s Service) ensureNotMember(ctx context.Context, teamID, userID string) error {
	member, err := s.teams.GetMember(ctx, teamID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return domain.StorageError(err)
	case member.IsActive:
		return fmt.Errorf("%w: user %s is already a member of team %s", domain.ErrConflict, userID, teamID)
	}
	return nil
}

func newMember(now time.Time) *domain.TeamMember {
	return &domain.TeamMember{
		ID:       uuid.NewString(),
		Role:     domain.MemberRoleMember,
		JoinedAt: now,
		IsActive: true,
	}
}

func cleanMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if len(message) > maxMessageLength {
		return "", fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, maxMessageLength)
	}
	return message, nil
}

// transitionError maps store refusals of an atomic transition onto the domain taxonomy.
func transitionError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, repository.ErrTeamFull):
		return fmt.Errorf("%w: %w", domain.ErrCapacityExceeded, err)
	case errors.Is(err, repository.ErrExpired):
		return fmt.Errorf("%w: invitation has expired", domain.ErrExpired)
	case errors.Is(err, repository.ErrStateChanged),
		errors.Is(err, repository.ErrAlreadyMember),
		errors.Is(err, repository.ErrInactive),
		errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}
	return domain.StorageError(err)
}

func lookupError(what, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, what, id)
	}
	return domain.StorageError(err)
}
