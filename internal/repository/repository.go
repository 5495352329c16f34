package repository

import (
	"context"
	"time"

	"github.com/splax/teamup/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	MarkUserDeleted(ctx context.Context, id string, at time.Time) error
	RestoreUser(ctx context.Context, id, name string) error
}

// ProfileRepository stores optional display fields keyed by user.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
}

// EventRepository stores events teams are formed around.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEventByID(ctx context.Context, id string) (*domain.Event, error)
}

// TeamRepository manages teams and memberships.
type TeamRepository interface {
	// CreateTeamWithOwner writes the team and its owner membership atomically.
	CreateTeamWithOwner(ctx context.Context, team *domain.Team, owner *domain.TeamMember) error
	GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error)
	ListTeamsByEvent(ctx context.Context, eventID string) ([]domain.Team, error)
	ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error)
	GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error)
	ListActiveMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error)
	CountActiveMembers(ctx context.Context, teamID string) (int, error)
	DeactivateMember(ctx context.Context, teamID, userID string, at time.Time) error
	// DeactivateTeam marks the team inactive and deactivates every membership.
	DeactivateTeam(ctx context.Context, teamID string, at time.Time) error
}

// JoinRequestRepository manages user-initiated applications.
type JoinRequestRepository interface {
	CreateJoinRequest(ctx context.Context, req *domain.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (*domain.JoinRequest, error)
	ListJoinRequestsByTeam(ctx context.Context, teamID string, status domain.JoinRequestStatus) ([]domain.JoinRequest, error)
	ListJoinRequestsByUser(ctx context.Context, userID string) ([]domain.JoinRequest, error)
	// ApproveJoinRequest flips a pending request to approved and activates member in one step,
	// re-checking capacity under the team lock.
	ApproveJoinRequest(ctx context.Context, requestID string, member *domain.TeamMember) (*domain.JoinRequest, error)
	RejectJoinRequest(ctx context.Context, requestID string, at time.Time) (*domain.JoinRequest, error)
}

// InvitationRepository manages team-initiated offers.
type InvitationRepository interface {
	CreateInvitation(ctx context.Context, inv *domain.TeamInvitation) error
	GetInvitation(ctx context.Context, id string) (*domain.TeamInvitation, error)
	HasPendingInvitation(ctx context.Context, teamID, inviteeID string, now time.Time) (bool, error)
	ListInvitationsByInvitee(ctx context.Context, inviteeID string) ([]domain.TeamInvitation, error)
	ListInvitationsByTeam(ctx context.Context, teamID string) ([]domain.TeamInvitation, error)
	// AcceptInvitation flips a pending, unexpired invitation to accepted and activates member in one step.
	AcceptInvitation(ctx context.Context, invitationID string, member *domain.TeamMember, now time.Time) (*domain.TeamInvitation, error)
	// RespondInvitation moves a pending, unexpired invitation to declined or cancelled.
	RespondInvitation(ctx context.Context, invitationID string, status domain.InvitationStatus, now time.Time) (*domain.TeamInvitation, error)
}

// MatchResolver decides, without I/O, whether swipe together with the reverse swipe (nil when
// absent) forms a match. It runs inside the store's atomic swipe step.
type MatchResolver func(swipe domain.Swipe, reverse *domain.Swipe) *domain.Match

// SwipeRepository persists swipes and matches.
type SwipeRepository interface {
	// RecordSwipe stores swipe and resolves reciprocity atomically per user pair. It returns the
	// stored match when resolve produced one, reusing an existing match for the pair.
	RecordSwipe(ctx context.Context, swipe *domain.Swipe, resolve MatchResolver) (*domain.Match, error)
	GetMatch(ctx context.Context, id string) (*domain.Match, error)
	ListMatchesByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Match, error)
	DeactivateMatch(ctx context.Context, id string, at time.Time) (*domain.Match, error)
}

// DiscoveryRepository answers candidate queries.
type DiscoveryRepository interface {
	// ListCandidates returns visible users other than userID that userID has not swiped,
	// newest first with ties broken by id.
	ListCandidates(ctx context.Context, userID string, limit int) ([]domain.Candidate, error)
	SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]domain.Candidate, error)
}
