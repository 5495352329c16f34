package domain

import "time"

// JoinRequestStatus is the state of a user-initiated application.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest represents a user asking to join a team. One per (team, user), ever.
type JoinRequest struct {
	ID        string
	TeamID    string
	UserID    string
	Message   string
	Status    JoinRequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvitationStatus is the stored state of a team-initiated offer.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCancelled InvitationStatus = "cancelled"
	// InvitationExpired is never stored; it is derived from ExpiresAt.
	InvitationExpired InvitationStatus = "expired"
)

// DefaultInvitationTTL is how long an invitation stays actionable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// TeamInvitation represents a team inviting a user.
type TeamInvitation struct {
	ID          string
	TeamID      string
	InviterID   string
	InviteeID   string
	Message     string
	Status      InvitationStatus
	ExpiresAt   time.Time
	RespondedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether a pending invitation has passed its deadline at now.
func (i TeamInvitation) Expired(now time.Time) bool {
	return i.Status == InvitationPending && !now.Before(i.ExpiresAt)
}

// EffectiveStatus folds expiry into the stored status.
func (i TeamInvitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Expired(now) {
		return InvitationExpired
	}
	return i.Status
}

// Actionable reports whether the invitation can still be accepted, declined or cancelled.
func (i TeamInvitation) Actionable(now time.Time) bool {
	return i.EffectiveStatus(now) == InvitationPending
}
