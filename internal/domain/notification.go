package domain

import "time"

// NotificationKind names a workflow transition users are told about.
type NotificationKind string

const (
	NotifyJoinRequested      NotificationKind = "join_request.created"
	NotifyJoinApproved       NotificationKind = "join_request.approved"
	NotifyJoinRejected       NotificationKind = "join_request.rejected"
	NotifyInvitationCreated  NotificationKind = "invitation.created"
	NotifyInvitationAccepted NotificationKind = "invitation.accepted"
	NotifyInvitationDeclined NotificationKind = "invitation.declined"
	NotifyInvitationCanceled NotificationKind = "invitation.cancelled"
	NotifyMatchCreated       NotificationKind = "match.created"
)

// Notification records a transition for one recipient.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	UserID    string           `json:"user_id"`
	TeamID    string           `json:"team_id,omitempty"`
	SubjectID string           `json:"subject_id"`
	ActorID   string           `json:"actor_id,omitempty"`
	At        time.Time        `json:"at"`
}
