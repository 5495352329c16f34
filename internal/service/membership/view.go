package membership

import (
	"time"

	"github.com/splax/teamup/internal/domain"
)

// RequestView is the outward projection of a join request.
type RequestView struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewRequestView projects a join request.
func NewRequestView(r domain.JoinRequest) RequestView {
	return RequestView{
		ID:        r.ID,
		TeamID:    r.TeamID,
		UserID:    r.UserID,
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}

// InvitationView is the outward projection of an invitation as observed at a point in time.
// Status reads "expired" for a pending invitation past its deadline.
type InvitationView struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	InviterID   string `json:"inviter_id"`
	InviteeID   string `json:"invitee_id"`
	Message     string `json:"message,omitempty"`
	Status      string `json:"status"`
	Actionable  bool   `json:"actionable"`
	ExpiresAt   string `json:"expires_at"`
	RespondedAt string `json:"responded_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// NewInvitationView projects an invitation with expiry evaluated at now.
func NewInvitationView(inv domain.TeamInvitation, now time.Time) InvitationView {
	view := InvitationView{
		ID:         inv.ID,
		TeamID:     inv.TeamID,
		InviterID:  inv.InviterID,
		InviteeID:  inv.InviteeID,
		Message:    inv.Message,
		Status:     string(inv.EffectiveStatus(now)),
		Actionable: inv.Actionable(now),
		ExpiresAt:  formatTime(inv.ExpiresAt),
		CreatedAt:  formatTime(inv.CreatedAt),
	}
	if inv.RespondedAt != nil {
		view.RespondedAt = formatTime(*inv.RespondedAt)
	}
	return view
}

func requestViews(reqs []domain.JoinRequest) []RequestView {
	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, NewRequestView(r))
	}
	return out
}

func invitationViews(invs []domain.TeamInvitation, now time.Time) []InvitationView {
	out := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, NewInvitationView(inv, now))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
