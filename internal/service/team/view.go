package team

import (
	"time"

	"github.com/splax/teamup/internal/domain"
)

// View is the outward projection of a team.
type View struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EventID     string `json:"event_id"`
	OwnerID     string `json:"owner_id"`
	MaxMembers  int    `json:"max_members"`
	MemberCount int    `json:"member_count"`
	Tags        string `json:"tags"`
	LookingFor  string `json:"looking_for"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// NewView projects a team record.
func NewView(t domain.Team, memberCount int) View {
	return View{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		EventID:     t.EventID,
		OwnerID:     t.OwnerID,
		MaxMembers:  t.MaxMembers,
		MemberCount: memberCount,
		Tags:        t.Tags,
		LookingFor:  t.LookingFor,
		IsActive:    t.IsActive,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

// MemberView is the outward projection of a membership.
type MemberView struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

// NewMemberView projects a membership record.
func NewMemberView(m domain.TeamMember) MemberView {
	return MemberView{UserID: m.UserID, Role: m.Role, JoinedAt: formatTime(m.JoinedAt)}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
