package domain

import "time"

const (
	MinTeamMembers = 1
	MaxTeamMembers = 20
)

// Membership roles.
const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

// Team is a bounded group formed around an event.
type Team struct {
	ID          string
	Name        string
	Description string
	EventID     string
	OwnerID     string
	MaxMembers  int
	Tags        string
	LookingFor  string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamMember links a user to a team with a role. Removed members keep their row with IsActive=false.
type TeamMember struct {
	ID        string
	TeamID    string
	UserID    string
	Role      string
	JoinedAt  time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
