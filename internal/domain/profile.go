package domain

import "time"

// Profile carries optional display fields owned by the profile collaborator.
type Profile struct {
	UserID    string
	AvatarURL string
	Bio       string
	Skills    []string
	UpdatedAt time.Time
}

// Candidate pairs a discoverable user with their profile, when one exists.
type Candidate struct {
	User    User
	Profile *Profile
}
