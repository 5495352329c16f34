package domain

import (
	"strings"
	"time"
)

// Role is the platform-wide permission level of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// DeletedNamePrefix marks names of users soft-deleted by older deployments,
// e.g. "[DELETED] 2024-01-01T00:00:00.000Z Alice".
const DeletedNamePrefix = "[DELETED]"

// User represents a platform account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	IsActive     bool
	Deleted      bool
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Visible reports whether the user may appear in discovery and listings.
func (u User) Visible() bool {
	return u.IsActive && !u.Deleted && !IsLegacyDeletedName(u.Name)
}

// IsLegacyDeletedName reports whether name carries the deletion marker followed by a timestamp.
func IsLegacyDeletedName(name string) bool {
	_, _, ok := parseDeletedName(name)
	return ok
}

// StripDeletedMarker returns the original name behind a deletion marker, or name unchanged.
func StripDeletedMarker(name string) string {
	if original, _, ok := parseDeletedName(name); ok {
		return original
	}
	return name
}

func parseDeletedName(name string) (string, time.Time, bool) {
	rest, ok := strings.CutPrefix(name, DeletedNamePrefix+" ")
	if !ok {
		return "", time.Time{}, false
	}
	stamp, original, _ := strings.Cut(rest, " ")
	at, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return "", time.Time{}, false
	}
	return original, at, true
}
