package domain

import "time"

// Decision is the outcome of a swipe.
type Decision string

const (
	DecisionLike Decision = "like"
	DecisionPass Decision = "pass"
)

// Valid reports whether d is like or pass.
func (d Decision) Valid() bool {
	return d == DecisionLike || d == DecisionPass
}

// Swipe is a directional decision by SwiperID about SwipeeID. One per ordered pair.
type Swipe struct {
	ID        string
	SwiperID  string
	SwipeeID  string
	Decision  Decision
	CreatedAt time.Time
}

// Match is materialized mutual interest. UserAID < UserBID always holds.
type Match struct {
	ID        string
	UserAID   string
	UserBID   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderedPair returns a and b sorted so the unordered pair has one representation.
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Involves reports whether userID is one side of the match.
func (m Match) Involves(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// Other returns the counterpart of userID.
func (m Match) Other(userID string) string {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}
