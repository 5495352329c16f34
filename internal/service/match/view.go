package match

import (
	"time"

	"github.com/splax/teamup/internal/domain"
)

// SwipeView is the outward projection of a swipe.
type SwipeView struct {
	ID        string `json:"id"`
	SwiperID  string `json:"swiper_id"`
	SwipeeID  string `json:"swipee_id"`
	Decision  string `json:"decision"`
	CreatedAt string `json:"created_at"`
}

// NewSwipeView projects a swipe.
func NewSwipeView(s domain.Swipe) SwipeView {
	return SwipeView{
		ID:        s.ID,
		SwiperID:  s.SwiperID,
		SwipeeID:  s.SwipeeID,
		Decision:  string(s.Decision),
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// MatchView is a match as seen by one participant.
type MatchView struct {
	ID        string `json:"id"`
	PartnerID string `json:"partner_id"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewMatchView projects m from viewerID's side.
func NewMatchView(m domain.Match, viewerID string) MatchView {
	return MatchView{
		ID:        m.ID,
		PartnerID: m.Other(viewerID),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: m.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
