package memory

import (
	"context"
	"sort"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

// CreateJoinRequest inserts a request; the (team, user) pair is unique regardless of status.
func (s *Store) CreateJoinRequest(ctx context.Context, req *domain.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.TeamID == req.TeamID && existing.UserID == req.UserID {
			return repository.ErrDuplicate
		}
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	s.requests[req.ID] = *req
	return nil
}

// GetJoinRequest fetches a join request.
func (s *Store) GetJoinRequest(ctx context.Context, id string) (*domain.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// ListJoinRequestsByTeam lists requests for a team, optionally filtered by status.
func (s *Store) ListJoinRequestsByTeam(ctx context.Context, teamID string, status domain.JoinRequestStatus) ([]domain.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.JoinRequest, 0)
	for _, r := range s.requests {
		if r.TeamID == teamID && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	sortRequests(out)
	return out, nil
}

// ListJoinRequestsByUser lists requests made by a user.
func (s *Store) ListJoinRequestsByUser(ctx context.Context, userID string) ([]domain.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.JoinRequest, 0)
	for _, r := range s.requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortRequests(out)
	return out, nil
}

// ApproveJoinRequest activates the membership and approves the request in one step.
func (s *Store) ApproveJoinRequest(ctx context.Context, requestID string, member *domain.TeamMember) (*domain.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.Status != domain.JoinRequestPending {
		return nil, repository.ErrStateChanged
	}
	member.TeamID = r.TeamID
	member.UserID = r.UserID
	if err := s.activateLocked(member); err != nil {
		return nil, err
	}
	r.Status = domain.JoinRequestApproved
	r.UpdatedAt = member.JoinedAt
	s.requests[requestID] = r
	return &r, nil
}

// RejectJoinRequest moves a pending request to rejected.
func (s *Store) RejectJoinRequest(ctx context.Context, requestID string, at time.Time) (*domain.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.Status != domain.JoinRequestPending {
		return nil, repository.ErrStateChanged
	}
	r.Status = domain.JoinRequestRejected
	r.UpdatedAt = at
	s.requests[requestID] = r
	return &r, nil
}

// CreateInvitation inserts an invitation.
func (s *Store) CreateInvitation(ctx context.Context, inv *domain.TeamInvitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[inv.ID]; ok {
		return repository.ErrDuplicate
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = inv.CreatedAt
	}
	s.invitations[inv.ID] = *inv
	return nil
}

// GetInvitation fetches an invitation.
func (s *Store) GetInvitation(ctx context.Context, id string) (*domain.TeamInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

// HasPendingInvitation reports whether an actionable invitation exists for the pair.
func (s *Store) HasPendingInvitation(ctx context.Context, teamID, inviteeID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invitations {
		if inv.TeamID == teamID && inv.InviteeID == inviteeID && inv.Actionable(now) {
			return true, nil
		}
	}
	return false, nil
}

// ListInvitationsByInvitee lists invitations addressed to a user.
func (s *Store) ListInvitationsByInvitee(ctx context.Context, inviteeID string) ([]domain.TeamInvitation, error) {
	return s.listInvitations(func(inv domain.TeamInvitation) bool { return inv.InviteeID == inviteeID }), nil
}

// ListInvitationsByTeam lists invitations sent by a team.
func (s *Store) ListInvitationsByTeam(ctx context.Context, teamID string) ([]domain.TeamInvitation, error) {
	return s.listInvitations(func(inv domain.TeamInvitation) bool { return inv.TeamID == teamID }), nil
}

// AcceptInvitation activates the invitee's membership and accepts the invitation in one step.
func (s *Store) AcceptInvitation(ctx context.Context, invitationID string, member *domain.TeamMember, now time.Time) (*domain.TeamInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[invitationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if inv.Status != domain.InvitationPending {
		return nil, repository.ErrStateChanged
	}
	if inv.Expired(now) {
		return nil, repository.ErrExpired
	}
	member.TeamID = inv.TeamID
	member.UserID = inv.InviteeID
	if err := s.activateLocked(member); err != nil {
		return nil, err
	}
	inv.Status = domain.InvitationAccepted
	inv.RespondedAt = &now
	inv.UpdatedAt = now
	s.invitations[invitationID] = inv
	return &inv, nil
}

// RespondInvitation moves a pending, unexpired invitation to declined or cancelled.
func (s *Store) RespondInvitation(ctx context.Context, invitationID string, status domain.InvitationStatus, now time.Time) (*domain.TeamInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[invitationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if inv.Status != domain.InvitationPending {
		return nil, repository.ErrStateChanged
	}
	if inv.Expired(now) {
		return nil, repository.ErrExpired
	}
	inv.Status = status
	inv.RespondedAt = &now
	inv.UpdatedAt = now
	s.invitations[invitationID] = inv
	return &inv, nil
}

func (s *Store) listInvitations(keep func(domain.TeamInvitation) bool) []domain.TeamInvitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TeamInvitation, 0)
	for _, inv := range s.invitations {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func sortRequests(out []domain.JoinRequest) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
