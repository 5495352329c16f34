package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splax/teamup/internal/domain"
)

// Invite offers inviteeID a place on teamID. Only the team owner may invite.
func (s Service) Invite(ctx context.Context, inviterID, teamID, inviteeID, message string) (*InvitationView, error) {
	message, err := cleanMessage(message)
	if err != nil {
		return nil, err
	}
	if inviteeID == "" {
		return nil, fmt.Errorf("%w: invitee id is required", domain.ErrValidation)
	}
	team, err := s.ownedTeam(ctx, inviterID, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, fmt.Errorf("%w: team %s is not active", domain.ErrConflict, teamID)
	}
	if _, err := s.visibleUser(ctx, inviteeID); err != nil {
		return nil, err
	}
	if err := s.ensureNotMember(ctx, teamID, inviteeID); err != nil {
		return nil, err
	}

	now := s.now()
	pending, err := s.invitations.HasPendingInvitation(ctx, teamID, inviteeID, now)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if pending {
		s.logger.Warn("duplicate invitation", "team_id", teamID, "invitee_id", inviteeID)
		return nil, fmt.Errorf("%w: user %s already has a pending invitation to this team", domain.ErrConflict, inviteeID)
	}

	inv := &domain.TeamInvitation{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Message:   message,
		Status:    domain.InvitationPending,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, domain.StorageError(err)
	}
	s.logger.Info("invitation created", "invitation_id", inv.ID, "team_id", teamID, "invitee_id", inviteeID, "expires_at", inv.ExpiresAt)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyInvitationCreated, UserID: inviteeID, TeamID: teamID, SubjectID: inv.ID, ActorID: inviterID, At: now,
	})
	view := NewInvitationView(*inv, now)
	return &view, nil
}

// Accept joins the invitee to the team. Expiry and capacity are re-checked inside the store's
// atomic step.
func (s Service) Accept(ctx context.Context, inviteeID, invitationID string) (*InvitationView, error) {
	inv, err := s.invitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != inviteeID {
		return nil, fmt.Errorf("%w: only the invitee may accept", domain.ErrForbidden)
	}
	now := s.now()
	if err := checkActionable(*inv, now); err != nil {
		return nil, err
	}

	accepted, err := s.invitations.AcceptInvitation(ctx, invitationID, newMember(now), now)
	if err != nil {
		s.logger.Warn("invitation acceptance refused", "invitation_id", invitationID, "team_id", inv.TeamID, "error", err)
		return nil, transitionError(err)
	}
	s.logger.Info("invitation accepted", "invitation_id", invitationID, "team_id", accepted.TeamID, "user_id", inviteeID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyInvitationAccepted, UserID: accepted.InviterID, TeamID: accepted.TeamID, SubjectID: accepted.ID, ActorID: inviteeID, At: now,
	})
	view := NewInvitationView(*accepted, now)
	return &view, nil
}

// Decline refuses a pending invitation on behalf of the invitee.
func (s Service) Decline(ctx context.Context, inviteeID, invitationID string) (*InvitationView, error) {
	inv, err := s.invitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != inviteeID {
		return nil, fmt.Errorf("%w: only the invitee may decline", domain.ErrForbidden)
	}
	return s.respond(ctx, *inv, inviteeID, domain.InvitationDeclined, domain.NotifyInvitationDeclined, inv.InviterID)
}

// Cancel withdraws a pending invitation. The inviter or the team owner may cancel.
func (s Service) Cancel(ctx context.Context, callerID, invitationID string) (*InvitationView, error) {
	inv, err := s.invitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviterID != callerID {
		if _, err := s.ownedTeam(ctx, callerID, inv.TeamID); err != nil {
			return nil, err
		}
	}
	return s.respond(ctx, *inv, callerID, domain.InvitationCancelled, domain.NotifyInvitationCanceled, inv.InviteeID)
}

func (s Service) respond(ctx context.Context, inv domain.TeamInvitation, actorID string, status domain.InvitationStatus, kind domain.NotificationKind, recipient string) (*InvitationView, error) {
	now := s.now()
	if err := checkActionable(inv, now); err != nil {
		return nil, err
	}
	updated, err := s.invitations.RespondInvitation(ctx, inv.ID, status, now)
	if err != nil {
		return nil, transitionError(err)
	}
	s.logger.Info("invitation "+string(status), "invitation_id", inv.ID, "team_id", inv.TeamID, "actor_id", actorID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: kind, UserID: recipient, TeamID: inv.TeamID, SubjectID: inv.ID, ActorID: actorID, At: now,
	})
	view := NewInvitationView(*updated, now)
	return &view, nil
}

// ListInvitations lists invitations addressed to inviteeID with expiry folded into the status.
func (s Service) ListInvitations(ctx context.Context, inviteeID string) ([]InvitationView, error) {
	invs, err := s.invitations.ListInvitationsByInvitee(ctx, inviteeID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return invitationViews(invs, s.now()), nil
}

// ListTeamInvitations lists the invitations a team has sent, for its owner.
func (s Service) ListTeamInvitations(ctx context.Context, callerID, teamID string) ([]InvitationView, error) {
	if _, err := s.ownedTeam(ctx, callerID, teamID); err != nil {
		return nil, err
	}
	invs, err := s.invitations.ListInvitationsByTeam(ctx, teamID)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return invitationViews(invs, s.now()), nil
}

func (s Service) invitation(ctx context.Context, invitationID string) (*domain.TeamInvitation, error) {
	inv, err := s.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, lookupError("invitation", invitationID, err)
	}
	return inv, nil
}

func checkActionable(inv domain.TeamInvitation, now time.Time) error {
	switch inv.EffectiveStatus(now) {
	case domain.InvitationPending:
		return nil
	case domain.InvitationExpired:
		return fmt.Errorf("%w: invitation expired at %s", domain.ErrExpired, inv.ExpiresAt.Format(time.RFC3339))
	default:
		return fmt.Errorf("%w: invitation is already %s", domain.ErrConflict, inv.Status)
	}
}
