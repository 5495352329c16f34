package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

const requestColumns = `id, team_id, user_id, message, status, created_at, updated_at`

const invitationColumns = `id, team_id, inviter_id, invitee_id, message, status, expires_at, responded_at, created_at, updated_at`

func scanJoinRequest(row scanner) (*domain.JoinRequest, error) {
	var req domain.JoinRequest
	var status string
	if err := row.Scan(&req.ID, &req.TeamID, &req.UserID, &req.Message, &status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	req.Status = domain.JoinRequestStatus(status)
	return &req, nil
}

func scanInvitation(row scanner) (*domain.TeamInvitation, error) {
	var inv domain.TeamInvitation
	var status string
	if err := row.Scan(&inv.ID, &inv.TeamID, &inv.InviterID, &inv.InviteeID, &inv.Message, &status, &inv.ExpiresAt, &inv.RespondedAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}

// CreateJoinRequest inserts a request; the unique (team_id, user_id) index rejects repeats.
func (r *Repository) CreateJoinRequest(ctx context.Context, req *domain.JoinRequest) error {
	const query = `INSERT INTO join_requests (id, team_id, user_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, req.ID, req.TeamID, req.UserID, req.Message, string(req.Status), req.CreatedAt).
		Scan(&req.UpdatedAt)
	return translate(err)
}

// GetJoinRequest fetches a join request.
func (r *Repository) GetJoinRequest(ctx context.Context, id string) (*domain.JoinRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM join_requests WHERE id = $1`
	return scanJoinRequest(r.pool.QueryRow(ctx, query, id))
}

// ListJoinRequestsByTeam lists requests for a team, optionally filtered by status.
func (r *Repository) ListJoinRequestsByTeam(ctx context.Context, teamID string, status domain.JoinRequestStatus) ([]domain.JoinRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM join_requests
		WHERE team_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id`
	return r.queryJoinRequests(ctx, query, teamID, string(status))
}

// ListJoinRequestsByUser lists requests made by a user.
func (r *Repository) ListJoinRequestsByUser(ctx context.Context, userID string) ([]domain.JoinRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM join_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id`
	return r.queryJoinRequests(ctx, query, userID)
}

func (r *Repository) queryJoinRequests(ctx context.Context, query string, args ...any) ([]domain.JoinRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JoinRequest, 0)
	for rows.Next() {
		req, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// ApproveJoinRequest locks the request, activates the membership under the team lock and flips
// the request to approved, all in one transaction.
func (r *Repository) ApproveJoinRequest(ctx context.Context, requestID string, member *domain.TeamMember) (*domain.JoinRequest, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const lock = `SELECT ` + requestColumns + ` FROM join_requests WHERE id = $1 FOR UPDATE`
	req, err := scanJoinRequest(tx.QueryRow(ctx, lock, requestID))
	if err != nil {
		return nil, err
	}
	if req.Status != domain.JoinRequestPending {
		return nil, repository.ErrStateChanged
	}
	member.TeamID = req.TeamID
	member.UserID = req.UserID
	if err := activateMemberTx(ctx, tx, member); err != nil {
		return nil, err
	}

	const update = `UPDATE join_requests SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING ` + requestColumns
	approved, err := scanJoinRequest(tx.QueryRow(ctx, update, requestID, string(domain.JoinRequestApproved), member.JoinedAt))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return approved, nil
}

// RejectJoinRequest moves a pending request to rejected.
func (r *Repository) RejectJoinRequest(ctx context.Context, requestID string, at time.Time) (*domain.JoinRequest, error) {
	const query = `UPDATE join_requests SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + requestColumns
	req, err := scanJoinRequest(r.pool.QueryRow(ctx, query, requestID, string(domain.JoinRequestRejected), at, string(domain.JoinRequestPending)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.missingOrChanged(ctx, `SELECT EXISTS(SELECT 1 FROM join_requests WHERE id = $1)`, requestID)
	}
	return req, err
}

// CreateInvitation inserts an invitation.
func (r *Repository) CreateInvitation(ctx context.Context, inv *domain.TeamInvitation) error {
	const query = `INSERT INTO team_invitations (id, team_id, inviter_id, invitee_id, message, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		inv.ID,
		inv.TeamID,
		inv.InviterID,
		inv.InviteeID,
		inv.Message,
		string(inv.Status),
		inv.ExpiresAt,
		inv.CreatedAt,
	).Scan(&inv.UpdatedAt)
	return translate(err)
}

// GetInvitation fetches an invitation.
func (r *Repository) GetInvitation(ctx context.Context, id string) (*domain.TeamInvitation, error) {
	const query = `SELECT ` + invitationColumns + ` FROM team_invitations WHERE id = $1`
	return scanInvitation(r.pool.QueryRow(ctx, query, id))
}

// HasPendingInvitation reports whether an actionable invitation exists for the pair.
func (r *Repository) HasPendingInvitation(ctx context.Context, teamID, inviteeID string, now time.Time) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM team_invitations
		WHERE team_id = $1 AND invitee_id = $2 AND status = $3 AND expires_at > $4)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, inviteeID, string(domain.InvitationPending), now).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListInvitationsByInvitee lists invitations addressed to a user.
func (r *Repository) ListInvitationsByInvitee(ctx context.Context, inviteeID string) ([]domain.TeamInvitation, error) {
	const query = `SELECT ` + invitationColumns + ` FROM team_invitations
		WHERE invitee_id = $1
		ORDER BY created_at DESC, id`
	return r.queryInvitations(ctx, query, inviteeID)
}

// ListInvitationsByTeam lists invitations sent by a team.
func (r *Repository) ListInvitationsByTeam(ctx context.Context, teamID string) ([]domain.TeamInvitation, error) {
	const query = `SELECT ` + invitationColumns + ` FROM team_invitations
		WHERE team_id = $1
		ORDER BY created_at DESC, id`
	return r.queryInvitations(ctx, query, teamID)
}

func (r *Repository) queryInvitations(ctx context.Context, query string, args ...any) ([]domain.TeamInvitation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TeamInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// AcceptInvitation locks the invitation, activates the invitee's membership under the team lock
// and flips the invitation to accepted, all in one transaction.
func (r *Repository) AcceptInvitation(ctx context.Context, invitationID string, member *domain.TeamMember, now time.Time) (*domain.TeamInvitation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const lock = `SELECT ` + invitationColumns + ` FROM team_invitations WHERE id = $1 FOR UPDATE`
	inv, err := scanInvitation(tx.QueryRow(ctx, lock, invitationID))
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitationPending {
		return nil, repository.ErrStateChanged
	}
	if inv.Expired(now) {
		return nil, repository.ErrExpired
	}
	member.TeamID = inv.TeamID
	member.UserID = inv.InviteeID
	if err := activateMemberTx(ctx, tx, member); err != nil {
		return nil, err
	}

	const update = `UPDATE team_invitations SET status = $2, responded_at = $3, updated_at = $3 WHERE id = $1
		RETURNING ` + invitationColumns
	accepted, err := scanInvitation(tx.QueryRow(ctx, update, invitationID, string(domain.InvitationAccepted), now))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return accepted, nil
}

// RespondInvitation moves a pending, unexpired invitation to declined or cancelled.
func (r *Repository) RespondInvitation(ctx context.Context, invitationID string, status domain.InvitationStatus, now time.Time) (*domain.TeamInvitation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const lock = `SELECT ` + invitationColumns + ` FROM team_invitations WHERE id = $1 FOR UPDATE`
	inv, err := scanInvitation(tx.QueryRow(ctx, lock, invitationID))
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitationPending {
		return nil, repository.ErrStateChanged
	}
	if inv.Expired(now) {
		return nil, repository.ErrExpired
	}

	const update = `UPDATE team_invitations SET status = $2, responded_at = $3, updated_at = $3 WHERE id = $1
		RETURNING ` + invitationColumns
	updated, err := scanInvitation(tx.QueryRow(ctx, update, invitationID, string(status), now))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// missingOrChanged distinguishes an absent row from one a conditional update skipped.
func (r *Repository) missingOrChanged(ctx context.Context, existsQuery string, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStateChanged
}
