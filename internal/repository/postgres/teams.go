package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

const teamColumns = `id, name, description, event_id, owner_id, max_members, tags, looking_for, is_active, created_at, updated_at`

const memberColumns = `id, team_id, user_id, role, joined_at, is_active, created_at, updated_at`

func scanTeam(row scanner) (*domain.Team, error) {
	var t domain.Team
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.EventID, &t.OwnerID, &t.MaxMembers, &t.Tags, &t.LookingFor, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func scanMember(row scanner) (*domain.TeamMember, error) {
	var m domain.TeamMember
	if err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// CreateTeamWithOwner inserts the team and its owner membership in one transaction.
func (r *Repository) CreateTeamWithOwner(ctx context.Context, team *domain.Team, owner *domain.TeamMember) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const teamInsert = `INSERT INTO teams (id, name, description, event_id, owner_id, max_members, tags, looking_for, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING updated_at`
	if err := tx.QueryRow(ctx, teamInsert,
		team.ID,
		team.Name,
		team.Description,
		team.EventID,
		team.OwnerID,
		team.MaxMembers,
		team.Tags,
		team.LookingFor,
		team.IsActive,
		team.CreatedAt,
	).Scan(&team.UpdatedAt); err != nil {
		return translate(err)
	}

	const memberInsert = `INSERT INTO team_members (id, team_id, user_id, role, joined_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $5, $5)
		RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, memberInsert,
		owner.ID,
		owner.TeamID,
		owner.UserID,
		owner.Role,
		owner.JoinedAt,
		owner.IsActive,
	).Scan(&owner.CreatedAt, &owner.UpdatedAt); err != nil {
		return translate(err)
	}
	return tx.Commit(ctx)
}

// GetTeamByID returns a team by identifier.
func (r *Repository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(r.pool.QueryRow(ctx, query, teamID))
}

// ListTeamsByEvent returns active teams formed around eventID.
func (r *Repository) ListTeamsByEvent(ctx context.Context, eventID string) ([]domain.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams
		WHERE event_id = $1 AND is_active
		ORDER BY created_at DESC, id`
	return r.queryTeams(ctx, query, eventID)
}

// ListTeamsByUser returns teams the user actively belongs to.
func (r *Repository) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	const query = `SELECT t.id, t.name, t.description, t.event_id, t.owner_id, t.max_members, t.tags, t.looking_for, t.is_active, t.created_at, t.updated_at
		FROM teams t
		INNER JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = $1 AND tm.is_active
		ORDER BY t.created_at DESC, t.id`
	return r.queryTeams(ctx, query, userID)
}

func (r *Repository) queryTeams(ctx context.Context, query string, args ...any) ([]domain.Team, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]domain.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// GetMember returns the membership row for the pair, active or not.
func (r *Repository) GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error) {
	const query = `SELECT ` + memberColumns + ` FROM team_members WHERE team_id = $1 AND user_id = $2`
	return scanMember(r.pool.QueryRow(ctx, query, teamID, userID))
}

// ListActiveMembers returns active members ordered by join time.
func (r *Repository) ListActiveMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	const query = `SELECT ` + memberColumns + ` FROM team_members
		WHERE team_id = $1 AND is_active
		ORDER BY joined_at, user_id`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]domain.TeamMember, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	return members, rows.Err()
}

// CountActiveMembers counts active memberships of a team.
func (r *Repository) CountActiveMembers(ctx context.Context, teamID string) (int, error) {
	const query = `SELECT COUNT(1) FROM team_members WHERE team_id = $1 AND is_active`
	var count int
	if err := r.pool.QueryRow(ctx, query, teamID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeactivateMember marks an active membership inactive.
func (r *Repository) DeactivateMember(ctx context.Context, teamID, userID string, at time.Time) error {
	const query = `UPDATE team_members SET is_active = FALSE, updated_at = $3
		WHERE team_id = $1 AND user_id = $2 AND is_active`
	tag, err := r.pool.Exec(ctx, query, teamID, userID, at)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateTeam marks the team inactive and cascades to memberships.
func (r *Repository) DeactivateTeam(ctx context.Context, teamID string, at time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var active bool
	if err := tx.QueryRow(ctx, `SELECT is_active FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&active); err != nil {
		return translate(err)
	}
	if !active {
		return repository.ErrStateChanged
	}
	if _, err := tx.Exec(ctx, `UPDATE teams SET is_active = FALSE, updated_at = $2 WHERE id = $1`, teamID, at); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE team_members SET is_active = FALSE, updated_at = $2 WHERE team_id = $1 AND is_active`, teamID, at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// activateMemberTx inserts or reactivates member inside tx. The team row lock serializes every
// activation for the team, so the count read below cannot go stale before the write.
func activateMemberTx(ctx context.Context, tx pgx.Tx, member *domain.TeamMember) error {
	var maxMembers int
	var teamActive bool
	err := tx.QueryRow(ctx, `SELECT max_members, is_active FROM teams WHERE id = $1 FOR UPDATE`, member.TeamID).
		Scan(&maxMembers, &teamActive)
	if err != nil {
		return translate(err)
	}
	if !teamActive {
		return repository.ErrInactive
	}

	var memberActive bool
	err = tx.QueryRow(ctx, `SELECT is_active FROM team_members WHERE team_id = $1 AND user_id = $2`, member.TeamID, member.UserID).
		Scan(&memberActive)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return err
	case memberActive:
		return repository.ErrAlreadyMember
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(1) FROM team_members WHERE team_id = $1 AND is_active`, member.TeamID).Scan(&count); err != nil {
		return err
	}
	if count >= maxMembers {
		return repository.ErrTeamFull
	}

	const upsert = `INSERT INTO team_members (id, team_id, user_id, role, joined_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $5, $5)
		ON CONFLICT (team_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			joined_at = EXCLUDED.joined_at,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + memberColumns
	stored, err := scanMember(tx.QueryRow(ctx, upsert, member.ID, member.TeamID, member.UserID, member.Role, member.JoinedAt))
	if err != nil {
		return err
	}
	*member = *stored
	return nil
}
