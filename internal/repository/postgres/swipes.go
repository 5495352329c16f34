package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

const matchColumns = `id, user_a_id, user_b_id, is_active, created_at, updated_at`

func scanMatch(row scanner) (*domain.Match, error) {
	var m domain.Match
	if err := row.Scan(&m.ID, &m.UserAID, &m.UserBID, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// RecordSwipe inserts swipe under an advisory lock on the unordered user pair, so two reciprocal
// swipes cannot both miss each other, then stores the match resolve yields.
func (r *Repository) RecordSwipe(ctx context.Context, swipe *domain.Swipe, resolve repository.MatchResolver) (*domain.Match, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, b := domain.OrderedPair(swipe.SwiperID, swipe.SwipeeID)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, a+"|"+b); err != nil {
		return nil, err
	}

	const insert = `INSERT INTO swipes (id, swiper_id, swipee_id, decision, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insert, swipe.ID, swipe.SwiperID, swipe.SwipeeID, string(swipe.Decision), swipe.CreatedAt); err != nil {
		return nil, translate(err)
	}

	var reverse *domain.Swipe
	var rs domain.Swipe
	var decision string
	err = tx.QueryRow(ctx, `SELECT id, swiper_id, swipee_id, decision, created_at FROM swipes WHERE swiper_id = $1 AND swipee_id = $2`,
		swipe.SwipeeID, swipe.SwiperID).Scan(&rs.ID, &rs.SwiperID, &rs.SwipeeID, &decision, &rs.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		rs.Decision = domain.Decision(decision)
		reverse = &rs
	}

	var stored *domain.Match
	if resolve != nil {
		if candidate := resolve(*swipe, reverse); candidate != nil {
			const insertMatch = `INSERT INTO matches (id, user_a_id, user_b_id, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				ON CONFLICT (user_a_id, user_b_id) DO NOTHING`
			if _, err := tx.Exec(ctx, insertMatch, candidate.ID, candidate.UserAID, candidate.UserBID, candidate.IsActive, candidate.CreatedAt); err != nil {
				return nil, translate(err)
			}
			const selectMatch = `SELECT ` + matchColumns + ` FROM matches WHERE user_a_id = $1 AND user_b_id = $2`
			stored, err = scanMatch(tx.QueryRow(ctx, selectMatch, candidate.UserAID, candidate.UserBID))
			if err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stored, nil
}

// GetMatch fetches a match.
func (r *Repository) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.pool.QueryRow(ctx, query, id))
}

// ListMatchesByUser lists matches involving userID, newest first.
func (r *Repository) ListMatchesByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1) AND (is_active OR NOT $2)
		ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, query, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// DeactivateMatch marks an active match inactive.
func (r *Repository) DeactivateMatch(ctx context.Context, id string, at time.Time) (*domain.Match, error) {
	const query = `UPDATE matches SET is_active = FALSE, updated_at = $2
		WHERE id = $1 AND is_active
		RETURNING ` + matchColumns
	m, err := scanMatch(r.pool.QueryRow(ctx, query, id, at))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, r.missingOrChanged(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, id)
	}
	return m, err
}
