package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/splax/teamup/internal/domain"
)

// visibleUsers filters out inactive, soft-deleted and legacy name-marked users.
// is_legacy_deleted_name comes from migration 00004.
const visibleUsers = `u.is_active AND NOT u.deleted
		AND (u.name NOT LIKE '[DELETED] %' OR NOT is_legacy_deleted_name(u.name))`

const candidateSelect = `SELECT u.id, u.name, u.email, u.role, u.is_active, u.deleted, u.created_at, u.updated_at,
		p.user_id, p.avatar_url, p.bio, p.skills, p.updated_at
	FROM users u
	LEFT JOIN profiles p ON p.user_id = u.id`

// ListCandidates returns visible users userID has not swiped, newest first with id tie-break.
func (r *Repository) ListCandidates(ctx context.Context, userID string, limit int) ([]domain.Candidate, error) {
	const query = candidateSelect + `
	WHERE u.id <> $1 AND ` + visibleUsers + `
		AND NOT EXISTS (SELECT 1 FROM swipes s WHERE s.swiper_id = $1 AND s.swipee_id = u.id)
	ORDER BY u.created_at DESC, u.id
	LIMIT $2`
	return r.queryCandidates(ctx, query, userID, limit)
}

// SearchUsers returns visible users whose name contains query.
func (r *Repository) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]domain.Candidate, error) {
	const stmt = candidateSelect + `
	WHERE u.id <> $1 AND ` + visibleUsers + `
		AND u.name ILIKE $2 ESCAPE '\'
	ORDER BY u.created_at DESC, u.id
	LIMIT $3`
	return r.queryCandidates(ctx, stmt, excludeID, containsPattern(query), limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching query literally anywhere in the value.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
}

func (r *Repository) queryCandidates(ctx context.Context, query string, args ...any) ([]domain.Candidate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Candidate, 0)
	for rows.Next() {
		var (
			u          domain.User
			role       string
			profileID  *string
			avatarURL  *string
			bio        *string
			skills     []string
			profileUpd *time.Time
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsActive, &u.Deleted, &u.CreatedAt, &u.UpdatedAt,
			&profileID, &avatarURL, &bio, &skills, &profileUpd); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		c := domain.Candidate{User: u}
		if profileID != nil {
			c.Profile = &domain.Profile{UserID: *profileID, Skills: skills}
			if avatarURL != nil {
				c.Profile.AvatarURL = *avatarURL
			}
			if bio != nil {
				c.Profile.Bio = *bio
			}
			if profileUpd != nil {
				c.Profile.UpdatedAt = *profileUpd
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
