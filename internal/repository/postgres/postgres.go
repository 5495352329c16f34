package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository        = (*Repository)(nil)
	_ repository.ProfileRepository     = (*Repository)(nil)
	_ repository.EventRepository       = (*Repository)(nil)
	_ repository.TeamRepository        = (*Repository)(nil)
	_ repository.JoinRequestRepository = (*Repository)(nil)
	_ repository.InvitationRepository  = (*Repository)(nil)
	_ repository.SwipeRepository       = (*Repository)(nil)
	_ repository.DiscoveryRepository   = (*Repository)(nil)
)

type scanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrDuplicate
		case "23503":
			return repository.ErrNotFound
		}
	}
	return err
}

const userColumns = `id, name, email, password_hash, role, is_active, deleted, deleted_at, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.Deleted, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.IsActive, user.CreatedAt).
		Scan(&user.UpdatedAt)
	return translate(err)
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// MarkUserDeleted soft-deletes a user, keeping the name.
func (r *Repository) MarkUserDeleted(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET deleted = TRUE, deleted_at = $2, updated_at = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RestoreUser clears the soft-delete state and sets the user's name.
func (r *Repository) RestoreUser(ctx context.Context, id, name string) error {
	const query = `UPDATE users SET deleted = FALSE, deleted_at = NULL, name = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetProfile returns the profile for userID.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `SELECT user_id, avatar_url, bio, skills, updated_at FROM profiles WHERE user_id = $1`
	var p domain.Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.AvatarURL, &p.Bio, &p.Skills, &p.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpsertProfile creates or replaces a profile.
func (r *Repository) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	const query = `INSERT INTO profiles (user_id, avatar_url, bio, skills, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			skills = EXCLUDED.skills,
			updated_at = EXCLUDED.updated_at`
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := r.pool.Exec(ctx, query, profile.UserID, profile.AvatarURL, profile.Bio, skills, profile.UpdatedAt)
	return translate(err)
}

// CreateEvent inserts an event.
func (r *Repository) CreateEvent(ctx context.Context, event *domain.Event) error {
	const query = `INSERT INTO events (id, name, organizer_id, starts_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, event.ID, event.Name, event.OrganizerID, event.StartsAt, event.CreatedAt)
	return translate(err)
}

// GetEventByID fetches an event.
func (r *Repository) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	const query = `SELECT id, name, organizer_id, starts_at, created_at FROM events WHERE id = $1`
	var e domain.Event
	if err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.OrganizerID, &e.StartsAt, &e.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &e, nil
}
