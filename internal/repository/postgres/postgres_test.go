package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/splax/teamup/internal/app/migrate"
	"github.com/splax/teamup/internal/repository"
	"github.com/splax/teamup/internal/repository/repotest"
)

// setupTestDB starts a disposable Postgres, applies the embedded migrations and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	if os.Getenv("TEAMUP_INTEGRATION") != "1" {
		t.Skip("set TEAMUP_INTEGRATION=1 to run Postgres integration tests")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("teamup_test"),
		tcpostgres.WithUsername("teamup"),
		tcpostgres.WithPassword("teamup"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runner, err := migrate.New(pool, dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, runner.Ensure(ctx))
	return pool
}

func TestRepositoryContract(t *testing.T) {
	pool := setupTestDB(t)
	repotest.Run(t, func(t *testing.T) repotest.Store {
		_, err := pool.Exec(context.Background(), `TRUNCATE users, profiles, events, teams, team_members,
			join_requests, team_invitations, swipes, matches CASCADE`)
		require.NoError(t, err)
		return New(pool)
	})
}

func TestTranslate(t *testing.T) {
	other := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, repository.ErrNotFound},
		{"unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), repository.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, repository.ErrNotFound},
		{"check violation", &pgconn.PgError{Code: "23514"}, nil},
		{"other", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.in)
			if tc.want == nil {
				require.Equal(t, tc.in, got)
				return
			}
			require.ErrorIs(t, got, tc.want)
		})
	}
	require.NoError(t, translate(nil))
}

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"ada":        "%ada%",
		"  ada  ":    "%ada%",
		"100%":       `%100\%%`,
		"snake_case": `%snake\_case%`,
		`a\b`:        `%a\\b%`,
		"":           "%%",
	}
	for in, want := range cases {
		require.Equal(t, want, containsPattern(in), "containsPattern(%q)", in)
	}
}
