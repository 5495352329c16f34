package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository/memory"
	"github.com/splax/teamup/pkg/config"
)

func newTestService() (Service, *memory.Store) {
	store := memory.New()
	cfg := config.APIConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg), store
}

func TestSignupLoginAuthorize(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, tokens, err := svc.Signup(ctx, SignupInput{Name: "Ada", Email: " Ada@Example.com ", Password: "hunter22", Role: domain.RoleOrganizer})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "ada@example.com" || !user.IsActive || user.Role != domain.RoleOrganizer {
		t.Fatalf("unexpected user: %+v", user)
	}

	authed, claims, err := svc.Authorize(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if authed.ID != user.ID || claims.Role != string(domain.RoleOrganizer) {
		t.Fatalf("unexpected authorization: %+v %+v", authed, claims)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ADA@example.com", "hunter22"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []SignupInput{
		{Name: "", Email: "a@example.com", Password: "longenough"},
		{Name: "A", Email: "not-an-email", Password: "longenough"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: "longenough", Role: domain.RoleAdmin},
		{Name: "[DELETED] 2024-01-01T00:00:00Z A", Email: "a@example.com", Password: "longenough"},
	}
	for _, in := range cases {
		if _, _, err := svc.Signup(ctx, in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", in, err)
		}
	}

	if _, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "dup@example.com", Password: "longenough"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, _, err := svc.Signup(ctx, SignupInput{Name: "B", Email: "DUP@example.com", Password: "longenough"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestAuthorizeRejectsDeletedUsers(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, tokens, err := svc.Signup(ctx, SignupInput{Name: "Ada", Email: "ada@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if err := store.MarkUserDeleted(ctx, user.ID, time.Now()); err != nil {
		t.Fatalf("MarkUserDeleted: %v", err)
	}
	if _, _, err := svc.Authorize(ctx, tokens.AccessToken); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, _, err := svc.Authorize(ctx, " "); !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
	if _, _, err := svc.Authorize(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
