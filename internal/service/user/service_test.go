package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository/memory"
	"github.com/splax/teamup/internal/service/discovery"
)

func newTestService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, store, log), store
}

func createUser(t *testing.T, store *memory.Store, id, name string) {
	t.Helper()
	err := store.CreateUser(context.Background(), &domain.User{
		ID: id, Name: name, Email: id + "@example.com", Role: domain.RoleUser, IsActive: true, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	createUser(t, store, "alice", "Alice")
	createUser(t, store, "bob", "Bob")
	admin := Caller{ID: "root", Role: domain.RoleAdmin}

	if err := svc.SoftDelete(ctx, Caller{ID: "bob", Role: domain.RoleUser}, "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.SoftDelete(ctx, Caller{ID: "alice", Role: domain.RoleUser}, "alice"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := svc.SoftDelete(ctx, admin, "alice"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on repeat delete, got %v", err)
	}
	if _, err := svc.Get(ctx, Caller{ID: "bob", Role: domain.RoleUser}, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted user hidden from others, got %v", err)
	}

	if _, err := svc.Restore(ctx, Caller{ID: "alice", Role: domain.RoleUser}, "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin restore, got %v", err)
	}
	view, err := svc.Restore(ctx, admin, "alice")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if view.Deleted || view.Name != "Alice" {
		t.Fatalf("unexpected restored view: %+v", view)
	}
}

func TestLegacyDeletedNameIsHiddenAndRestorable(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	createUser(t, store, "me", "Me")
	createUser(t, store, "alice", "[DELETED] 2024-01-01T00:00:00.000Z Alice")

	people := discovery.New(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)), discovery.Limits{})
	found, err := people.Discover(ctx, "me", 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected legacy deleted user excluded, got %+v", found)
	}
	if hits, err := people.Search(ctx, "me", "alice", 0); err != nil || len(hits) != 0 {
		t.Fatalf("expected legacy deleted user excluded from search, got %+v (%v)", hits, err)
	}

	view, err := svc.Restore(ctx, Caller{ID: "root", Role: domain.RoleAdmin}, "alice")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if view.Name != "Alice" {
		t.Fatalf("expected name Alice, got %q", view.Name)
	}
	found, err = people.Discover(ctx, "me", 0)
	if err != nil {
		t.Fatalf("Discover after restore: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Alice" {
		t.Fatalf("expected Alice to be discoverable again, got %+v", found)
	}
}

func TestUpsertProfile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	createUser(t, store, "alice", "Alice")

	profile, err := svc.UpsertProfile(ctx, "alice", ProfileInput{Bio: " hi ", Skills: []string{"Go", "go", " ", "SQL"}})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if profile.Bio != "hi" || len(profile.Skills) != 2 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	view, err := svc.Get(ctx, Caller{ID: "alice", Role: domain.RoleUser}, "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Profile == nil || view.Email == "" {
		t.Fatalf("expected profile and email for self view, got %+v", view)
	}

	if _, err := svc.UpsertProfile(ctx, "ghost", ProfileInput{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
