package team

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository/memory"
)

func newTestService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(store, store, store, log)
	return svc, store
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for _, id := range []string{"owner-1", "user-2", "user-3"} {
		if err := store.CreateUser(ctx, &domain.User{ID: id, Name: id, Email: id + "@example.com", Role: domain.RoleUser, IsActive: true, CreatedAt: now}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	if err := store.CreateEvent(ctx, &domain.Event{ID: "event-1", Name: "Hack Night", OrganizerID: "owner-1", CreatedAt: now}); err != nil {
		t.Fatalf("create event: %v", err)
	}
}

func validInput() CreateInput {
	return CreateInput{
		Name:        "  Rustaceans ",
		Description: "systems people",
		OwnerID:     "owner-1",
		EventID:     "event-1",
		MaxMembers:  4,
		Tags:        "rust,go",
		LookingFor:  "frontend",
	}
}

func TestCreateAddsOwnerAsActiveMember(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	view, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if view.Name != "Rustaceans" || !view.IsActive || view.MemberCount != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.CreatedAt == "" {
		t.Fatalf("expected created_at to be set")
	}

	members, err := svc.ListMembers(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].UserID != "owner-1" || members[0].Role != domain.MemberRoleOwner {
		t.Fatalf("expected exactly the owner as member, got %+v", members)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	cases := map[string]func(*CreateInput){
		"blank name":        func(in *CreateInput) { in.Name = "   " },
		"missing tags":      func(in *CreateInput) { in.Tags = "" },
		"missing lookingFor": func(in *CreateInput) { in.LookingFor = "" },
		"zero capacity":     func(in *CreateInput) { in.MaxMembers = 0 },
		"capacity too big":  func(in *CreateInput) { in.MaxMembers = domain.MaxTeamMembers + 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateRequiresOwnerAndEvent(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	in := validInput()
	in.OwnerID = "ghost"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}

	in = validInput()
	in.EventID = "missing-event"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown event, got %v", err)
	}

	if err := store.MarkUserDeleted(context.Background(), "owner-1", time.Now()); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted owner to be rejected, got %v", err)
	}
}

func TestOwnerOnlyOperations(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)
	ctx := context.Background()

	view, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.RemoveMember(ctx, "user-2", view.ID, "owner-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "owner-1", view.ID, "owner-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict removing owner, got %v", err)
	}
	if err := svc.Leave(ctx, "owner-1", view.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict when owner leaves, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "owner-1", view.ID, "user-3"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-member, got %v", err)
	}
	if err := svc.Deactivate(ctx, "user-2", view.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden deactivating as non-owner, got %v", err)
	}
}

func TestDeactivateCascadesAndIsTerminal(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)
	ctx := context.Background()

	view, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Deactivate(ctx, "owner-1", view.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, err := svc.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IsActive || got.MemberCount != 0 {
		t.Fatalf("expected inactive team with no members, got %+v", got)
	}
	if err := svc.Deactivate(ctx, "owner-1", view.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second deactivate, got %v", err)
	}

	teams, err := svc.ListByEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(teams) != 0 {
		t.Fatalf("expected inactive team to be hidden from event listing, got %d", len(teams))
	}
}

func TestGetUnknownTeam(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
