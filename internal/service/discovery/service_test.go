package discovery

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

type stubCandidates struct {
	out       []domain.Candidate
	lastLimit int
}

func (s *stubCandidates) ListCandidates(ctx context.Context, userID string, limit int) ([]domain.Candidate, error) {
	s.lastLimit = limit
	return s.out, nil
}

func (s *stubCandidates) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]domain.Candidate, error) {
	s.lastLimit = limit
	return s.out, nil
}

type stubUsers struct{}

func (stubUsers) CreateUser(ctx context.Context, user *domain.User) error { return nil }
func (stubUsers) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, errors.New("not used")
}
func (stubUsers) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, IsActive: true}, nil
}
func (stubUsers) MarkUserDeleted(ctx context.Context, id string, at time.Time) error { return nil }
func (stubUsers) RestoreUser(ctx context.Context, id, name string) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addUser(t *testing.T, store *memory.Store, id, name string, createdAt time.Time) {
	t.Helper()
	err := store.CreateUser(context.Background(), &domain.User{
		ID: id, Name: name, Email: id + "@example.com", Role: domain.RoleUser, IsActive: true, CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func TestDiscoverExcludesSelfSwipedInactiveAndDeleted(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	addUser(t, store, "me", "Me", base)
	addUser(t, store, "swiped", "Swiped", base.Add(time.Hour))
	addUser(t, store, "fresh", "Fresh", base.Add(2*time.Hour))
	addUser(t, store, "deleted", "Gone", base.Add(3*time.Hour))
	addUser(t, store, "legacy", "[DELETED] 2024-01-01T00:00:00.000Z Alice", base.Add(4*time.Hour))
	if err := store.CreateUser(ctx, &domain.User{ID: "inactive", Name: "Off", Email: "off@example.com", Role: domain.RoleUser, CreatedAt: base.Add(5 * time.Hour)}); err != nil {
		t.Fatalf("create inactive: %v", err)
	}
	if err := store.MarkUserDeleted(ctx, "deleted", base); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if _, err := store.RecordSwipe(ctx, &domain.Swipe{ID: "s1", SwiperID: "me", SwipeeID: "swiped", Decision: domain.DecisionPass, CreatedAt: base}, nil); err != nil {
		t.Fatalf("record swipe: %v", err)
	}
	if err := store.UpsertProfile(ctx, &domain.Profile{UserID: "fresh", Bio: "likes go", Skills: []string{"go"}}); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}

	svc := New(store, store, discardLogger(), Limits{})
	people, err := svc.Discover(ctx, "me", 0)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(people) != 1 || people[0].ID != "fresh" {
		t.Fatalf("expected only fresh, got %+v", people)
	}
	if people[0].Bio != "likes go" || len(people[0].Skills) != 1 {
		t.Fatalf("expected profile to be merged, got %+v", people[0])
	}
}

func TestDiscoverOrdersNewestFirstWithIDTieBreak(t *testing.T) {
	store := memory.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	addUser(t, store, "me", "Me", base)
	addUser(t, store, "b", "B", base.Add(time.Hour))
	addUser(t, store, "a", "A", base.Add(time.Hour))
	addUser(t, store, "c", "C", base.Add(2*time.Hour))

	svc := New(store, store, discardLogger(), Limits{})
	people, err := svc.Discover(context.Background(), "me", 10)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var got []string
	for _, p := range people {
		got = append(got, p.ID)
	}
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDiscoverEmptyIsNotAnError(t *testing.T) {
	store := memory.New()
	addUser(t, store, "me", "Me", time.Now())
	svc := New(store, store, discardLogger(), Limits{})
	people, err := svc.Discover(context.Background(), "me", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if people == nil || len(people) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", people)
	}
}

func TestDiscoverUnknownUser(t *testing.T) {
	svc := New(memory.New(), memory.New(), discardLogger(), Limits{})
	if _, err := svc.Discover(context.Background(), "ghost", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHiddenRequesterCannotBrowse(t *testing.T) {
	store := memory.New()
	now := time.Now()
	addUser(t, store, "other", "Other", now)
	addUser(t, store, "gone", "Gone", now)
	if err := store.MarkUserDeleted(context.Background(), "gone", now); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if err := store.CreateUser(context.Background(), &domain.User{
		ID: "idle", Name: "Idle", Email: "idle@example.com", Role: domain.RoleUser, CreatedAt: now,
	}); err != nil {
		t.Fatalf("create inactive user: %v", err)
	}
	addUser(t, store, "legacy", "[DELETED] 2024-01-01T00:00:00Z Lee", now)

	svc := New(store, store, discardLogger(), Limits{})
	for _, id := range []string{"gone", "idle", "legacy"} {
		if _, err := svc.Discover(context.Background(), id, 5); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("discover as %s: expected ErrNotFound, got %v", id, err)
		}
		if _, err := svc.Search(context.Background(), id, "other", 5); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("search as %s: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestLimitClamping(t *testing.T) {
	cases := []struct {
		name  string
		input int
		want  int
	}{
		{name: "default", input: 0, want: 20},
		{name: "negative", input: -3, want: 20},
		{name: "within", input: 7, want: 7},
		{name: "capped", input: 500, want: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubCandidates{}
			svc := New(repo, stubUsers{}, discardLogger(), Limits{})
			if _, err := svc.Discover(context.Background(), "me", tc.input); err != nil {
				t.Fatalf("Discover: %v", err)
			}
			if repo.lastLimit != tc.want {
				t.Fatalf("expected limit %d, got %d", tc.want, repo.lastLimit)
			}
		})
	}
}

func TestDiscoverDropsUnresolvableCandidates(t *testing.T) {
	repo := &stubCandidates{out: []domain.Candidate{
		{User: domain.User{ID: "", Name: "no id", IsActive: true}},
		{User: domain.User{ID: "ok", Name: "Ok", IsActive: true}},
		{User: domain.User{ID: "me", Name: "Me", IsActive: true}},
	}}
	svc := New(repo, stubUsers{}, discardLogger(), Limits{})
	people, err := svc.Discover(context.Background(), "me", 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(people) != 1 || people[0].ID != "ok" {
		t.Fatalf("expected only ok, got %+v", people)
	}
}

func TestSearch(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Now().UTC()
	addUser(t, store, "me", "Me", base)
	addUser(t, store, "alice", "Alice Liddell", base)
	addUser(t, store, "bob", "Bob", base)
	if _, err := store.RecordSwipe(ctx, &domain.Swipe{ID: "s1", SwiperID: "me", SwipeeID: "alice", Decision: domain.DecisionLike, CreatedAt: base}, nil); err != nil {
		t.Fatalf("record swipe: %v", err)
	}

	svc := New(store, store, discardLogger(), Limits{})
	if _, err := svc.Search(ctx, "me", "  ", 10); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank query, got %v", err)
	}
	people, err := svc.Search(ctx, "me", "alice", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(people) != 1 || people[0].ID != "alice" {
		t.Fatalf("expected alice, got %+v", people)
	}
}
