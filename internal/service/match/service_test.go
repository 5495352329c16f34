package match

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository/memory"
)

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (c *countingNotifier) Notify(context.Context, domain.Notification) {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func newService(t *testing.T, ids ...string) (Service, *memory.Store, *countingNotifier) {
	t.Helper()
	store := memory.New()
	for _, id := range ids {
		require.NoError(t, store.CreateUser(context.Background(), &domain.User{
			ID: id, Name: id, Email: id + "@example.com", Role: domain.RoleUser, IsActive: true, CreatedAt: time.Now().UTC(),
		}))
	}
	notifier := &countingNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, store, notifier, log), store, notifier
}

func TestResolve(t *testing.T) {
	like := func(from, to string) domain.Swipe {
		return domain.Swipe{SwiperID: from, SwipeeID: to, Decision: domain.DecisionLike}
	}
	pass := domain.Swipe{SwiperID: "b", SwipeeID: "a", Decision: domain.DecisionPass}
	back := like("b", "a")
	stray := like("c", "a")

	assert.Nil(t, Resolve(like("a", "b"), nil))
	assert.Nil(t, Resolve(like("a", "b"), &pass))
	assert.Nil(t, Resolve(like("a", "b"), &stray))
	assert.Nil(t, Resolve(domain.Swipe{SwiperID: "a", SwipeeID: "b", Decision: domain.DecisionPass}, &back))

	m := Resolve(like("z", "a"), &domain.Swipe{SwiperID: "a", SwipeeID: "z", Decision: domain.DecisionLike})
	require.NotNil(t, m)
	assert.Equal(t, "a", m.UserAID)
	assert.Equal(t, "z", m.UserBID)
	assert.True(t, m.IsActive)
}

func TestMutualLikeCreatesOneMatchInEitherOrder(t *testing.T) {
	for _, order := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		svc, store, notifier := newService(t, "alice", "bob")
		ctx := context.Background()

		first, err := svc.Swipe(ctx, order[0], order[1], domain.DecisionLike)
		require.NoError(t, err)
		assert.False(t, first.Matched)

		second, err := svc.Swipe(ctx, order[1], order[0], domain.DecisionLike)
		require.NoError(t, err)
		require.True(t, second.Matched)
		assert.Equal(t, order[0], second.Match.PartnerID)

		matches, err := store.ListMatchesByUser(ctx, "alice", false)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "alice", matches[0].UserAID)
		assert.Equal(t, 2, notifier.count)
	}
}

func TestPassNeverMatches(t *testing.T) {
	svc, _, _ := newService(t, "alice", "bob")
	ctx := context.Background()

	_, err := svc.Swipe(ctx, "alice", "bob", domain.DecisionPass)
	require.NoError(t, err)
	res, err := svc.Swipe(ctx, "bob", "alice", domain.DecisionLike)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Match)
}

func TestSwipeValidation(t *testing.T) {
	svc, store, _ := newService(t, "alice", "bob")
	ctx := context.Background()

	_, err := svc.Swipe(ctx, "alice", "alice", domain.DecisionLike)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Swipe(ctx, "alice", "bob", domain.Decision("maybe"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Swipe(ctx, "alice", "ghost", domain.DecisionLike)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.MarkUserDeleted(ctx, "bob", time.Now()))
	_, err = svc.Swipe(ctx, "alice", "bob", domain.DecisionLike)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDuplicateSwipeConflicts(t *testing.T) {
	svc, _, _ := newService(t, "alice", "bob")
	ctx := context.Background()

	_, err := svc.Swipe(ctx, "alice", "bob", domain.DecisionPass)
	require.NoError(t, err)
	_, err = svc.Swipe(ctx, "alice", "bob", domain.DecisionLike)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConcurrentReciprocalSwipes(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc, store, _ := newService(t, "alice", "bob")
		ctx := context.Background()

		var wg sync.WaitGroup
		results := make([]*SwipeResult, 2)
		for j, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
			wg.Add(1)
			go func(j int, from, to string) {
				defer wg.Done()
				res, err := svc.Swipe(ctx, from, to, domain.DecisionLike)
				assert.NoError(t, err)
				results[j] = res
			}(j, pair[0], pair[1])
		}
		wg.Wait()

		matched := 0
		for _, r := range results {
			if r != nil && r.Matched {
				matched++
			}
		}
		assert.Equal(t, 1, matched)
		matches, err := store.ListMatchesByUser(ctx, "bob", false)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	}
}

func TestUnmatchIsTerminal(t *testing.T) {
	svc, _, _ := newService(t, "alice", "bob", "carol")
	ctx := context.Background()

	_, err := svc.Swipe(ctx, "alice", "bob", domain.DecisionLike)
	require.NoError(t, err)
	res, err := svc.Swipe(ctx, "bob", "alice", domain.DecisionLike)
	require.NoError(t, err)
	matchID := res.Match.ID

	_, err = svc.Unmatch(ctx, "carol", matchID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	view, err := svc.Unmatch(ctx, "alice", matchID)
	require.NoError(t, err)
	assert.False(t, view.IsActive)
	assert.Equal(t, "bob", view.PartnerID)

	_, err = svc.Unmatch(ctx, "bob", matchID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	active, err := svc.ListMatches(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Unmatch(ctx, "alice", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
