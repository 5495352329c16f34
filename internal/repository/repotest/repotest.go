// Package repotest holds the behavioural contract every repository backend must satisfy.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
)

// Store is the full set of repository interfaces a backend provides.
type Store interface {
	repository.UserRepository
	repository.ProfileRepository
	repository.EventRepository
	repository.TeamRepository
	repository.JoinRequestRepository
	repository.InvitationRepository
	repository.SwipeRepository
	repository.DiscoveryRepository
}

// Run executes the contract against stores built by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, f *fixture)
	}{
		{"CreateTeamWithOwner", testCreateTeamWithOwner},
		{"CreateTeamWithOwnerRollsBack", testCreateTeamWithOwnerRollsBack},
		{"DuplicateJoinRequest", testDuplicateJoinRequest},
		{"ApproveAtCapacityLeavesPending", testApproveAtCapacity},
		{"ApproveReactivatesFormerMember", testApproveReactivates},
		{"RacingApprovalsForLastSlot", testRacingApprovals},
		{"RacingApprovalsOfSameRequest", testRacingSameRequest},
		{"RejectOnlyFromPending", testRejectOnlyFromPending},
		{"AcceptExpiredInvitation", testAcceptExpiredInvitation},
		{"AcceptInvitation", testAcceptInvitation},
		{"RespondInvitation", testRespondInvitation},
		{"DeactivateTeamCascades", testDeactivateTeam},
		{"MutualLikeCreatesOneMatch", testMutualLike},
		{"RacingReciprocalSwipes", testRacingSwipes},
		{"DuplicateSwipe", testDuplicateSwipe},
		{"DeactivateMatchIsTerminal", testDeactivateMatch},
		{"ListCandidatesExclusions", testListCandidates},
		{"LegacyDeletedNames", testLegacyDeletedNames},
		{"SearchMatchesLiterally", testSearchMatchesLiterally},
		{"SoftDeleteAndRestore", testSoftDeleteRestore},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fixture{t: t, ctx: context.Background(), store: newStore(t), base: time.Now().UTC().Truncate(time.Millisecond)}
			tc.fn(t, f)
		})
	}
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store Store
	base  time.Time
	seq   int
}

func (f *fixture) tick() time.Time {
	f.seq++
	return f.base.Add(time.Duration(f.seq) * time.Second)
}

func (f *fixture) user(name string) domain.User {
	f.t.Helper()
	u := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: []byte("hash"),
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    f.tick(),
	}
	require.NoError(f.t, f.store.CreateUser(f.ctx, &u))
	return u
}

func (f *fixture) team(owner domain.User, maxMembers int) domain.Team {
	f.t.Helper()
	event := domain.Event{ID: uuid.NewString(), Name: "hackathon", OrganizerID: owner.ID, StartsAt: f.base.Add(24 * time.Hour), CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateEvent(f.ctx, &event))
	now := f.tick()
	team := domain.Team{
		ID:          uuid.NewString(),
		Name:        "team",
		Description: "builders",
		EventID:     event.ID,
		OwnerID:     owner.ID,
		MaxMembers:  maxMembers,
		Tags:        "go",
		LookingFor:  "designer",
		IsActive:    true,
		CreatedAt:   now,
	}
	member := domain.TeamMember{ID: uuid.NewString(), TeamID: team.ID, UserID: owner.ID, Role: domain.MemberRoleOwner, JoinedAt: now, IsActive: true}
	require.NoError(f.t, f.store.CreateTeamWithOwner(f.ctx, &team, &member))
	return team
}

func (f *fixture) request(team domain.Team, user domain.User) domain.JoinRequest {
	f.t.Helper()
	req := domain.JoinRequest{ID: uuid.NewString(), TeamID: team.ID, UserID: user.ID, Status: domain.JoinRequestPending, CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateJoinRequest(f.ctx, &req))
	return req
}

func (f *fixture) invitation(team domain.Team, invitee domain.User, expiresAt time.Time) domain.TeamInvitation {
	f.t.Helper()
	inv := domain.TeamInvitation{
		ID:        uuid.NewString(),
		TeamID:    team.ID,
		InviterID: team.OwnerID,
		InviteeID: invitee.ID,
		Status:    domain.InvitationPending,
		ExpiresAt: expiresAt,
		CreatedAt: f.tick(),
	}
	require.NoError(f.t, f.store.CreateInvitation(f.ctx, &inv))
	return inv
}

func (f *fixture) newMember() *domain.TeamMember {
	return &domain.TeamMember{ID: uuid.NewString(), Role: domain.MemberRoleMember, JoinedAt: f.tick()}
}

func (f *fixture) activeCount(teamID string) int {
	f.t.Helper()
	n, err := f.store.CountActiveMembers(f.ctx, teamID)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) swipe(from, to domain.User, d domain.Decision) domain.Swipe {
	return domain.Swipe{ID: uuid.NewString(), SwiperID: from.ID, SwipeeID: to.ID, Decision: d, CreatedAt: f.tick()}
}

func mutualLike(swipe domain.Swipe, reverse *domain.Swipe) *domain.Match {
	if swipe.Decision != domain.DecisionLike || reverse == nil || reverse.Decision != domain.DecisionLike {
		return nil
	}
	a, b := domain.OrderedPair(swipe.SwiperID, swipe.SwipeeID)
	return &domain.Match{ID: uuid.NewString(), UserAID: a, UserBID: b, IsActive: true, CreatedAt: swipe.CreatedAt}
}

func testCreateTeamWithOwner(t *testing.T, f *fixture) {
	owner := f.user("owner")
	team := f.team(owner, 3)

	member, err := f.store.GetMember(f.ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberRoleOwner, member.Role)
	assert.True(t, member.IsActive)
	assert.Equal(t, 1, f.activeCount(team.ID))

	teams, err := f.store.ListTeamsByUser(f.ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team.ID, teams[0].ID)

	again := team
	ownerAgain := domain.TeamMember{ID: uuid.NewString(), TeamID: team.ID, UserID: owner.ID, Role: domain.MemberRoleOwner, JoinedAt: f.tick(), IsActive: true}
	err = f.store.CreateTeamWithOwner(f.ctx, &again, &ownerAgain)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

// A rejected owner row must not leave an ownerless team behind.
func testCreateTeamWithOwnerRollsBack(t *testing.T, f *fixture) {
	owner := f.user("owner")
	existing := f.team(owner, 3)
	existingOwner, err := f.store.GetMember(f.ctx, existing.ID, owner.ID)
	require.NoError(t, err)

	newTeam := func() (domain.Team, domain.TeamMember) {
		now := f.tick()
		team := domain.Team{
			ID:          uuid.NewString(),
			Name:        "second",
			Description: "builders",
			EventID:     existing.EventID,
			OwnerID:     owner.ID,
			MaxMembers:  3,
			Tags:        "go",
			LookingFor:  "designer",
			IsActive:    true,
			CreatedAt:   now,
		}
		member := domain.TeamMember{ID: uuid.NewString(), TeamID: team.ID, UserID: owner.ID, Role: domain.MemberRoleOwner, JoinedAt: now, IsActive: true}
		return team, member
	}

	cases := []struct {
		name   string
		mutate func(team *domain.Team, member *domain.TeamMember)
		want   error
	}{
		{"owner row id taken", func(_ *domain.Team, m *domain.TeamMember) { m.ID = existingOwner.ID }, repository.ErrDuplicate},
		{"owner row user missing", func(_ *domain.Team, m *domain.TeamMember) { m.UserID = uuid.NewString() }, repository.ErrNotFound},
		{"event missing", func(team *domain.Team, _ *domain.TeamMember) { team.EventID = uuid.NewString() }, repository.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			team, member := newTeam()
			tc.mutate(&team, &member)
			err := f.store.CreateTeamWithOwner(f.ctx, &team, &member)
			require.ErrorIs(t, err, tc.want)

			_, err = f.store.GetTeamByID(f.ctx, team.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
			n, err := f.store.CountActiveMembers(f.ctx, team.ID)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}

	teams, err := f.store.ListTeamsByUser(f.ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, existing.ID, teams[0].ID)
}

func testDuplicateJoinRequest(t *testing.T, f *fixture) {
	owner, user := f.user("owner"), f.user("user")
	team := f.team(owner, 3)
	first := f.request(team, user)
	_, err := f.store.RejectJoinRequest(f.ctx, first.ID, f.tick())
	require.NoError(t, err)

	second := domain.JoinRequest{ID: uuid.NewString(), TeamID: team.ID, UserID: user.ID, Status: domain.JoinRequestPending, CreatedAt: f.tick()}
	assert.ErrorIs(t, f.store.CreateJoinRequest(f.ctx, &second), repository.ErrDuplicate)

	all, err := f.store.ListJoinRequestsByTeam(f.ctx, team.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testApproveAtCapacity(t *testing.T, f *fixture) {
	owner, first, third := f.user("owner"), f.user("first"), f.user("third")
	team := f.team(owner, 2)
	req := f.request(team, first)
	_, err := f.store.ApproveJoinRequest(f.ctx, req.ID, f.newMember())
	require.NoError(t, err)

	late := f.request(team, third)
	_, err = f.store.ApproveJoinRequest(f.ctx, late.ID, f.newMember())
	require.ErrorIs(t, err, repository.ErrTeamFull)

	stored, err := f.store.GetJoinRequest(f.ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestPending, stored.Status)
	assert.Equal(t, 2, f.activeCount(team.ID))
	_, err = f.store.GetMember(f.ctx, team.ID, third.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testApproveReactivates(t *testing.T, f *fixture) {
	owner, user := f.user("owner"), f.user("user")
	team := f.team(owner, 2)
	inv := f.invitation(team, user, f.base.Add(domain.DefaultInvitationTTL))
	_, err := f.store.AcceptInvitation(f.ctx, inv.ID, f.newMember(), f.tick())
	require.NoError(t, err)
	require.NoError(t, f.store.DeactivateMember(f.ctx, team.ID, user.ID, f.tick()))
	assert.Equal(t, 1, f.activeCount(team.ID))

	req := f.request(team, user)
	approved, err := f.store.ApproveJoinRequest(f.ctx, req.ID, f.newMember())
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestApproved, approved.Status)

	member, err := f.store.GetMember(f.ctx, team.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, member.IsActive)
	assert.Equal(t, 2, f.activeCount(team.ID))
}

func testRacingApprovals(t *testing.T, f *fixture) {
	owner, a, b := f.user("owner"), f.user("a"), f.user("b")
	team := f.team(owner, 2)
	reqs := []domain.JoinRequest{f.request(team, a), f.request(team, b)}
	members := []*domain.TeamMember{f.newMember(), f.newMember()}

	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.store.ApproveJoinRequest(f.ctx, reqs[i].ID, members[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrTeamFull):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.activeCount(team.ID))
}

func testRacingSameRequest(t *testing.T, f *fixture) {
	owner, user := f.user("owner"), f.user("user")
	team := f.team(owner, 5)
	req := f.request(team, user)

	const racers = 4
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		member := f.newMember()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.store.ApproveJoinRequest(f.ctx, req.ID, member)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrStateChanged), errors.Is(err, repository.ErrAlreadyMember):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.activeCount(team.ID))
	members, err := f.store.ListActiveMembers(f.ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func testRejectOnlyFromPending(t *testing.T, f *fixture) {
	owner, user := f.user("owner"), f.user("user")
	team := f.team(owner, 3)
	req := f.request(team, user)

	rejected, err := f.store.RejectJoinRequest(f.ctx, req.ID, f.tick())
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestRejected, rejected.Status)

	_, err = f.store.RejectJoinRequest(f.ctx, req.ID, f.tick())
	assert.ErrorIs(t, err, repository.ErrStateChanged)
	_, err = f.store.ApproveJoinRequest(f.ctx, req.ID, f.newMember())
	assert.ErrorIs(t, err, repository.ErrStateChanged)
	_, err = f.store.RejectJoinRequest(f.ctx, uuid.NewString(), f.tick())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testAcceptExpiredInvitation(t *testing.T, f *fixture) {
	owner, user := f.user("owner"), f.user("user")
	team := f.team(owner, 3)
	created := f.base.Add(-8 * 24 * time.Hour)
	inv := f.invitation(team, user, created.Add(domain.DefaultInvitationTTL))

	_, err := f.store.AcceptInvitation(f.ctx, inv.ID, f.newMember(), f.tick())
	require.ErrorIs(t, err, repository.ErrExpired)
	_, err = f.store.GetMember(f.ctx, team.ID, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	pending, err := f.store.HasPendingInvitation(f.ctx, team.ID, user.ID, f.tick())
	require.NoError(t, err)
	assert.False(t, pending)
}

func testAcceptInvitation(t *testing.T, f *fixture) {
	owner, user, other := f.user("owner"), f.user("user"), f.user("other")
	team := f.team(owner, 2)
	inv := f.invitation(team, user, f.base.Add(domain.DefaultInvitationTTL))
	full := f.invitation(team, other, f.base.Add(domain.DefaultInvitationTTL))

	pending, err := f.store.HasPendingInvitation(f.ctx, team.ID, user.ID, f.tick())
	require.NoError(t, err)
	assert.True(t, pending)

	now := f.tick()
	accepted, err := f.store.AcceptInvitation(f.ctx, inv.ID, f.newMember(), now)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.True(t, accepted.RespondedAt.Equal(now))

	_, err = f.store.AcceptInvitation(f.ctx, inv.ID, f.newMember(), f.tick())
	assert.ErrorIs(t, err, repository.ErrStateChanged)

	_, err = f.store.AcceptInvitation(f.ctx, full.ID, f.newMember(), f.tick())
	assert.ErrorIs(t, err, repository.ErrTeamFull)
	stored, err := f.store.GetInvitation(f.ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, stored.Status)
}

func testRespondInvitation(t *testing.T, f *fixture) {
	owner, user := f.user("owner"), f.user("user")
	team := f.team(owner, 3)
	inv := f.invitation(team, user, f.base.Add(domain.DefaultInvitationTTL))

	declined, err := f.store.RespondInvitation(f.ctx, inv.ID, domain.InvitationDeclined, f.tick())
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationDeclined, declined.Status)
	assert.NotNil(t, declined.RespondedAt)

	_, err = f.store.RespondInvitation(f.ctx, inv.ID, domain.InvitationCancelled, f.tick())
	assert.ErrorIs(t, err, repository.ErrStateChanged)

	stale := f.invitation(team, user, f.base.Add(-time.Minute))
	_, err = f.store.RespondInvitation(f.ctx, stale.ID, domain.InvitationCancelled, f.tick())
	assert.ErrorIs(t, err, repository.ErrExpired)

	listed, err := f.store.ListInvitationsByInvitee(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func testDeactivateTeam(t *testing.T, f *fixture) {
	owner, user, late := f.user("owner"), f.user("user"), f.user("late")
	team := f.team(owner, 5)
	req := f.request(team, user)
	_, err := f.store.ApproveJoinRequest(f.ctx, req.ID, f.newMember())
	require.NoError(t, err)
	pending := f.request(team, late)

	require.NoError(t, f.store.DeactivateTeam(f.ctx, team.ID, f.tick()))
	assert.Equal(t, 0, f.activeCount(team.ID))
	assert.ErrorIs(t, f.store.DeactivateTeam(f.ctx, team.ID, f.tick()), repository.ErrStateChanged)

	_, err = f.store.ApproveJoinRequest(f.ctx, pending.ID, f.newMember())
	assert.ErrorIs(t, err, repository.ErrInactive)

	stored, err := f.store.GetMember(f.ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func testMutualLike(t *testing.T, f *fixture) {
	a, b := f.user("a"), f.user("b")
	ab := f.swipe(a, b, domain.DecisionLike)
	m, err := f.store.RecordSwipe(f.ctx, &ab, mutualLike)
	require.NoError(t, err)
	assert.Nil(t, m)

	ba := f.swipe(b, a, domain.DecisionLike)
	m, err = f.store.RecordSwipe(f.ctx, &ba, mutualLike)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.Involves(a.ID) && m.Involves(b.ID))

	for _, u := range []domain.User{a, b} {
		matches, err := f.store.ListMatchesByUser(f.ctx, u.ID, true)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	}
}

func testRacingSwipes(t *testing.T, f *fixture) {
	for i := 0; i < 10; i++ {
		a, b := f.user(fmt.Sprintf("a%d", i)), f.user(fmt.Sprintf("b%d", i))
		swipes := []domain.Swipe{f.swipe(a, b, domain.DecisionLike), f.swipe(b, a, domain.DecisionLike)}
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j := range swipes {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, errs[j] = f.store.RecordSwipe(f.ctx, &swipes[j], mutualLike)
			}(j)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		matches, err := f.store.ListMatchesByUser(f.ctx, a.ID, false)
		require.NoError(t, err)
		require.Len(t, matches, 1, "pair %d", i)
	}
}

func testDuplicateSwipe(t *testing.T, f *fixture) {
	a, b := f.user("a"), f.user("b")
	first := f.swipe(a, b, domain.DecisionPass)
	_, err := f.store.RecordSwipe(f.ctx, &first, mutualLike)
	require.NoError(t, err)

	again := f.swipe(a, b, domain.DecisionLike)
	_, err = f.store.RecordSwipe(f.ctx, &again, mutualLike)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func testDeactivateMatch(t *testing.T, f *fixture) {
	a, b := f.user("a"), f.user("b")
	ab, ba := f.swipe(a, b, domain.DecisionLike), f.swipe(b, a, domain.DecisionLike)
	_, err := f.store.RecordSwipe(f.ctx, &ab, mutualLike)
	require.NoError(t, err)
	m, err := f.store.RecordSwipe(f.ctx, &ba, mutualLike)
	require.NoError(t, err)
	require.NotNil(t, m)

	off, err := f.store.DeactivateMatch(f.ctx, m.ID, f.tick())
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	_, err = f.store.DeactivateMatch(f.ctx, m.ID, f.tick())
	assert.ErrorIs(t, err, repository.ErrStateChanged)
	_, err = f.store.DeactivateMatch(f.ctx, uuid.NewString(), f.tick())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	active, err := f.store.ListMatchesByUser(f.ctx, a.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func testListCandidates(t *testing.T, f *fixture) {
	viewer := f.user("viewer")
	older := f.user("older")
	swiped := f.user("swiped")
	deleted := f.user("deleted")
	legacy := f.user("[DELETED] 2024-01-01T00:00:00.000Z Alice")
	inactive := domain.User{ID: uuid.NewString(), Name: "inactive", Email: uuid.NewString() + "@example.com", PasswordHash: []byte("x"), Role: domain.RoleUser, CreatedAt: f.tick()}
	require.NoError(t, f.store.CreateUser(f.ctx, &inactive))
	newest := f.user("newest")

	require.NoError(t, f.store.MarkUserDeleted(f.ctx, deleted.ID, f.tick()))
	s := f.swipe(viewer, swiped, domain.DecisionPass)
	_, err := f.store.RecordSwipe(f.ctx, &s, mutualLike)
	require.NoError(t, err)
	require.NoError(t, f.store.UpsertProfile(f.ctx, &domain.Profile{UserID: newest.ID, Bio: "gopher", AvatarURL: "https://img/newest.png", UpdatedAt: f.tick()}))

	got, err := f.store.ListCandidates(f.ctx, viewer.ID, 20)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.User.ID)
	}
	assert.Equal(t, []string{newest.ID, older.ID}, ids)
	require.NotNil(t, got[0].Profile)
	assert.Equal(t, "gopher", got[0].Profile.Bio)
	assert.Nil(t, got[1].Profile)

	limited, err := f.store.ListCandidates(f.ctx, viewer.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	found, err := f.store.SearchUsers(f.ctx, viewer.ID, "ALICE", 20)
	require.NoError(t, err)
	assert.Empty(t, found, "legacy deleted user must stay hidden: %v", legacy.ID)
}

func testLegacyDeletedNames(t *testing.T, f *fixture) {
	viewer := f.user("viewer")
	f.user("[DELETED] 2024-01-01T00:00:00.123+02:00 Ann")
	f.user("[DELETED] 2024-02-29T10:00:00Z")
	visible := []domain.User{
		f.user("[DELETED] 2024-02-30T00:00:00Z Bob"),
		f.user("[DELETED] 2024-01-01T00:00:00Zjunk Eve"),
		f.user("[DELETED] 2024-01-01T25:00:00Z Dan"),
		f.user("[DELETED] 2024-01-01 Carl"),
		f.user("[deleted] 2024-01-01T00:00:00Z Fay"),
	}

	got, err := f.store.ListCandidates(f.ctx, viewer.ID, 20)
	require.NoError(t, err)
	gotIDs := make([]string, 0, len(got))
	for _, c := range got {
		gotIDs = append(gotIDs, c.User.ID)
	}
	wantIDs := make([]string, 0, len(visible))
	for _, u := range visible {
		assert.True(t, u.Visible(), "domain rule disagrees for %q", u.Name)
		wantIDs = append(wantIDs, u.ID)
	}
	assert.ElementsMatch(t, wantIDs, gotIDs)
}

func testSearchMatchesLiterally(t *testing.T, f *fixture) {
	viewer := f.user("viewer")
	percent := f.user("100% Go")
	f.user("100 Go")
	underscore := f.user("snake_case")
	f.user("snakeXcase")
	backslash := f.user(`back\slash`)
	f.user("backslash")

	cases := []struct {
		query string
		want  []string
	}{
		{"%", []string{percent.ID}},
		{"e_c", []string{underscore.ID}},
		{`\`, []string{backslash.ID}},
		{"  SNAKE_  ", []string{underscore.ID}},
	}
	for _, tc := range cases {
		found, err := f.store.SearchUsers(f.ctx, viewer.ID, tc.query, 20)
		require.NoError(t, err)
		ids := make([]string, 0, len(found))
		for _, c := range found {
			ids = append(ids, c.User.ID)
		}
		assert.ElementsMatch(t, tc.want, ids, "query %q", tc.query)
	}
}

func testSoftDeleteRestore(t *testing.T, f *fixture) {
	viewer := f.user("viewer")
	alice := f.user("alice")
	require.NoError(t, f.store.MarkUserDeleted(f.ctx, alice.ID, f.tick()))

	got, err := f.store.ListCandidates(f.ctx, viewer.ID, 20)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, f.store.RestoreUser(f.ctx, alice.ID, "Alice"))
	restored, err := f.store.GetUserByID(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, "Alice", restored.Name)

	got, err = f.store.ListCandidates(f.ctx, viewer.ID, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].User.ID)

	assert.ErrorIs(t, f.store.MarkUserDeleted(f.ctx, uuid.NewString(), f.tick()), repository.ErrNotFound)
}
