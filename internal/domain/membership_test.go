package domain

import (
	"testing"
	"time"
)

func TestInvitationEffectiveStatus(t *testing.T) {
	created := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	inv := TeamInvitation{Status: InvitationPending, ExpiresAt: created.Add(DefaultInvitationTTL)}

	if got := inv.EffectiveStatus(created.Add(time.Hour)); got != InvitationPending {
		t.Fatalf("expected pending before expiry, got %s", got)
	}
	if !inv.Actionable(created.Add(time.Hour)) {
		t.Fatal("expected invitation to be actionable before expiry")
	}
	if got := inv.EffectiveStatus(inv.ExpiresAt); got != InvitationExpired {
		t.Fatalf("expected expired at deadline, got %s", got)
	}
	if inv.Actionable(inv.ExpiresAt.Add(time.Second)) {
		t.Fatal("expected expired invitation to be inert")
	}

	inv.Status = InvitationAccepted
	if got := inv.EffectiveStatus(inv.ExpiresAt.Add(time.Hour)); got != InvitationAccepted {
		t.Fatalf("expected terminal status to survive expiry, got %s", got)
	}
}

func TestOrderedPair(t *testing.T) {
	a, b := OrderedPair("b", "a")
	if a != "a" || b != "b" {
		t.Fatalf("unexpected order: %s %s", a, b)
	}
	a, b = OrderedPair("a", "b")
	if a != "a" || b != "b" {
		t.Fatalf("unexpected order: %s %s", a, b)
	}
}
