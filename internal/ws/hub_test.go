package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/splax/teamup/internal/domain"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
	closed   bool
}

func (f *fakeSubscriber) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSubscriber) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestNotifyReachesOnlyRecipient(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer hub.Close()

	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}
	hub.Register("alice", alice)
	hub.Register("bob", bob)
	waitUntil(t, func() bool { return hub.Subscribers("alice") == 1 && hub.Subscribers("bob") == 1 })

	hub.Notify(context.Background(), domain.Notification{Kind: domain.NotifyInvitationCreated, UserID: "alice", TeamID: "t1", SubjectID: "inv-1"})
	waitUntil(t, func() bool { return len(alice.received()) == 1 })

	var got domain.Notification
	if err := json.Unmarshal(alice.received()[0], &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != domain.NotifyInvitationCreated || got.SubjectID != "inv-1" {
		t.Fatalf("unexpected notification: %+v", got)
	}
	if len(bob.received()) != 0 {
		t.Fatalf("bob should not receive alice's notification")
	}
}

func TestFailingSubscriberIsDropped(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer hub.Close()

	broken := &fakeSubscriber{fail: true}
	hub.Register("alice", broken)
	waitUntil(t, func() bool { return hub.Subscribers("alice") == 1 })

	hub.Broadcast(context.Background(), "alice", []byte(`{}`))
	waitUntil(t, func() bool { return hub.Subscribers("alice") == 0 })
	if !broken.isClosed() {
		t.Fatalf("expected failing subscriber to be closed")
	}
}

func TestCloseShutsSubscribers(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sub := &fakeSubscriber{}
	hub.Register("alice", sub)
	waitUntil(t, func() bool { return hub.Subscribers("alice") == 1 })

	hub.Close()
	waitUntil(t, sub.isClosed)

	late := &fakeSubscriber{}
	hub.Register("bob", late)
	if !late.isClosed() {
		t.Fatalf("register after close should close the client")
	}
	hub.Notify(context.Background(), domain.Notification{UserID: "alice"})
}
