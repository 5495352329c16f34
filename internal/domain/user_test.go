package domain

import "testing"

func TestLegacyDeletedName(t *testing.T) {
	cases := []struct {
		name     string
		deleted  bool
		original string
	}{
		{name: "[DELETED] 2024-01-01T00:00:00.000Z Alice", deleted: true, original: "Alice"},
		{name: "[DELETED] 2024-01-01T00:00:00Z Mary Ann", deleted: true, original: "Mary Ann"},
		{name: "[DELETED] yesterday Alice", deleted: false, original: "[DELETED] yesterday Alice"},
		{name: "[DELETED]Alice", deleted: false, original: "[DELETED]Alice"},
		{name: "Alice", deleted: false, original: "Alice"},
	}
	for _, tc := range cases {
		if got := IsLegacyDeletedName(tc.name); got != tc.deleted {
			t.Fatalf("IsLegacyDeletedName(%q) = %v, want %v", tc.name, got, tc.deleted)
		}
		if got := StripDeletedMarker(tc.name); got != tc.original {
			t.Fatalf("StripDeletedMarker(%q) = %q, want %q", tc.name, got, tc.original)
		}
	}
}

func TestUserVisible(t *testing.T) {
	u := User{Name: "Alice", IsActive: true}
	if !u.Visible() {
		t.Fatal("expected active user to be visible")
	}
	u.Deleted = true
	if u.Visible() {
		t.Fatal("expected deleted user to be hidden")
	}
	u = User{Name: "[DELETED] 2024-01-01T00:00:00.000Z Alice", IsActive: true}
	if u.Visible() {
		t.Fatal("expected legacy deleted user to be hidden")
	}
	u = User{Name: "Alice"}
	if u.Visible() {
		t.Fatal("expected inactive user to be hidden")
	}
}
