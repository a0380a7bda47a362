package auth

import (
	"testing"
	"time"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemoryStore()

	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected miss for unknown id")
	}

	store.Put("s1", Session{Authenticated: true, Subject: "admin"})
	session, ok := store.Get("s1")
	if !ok || !session.Authenticated || session.Subject != "admin" {
		t.Fatalf("unexpected session: %+v ok=%v", session, ok)
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryStore_ExpiredSessionDropped(t *testing.T) {
	store := NewMemoryStore()
	store.Put("s1", Session{
		Authenticated: true,
		ExpiresAt:     time.Now().Add(-time.Minute),
	})
	if _, ok := store.Get("s1"); ok {
		t.Fatal("expected expired session to miss")
	}
	// second read should still miss, the entry is gone
	if _, ok := store.Get("s1"); ok {
		t.Fatal("expected expired session to stay gone")
	}
}

func TestMemoryStore_ZeroExpiryNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	store.Put("s1", Session{Authenticated: true})
	if _, ok := store.Get("s1"); !ok {
		t.Fatal("expected session without expiry to survive")
	}
}
