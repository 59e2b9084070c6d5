package memory

import (
	"math/rand"
	"testing"
	"time"

	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/clock"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	clk := clock.NewFake(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))

	session := app.NewSession("s1", "u1", clk, rand.New(rand.NewSource(1)))
	store.Add(session)
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Remove("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
