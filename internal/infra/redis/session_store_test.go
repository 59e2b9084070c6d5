package redis

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/clock"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("s1", "u1", clock.NewFake(time.Now()), rand.New(rand.NewSource(1)))
	store.Add(session)
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	owner, ok, err := store.Owner(context.Background(), "s1")
	if err != nil || !ok || owner != "u1" {
		t.Fatalf("unexpected owner %q ok=%v err=%v", owner, ok, err)
	}
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Fatalf("expected local session")
	}

	store.Remove("s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok, _ := store.Owner(context.Background(), "s1"); ok {
		t.Fatalf("expected no owner after removal")
	}
}
