package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"phiz-quiz-service/internal/domain"
)

func TestProgressStoreCommitIsAtomic(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewProgressStore(client)
	ctx := context.Background()

	p, err := store.CommitResult(ctx, domain.QuizResult{ID: "r1", UserID: "u1", Score: 160, TotalQuestions: 5, CorrectAnswers: 5})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if p.TotalScore != 160 || p.TestsCompleted != 1 {
		t.Fatalf("unexpected progress %+v", p)
	}
	if got := mr.HGet("user:u1", "totalScore"); got != "160" {
		t.Fatalf("unexpected stored total %q", got)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.CommitResult(ctx, domain.QuizResult{UserID: "u1", Score: 10, TotalQuestions: 5})
		}()
	}
	wg.Wait()

	p, err = store.GetProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	results, _ := store.ListResults(ctx, "u1")
	if p.TotalScore != 360 || p.TestsCompleted != 21 || len(results) != 21 {
		t.Fatalf("lost updates: %+v with %d results", p, len(results))
	}
	if results[0].ID != "r1" || results[0].CorrectAnswers != 5 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
}

func TestProgressStoreTouchActivity(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewProgressStore(client)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)

	if err := store.TouchActivity(ctx, "u1", at); err != nil {
		t.Fatalf("touch: %v", err)
	}
	p, err := store.GetProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if !p.LastActivityAt.Equal(at) || p.TestsCompleted != 0 {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestProgressStoreUnknownUser(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewProgressStore(client)
	p, err := store.GetProgress(context.Background(), "ghost")
	if err != nil || p.TotalScore != 0 || !p.LastActivityAt.IsZero() {
		t.Fatalf("unexpected progress %+v err=%v", p, err)
	}
}
