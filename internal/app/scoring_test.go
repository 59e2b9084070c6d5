package app_test

import (
	"testing"

	"phiz-quiz-service/internal/app"
)

func TestFinalizeScoreBonuses(t *testing.T) {
	for total := 1; total <= 12; total++ {
		for correct := 0; correct <= total; correct++ {
			raw := correct * 20
			got := app.FinalizeScore(raw, correct, total)
			if got.CompletionBonus != app.CompletionBonus {
				t.Fatalf("total=%d correct=%d: completion bonus %d", total, correct, got.CompletionBonus)
			}
			wantPerfect := 0
			if correct == total {
				wantPerfect = app.PerfectBonus
			}
			if got.PerfectBonus != wantPerfect {
				t.Fatalf("total=%d correct=%d: perfect bonus %d, want %d", total, correct, got.PerfectBonus, wantPerfect)
			}
			if got.Total != raw+got.CompletionBonus+got.PerfectBonus {
				t.Fatalf("total mismatch: %+v", got)
			}
			if got.Total < 0 || got.Total > raw+app.CompletionBonus+app.PerfectBonus {
				t.Fatalf("total out of bounds: %+v", got)
			}
		}
	}
}

func TestFinalizeScoreExamples(t *testing.T) {
	if got := app.FinalizeScore(100, 5, 5).Total; got != 160 {
		t.Fatalf("expected 160, got %d", got)
	}
	if got := app.FinalizeScore(40, 2, 5).Total; got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := app.FinalizeScore(0, 0, 0); got.Total != 0 || got.PerfectBonus != 0 {
		t.Fatalf("expected no bonus without questions, got %+v", got)
	}
}

func TestMaxScoreBoundsEveryOutcome(t *testing.T) {
	pool := physicsPool(5)
	pool[2].Points = 0 // falls back to the default point value
	max := app.MaxScore(pool)
	if max != 5*20+app.CompletionBonus+app.PerfectBonus {
		t.Fatalf("unexpected max %d", max)
	}
}
