package app

import "phiz-quiz-service/internal/domain"

const (
	// CompletionBonus is added once to every finished session.
	CompletionBonus = 10
	// PerfectBonus is added when every question was answered correctly.
	PerfectBonus = 50
)

// Score is the breakdown of a finished session's points.
type Score struct {
	Raw             int `json:"raw"`
	CompletionBonus int `json:"completionBonus"`
	PerfectBonus    int `json:"perfectBonus"`
	Total           int `json:"total"`
}

// FinalizeScore adds the completion and perfect bonuses to the raw points.
func FinalizeScore(raw, correct, total int) Score {
	s := Score{Raw: raw}
	if total > 0 {
		s.CompletionBonus = CompletionBonus
		if correct == total {
			s.PerfectBonus = PerfectBonus
		}
	}
	s.Total = s.Raw + s.CompletionBonus + s.PerfectBonus
	return s
}

// MaxScore is the highest total a session over questions can reach.
func MaxScore(questions []domain.Question) int {
	sum := 0
	for _, q := range questions {
		sum += q.PointValue()
	}
	return FinalizeScore(sum, len(questions), len(questions)).Total
}
