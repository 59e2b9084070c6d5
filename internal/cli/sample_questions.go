package cli

import "phiz-quiz-service/internal/domain"

// sampleQuestions seeds the pool when no database is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "newton-first-law",
			Prompt: "What is Newton's First Law of Motion?",
			Options: []string{
				"F = ma",
				"An object at rest stays at rest unless acted upon by a force",
				"For every action there is an equal and opposite reaction",
				"Energy cannot be created or destroyed",
			},
			CorrectIndex: 1,
			Points:       domain.DefaultPoints,
			Difficulty:   domain.DifficultyEasy,
		},
		{
			ID:     "newton-second-law-double-force",
			Prompt: "According to Newton's Second Law, if you double the force on an object, what happens to its acceleration?",
			Options: []string{
				"It stays the same",
				"It doubles",
				"It halves",
				"It quadruples",
			},
			CorrectIndex: 1,
			Points:       domain.DefaultPoints,
			Difficulty:   domain.DifficultyMedium,
		},
		{
			ID:     "newton-second-law-formula",
			Prompt: "What is the formula for Newton's Second Law?",
			Options: []string{
				"E = mc²",
				"F = ma",
				"P = mv",
				"W = Fd",
			},
			CorrectIndex: 1,
			Points:       domain.DefaultPoints,
			Difficulty:   domain.DifficultyEasy,
		},
		{
			ID:     "newton-third-law-example",
			Prompt: "Which is an example of Newton's Third Law?",
			Options: []string{
				"A ball rolling down a hill",
				"A car accelerating forward",
				"A rocket launching by expelling gas downward",
				"A book sitting on a table",
			},
			CorrectIndex: 2,
			Points:       domain.DefaultPoints,
			Difficulty:   domain.DifficultyMedium,
		},
		{
			ID:     "acceleration-from-force",
			Prompt: "If the mass of an object is 10 kg and the net force is 50 N, what is its acceleration?",
			Options: []string{
				"5 m/s²",
				"500 m/s²",
				"0.2 m/s²",
				"60 m/s²",
			},
			CorrectIndex: 0,
			Points:       domain.DefaultPoints,
			Difficulty:   domain.DifficultyHard,
		},
	}
}
