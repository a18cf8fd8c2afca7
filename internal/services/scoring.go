package services

import (
	"fmt"

	"couple-sync-backend/internal/models"
)

// ScoreFunc computes the shared outcome of a completed session from both
// answer sets. Implementations must be pure and symmetric: the result
// does not depend on which partner answered first.
type ScoreFunc func(a, b []string) models.Outcome

// scoreActivity dispatches over the closed activity set. Adding an
// activity type means adding a case here and nowhere else.
func scoreActivity(activity models.ActivityType, a, b []string) (models.Outcome, error) {
	switch activity {
	case models.ActivityQuiz:
		return scorePositional(a, b), nil
	case models.ActivityDailyCheckin:
		return scorePositional(a, b), nil
	case models.ActivityYouOrMe:
		return scorePositional(a, b), nil
	case models.ActivityWordGame:
		return scoreSharedWords(a, b), nil
	}
	return models.Outcome{}, fmt.Errorf("score %q: %w", activity, models.ErrInvalidActivity)
}

// scorePositional counts index-by-index agreement. Used by quizzes and
// daily check-ins, where both partners answer the same ordered prompts.
func scorePositional(a, b []string) models.Outcome {
	total := len(a)
	if len(b) > total {
		total = len(b)
	}
	if total == 0 {
		return models.Outcome{Score: 0, Matches: 0, Total: 0}
	}

	matches := 0
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}

	return models.Outcome{
		Score:   matches * 100 / total,
		Matches: matches,
		Total:   total,
	}
}

// scoreSharedWords counts distinct words both partners wrote, in any
// order or position.
func scoreSharedWords(a, b []string) models.Outcome {
	total := len(a)
	if len(b) > total {
		total = len(b)
	}
	if total == 0 {
		return models.Outcome{Score: 0, Matches: 0, Total: 0}
	}

	seen := make(map[string]bool, len(a))
	for _, w := range a {
		seen[w] = true
	}

	matches := 0
	counted := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] && !counted[w] {
			matches++
			counted[w] = true
		}
	}

	return models.Outcome{
		Score:   matches * 100 / total,
		Matches: matches,
		Total:   total,
	}
}
