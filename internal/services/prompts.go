package services

import (
	"hash/fnv"

	"couple-sync-backend/internal/models"
)

// PromptSource supplies the prompts for a day's session. The engine
// treats prompt content as opaque; it only requires that both partners'
// clients see the same prompts, which deterministic selection guarantees.
type PromptSource interface {
	PromptsFor(activity models.ActivityType, coupleID, dayKey string) []string
}

// builtinPrompts is a small stand-in bank. Real content ships separately;
// the selection mechanics are what matter here.
var builtinPrompts = map[models.ActivityType][][]string{
	models.ActivityQuiz: {
		{"Window or aisle seat?", "Coffee or tea?", "Mountains or beach?"},
		{"Early bird or night owl?", "Sweet or savory?", "Cats or dogs?"},
		{"Plan ahead or improvise?", "Call or text?", "Movie in or night out?"},
	},
	models.ActivityWordGame: {
		{"Name three words that describe your weekend"},
		{"Name three words that describe your partner"},
		{"Name three places you want to visit together"},
	},
	models.ActivityDailyCheckin: {
		{"How was your day?", "How connected do you feel today?"},
		{"What's your energy level?", "How stressed are you today?"},
	},
	models.ActivityYouOrMe: {
		{"Who is more likely to forget an anniversary?", "Who falls asleep first?", "Who is the better cook?"},
		{"Who takes longer to get ready?", "Who apologizes first?", "Who is more stubborn?"},
	},
}

// DefaultPromptSource picks a prompt set deterministically from the
// built-in bank, keyed by couple and day so both partners converge.
type DefaultPromptSource struct{}

// PromptsFor returns the prompt set for the given couple and day.
func (DefaultPromptSource) PromptsFor(activity models.ActivityType, coupleID, dayKey string) []string {
	sets := builtinPrompts[activity]
	if len(sets) == 0 {
		return nil
	}

	h := fnv.New32a()
	h.Write([]byte(coupleID))
	h.Write([]byte(dayKey))
	return sets[h.Sum32()%uint32(len(sets))]
}
