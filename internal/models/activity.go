package models

// ActivityType is the closed set of paired activities. Each type carries
// its own scoring rule, dispatched in one place by the session service.
type ActivityType string

const (
	ActivityQuiz         ActivityType = "quiz"
	ActivityWordGame     ActivityType = "word_game"
	ActivityDailyCheckin ActivityType = "daily_checkin"
	// ActivityYouOrMe asks both partners "who of you two ...?"; answers
	// are the chosen partner per prompt, scored positionally like a quiz.
	ActivityYouOrMe ActivityType = "you_or_me"
)

// Activities lists every known activity type.
var Activities = []ActivityType{ActivityQuiz, ActivityWordGame, ActivityDailyCheckin, ActivityYouOrMe}

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityQuiz, ActivityWordGame, ActivityDailyCheckin, ActivityYouOrMe:
		return true
	}
	return false
}
