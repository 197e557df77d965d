package catalog

import "github.com/Bekzhanizb/QuitTrackerBackend/models"

type Kind string

const (
	KindSecondsFree      Kind = "seconds_free"
	KindMoneySaved       Kind = "money_saved"
	KindPodsAvoided      Kind = "pods_avoided"
	KindDailyLimitSet    Kind = "daily_limit_set"
	KindCleanToday       Kind = "clean_today"
	KindJournalCount     Kind = "journal_count"
	KindCravingsResisted Kind = "cravings_resisted"
	KindJournalTrigger   Kind = "journal_trigger"
)

// Achievement is a declarative unlock rule. Threshold is compared with >=;
// Trigger is only used by KindJournalTrigger.
type Achievement struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Kind        Kind    `json:"kind"`
	Threshold   float64 `json:"threshold"`
	Trigger     string  `json:"trigger,omitempty"`
}

// Facts is the derived snapshot achievements are evaluated against.
type Facts struct {
	SecondsFree float64
	MoneySaved  float64
	PodsAvoided float64
	DailyLimit  *int
	UsesToday   int
	Journal     []models.JournalEntry
}

var Achievements = []Achievement{
	{ID: "first-hour", Title: "First Hour", Description: "One hour without a use.", Kind: KindSecondsFree, Threshold: hour},
	{ID: "first-day", Title: "Day One", Description: "Twenty-four hours free.", Kind: KindSecondsFree, Threshold: day},
	{ID: "first-week", Title: "Week Warrior", Description: "Seven days free.", Kind: KindSecondsFree, Threshold: 7 * day},
	{ID: "first-month", Title: "Monthly Master", Description: "Thirty days free.", Kind: KindSecondsFree, Threshold: 30 * day},
	{ID: "saved-10", Title: "Pocket Change", Description: "Saved your first 10.", Kind: KindMoneySaved, Threshold: 10},
	{ID: "saved-100", Title: "Piggy Bank", Description: "Saved 100.", Kind: KindMoneySaved, Threshold: 100},
	{ID: "saved-500", Title: "Treat Yourself", Description: "Saved 500.", Kind: KindMoneySaved, Threshold: 500},
	{ID: "pods-5", Title: "Five Down", Description: "Avoided five units.", Kind: KindPodsAvoided, Threshold: 5},
	{ID: "pods-50", Title: "Stockpile", Description: "Avoided fifty units.", Kind: KindPodsAvoided, Threshold: 50},
	{ID: "limit-setter", Title: "Boundaries", Description: "Set a daily limit.", Kind: KindDailyLimitSet},
	{ID: "clean-today", Title: "Clean Slate", Description: "No uses today.", Kind: KindCleanToday},
	{ID: "first-entry", Title: "Dear Diary", Description: "Logged your first journal entry.", Kind: KindJournalCount, Threshold: 1},
	{ID: "resisted-10", Title: "Iron Will", Description: "Resisted ten cravings.", Kind: KindCravingsResisted, Threshold: 10},
	{ID: "breathe", Title: "Just Breathe", Description: "Used a breathing exercise to ride out a craving.", Kind: KindJournalTrigger, Trigger: models.TriggerBreathingExercise},
}

func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Evaluate reports whether facts satisfy a. Unknown kinds never unlock.
func Evaluate(a Achievement, f Facts) bool {
	switch a.Kind {
	case KindSecondsFree:
		return f.SecondsFree >= a.Threshold
	case KindMoneySaved:
		return f.MoneySaved >= a.Threshold
	case KindPodsAvoided:
		return f.PodsAvoided >= a.Threshold
	case KindDailyLimitSet:
		return f.DailyLimit != nil && *f.DailyLimit > 0
	case KindCleanToday:
		return f.UsesToday == 0
	case KindJournalCount:
		return float64(len(f.Journal)) >= a.Threshold
	case KindCravingsResisted:
		resisted := 0
		for _, e := range f.Journal {
			if !e.IsSlip() {
				resisted++
			}
		}
		return float64(resisted) >= a.Threshold
	case KindJournalTrigger:
		for _, e := range f.Journal {
			if e.Trigger == a.Trigger {
				return true
			}
		}
		return false
	default:
		return false
	}
}
