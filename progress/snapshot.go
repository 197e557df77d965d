package progress

import (
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/catalog"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
)

type Snapshot struct {
	ComputedAt              time.Time       `json:"computed_at"`
	Currency                string          `json:"currency"`
	SecondsFree             float64         `json:"seconds_free"`
	CostPerUse              float64         `json:"cost_per_use"`
	NicotinePerUse          float64         `json:"nicotine_per_use_mg"`
	UsesToday               int             `json:"uses_today"`
	CostWastedToday         float64         `json:"cost_wasted_today"`
	NicotineToday           float64         `json:"nicotine_today_mg"`
	BaselineDailyCost       float64         `json:"baseline_daily_cost"`
	ProjectedDailySavings   float64         `json:"projected_daily_savings"`
	MoneySaved              float64         `json:"money_saved"`
	PodsAvoided             float64         `json:"pods_avoided"`
	SavingsGoalProgress     float64         `json:"savings_goal_progress"`
	SecondsSinceLastSlip    float64         `json:"seconds_since_last_slip"`
	SecondsSinceLastCraving float64         `json:"seconds_since_last_craving"`
	CleanDayStreak          int             `json:"clean_day_streak"`
	PledgeStreak            int             `json:"pledge_streak"`
	Week                    []Day           `json:"week"`
	History                 []Day           `json:"history,omitempty"`
	Rank                    RankStatus      `json:"rank"`
	Milestones              MilestoneStatus `json:"milestones"`
	Achievements            []string        `json:"achievements"`
}

// Unlocks is the part of a snapshot the celebration queue diffs against.
type Unlocks struct {
	RankID       string
	Milestones   []string
	Achievements []string
}

func (s Snapshot) Unlocks() Unlocks {
	return Unlocks{
		RankID:       s.Rank.Current.ID,
		Milestones:   s.Milestones.Unlocked,
		Achievements: s.Achievements,
	}
}

// Compute derives the full snapshot for rec at now. now is converted into the
// profile's timezone first.
func Compute(rec models.UserRecord, now time.Time) Snapshot {
	p := rec.Profile
	now = now.In(p.Location())
	journal := rec.Journal

	secondsFree := ElapsedSeconds(p, now)
	saved := MoneySaved(p, journal, now)
	avoided := PodsAvoided(p, journal, now)
	usesToday := UsesToday(journal, now)

	snap := Snapshot{
		ComputedAt:              now,
		SecondsFree:             secondsFree,
		CostPerUse:              CostPerUse(p),
		NicotinePerUse:          NicotinePerUse(p),
		UsesToday:               usesToday,
		CostWastedToday:         CostWastedToday(p, journal, now),
		NicotineToday:           NicotineToday(p, journal, now),
		BaselineDailyCost:       BaselineDailyCost(p),
		ProjectedDailySavings:   ProjectedDailySavings(p, journal, now),
		MoneySaved:              saved,
		PodsAvoided:             avoided,
		SavingsGoalProgress:     SavingsGoalProgress(p, saved),
		SecondsSinceLastSlip:    SecondsSinceLastSlip(p, journal, now),
		SecondsSinceLastCraving: SecondsSinceLastCraving(p, journal, now),
		CleanDayStreak:          CleanDayStreak(p, journal, now),
		PledgeStreak:            ActivePledgeStreak(rec.LastPledgeDate, rec.PledgeStreak, now),
		Week:                    Week(p, journal, now),
		Rank:                    Rank(secondsFree / 3600),
		Milestones:              Milestones(secondsFree),
	}
	if p != nil {
		snap.Currency = p.Currency
	}

	facts := catalog.Facts{
		SecondsFree: secondsFree,
		MoneySaved:  saved,
		PodsAvoided: avoided,
		UsesToday:   usesToday,
		Journal:     journal,
	}
	if p != nil {
		facts.DailyLimit = p.DailyLimit
	}
	snap.Achievements = Achievements(facts)
	return snap
}
