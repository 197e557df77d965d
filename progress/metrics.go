// Package progress derives every computed fact shown to a user from their
// profile, journal and the current time. Nothing here touches storage or
// returns an error: a missing profile yields zeros.
//
// Calendar days are evaluated in now.Location(); callers pass now already
// converted to the user's timezone.
package progress

import (
	"math"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
)

// FallbackUsesPerUnit is assumed when a profile has no unit volume.
const FallbackUsesPerUnit = 200.0

const (
	secondsPerDay  = 24 * 60 * 60
	secondsPerWeek = 7 * secondsPerDay
)

func ElapsedSeconds(p *models.Profile, now time.Time) float64 {
	if p == nil || p.StartedAt.IsZero() {
		return 0
	}
	return math.Max(0, now.Sub(p.StartedAt).Seconds())
}

func CostPerUse(p *models.Profile) float64 {
	if p == nil {
		return 0
	}
	if p.VolumePerUnitML <= 0 {
		return p.CostPerUnit / FallbackUsesPerUnit
	}
	return p.CostPerUnit / p.VolumePerUnitML * p.MLPerUse
}

func NicotinePerUse(p *models.Profile) float64 {
	if p == nil {
		return 0
	}
	return p.NicotineMgPerML * p.MLPerUse
}

// UnitsPerUse is the fraction of one unit a single use consumes.
func UnitsPerUse(p *models.Profile) float64 {
	if p == nil {
		return 0
	}
	if p.VolumePerUnitML <= 0 {
		return 1 / FallbackUsesPerUnit
	}
	return p.MLPerUse / p.VolumePerUnitML
}

func TodayEntries(journal []models.JournalEntry, now time.Time) []models.JournalEntry {
	today := civilDate(now, now.Location())
	var out []models.JournalEntry
	for _, e := range journal {
		if civilDate(e.Time(), now.Location()).Equal(today) {
			out = append(out, e)
		}
	}
	return out
}

// UsesOn sums uses logged on the calendar day containing day.
func UsesOn(journal []models.JournalEntry, day time.Time) int {
	target := civilDate(day, day.Location())
	total := 0
	for _, e := range journal {
		if civilDate(e.Time(), day.Location()).Equal(target) {
			total += e.Uses()
		}
	}
	return total
}

func UsesToday(journal []models.JournalEntry, now time.Time) int {
	return UsesOn(journal, now)
}

func CostWastedToday(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	return float64(UsesToday(journal, now)) * CostPerUse(p)
}

func NicotineToday(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	return float64(UsesToday(journal, now)) * NicotinePerUse(p)
}

func BaselineDailyCost(p *models.Profile) float64 {
	if p == nil {
		return 0
	}
	return p.UnitsPerWeek * p.CostPerUnit / 7
}

func ProjectedDailySavings(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	return math.Max(0, BaselineDailyCost(p)-CostWastedToday(p, journal, now))
}

func TotalUses(journal []models.JournalEntry) int {
	total := 0
	for _, e := range journal {
		total += e.Uses()
	}
	return total
}

// MoneySaved is what the old habit would have cost since the start, minus
// what recorded slips actually cost.
func MoneySaved(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	if p == nil {
		return 0
	}
	weeks := ElapsedSeconds(p, now) / secondsPerWeek
	theoretical := weeks * p.UnitsPerWeek * p.CostPerUnit
	spent := float64(TotalUses(journal)) * CostPerUse(p)
	return math.Max(0, theoretical-spent)
}

func PodsAvoided(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	if p == nil {
		return 0
	}
	weeks := ElapsedSeconds(p, now) / secondsPerWeek
	consumed := float64(TotalUses(journal)) * UnitsPerUse(p)
	return math.Max(0, weeks*p.UnitsPerWeek-consumed)
}

// SavingsGoalProgress is percent of the goal's target covered by saved.
func SavingsGoalProgress(p *models.Profile, saved float64) float64 {
	if p == nil || p.SavingsGoal == nil || p.SavingsGoal.TargetCost <= 0 {
		return 0
	}
	return clamp(saved/p.SavingsGoal.TargetCost*100, 0, 100)
}

func SecondsSinceLastSlip(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	return secondsSinceLast(p, journal, now, func(e models.JournalEntry) bool { return e.IsSlip() })
}

func SecondsSinceLastCraving(p *models.Profile, journal []models.JournalEntry, now time.Time) float64 {
	return secondsSinceLast(p, journal, now, func(e models.JournalEntry) bool { return true })
}

func secondsSinceLast(p *models.Profile, journal []models.JournalEntry, now time.Time, match func(models.JournalEntry) bool) float64 {
	var latest int64
	found := false
	for _, e := range journal {
		if match(e) && (!found || e.Timestamp > latest) {
			latest = e.Timestamp
			found = true
		}
	}
	if !found {
		return ElapsedSeconds(p, now)
	}
	return math.Max(0, now.Sub(time.UnixMilli(latest)).Seconds())
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
