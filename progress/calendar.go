package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
)

const DateLayout = "2006-01-02"

type DayStatus string

const (
	DayClean      DayStatus = "clean"
	DayUnderLimit DayStatus = "under-limit"
	DayOverLimit  DayStatus = "over-limit"
	DayUnknown    DayStatus = "unknown"
	DayFuture     DayStatus = "future"
)

type Day struct {
	Date   string    `json:"date"`
	Status DayStatus `json:"status"`
	Uses   int       `json:"uses"`
}

// DateString formats t's calendar date in its own location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// DaysBetween is the absolute number of calendar days between two dates.
func DaysBetween(a, b time.Time) int {
	da := civilDate(a, a.Location())
	db := civilDate(b, b.Location())
	return int(math.Abs(math.Round(da.Sub(db).Hours() / 24)))
}

// civilDate strips the time of day, keeping only the date as seen in loc.
// The result is midnight UTC so differences are exact multiples of 24h.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifyDay grades the calendar day containing day against the profile's
// daily limit.
func ClassifyDay(p *models.Profile, journal []models.JournalEntry, day, now time.Time) DayStatus {
	if p == nil {
		return DayUnknown
	}
	loc := now.Location()
	target := civilDate(day, loc)
	if target.After(civilDate(now, loc)) {
		return DayFuture
	}
	if target.Before(civilDate(p.StartedAt, loc)) {
		return DayUnknown
	}

	uses := UsesOn(journal, day.In(loc))
	switch {
	case uses == 0:
		return DayClean
	case p.DailyLimit != nil && *p.DailyLimit > 0 && uses <= *p.DailyLimit:
		return DayUnderLimit
	default:
		return DayOverLimit
	}
}

// Week classifies Monday through Sunday of the week containing now.
func Week(p *models.Profile, journal []models.JournalEntry, now time.Time) []Day {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	monday := time.Date(y, m, d-offset, 12, 0, 0, 0, now.Location())
	return span(p, journal, now, monday, 7)
}

// MaxHistoryDays bounds how far back History may reach.
const MaxHistoryDays = 366

// History classifies the trailing n days ending today, oldest first. n is
// capped at MaxHistoryDays.
func History(p *models.Profile, journal []models.JournalEntry, now time.Time, n int) []Day {
	if n <= 0 {
		return nil
	}
	if n > MaxHistoryDays {
		n = MaxHistoryDays
	}
	y, m, d := now.Date()
	first := time.Date(y, m, d-(n-1), 12, 0, 0, 0, now.Location())
	return span(p, journal, now, first, n)
}

func span(p *models.Profile, journal []models.JournalEntry, now, first time.Time, n int) []Day {
	out := make([]Day, 0, n)
	y, m, d := first.Date()
	for i := 0; i < n; i++ {
		// noon avoids DST transitions shifting the date
		day := time.Date(y, m, d+i, 12, 0, 0, 0, now.Location())
		out = append(out, Day{
			Date:   DateString(day),
			Status: ClassifyDay(p, journal, day, now),
			Uses:   UsesOn(journal, day),
		})
	}
	return out
}

// CleanDayStreak counts consecutive clean days ending today, or ending
// yesterday when today already has a recorded use. Days before the start
// date never count.
func CleanDayStreak(p *models.Profile, journal []models.JournalEntry, now time.Time) int {
	if p == nil {
		return 0
	}
	loc := now.Location()
	end := civilDate(now, loc)
	start := civilDate(p.StartedAt, loc)

	slipDays := make(map[time.Time]struct{})
	for _, e := range journal {
		if e.Uses() > 0 {
			slipDays[civilDate(e.Time(), loc)] = struct{}{}
		}
	}
	if _, slipped := slipDays[end]; slipped {
		end = end.AddDate(0, 0, -1)
	}
	if end.Before(start) {
		return 0
	}

	from := start
	for day := range slipDays {
		if !day.After(end) && !day.Before(from) {
			from = day.AddDate(0, 0, 1)
		}
	}
	if from.After(end) {
		return 0
	}
	return int((end.Unix()-from.Unix())/secondsPerDay) + 1
}

// ActivePledgeStreak is the streak still worth showing: zero once a full
// calendar day has passed without a pledge.
func ActivePledgeStreak(lastPledgeDate *string, streak int, now time.Time) int {
	if lastPledgeDate == nil || streak <= 0 {
		return 0
	}
	last, err := ParseDate(*lastPledgeDate)
	if err != nil {
		return 0
	}
	today := civilDate(now, now.Location())
	if last.After(today) {
		return streak
	}
	if DaysBetween(today, last) > 1 {
		return 0
	}
	return streak
}
