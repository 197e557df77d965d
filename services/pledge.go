package services

import (
	"fmt"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/progress"
)

type PledgeResult string

const (
	PledgeFirst    PledgeResult = "first"
	PledgeExtended PledgeResult = "extended"
	PledgeRestart  PledgeResult = "restarted"
	PledgeRepeat   PledgeResult = "already_pledged"
)

// latestOffset is the furthest ahead of UTC any timezone runs.
const latestOffset = 14 * time.Hour

// ApplyPledge runs the streak transition for a pledge made on today
// (YYYY-MM-DD). Calendar difference is absolute and time of day is ignored.
func ApplyPledge(last *string, streak int, today string) (*string, int, PledgeResult, error) {
	todayDate, err := progress.ParseDate(today)
	if err != nil {
		return last, streak, "", fmt.Errorf("%w: %v", ErrInvalidPledgeDate, err)
	}
	if last != nil && *last == today {
		return last, streak, PledgeRepeat, nil
	}

	next := progress.DateString(todayDate)
	if last == nil {
		return &next, 1, PledgeFirst, nil
	}

	lastDate, err := progress.ParseDate(*last)
	if err != nil {
		// a corrupt stored date cannot be extended from
		return &next, 1, PledgeRestart, nil
	}

	switch diff := progress.DaysBetween(todayDate, lastDate); {
	case diff == 0:
		return last, streak, PledgeRepeat, nil
	case diff == 1:
		return &next, streak + 1, PledgeExtended, nil
	default:
		return &next, 1, PledgeRestart, nil
	}
}

// ValidatePledgeDate rejects malformed dates and dates that are in the future
// everywhere on earth relative to serverNow.
func ValidatePledgeDate(date string, serverNow time.Time) error {
	d, err := progress.ParseDate(date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPledgeDate, err)
	}
	latest, _ := progress.ParseDate(progress.DateString(serverNow.UTC().Add(latestOffset)))
	if d.After(latest) {
		return fmt.Errorf("%w: %s is in the future", ErrInvalidPledgeDate, date)
	}
	return nil
}
