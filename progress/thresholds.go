package progress

import (
	"github.com/Bekzhanizb/QuitTrackerBackend/catalog"
)

type RankStatus struct {
	Current     catalog.Tier  `json:"current"`
	Ordinal     int           `json:"ordinal"`
	Next        *catalog.Tier `json:"next,omitempty"`
	Progress    float64       `json:"progress"`
	HoursToNext float64       `json:"hours_to_next"`
}

// Rank picks the highest tier whose MinHours is <= hours. On equal thresholds
// the later tier wins.
func Rank(hours float64) RankStatus {
	if hours < 0 {
		hours = 0
	}
	current := 0
	for i, t := range catalog.Tiers {
		if t.MinHours <= hours {
			current = i
		}
	}

	status := RankStatus{
		Current:  catalog.Tiers[current],
		Ordinal:  current,
		Progress: 100,
	}
	if current == len(catalog.Tiers)-1 {
		return status
	}

	next := catalog.Tiers[current+1]
	status.Next = &next
	status.HoursToNext = next.MinHours - hours
	if span := next.MinHours - status.Current.MinHours; span > 0 {
		status.Progress = clamp((hours-status.Current.MinHours)/span*100, 0, 100)
	}
	return status
}

type MilestoneProgress struct {
	Milestone catalog.Milestone `json:"milestone"`
	Unlocked  bool              `json:"unlocked"`
	Progress  float64           `json:"progress"`
}

type MilestoneStatus struct {
	Unlocked      []string            `json:"unlocked"`
	Next          *catalog.Milestone  `json:"next,omitempty"`
	Progress      float64             `json:"progress"`
	SecondsToNext float64             `json:"seconds_to_next"`
	Timeline      []MilestoneProgress `json:"timeline"`
}

// Milestones unlocks every milestone whose duration has been reached
// (inclusive). Progress toward a milestone starts at the previous milestone's
// duration, so each segment fills on its own.
func Milestones(seconds float64) MilestoneStatus {
	status := MilestoneStatus{
		Unlocked: []string{},
		Progress: 100,
		Timeline: make([]MilestoneProgress, 0, len(catalog.Milestones)),
	}

	var prev int64
	for _, m := range catalog.Milestones {
		item := MilestoneProgress{
			Milestone: m,
			Unlocked:  float64(m.DurationSeconds) <= seconds,
			Progress:  segmentProgress(seconds, prev, m.DurationSeconds),
		}
		status.Timeline = append(status.Timeline, item)

		if item.Unlocked {
			status.Unlocked = append(status.Unlocked, m.ID)
		} else if status.Next == nil {
			next := m
			status.Next = &next
			status.Progress = item.Progress
			status.SecondsToNext = float64(m.DurationSeconds) - seconds
		}
		prev = m.DurationSeconds
	}
	return status
}

func segmentProgress(seconds float64, from, to int64) float64 {
	if seconds >= float64(to) {
		return 100
	}
	span := float64(to - from)
	if span <= 0 {
		return 100
	}
	return clamp((seconds-float64(from))/span*100, 0, 100)
}

// Achievements lists unlocked achievement ids in catalog order.
func Achievements(f catalog.Facts) []string {
	out := []string{}
	for _, a := range catalog.Achievements {
		if catalog.Evaluate(a, f) {
			out = append(out, a.ID)
		}
	}
	return out
}
