package catalog

import (
	"testing"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiers_OrderedAndUnique(t *testing.T) {
	require.NotEmpty(t, Tiers)
	assert.Equal(t, 0.0, Tiers[0].MinHours, "first tier must be reachable immediately")

	ids := map[string]bool{}
	for i, tier := range Tiers {
		assert.False(t, ids[tier.ID], "duplicate tier id %s", tier.ID)
		ids[tier.ID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, tier.MinHours, Tiers[i-1].MinHours, "tier %s out of order", tier.ID)
		}
		assert.Equal(t, i, TierOrdinal(tier.ID))
	}
	assert.Equal(t, -1, TierOrdinal("missing"))
}

func TestMilestones_OrderedAndUnique(t *testing.T) {
	ids := map[string]bool{}
	for i, m := range Milestones {
		assert.False(t, ids[m.ID], "duplicate milestone id %s", m.ID)
		ids[m.ID] = true
		assert.Positive(t, m.DurationSeconds)
		if i > 0 {
			assert.Greater(t, m.DurationSeconds, Milestones[i-1].DurationSeconds, "milestone %s out of order", m.ID)
		}
		got, ok := MilestoneByID(m.ID)
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
}

func TestAchievements_UniqueIDs(t *testing.T) {
	ids := map[string]bool{}
	for _, a := range Achievements {
		assert.False(t, ids[a.ID], "duplicate achievement id %s", a.ID)
		ids[a.ID] = true
	}
}

func TestEvaluate(t *testing.T) {
	limit := 5
	zero := 0
	two := 2

	cases := []struct {
		name string
		id   string
		f    Facts
		want bool
	}{
		{"hour not yet", "first-hour", Facts{SecondsFree: hour - 1}, false},
		{"hour inclusive", "first-hour", Facts{SecondsFree: hour}, true},
		{"money below", "saved-10", Facts{MoneySaved: 9.99}, false},
		{"money reached", "saved-10", Facts{MoneySaved: 10}, true},
		{"pods", "pods-5", Facts{PodsAvoided: 5.5}, true},
		{"no limit", "limit-setter", Facts{}, false},
		{"zero limit", "limit-setter", Facts{DailyLimit: &zero}, false},
		{"limit set", "limit-setter", Facts{DailyLimit: &limit}, true},
		{"clean today", "clean-today", Facts{UsesToday: 0}, true},
		{"used today", "clean-today", Facts{UsesToday: 1}, false},
		{"empty journal", "first-entry", Facts{}, false},
		{"one entry", "first-entry", Facts{Journal: []models.JournalEntry{{ID: "a"}}}, true},
		{"trigger missing", "breathe", Facts{Journal: []models.JournalEntry{{ID: "a", Trigger: models.TriggerStress}}}, false},
		{"trigger present", "breathe", Facts{Journal: []models.JournalEntry{
			{ID: "a", Trigger: models.TriggerStress},
			{ID: "b", Trigger: models.TriggerBreathingExercise},
		}}, true},
		{"slips are not resisted", "resisted-10", Facts{Journal: repeatEntries(10, &two)}, false},
		{"resisted ten", "resisted-10", Facts{Journal: repeatEntries(10, nil)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, ok := AchievementByID(tc.id)
			require.True(t, ok)
			assert.Equal(t, tc.want, Evaluate(a, tc.f))
		})
	}
}

func TestEvaluate_UnknownKind(t *testing.T) {
	assert.False(t, Evaluate(Achievement{Kind: "nope"}, Facts{SecondsFree: 1e9}))
}

func repeatEntries(n int, uses *int) []models.JournalEntry {
	out := make([]models.JournalEntry, n)
	for i := range out {
		out[i] = models.JournalEntry{ID: string(rune('a' + i)), Trigger: models.TriggerStress, UsesTaken: uses}
	}
	return out
}
