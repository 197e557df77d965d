// Package catalog holds the ordered threshold tables that progress is measured
// against: rank tiers, recovery milestones and achievements.
package catalog

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
)

type Tier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinHours    float64 `json:"min_hours"`
}

type Milestone struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// Tiers is ordered by MinHours ascending.
var Tiers = []Tier{
	{ID: "initiate", Name: "Initiate", Description: "You made the decision. Everything starts here.", MinHours: 0},
	{ID: "cadet", Name: "Cadet", Description: "One full day without a use.", MinHours: 24},
	{ID: "scout", Name: "Scout", Description: "Three days in; the nicotine is leaving your body.", MinHours: 72},
	{ID: "ranger", Name: "Ranger", Description: "A whole week of holding the line.", MinHours: 168},
	{ID: "guardian", Name: "Guardian", Description: "Two weeks strong.", MinHours: 336},
	{ID: "sentinel", Name: "Sentinel", Description: "A month of freedom.", MinHours: 720},
	{ID: "vanguard", Name: "Vanguard", Description: "Three months; the habit is losing its grip.", MinHours: 2160},
	{ID: "champion", Name: "Champion", Description: "Half a year free.", MinHours: 4320},
	{ID: "legend", Name: "Legend", Description: "A full year. Legendary.", MinHours: 8760},
}

// Milestones is ordered by DurationSeconds ascending.
var Milestones = []Milestone{
	{ID: "heart-rate", Title: "Heart rate settles", Description: "Pulse and blood pressure begin to drop back toward normal.", DurationSeconds: 20 * minute},
	{ID: "oxygen", Title: "Oxygen recovers", Description: "Blood oxygen levels return to normal.", DurationSeconds: 8 * hour},
	{ID: "carbon-monoxide", Title: "Carbon monoxide cleared", Description: "Carbon monoxide has left the bloodstream.", DurationSeconds: day},
	{ID: "taste-smell", Title: "Taste and smell", Description: "Nerve endings start to regrow; taste and smell sharpen.", DurationSeconds: 2 * day},
	{ID: "nicotine-free", Title: "Nicotine free", Description: "Nicotine is out of your body and breathing gets easier.", DurationSeconds: 3 * day},
	{ID: "circulation", Title: "Circulation improves", Description: "Walking and exercise feel easier.", DurationSeconds: 14 * day},
	{ID: "lung-function", Title: "Lung function", Description: "Lung function has measurably improved.", DurationSeconds: 30 * day},
	{ID: "cilia", Title: "Cilia regrow", Description: "Coughing and shortness of breath decrease.", DurationSeconds: 90 * day},
	{ID: "energy", Title: "Energy restored", Description: "Energy and sleep quality are noticeably better.", DurationSeconds: 180 * day},
	{ID: "heart-risk", Title: "Heart risk halved", Description: "Risk of heart disease is about half that of a user.", DurationSeconds: 365 * day},
}

func TierByID(id string) (Tier, bool) {
	for _, t := range Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// TierOrdinal is the tier's position in Tiers, or -1 if unknown.
func TierOrdinal(id string) int {
	for i, t := range Tiers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func MilestoneByID(id string) (Milestone, bool) {
	for _, m := range Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}
