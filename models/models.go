package models

import (
	"time"
	_ "time/tzdata" // profile timezones must resolve on hosts without zoneinfo

	"gorm.io/datatypes"
)

// Trigger vocabulary offered by the client. Free text is accepted as well.
const (
	TriggerStress            = "stress"
	TriggerBoredom           = "boredom"
	TriggerSocial            = "social"
	TriggerAfterMeal         = "after-meal"
	TriggerAlcohol           = "alcohol"
	TriggerCoffee            = "coffee"
	TriggerWakingUp          = "waking-up"
	TriggerBreathingExercise = "breathing-exercise"
)

type SavingsGoal struct {
	Name       string  `json:"name" validate:"required"`
	TargetCost float64 `json:"target_cost" validate:"gt=0"`
}

type Profile struct {
	StartedAt       time.Time    `json:"started_at" validate:"required"`
	CostPerUnit     float64      `json:"cost_per_unit" validate:"gte=0"`
	UnitsPerWeek    float64      `json:"units_per_week" validate:"gte=0"`
	VolumePerUnitML float64      `json:"volume_per_unit_ml" validate:"gte=0"`
	MLPerUse        float64      `json:"ml_per_use" validate:"gte=0"`
	NicotineMgPerML float64      `json:"nicotine_mg_per_ml" validate:"gte=0"`
	DailyLimit      *int         `json:"daily_limit,omitempty" validate:"omitempty,gte=0"`
	Currency        string       `json:"currency" validate:"omitempty,len=3"`
	Motivation      string       `json:"motivation,omitempty" validate:"max=1000"`
	SavingsGoal     *SavingsGoal `json:"savings_goal,omitempty" validate:"omitempty"`
	Timezone        string       `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Location resolves the profile's timezone, falling back to UTC.
func (p *Profile) Location() *time.Location {
	if p == nil || p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type JournalEntry struct {
	ID        string `json:"id" validate:"required,max=128"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
	Intensity int    `json:"intensity" validate:"min=1,max=10"`
	Trigger   string `json:"trigger" validate:"required,max=64"`
	Note      string `json:"note,omitempty" validate:"max=2000"`
	UsesTaken *int   `json:"uses_taken,omitempty" validate:"omitempty,gte=0"`
}

func (e JournalEntry) Uses() int {
	if e.UsesTaken == nil || *e.UsesTaken < 0 {
		return 0
	}
	return *e.UsesTaken
}

// IsSlip is true when the craving ended in at least one use.
func (e JournalEntry) IsSlip() bool {
	return e.Uses() > 0
}

func (e JournalEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// UserRecord is the aggregate persisted per user. Journal order in storage is
// not meaningful; sort before use.
type UserRecord struct {
	ID             string         `json:"id"`
	Email          string         `json:"email,omitempty"`
	IsGuest        bool           `json:"is_guest"`
	CreatedAt      time.Time      `json:"created_at"`
	Profile        *Profile       `json:"profile,omitempty"`
	Journal        []JournalEntry `json:"journal"`
	LastPledgeDate *string        `json:"last_pledge_date,omitempty"`
	PledgeStreak   int            `json:"pledge_streak"`
}

func (u UserRecord) OnboardingComplete() bool {
	return u.Profile != nil
}

// Entity is one persisted aggregate. State holds the JSON-encoded record.
type Entity struct {
	Kind      string         `gorm:"primaryKey;size:64" json:"kind"`
	EntityKey string         `gorm:"primaryKey;size:255" json:"entity_key"`
	State     datatypes.JSON `json:"state"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// EntityIndex lists every key ever created for a kind. Enumeration only.
type EntityIndex struct {
	Kind      string    `gorm:"primaryKey;size:64" json:"kind"`
	EntityKey string    `gorm:"primaryKey;size:255" json:"entity_key"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EntityIndex) TableName() string {
	return "entity_index"
}
