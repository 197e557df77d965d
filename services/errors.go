package services

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEntry       = errors.New("journal entry already exists")
	ErrInvalidPledgeDate    = errors.New("invalid pledge date")
	ErrOnboardingIncomplete = errors.New("onboarding incomplete: profile not set")
	ErrInvalidImport        = errors.New("invalid import payload")
	ErrInvalidProfile       = errors.New("invalid profile")
)
