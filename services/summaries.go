package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type UserSummary struct {
	UserID         string  `json:"user_id"`
	IsGuest        bool    `json:"is_guest"`
	Onboarded      bool    `json:"onboarded"`
	SecondsFree    float64 `json:"seconds_free,omitempty"`
	MoneySaved     float64 `json:"money_saved,omitempty"`
	Rank           string  `json:"rank,omitempty"`
	JournalEntries int     `json:"journal_entries"`
	PledgeStreak   int     `json:"pledge_streak"`
	Error          string  `json:"error,omitempty"`
}

type SummaryReport struct {
	Total          int           `json:"total"`
	Onboarded      int           `json:"onboarded"`
	Failed         int           `json:"failed"`
	Users          []UserSummary `json:"users"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
}

// Summaries derives a summary for every indexed user, at most concurrency at
// a time. A user that fails to load is reported, not fatal.
func (s *UserService) Summaries(ctx context.Context, concurrency int) (SummaryReport, error) {
	start := time.Now()

	keys, err := s.ListUsers(ctx)
	if err != nil {
		return SummaryReport{}, err
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	out := make([]UserSummary, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.summarize(gctx, key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SummaryReport{}, err
	}

	report := SummaryReport{Total: len(out), Users: out}
	for _, u := range out {
		if u.Onboarded {
			report.Onboarded++
		}
		if u.Error != "" {
			report.Failed++
		}
	}
	report.ProcessingTime = time.Since(start) / time.Millisecond

	s.logger.Info("summaries_computed",
		zap.Int("users", report.Total),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return report, nil
}

func (s *UserService) summarize(ctx context.Context, key string) UserSummary {
	sum := UserSummary{UserID: key}

	snap, rec, err := s.Progress(ctx, key)
	switch {
	case errors.Is(err, ErrOnboardingIncomplete):
		// record loaded, just nothing to derive
	case err != nil:
		s.logger.Warn("summary_failed", zap.String("user_id", key), zap.Error(err))
		sum.Error = err.Error()
		return sum
	default:
		sum.Onboarded = true
		sum.SecondsFree = snap.SecondsFree
		sum.MoneySaved = snap.MoneySaved
		sum.Rank = snap.Rank.Current.ID
	}

	sum.IsGuest = rec.IsGuest
	sum.JournalEntries = len(rec.Journal)
	sum.PledgeStreak = rec.PledgeStreak
	return sum
}
