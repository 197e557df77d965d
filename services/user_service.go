package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/progress"
	"github.com/Bekzhanizb/QuitTrackerBackend/store"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UserKind    = "user"
	GuestPrefix = "guest-"

	BackupVersion = 1
)

type UserService struct {
	users  *store.Store[models.UserRecord]
	now    func() time.Time
	logger *zap.Logger
}

func NewUserService(users *store.Store[models.UserRecord], logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Tests only.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func (s *UserService) Now() time.Time {
	return s.now()
}

// Login returns the record for email, creating it on first sight.
func (s *UserService) Login(ctx context.Context, email string) (models.UserRecord, bool, error) {
	id := utils.NormalizeEmail(email)
	rec, created, err := s.users.Ensure(ctx, id, func() models.UserRecord { return s.newRecord(id) })
	if err != nil {
		return models.UserRecord{}, false, err
	}
	if created {
		s.logger.Info("user_created", zap.String("user_id", id), zap.Bool("guest", false))
	}
	return rec, created, nil
}

func (s *UserService) CreateGuest(ctx context.Context) (models.UserRecord, error) {
	id := GuestPrefix + uuid.NewString()
	rec, _, err := s.users.Ensure(ctx, id, func() models.UserRecord { return s.newRecord(id) })
	if err != nil {
		return models.UserRecord{}, err
	}
	s.logger.Info("user_created", zap.String("user_id", id), zap.Bool("guest", true))
	return rec, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.UserRecord, error) {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return models.UserRecord{}, err
	}
	if !exists {
		return models.UserRecord{}, fmt.Errorf("%s: %w", id, ErrUserNotFound)
	}
	rec, err := s.users.Get(ctx, id)
	if err != nil {
		return models.UserRecord{}, err
	}
	rec.Journal = SortedJournal(rec.Journal)
	return rec, nil
}

// SetProfile replaces the profile, creating the user record if needed.
// Start dates must fall between the Unix epoch and a small clock skew past
// now.
var (
	earliestStart = time.Unix(0, 0).UTC()
	startSkew     = time.Hour
)

func (s *UserService) checkProfile(p models.Profile) error {
	if p.StartedAt.Before(earliestStart) {
		return fmt.Errorf("%w: started_at before %s", ErrInvalidProfile, earliestStart.Format(time.RFC3339))
	}
	if p.StartedAt.After(s.now().Add(startSkew)) {
		return fmt.Errorf("%w: started_at in the future", ErrInvalidProfile)
	}
	return nil
}

func (s *UserService) SetProfile(ctx context.Context, id string, profile models.Profile) (models.UserRecord, error) {
	if err := s.checkProfile(profile); err != nil {
		return models.UserRecord{}, err
	}
	if _, _, err := s.users.Ensure(ctx, id, func() models.UserRecord { return s.newRecord(id) }); err != nil {
		return models.UserRecord{}, err
	}
	rec, err := s.mutate(ctx, id, func(rec models.UserRecord) (models.UserRecord, error) {
		p := profile
		rec.Profile = &p
		return rec, nil
	})
	if err != nil {
		return models.UserRecord{}, err
	}
	s.logger.Info("profile_replaced", zap.String("user_id", id))
	return rec, nil
}

func (s *UserService) AppendEntry(ctx context.Context, id string, entry models.JournalEntry) (models.UserRecord, error) {
	if entry.Timestamp == 0 {
		entry.Timestamp = s.now().UnixMilli()
	}
	rec, err := s.mutate(ctx, id, AppendEntry(entry))
	if err != nil {
		return models.UserRecord{}, err
	}

	kind := "craving"
	if entry.IsSlip() {
		kind = "slip"
	}
	utils.JournalEntries.WithLabelValues(kind).Inc()
	s.logger.Info("journal_entry_appended",
		zap.String("user_id", id),
		zap.String("entry_id", entry.ID),
		zap.String("kind", kind),
	)
	return rec, nil
}

func (s *UserService) UpdateEntry(ctx context.Context, id string, entry models.JournalEntry) (models.UserRecord, error) {
	return s.mutate(ctx, id, UpdateEntry(entry))
}

func (s *UserService) RemoveEntry(ctx context.Context, id, entryID string) (models.UserRecord, error) {
	return s.mutate(ctx, id, RemoveEntry(entryID))
}

// Pledge records today's pledge. Repeating a date is a successful no-op.
func (s *UserService) Pledge(ctx context.Context, id, date string) (models.UserRecord, PledgeResult, error) {
	if err := ValidatePledgeDate(date, s.now()); err != nil {
		return models.UserRecord{}, "", err
	}

	var result PledgeResult
	rec, err := s.mutate(ctx, id, func(rec models.UserRecord) (models.UserRecord, error) {
		last, streak, res, err := ApplyPledge(rec.LastPledgeDate, rec.PledgeStreak, date)
		if err != nil {
			return rec, err
		}
		result = res
		rec.LastPledgeDate = last
		rec.PledgeStreak = streak
		return rec, nil
	})
	if err != nil {
		return models.UserRecord{}, "", err
	}

	utils.Pledges.WithLabelValues(string(result)).Inc()
	s.logger.Info("pledge_recorded",
		zap.String("user_id", id),
		zap.String("date", date),
		zap.String("result", string(result)),
		zap.Int("streak", rec.PledgeStreak),
	)
	return rec, result, nil
}

// Reset clears the journal and pledge state and restarts the clock.
func (s *UserService) Reset(ctx context.Context, id string) (models.UserRecord, error) {
	now := s.now().UTC()
	rec, err := s.mutate(ctx, id, func(rec models.UserRecord) (models.UserRecord, error) {
		rec.Journal = []models.JournalEntry{}
		rec.LastPledgeDate = nil
		rec.PledgeStreak = 0
		if rec.Profile != nil {
			p := *rec.Profile
			p.StartedAt = now
			rec.Profile = &p
		}
		return rec, nil
	})
	if err != nil {
		return models.UserRecord{}, err
	}
	s.logger.Info("progress_reset", zap.String("user_id", id))
	return rec, nil
}

// ImportPayload is a backup as produced by Export. Identity fields are read
// but never applied.
type ImportPayload struct {
	ID             string                `json:"id,omitempty"`
	Email          string                `json:"email,omitempty"`
	Profile        *models.Profile       `json:"profile,omitempty"`
	Journal        []models.JournalEntry `json:"journal,omitempty"`
	LastPledgeDate *string               `json:"last_pledge_date,omitempty"`
	PledgeStreak   *int                  `json:"pledge_streak,omitempty"`
}

// Import merges a backup into an existing record. The record keeps its own
// id, email, guest flag and creation time whatever the payload says.
func (s *UserService) Import(ctx context.Context, id string, payload ImportPayload) (models.UserRecord, error) {
	if err := checkImport(payload); err != nil {
		return models.UserRecord{}, err
	}
	if payload.Profile != nil {
		if err := s.checkProfile(*payload.Profile); err != nil {
			return models.UserRecord{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
		}
	}

	rec, err := s.mutate(ctx, id, func(current models.UserRecord) (models.UserRecord, error) {
		merged := current
		if payload.Profile != nil {
			p := *payload.Profile
			merged.Profile = &p
		}
		if payload.Journal != nil {
			merged.Journal = append([]models.JournalEntry{}, payload.Journal...)
		}
		if payload.LastPledgeDate != nil {
			d := *payload.LastPledgeDate
			merged.LastPledgeDate = &d
		}
		if payload.PledgeStreak != nil {
			merged.PledgeStreak = *payload.PledgeStreak
		}

		merged.ID = current.ID
		merged.Email = current.Email
		merged.IsGuest = current.IsGuest
		merged.CreatedAt = current.CreatedAt
		return merged, nil
	})
	if err != nil {
		return models.UserRecord{}, err
	}

	if payload.ID != "" && payload.ID != id {
		s.logger.Warn("import_identity_ignored",
			zap.String("user_id", id),
			zap.String("payload_id", payload.ID),
		)
	}
	s.logger.Info("backup_imported", zap.String("user_id", id), zap.Int("journal_entries", len(rec.Journal)))
	return rec, nil
}

func checkImport(payload ImportPayload) error {
	seen := make(map[string]struct{}, len(payload.Journal))
	for _, e := range payload.Journal {
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate journal id %q", ErrInvalidImport, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if payload.PledgeStreak != nil && *payload.PledgeStreak < 0 {
		return fmt.Errorf("%w: negative pledge streak", ErrInvalidImport)
	}
	if payload.LastPledgeDate != nil {
		if _, err := progress.ParseDate(*payload.LastPledgeDate); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
	}
	return nil
}

type Backup struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	models.UserRecord
}

func (s *UserService) Export(ctx context.Context, id string) (Backup, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Backup{}, err
	}
	return Backup{
		Version:    BackupVersion,
		ExportedAt: s.now().UTC(),
		UserRecord: rec,
	}, nil
}

// Progress derives the snapshot for a fully onboarded user.
func (s *UserService) Progress(ctx context.Context, id string) (progress.Snapshot, models.UserRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return progress.Snapshot{}, rec, err
	}
	if !rec.OnboardingComplete() {
		return progress.Snapshot{}, rec, fmt.Errorf("%s: %w", id, ErrOnboardingIncomplete)
	}
	return progress.Compute(rec, s.now()), rec, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]string, error) {
	return s.users.Keys(ctx)
}

func (s *UserService) mutate(ctx context.Context, id string, fn func(models.UserRecord) (models.UserRecord, error)) (models.UserRecord, error) {
	rec, err := s.users.Mutate(ctx, id, fn)
	if errors.Is(err, store.ErrNotFound) {
		return models.UserRecord{}, fmt.Errorf("%s: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return models.UserRecord{}, err
	}
	rec.Journal = SortedJournal(rec.Journal)
	return rec, nil
}

func (s *UserService) newRecord(id string) models.UserRecord {
	rec := models.UserRecord{
		ID:        id,
		IsGuest:   strings.HasPrefix(id, GuestPrefix),
		CreatedAt: s.now().UTC(),
		Journal:   []models.JournalEntry{},
	}
	if !rec.IsGuest {
		rec.Email = id
	}
	return rec
}
