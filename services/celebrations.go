package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/celebrate"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/progress"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"go.uber.org/zap"
)

// CelebrationHub keeps one coordinator per user while it has pending
// celebrations or an open caller. Idle coordinators are dropped; the
// SeenStore holds everything needed to rebuild them.
type CelebrationHub struct {
	mu              sync.Mutex
	users           *UserService
	seen            celebrate.SeenStore
	coordinators    map[string]*hubEntry
	resetClearsSeen bool
	logger          *zap.Logger
}

type hubEntry struct {
	coord    *celebrate.Coordinator
	refs     int
	lastUsed time.Time
}

func NewCelebrationHub(users *UserService, seen celebrate.SeenStore, resetClearsSeen bool, logger *zap.Logger) *CelebrationHub {
	return &CelebrationHub{
		users:           users,
		seen:            seen,
		coordinators:    make(map[string]*hubEntry),
		resetClearsSeen: resetClearsSeen,
		logger:          logger,
	}
}

// acquire returns the user's coordinator, creating it if needed. fresh is
// true when it was just created. Every acquire must be paired with release.
func (h *CelebrationHub) acquire(user string) (c *celebrate.Coordinator, fresh bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.coordinators[user]
	if !ok {
		e = &hubEntry{coord: celebrate.NewCoordinator(user, h.seen, h.onShow)}
		h.coordinators[user] = e
	}
	e.refs++
	e.lastUsed = time.Now()
	return e.coord, !ok
}

func (h *CelebrationHub) release(user string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.coordinators[user]
	if !ok {
		return
	}
	e.refs--
	e.lastUsed = time.Now()
	if e.refs == 0 && e.coord.Idle() {
		delete(h.coordinators, user)
	}
}

// Active is the number of coordinators currently held.
func (h *CelebrationHub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.coordinators)
}

// Sweep drops coordinators nobody has touched for olderThan, even with
// pending celebrations. Unseen items are queued again on the next tick.
func (h *CelebrationHub) Sweep(olderThan time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	dropped := 0
	for user, e := range h.coordinators {
		if e.refs == 0 && !e.lastUsed.After(cutoff) {
			delete(h.coordinators, user)
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Debug("celebration_coordinators_swept", zap.Int("dropped", dropped), zap.Int("active", len(h.coordinators)))
	}
	return dropped
}

// Janitor runs Sweep every interval until ctx is done.
func (h *CelebrationHub) Janitor(ctx context.Context, interval, olderThan time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(olderThan)
		}
	}
}

func (h *CelebrationHub) onShow(user string, item celebrate.Item) {
	utils.CelebrationsShown.WithLabelValues(string(item.Category)).Inc()
	h.logger.Info("celebration_shown",
		zap.String("user_id", user),
		zap.String("category", string(item.Category)),
		zap.String("item_id", item.ID),
	)
}

// Source derives the user's current unlocks. Users without a profile get
// ErrOnboardingIncomplete.
func (h *CelebrationHub) Source(user string) celebrate.Source {
	return func(ctx context.Context) (progress.Unlocks, error) {
		snap, _, err := h.users.Progress(ctx, user)
		if err != nil {
			return progress.Unlocks{}, err
		}
		return snap.Unlocks(), nil
	}
}

func (h *CelebrationHub) Tick(ctx context.Context, user string) (celebrate.View, error) {
	u, err := h.Source(user)(ctx)
	if err != nil {
		return celebrate.View{}, err
	}
	c, _ := h.acquire(user)
	defer h.release(user)
	return c.Tick(ctx, u)
}

func (h *CelebrationHub) Dismiss(ctx context.Context, user string, category celebrate.Category, id string) (celebrate.View, error) {
	u, err := h.Source(user)(ctx)
	if err != nil {
		return celebrate.View{}, err
	}
	c, fresh := h.acquire(user)
	defer h.release(user)
	if fresh {
		// rebuild the queue of a swept coordinator before matching the item
		if _, err := c.Tick(ctx, u); err != nil {
			return celebrate.View{}, err
		}
	}
	v, err := c.Dismiss(ctx, category, id)
	if err != nil {
		return v, err
	}
	h.logger.Info("celebration_dismissed",
		zap.String("user_id", user),
		zap.String("category", string(category)),
		zap.String("item_id", id),
	)
	return v, nil
}

// Stream drives the user's coordinator until ctx ends.
func (h *CelebrationHub) Stream(ctx context.Context, user string, interval time.Duration, emit func(celebrate.View) error) error {
	if err := h.requireOnboarded(ctx, user); err != nil {
		return err
	}
	c, _ := h.acquire(user)
	defer h.release(user)
	return c.Run(ctx, interval, h.Source(user), emit)
}

// Reset drops pending celebrations after a progress reset. Seen state is
// cleared only when the hub was built with resetClearsSeen.
func (h *CelebrationHub) Reset(ctx context.Context, user string) error {
	c, _ := h.acquire(user)
	defer h.release(user)
	if err := c.Reset(ctx, h.resetClearsSeen); err != nil {
		return fmt.Errorf("reset celebrations for %s: %w", user, err)
	}
	return nil
}

func (h *CelebrationHub) requireOnboarded(ctx context.Context, user string) error {
	rec, err := h.users.Get(ctx, user)
	if err != nil {
		return err
	}
	return onboarded(rec)
}

func onboarded(rec models.UserRecord) error {
	if !rec.OnboardingComplete() {
		return fmt.Errorf("%s: %w", rec.ID, ErrOnboardingIncomplete)
	}
	return nil
}
