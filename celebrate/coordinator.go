// Package celebrate turns newly crossed thresholds into a queue of
// celebrations shown one at a time. Each unlock is shown at most once per
// user: an id is never queued while it is already queued, showing or seen.
package celebrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/catalog"
	"github.com/Bekzhanizb/QuitTrackerBackend/progress"
)

type Category string

const (
	CategoryRank        Category = "rank"
	CategoryMilestone   Category = "milestone"
	CategoryAchievement Category = "achievement"
)

func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryRank, CategoryMilestone, CategoryAchievement:
		return c, true
	}
	return "", false
}

var ErrNotShowing = errors.New("celebration is not showing")

type Item struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

func (i Item) key() string {
	return string(i.Category) + ":" + i.ID
}

type View struct {
	Showing *Item  `json:"showing"`
	Queued  []Item `json:"queued"`
}

// Coordinator owns the queue and showing slot for one user.
type Coordinator struct {
	mu      sync.Mutex
	user    string
	seen    SeenStore
	queue   []Item
	showing *Item
	onShow  func(user string, item Item)
	subs    map[chan struct{}]struct{}
}

func NewCoordinator(user string, seen SeenStore, onShow func(user string, item Item)) *Coordinator {
	return &Coordinator{
		user:   user,
		seen:   seen,
		queue:  make([]Item, 0, 8),
		onShow: onShow,
		subs:   make(map[chan struct{}]struct{}),
	}
}

func (c *Coordinator) User() string {
	return c.user
}

// Subscribe returns a channel that fires after the showing slot or the queue
// changed. Every subscriber gets its own channel; changes between reads
// coalesce into one signal. cancel must be called once the caller stops
// reading.
func (c *Coordinator) Subscribe() (changes <-chan struct{}, cancel func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		delete(c.subs, ch)
		c.mu.Unlock()
	}
}

func (c *Coordinator) notify() {
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Idle reports whether nothing is queued or showing. An idle coordinator
// holds no state beyond what the SeenStore already has.
func (c *Coordinator) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showing == nil && len(c.queue) == 0
}

// Evaluate enqueues every unlock the user has not seen yet.
func (c *Coordinator) Evaluate(ctx context.Context, u progress.Unlocks) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.evaluateLocked(ctx, u)
	if n > 0 {
		c.notify()
	}
	return err
}

func (c *Coordinator) evaluateLocked(ctx context.Context, u progress.Unlocks) (int, error) {
	pending := make(map[string]struct{}, len(c.queue)+1)
	for _, it := range c.queue {
		pending[it.key()] = struct{}{}
	}
	if c.showing != nil {
		pending[c.showing.key()] = struct{}{}
	}

	added := 0
	push := func(it Item) {
		if _, ok := pending[it.key()]; ok {
			return
		}
		pending[it.key()] = struct{}{}
		c.queue = append(c.queue, it)
		added++
	}

	if tier, ok := catalog.TierByID(u.RankID); ok {
		last, err := c.seen.LastRank(ctx, c.user)
		if err != nil {
			return added, fmt.Errorf("load last rank: %w", err)
		}
		if catalog.TierOrdinal(tier.ID) > catalog.TierOrdinal(last) {
			push(Item{ID: tier.ID, Category: CategoryRank, Title: tier.Name, Description: tier.Description})
		}
	}

	if len(u.Milestones) > 0 {
		seen, err := c.seen.SeenIDs(ctx, c.user, CategoryMilestone)
		if err != nil {
			return added, fmt.Errorf("load seen milestones: %w", err)
		}
		for _, id := range u.Milestones {
			m, ok := catalog.MilestoneByID(id)
			if !ok {
				continue
			}
			if _, done := seen[id]; !done {
				push(Item{ID: m.ID, Category: CategoryMilestone, Title: m.Title, Description: m.Description})
			}
		}
	}

	if len(u.Achievements) > 0 {
		seen, err := c.seen.SeenIDs(ctx, c.user, CategoryAchievement)
		if err != nil {
			return added, fmt.Errorf("load seen achievements: %w", err)
		}
		for _, id := range u.Achievements {
			a, ok := catalog.AchievementByID(id)
			if !ok {
				continue
			}
			if _, done := seen[id]; !done {
				push(Item{ID: a.ID, Category: CategoryAchievement, Title: a.Title, Description: a.Description})
			}
		}
	}
	return added, nil
}

// Advance moves the queue head into the showing slot when it is empty.
func (c *Coordinator) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advanceLocked()
}

func (c *Coordinator) advanceLocked() bool {
	if c.showing != nil || len(c.queue) == 0 {
		return false
	}
	head := c.queue[0]
	c.queue[0] = Item{}
	if len(c.queue) == 1 {
		c.queue = c.queue[:0]
	} else {
		c.queue = c.queue[1:]
	}
	c.showing = &head
	if c.onShow != nil {
		c.onShow(c.user, head)
	}
	c.notify()
	return true
}

// Tick evaluates, advances and returns the resulting view.
func (c *Coordinator) Tick(ctx context.Context, u progress.Unlocks) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.evaluateLocked(ctx, u)
	if n > 0 {
		c.notify()
	}
	c.advanceLocked()
	return c.viewLocked(), err
}

// Dismiss records the showing item as seen and shows the next one.
func (c *Coordinator) Dismiss(ctx context.Context, category Category, id string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.showing == nil || c.showing.Category != category || c.showing.ID != id {
		return c.viewLocked(), fmt.Errorf("%s/%s: %w", category, id, ErrNotShowing)
	}

	if err := c.persistLocked(ctx, *c.showing); err != nil {
		return c.viewLocked(), err
	}
	c.showing = nil
	c.notify()
	c.advanceLocked()
	return c.viewLocked(), nil
}

func (c *Coordinator) persistLocked(ctx context.Context, it Item) error {
	if it.Category != CategoryRank {
		if err := c.seen.MarkSeen(ctx, c.user, it.Category, it.ID); err != nil {
			return fmt.Errorf("mark %s seen: %w", it.key(), err)
		}
		return nil
	}

	last, err := c.seen.LastRank(ctx, c.user)
	if err != nil {
		return fmt.Errorf("load last rank: %w", err)
	}
	// rank only moves forward
	if catalog.TierOrdinal(it.ID) <= catalog.TierOrdinal(last) {
		return nil
	}
	if err := c.seen.SetLastRank(ctx, c.user, it.ID); err != nil {
		return fmt.Errorf("store last rank: %w", err)
	}
	return nil
}

// Reset drops queued and showing items. Seen state is cleared only when
// clearSeen is set.
func (c *Coordinator) Reset(ctx context.Context, clearSeen bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = c.queue[:0]
	c.showing = nil
	c.notify()
	if clearSeen {
		if err := c.seen.Clear(ctx, c.user); err != nil {
			return fmt.Errorf("clear seen: %w", err)
		}
	}
	return nil
}

func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Coordinator) viewLocked() View {
	v := View{Queued: make([]Item, len(c.queue))}
	copy(v.Queued, c.queue)
	if c.showing != nil {
		s := *c.showing
		v.Showing = &s
	}
	return v
}

// Source reports the unlocks the user currently qualifies for.
type Source func(ctx context.Context) (progress.Unlocks, error)

// Run ticks every interval until ctx is done, handing each view to emit. A
// change made elsewhere between ticks, such as a dismiss, is emitted without
// waiting for the next tick.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration, source Source, emit func(View) error) error {
	changes, cancel := c.Subscribe()
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() error {
		u, err := source(ctx)
		if err != nil {
			return err
		}
		v, err := c.Tick(ctx, u)
		if err != nil {
			return err
		}
		// v already reflects whatever Tick signalled
		select {
		case <-changes:
		default:
		}
		return emit(v)
	}

	if err := tick(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := tick(); err != nil {
				return err
			}
		case <-changes:
			if err := emit(c.View()); err != nil {
				return err
			}
		}
	}
}
