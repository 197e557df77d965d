package celebrate

import (
	"context"
	"sync"
)

// SeenStore persists which unlocks a user has already dismissed. Sets only
// grow; Clear is the single way back.
type SeenStore interface {
	LastRank(ctx context.Context, user string) (string, error)
	SetLastRank(ctx context.Context, user, rankID string) error
	SeenIDs(ctx context.Context, user string, category Category) (map[string]struct{}, error)
	MarkSeen(ctx context.Context, user string, category Category, id string) error
	Clear(ctx context.Context, user string) error
}

type memorySeen struct {
	rank string
	ids  map[Category]map[string]struct{}
}

// MemorySeenStore keeps seen state in process memory.
type MemorySeenStore struct {
	mu    sync.Mutex
	users map[string]*memorySeen
}

func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{users: make(map[string]*memorySeen)}
}

func (m *MemorySeenStore) entry(user string) *memorySeen {
	e, ok := m.users[user]
	if !ok {
		e = &memorySeen{ids: make(map[Category]map[string]struct{})}
		m.users[user] = e
	}
	return e
}

func (m *MemorySeenStore) LastRank(_ context.Context, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.users[user]; ok {
		return e.rank, nil
	}
	return "", nil
}

func (m *MemorySeenStore) SetLastRank(_ context.Context, user, rankID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(user).rank = rankID
	return nil
}

func (m *MemorySeenStore) SeenIDs(_ context.Context, user string, category Category) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	if e, ok := m.users[user]; ok {
		for id := range e.ids[category] {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (m *MemorySeenStore) MarkSeen(_ context.Context, user string, category Category, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(user)
	set, ok := e.ids[category]
	if !ok {
		set = make(map[string]struct{})
		e.ids[category] = set
	}
	set[id] = struct{}{}
	return nil
}

func (m *MemorySeenStore) Clear(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, user)
	return nil
}
