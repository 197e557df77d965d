package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bekzhanizb/QuitTrackerBackend/celebrate"
	"github.com/redis/go-redis/v9"
)

// RedisSeenStore keeps seen unlocks under seen:<user>:<category>. The rank
// category is a plain string, the others are sets.
type RedisSeenStore struct {
	client *redis.Client
}

func NewRedisSeenStore(client *redis.Client) *RedisSeenStore {
	return &RedisSeenStore{client: client}
}

func seenKey(user string, category celebrate.Category) string {
	return fmt.Sprintf("seen:%s:%s", user, category)
}

func (s *RedisSeenStore) LastRank(ctx context.Context, user string) (string, error) {
	v, err := s.client.Get(ctx, seenKey(user, celebrate.CategoryRank)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last rank: %w", err)
	}
	return v, nil
}

func (s *RedisSeenStore) SetLastRank(ctx context.Context, user, rankID string) error {
	if err := s.client.Set(ctx, seenKey(user, celebrate.CategoryRank), rankID, 0).Err(); err != nil {
		return fmt.Errorf("set last rank: %w", err)
	}
	return nil
}

func (s *RedisSeenStore) SeenIDs(ctx context.Context, user string, category celebrate.Category) (map[string]struct{}, error) {
	members, err := s.client.SMembers(ctx, seenKey(user, category)).Result()
	if err != nil {
		return nil, fmt.Errorf("seen members: %w", err)
	}
	out := make(map[string]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out, nil
}

func (s *RedisSeenStore) MarkSeen(ctx context.Context, user string, category celebrate.Category, id string) error {
	if err := s.client.SAdd(ctx, seenKey(user, category), id).Err(); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

func (s *RedisSeenStore) Clear(ctx context.Context, user string) error {
	err := s.client.Del(ctx,
		seenKey(user, celebrate.CategoryRank),
		seenKey(user, celebrate.CategoryMilestone),
		seenKey(user, celebrate.CategoryAchievement),
	).Err()
	if err != nil {
		return fmt.Errorf("clear seen: %w", err)
	}
	return nil
}

var _ celebrate.SeenStore = (*RedisSeenStore)(nil)
