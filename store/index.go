package store

import (
	"context"
	"fmt"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// Register adds key to the secondary index. Idempotent.
func (s *Store[T]) Register(ctx context.Context, key string) error {
	row := models.EntityIndex{Kind: s.kind, EntityKey: key}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("register %s %q: %w", s.kind, key, err)
	}
	return nil
}

// Keys lists every key registered for this kind, oldest first.
func (s *Store[T]) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&models.EntityIndex{}).
		Where("kind = ?", s.kind).
		Order("created_at ASC, entity_key ASC").
		Pluck("entity_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("list %s keys: %w", s.kind, err)
	}
	return keys, nil
}

// registerQuietly never fails the caller; index membership is eventual.
func (s *Store[T]) registerQuietly(ctx context.Context, key string) {
	if err := s.Register(ctx, key); err != nil {
		utils.Logger.Warn("entity_index_register_failed",
			zap.String("kind", s.kind),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
