// Package store persists one JSON aggregate per key and guarantees that all
// read-modify-write cycles on the same key run one at a time.
//
// Serialization is two-layered: a keyed mutex orders callers inside this
// process, and every Mutate runs in a transaction that row-locks the entity
// (SELECT ... FOR UPDATE) so several processes sharing a Postgres database
// also serialize. SQLite has no row locks; there the single-connection pool
// plays that role.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("entity not found")

type Store[T any] struct {
	db    *gorm.DB
	kind  string
	locks *keyedMutex
}

func New[T any](db *gorm.DB, kind string) *Store[T] {
	return &Store[T]{
		db:    db,
		kind:  kind,
		locks: newKeyedMutex(),
	}
}

// Get returns the committed state, or the zero value if key was never written.
func (s *Store[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	row, found, err := s.load(s.db.WithContext(ctx), key, false)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, nil
	}
	return decode[T](row.State)
}

func (s *Store[T]) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Entity{}).
		Where("kind = ? AND entity_key = ?", s.kind, key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("exists %s %q: %w", s.kind, key, err)
	}
	return count > 0, nil
}

// Save overwrites the state unconditionally.
func (s *Store[T]) Save(ctx context.Context, key string, state T) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	row := models.Entity{Kind: s.kind, EntityKey: key, State: data}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "entity_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save %s %q: %w", s.kind, key, err)
	}

	s.registerQuietly(ctx, key)
	return nil
}

// Ensure creates the entity from init if it does not exist yet and returns the
// stored state either way. created reports whether this call wrote it.
func (s *Store[T]) Ensure(ctx context.Context, key string, init func() T) (state T, created bool, err error) {
	var zero T
	data, err := encode(init())
	if err != nil {
		return zero, false, err
	}

	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return zero, false, err
	}
	defer unlock()

	row := models.Entity{Kind: s.kind, EntityKey: key, State: data}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return zero, false, fmt.Errorf("ensure %s %q: %w", s.kind, key, res.Error)
	}
	created = res.RowsAffected > 0
	if created {
		s.registerQuietly(ctx, key)
	}

	stored, found, err := s.load(s.db.WithContext(ctx), key, false)
	if err != nil {
		return zero, false, err
	}
	if !found {
		return zero, false, fmt.Errorf("ensure %s %q: %w", s.kind, key, ErrNotFound)
	}
	state, err = decode[T](stored.State)
	return state, created, err
}

// Mutate applies fn to the current state and writes the result as one atomic
// unit. If fn returns an error nothing is written and that error is returned
// unchanged.
func (s *Store[T]) Mutate(ctx context.Context, key string, fn func(T) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	result := "ok"
	defer func() {
		utils.EntityMutations.WithLabelValues(s.kind, result).Inc()
		utils.EntityMutationDuration.WithLabelValues(s.kind).Observe(time.Since(start).Seconds())
	}()

	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		result = "cancelled"
		return zero, err
	}
	defer unlock()

	var out T
	var rejected error
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, found, err := s.load(tx, key, true)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s %q: %w", s.kind, key, ErrNotFound)
		}

		current, err := decode[T](row.State)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			rejected = err
			return err
		}
		data, err := encode(next)
		if err != nil {
			return err
		}

		err = tx.Model(&models.Entity{}).
			Where("kind = ? AND entity_key = ?", s.kind, key).
			Updates(map[string]interface{}{
				"state":      data,
				"updated_at": time.Now().UTC(),
			}).Error
		if err != nil {
			return fmt.Errorf("write %s %q: %w", s.kind, key, err)
		}
		out = next
		return nil
	})

	switch {
	case err == nil:
		return out, nil
	case rejected != nil:
		result = "rejected"
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
		utils.Logger.Error("entity_mutation_failed",
			zap.String("kind", s.kind),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return zero, err
}

// Patch shallow-merges top-level JSON fields into the stored state.
func (s *Store[T]) Patch(ctx context.Context, key string, fields map[string]interface{}) (T, error) {
	return s.Mutate(ctx, key, func(current T) (T, error) {
		return mergeFields(current, fields)
	})
}

func (s *Store[T]) load(q *gorm.DB, key string, forUpdate bool) (models.Entity, bool, error) {
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.Entity
	res := q.Where("kind = ? AND entity_key = ?", s.kind, key).Limit(1).Find(&row)
	if res.Error != nil {
		return models.Entity{}, false, fmt.Errorf("load %s %q: %w", s.kind, key, res.Error)
	}
	return row, res.RowsAffected > 0, nil
}

func mergeFields[T any](current T, fields map[string]interface{}) (T, error) {
	var zero T
	raw, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("patch: encode current: %w", err)
	}
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return zero, fmt.Errorf("patch: state is not an object: %w", err)
	}
	for name, value := range fields {
		b, err := json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("patch: encode field %q: %w", name, err)
		}
		obj[name] = b
	}
	merged, err := json.Marshal(obj)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("patch: decode merged: %w", err)
	}
	return out, nil
}

func encode[T any](state T) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func decode[T any](data []byte) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode state: %w", err)
	}
	return out, nil
}
