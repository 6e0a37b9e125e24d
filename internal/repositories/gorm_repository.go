package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/mo"
	"gorm.io/gorm"
)

// GORMRepository is a GORM implementation of Repository for any model
// whose primary key column is "id".
type GORMRepository[T any] struct {
	db   *gorm.DB
	name string
}

// NewGORMRepository creates a new instance of GORMRepository.
func NewGORMRepository[T any](db *gorm.DB) *GORMRepository[T] {
	var zero T
	return &GORMRepository[T]{
		db:   db,
		name: fmt.Sprintf("%T", zero),
	}
}

// Create inserts a new record and populates its generated fields.
func (r *GORMRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", r.name, translateError(err))
	}
	return nil
}

// GetByID retrieves a record by its ID.
func (r *GORMRepository[T]) GetByID(ctx context.Context, id uint) (mo.Option[*T], error) {
	return r.first(ctx, "id = ?", id)
}

// GetAll retrieves a window of records in insertion order.
func (r *GORMRepository[T]) GetAll(ctx context.Context, offset, limit int) ([]T, error) {
	entities := make([]T, 0)
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.name, err)
	}
	return entities, nil
}

// Update applies only the given columns to the record with the given ID.
// Nothing is written when the record does not exist.
func (r *GORMRepository[T]) Update(ctx context.Context, id uint, fields map[string]any) (mo.Option[*T], error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}

	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return mo.None[*T](), fmt.Errorf("failed to update %s %d: %w", r.name, id, translateError(res.Error))
	}
	if res.RowsAffected == 0 {
		return mo.None[*T](), nil
	}
	return r.GetByID(ctx, id)
}

// Delete removes the record with the given ID and reports whether a row was removed.
func (r *GORMRepository[T]) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete %s %d: %w", r.name, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether a record with the given ID exists.
func (r *GORMRepository[T]) Exists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *GORMRepository[T]) first(ctx context.Context, query string, args ...any) (mo.Option[*T], error) {
	var entity T
	if err := r.db.WithContext(ctx).Where(query, args...).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mo.None[*T](), nil
		}
		return mo.None[*T](), fmt.Errorf("failed to get %s: %w", r.name, err)
	}
	return mo.Some(&entity), nil
}

func (r *GORMRepository[T]) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", r.name, err)
	}
	return count > 0, nil
}

// translateError maps unique constraint violations to ErrDuplicateKey.
// It relies on the connection being opened with TranslateError.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}
