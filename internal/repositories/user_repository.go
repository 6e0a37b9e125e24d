package repositories

import (
	"context"
	"errors"

	"userapi/internal/models"

	"github.com/samber/mo"
)

// ErrDuplicateKey is returned when a write violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// Repository defines generic data access for an entity with an integer identity.
// Lookups report absence with mo.None rather than an error.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uint) (mo.Option[*T], error)
	GetAll(ctx context.Context, offset, limit int) ([]T, error)
	Update(ctx context.Context, id uint, fields map[string]any) (mo.Option[*T], error)
	Delete(ctx context.Context, id uint) (bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Repository[models.User]
	GetByEmail(ctx context.Context, email string) (mo.Option[*models.User], error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
