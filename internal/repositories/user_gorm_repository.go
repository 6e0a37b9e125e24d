package repositories

import (
	"context"
	"time"

	"userapi/internal/models"

	"github.com/samber/mo"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	*GORMRepository[models.User]
	now func() time.Time
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		GORMRepository: NewGORMRepository[models.User](db),
		now:            time.Now,
	}
}

// Update applies the given columns and refreshes updated_at.
func (r *GORMUserRepository) Update(ctx context.Context, id uint, fields map[string]any) (mo.Option[*models.User], error) {
	withTimestamp := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		withTimestamp[k] = v
	}
	withTimestamp["updated_at"] = r.now()
	return r.GORMRepository.Update(ctx, id, withTimestamp)
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (mo.Option[*models.User], error) {
	return r.first(ctx, "email = ?", email)
}

// EmailExists reports whether any user holds the given email.
func (r *GORMUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}
