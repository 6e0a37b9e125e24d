package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"userapi/internal/models"

	"github.com/samber/mo"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
	now    func() time.Time
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
		now:    time.Now,
	}
}

// Create adds a new user, assigning its ID and creation time.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(user.Email, 0) {
		return fmt.Errorf("failed to create user: %w: email %s", ErrDuplicateKey, user.Email)
	}

	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = r.now()
	user.UpdatedAt = nil
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (mo.Option[*models.User], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return mo.None[*models.User](), nil
	}
	return mo.Some(&user), nil
}

// GetAll returns a window of users ordered by ID.
func (r *MemoryUserRepository) GetAll(_ context.Context, offset, limit int) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, u)
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].ID < userList[j].ID })

	if offset >= len(userList) {
		return []models.User{}, nil
	}
	end := len(userList)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	return userList[offset:end], nil
}

// Update applies the given fields to an existing user.
func (r *MemoryUserRepository) Update(_ context.Context, id uint, fields map[string]any) (mo.Option[*models.User], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return mo.None[*models.User](), nil
	}

	for field, value := range fields {
		s, isString := value.(string)
		if !isString {
			return mo.None[*models.User](), fmt.Errorf("field %s: expected string, got %T", field, value)
		}
		switch field {
		case "name":
			user.Name = s
		case "email":
			if r.emailTakenLocked(s, id) {
				return mo.None[*models.User](), fmt.Errorf("failed to update user %d: %w: email %s", id, ErrDuplicateKey, s)
			}
			user.Email = s
		default:
			return mo.None[*models.User](), fmt.Errorf("unknown user field %s", field)
		}
	}

	now := r.now()
	user.UpdatedAt = &now
	r.users[id] = user
	return mo.Some(&user), nil
}

// Delete removes a user by its ID.
func (r *MemoryUserRepository) Delete(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

// Exists reports whether a user with the given ID exists.
func (r *MemoryUserRepository) Exists(_ context.Context, id uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

// GetByEmail returns the user holding the given email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (mo.Option[*models.User], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return mo.Some(&u), nil
		}
	}
	return mo.None[*models.User](), nil
}

// EmailExists reports whether any user holds the given email.
func (r *MemoryUserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.emailTakenLocked(email, 0), nil
}

// emailTakenLocked reports whether a user other than exceptID holds email.
// Callers must hold r.mu.
func (r *MemoryUserRepository) emailTakenLocked(email string, exceptID uint) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
