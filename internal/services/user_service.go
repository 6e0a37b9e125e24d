package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"userapi/internal/models"
	"userapi/internal/repositories"
)

// Domain errors returned by UserService.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)

// UserService handles business logic related to users.
type UserService struct {
	repo      repositories.UserRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(repo repositories.UserRepository, publisher EventPublisher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateUser creates a new user after checking the email is free.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// The unique index is the final authority when two creates race.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID)
	s.publish(ctx, newUserEvent(EventUserCreated, user))
	return user, nil
}

// ListUsers retrieves a window of users.
func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]models.User, error) {
	return s.repo.GetAll(ctx, skip, limit)
}

// GetUserByID retrieves a single user by its ID.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAbsent() {
		return nil, ErrUserNotFound
	}
	return user.MustGet(), nil
}

// UpdateUser applies the fields present in req to the user.
func (s *UserService) UpdateUser(ctx context.Context, id uint, req models.UpdateUserRequest) (*models.User, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	fields := req.Fields()
	if email, ok := fields["email"].(string); ok {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner, found := existing.Get(); found && owner.ID != id {
			return nil, ErrEmailAlreadyRegistered
		}
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	user, ok := updated.Get()
	if !ok {
		// Deleted between the existence check and the write.
		return nil, ErrUserNotFound
	}

	s.logger.Info("user updated", "user_id", user.ID, "fields", len(fields))
	s.publish(ctx, newUserEvent(EventUserUpdated, user))
	return user, nil
}

// DeleteUser deletes a user by its ID.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.logger.Info("user deleted", "user_id", id)
	s.publish(ctx, newUserEvent(EventUserDeleted, &models.User{ID: id}))
	return nil
}
