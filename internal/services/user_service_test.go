package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"userapi/internal/models"
	"userapi/internal/repositories"
	"userapi/internal/services"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (mo.Option[*models.User], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.User](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.User]), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context, offset, limit int) ([]models.User, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uint, fields map[string]any) (mo.Option[*models.User], error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return mo.None[*models.User](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.User]), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (mo.Option[*models.User], error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return mo.None[*models.User](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.User]), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

var (
	ctx        = context.Background()
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func strPtr(s string) *string { return &s }

func TestUserService_CreateUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	req := models.CreateUserRequest{Name: "Test User", Email: "test@example.com"}

	// Test successful creation
	mockRepo.On("EmailExists", ctx, req.Email).Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 1
		}).
		Return(nil).Once()

	user, err := service.CreateUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, req.Name, user.Name)
	assert.Equal(t, req.Email, user.Email)
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("EmailExists", ctx, req.Email).Return(true, nil).Once()
	user, err = service.CreateUser(ctx, req)
	assert.ErrorIs(t, err, services.ErrEmailAlreadyRegistered)
	assert.Nil(t, user)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_LostRaceMapsToConflict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	req := models.CreateUserRequest{Name: "Racer", Email: "race@example.com"}
	mockRepo.On("EmailExists", ctx, req.Email).Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("failed to create user: %w", repositories.ErrDuplicateKey)).Once()

	_, err := service.CreateUser(ctx, req)
	assert.ErrorIs(t, err, services.ErrEmailAlreadyRegistered)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_StoreError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	mockRepo.On("EmailExists", ctx, "a@example.com").Return(false, fmt.Errorf("database error")).Once()

	_, err := service.CreateUser(ctx, models.CreateUserRequest{Name: "A", Email: "a@example.com"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	assert.NotErrorIs(t, err, services.ErrEmailAlreadyRegistered)
	mockRepo.AssertExpectations(t)
}

func TestUserService_ListUsers(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	expectedUsers := []models.User{
		{ID: 1, Name: "User A", Email: "a@example.com"},
		{ID: 2, Name: "User B", Email: "b@example.com"},
	}
	mockRepo.On("GetAll", ctx, 0, 100).Return(expectedUsers, nil).Once()

	users, err := service.ListUsers(ctx, 0, 100)
	assert.NoError(t, err)
	assert.Equal(t, expectedUsers, users)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUserByID(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	expectedUser := &models.User{ID: 1, Name: "User A", Email: "a@example.com"}

	// Test successful retrieval
	mockRepo.On("GetByID", ctx, uint(1)).Return(mo.Some(expectedUser), nil).Once()
	user, err := service.GetUserByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedUser, user)

	// Test user not found
	mockRepo.On("GetByID", ctx, uint(99)).Return(mo.None[*models.User](), nil).Once()
	user, err = service.GetUserByID(ctx, 99)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	assert.Nil(t, user)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	updated := &models.User{ID: 1, Name: "Updated User", Email: "a@example.com"}

	// Name only: no email lookup happens
	mockRepo.On("Exists", ctx, uint(1)).Return(true, nil).Once()
	mockRepo.On("Update", ctx, uint(1), map[string]any{"name": "Updated User"}).Return(mo.Some(updated), nil).Once()

	user, err := service.UpdateUser(ctx, 1, models.UpdateUserRequest{Name: strPtr("Updated User")})
	require.NoError(t, err)
	assert.Equal(t, updated, user)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	mockRepo.On("Exists", ctx, uint(99)).Return(false, nil).Once()

	_, err := service.UpdateUser(ctx, 99, models.UpdateUserRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_EmailConflict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	other := &models.User{ID: 2, Name: "Other", Email: "taken@example.com"}
	mockRepo.On("Exists", ctx, uint(1)).Return(true, nil).Once()
	mockRepo.On("GetByEmail", ctx, "taken@example.com").Return(mo.Some(other), nil).Once()

	_, err := service.UpdateUser(ctx, 1, models.UpdateUserRequest{Email: strPtr("taken@example.com")})
	assert.ErrorIs(t, err, services.ErrEmailAlreadyRegistered)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_OwnEmailIsAllowed(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	self := &models.User{ID: 1, Name: "Self", Email: "self@example.com"}
	fields := map[string]any{"email": "self@example.com"}
	mockRepo.On("Exists", ctx, uint(1)).Return(true, nil).Once()
	mockRepo.On("GetByEmail", ctx, "self@example.com").Return(mo.Some(self), nil).Once()
	mockRepo.On("Update", ctx, uint(1), fields).Return(mo.Some(self), nil).Once()

	user, err := service.UpdateUser(ctx, 1, models.UpdateUserRequest{Email: strPtr("self@example.com")})
	assert.NoError(t, err)
	assert.Equal(t, self, user)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_ConcurrentDelete(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	mockRepo.On("Exists", ctx, uint(1)).Return(true, nil).Once()
	mockRepo.On("Update", ctx, uint(1), map[string]any{"name": "Gone"}).Return(mo.None[*models.User](), nil).Once()

	_, err := service.UpdateUser(ctx, 1, models.UpdateUserRequest{Name: strPtr("Gone")})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewUserService(mockRepo, nil, testLogger)

	// Test successful deletion
	mockRepo.On("Delete", ctx, uint(1)).Return(true, nil).Once()
	assert.NoError(t, service.DeleteUser(ctx, 1))

	// Test deletion of a missing user
	mockRepo.On("Delete", ctx, uint(99)).Return(false, nil).Once()
	assert.ErrorIs(t, service.DeleteUser(ctx, 99), services.ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}

func TestUserService_PublishesEvents(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	service := services.NewUserService(mockRepo, mockPublisher, testLogger)

	mockRepo.On("EmailExists", ctx, "ev@example.com").Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = 7 }).
		Return(nil).Once()
	mockRepo.On("Delete", ctx, uint(7)).Return(true, nil).Once()

	var created services.UserEvent
	mockPublisher.On("Publish", ctx, services.EventUserCreated, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &created))
		}).
		Return(nil).Once()
	// A failing publisher must not fail the request.
	mockPublisher.On("Publish", ctx, services.EventUserDeleted, mock.Anything).
		Return(fmt.Errorf("broker unavailable")).Once()

	_, err := service.CreateUser(ctx, models.CreateUserRequest{Name: "Ev", Email: "ev@example.com"})
	require.NoError(t, err)
	assert.Equal(t, services.EventUserCreated, created.Type)
	assert.Equal(t, uint(7), created.UserID)
	assert.Equal(t, "ev@example.com", created.Email)
	assert.NotEmpty(t, created.ID)

	assert.NoError(t, service.DeleteUser(ctx, 7))

	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}
