package services_test

import (
	"fmt"
	"testing"

	"userapi/internal/models"
	"userapi/internal/repositories"
	"userapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryService() (*services.UserService, *repositories.MemoryUserRepository) {
	repo := repositories.NewMemoryUserRepository()
	return services.NewUserService(repo, nil, testLogger), repo
}

func seedUsers(t *testing.T, service *services.UserService, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := service.CreateUser(ctx, models.CreateUserRequest{
			Name:  fmt.Sprintf("User %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

func TestUserService_DuplicateEmailAddsNoRow(t *testing.T) {
	service, _ := newMemoryService()
	seedUsers(t, service, 1)

	_, err := service.CreateUser(ctx, models.CreateUserRequest{Name: "Again", Email: "user0@example.com"})
	assert.ErrorIs(t, err, services.ErrEmailAlreadyRegistered)

	all, err := service.ListUsers(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserService_MissingIDsAreNotFound(t *testing.T) {
	service, _ := newMemoryService()
	seedUsers(t, service, 2)

	for _, id := range []uint{0, 3, 1000} {
		_, err := service.GetUserByID(ctx, id)
		assert.ErrorIs(t, err, services.ErrUserNotFound)

		_, err = service.UpdateUser(ctx, id, models.UpdateUserRequest{Name: strPtr("X")})
		assert.ErrorIs(t, err, services.ErrUserNotFound)

		assert.ErrorIs(t, service.DeleteUser(ctx, id), services.ErrUserNotFound)
	}
}

func TestUserService_PartialUpdateChangesOnlyName(t *testing.T) {
	service, _ := newMemoryService()
	original := seedUsers(t, service, 1)[0]
	require.Nil(t, original.UpdatedAt)

	updated, err := service.UpdateUser(ctx, original.ID, models.UpdateUserRequest{Name: strPtr("X")})
	require.NoError(t, err)

	assert.Equal(t, "X", updated.Name)
	assert.Equal(t, original.Email, updated.Email)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.NotNil(t, updated.UpdatedAt)
}

func TestUserService_UpdateEmailConflict(t *testing.T) {
	service, _ := newMemoryService()
	users := seedUsers(t, service, 2)

	_, err := service.UpdateUser(ctx, users[0].ID, models.UpdateUserRequest{Email: strPtr(users[1].Email)})
	assert.ErrorIs(t, err, services.ErrEmailAlreadyRegistered)

	unchanged, err := service.GetUserByID(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, users[0].Email, unchanged.Email)
}

func TestUserService_DeleteTwiceIsNotFound(t *testing.T) {
	service, _ := newMemoryService()
	user := seedUsers(t, service, 1)[0]

	require.NoError(t, service.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, service.DeleteUser(ctx, user.ID), services.ErrUserNotFound)
}

func TestUserService_PaginationPartitionsResults(t *testing.T) {
	service, _ := newMemoryService()
	seedUsers(t, service, 7)

	all, err := service.ListUsers(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 7)

	for _, n := range []int{1, 2, 3, 5, 7, 10} {
		first, err := service.ListUsers(ctx, 0, n)
		require.NoError(t, err)
		second, err := service.ListUsers(ctx, n, n)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(first), n)
		assert.LessOrEqual(t, len(second), n)

		combined := append(append([]models.User{}, first...), second...)
		end := 2 * n
		if end > len(all) {
			end = len(all)
		}
		assert.Equal(t, all[:end], combined, "windows of %d", n)
	}

	empty, err := service.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	beyond, err := service.ListUsers(ctx, 50, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}
