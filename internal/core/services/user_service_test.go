package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
	"github.com/comitanigiacomo/kanso-pulse/internal/core/services"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) CreateUser(ctx context.Context, in *domain.UserInput) (*domain.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) UpdateUser(ctx context.Context, userID string, patch *domain.UserPatch) (*domain.User, error) {
	args := m.Called(ctx, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: normalized input reaches the directory", func(t *testing.T) {
		dir := new(MockUserDirectory)
		svc := services.NewUserService(dir, nil, logger.Discard())

		dir.On("CreateUser", ctx, &domain.UserInput{Name: "marta", Age: 31, Height: 168.5, Sex: "F", Email: "marta@example.com"}).
			Return(&domain.User{ID: 7, Name: "marta"}, nil)

		user, err := svc.Create(ctx, services.CreateUserInput{Name: " marta ", Age: 31, Height: 168.5, Sex: "F", Email: "Marta@Example.com"})

		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		dir.AssertExpectations(t)
	})

	t.Run("Fail: invalid input never reaches the directory", func(t *testing.T) {
		dir := new(MockUserDirectory)
		svc := services.NewUserService(dir, nil, logger.Discard())

		_, err := svc.Create(ctx, services.CreateUserInput{Name: "marta", Age: 31, Height: 168.5, Sex: "F", Email: "not-an-email"})

		assert.ErrorIs(t, err, domain.ErrInvalidUser)
		dir.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Fail: taken name", func(t *testing.T) {
		dir := new(MockUserDirectory)
		svc := services.NewUserService(dir, nil, logger.Discard())

		dir.On("CreateUser", ctx, mock.Anything).Return(nil, domain.ErrUserExists)

		_, err := svc.Create(ctx, services.CreateUserInput{Name: "marta", Age: 31, Height: 168.5, Sex: "F", Email: "marta@example.com"})

		assert.ErrorIs(t, err, domain.ErrUserExists)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		dir := new(MockUserDirectory)
		svc := services.NewUserService(dir, nil, logger.Discard())

		dir.On("UpdateUser", ctx, "7", mock.MatchedBy(func(p *domain.UserPatch) bool {
			return p.Name != nil && *p.Name == "marta" && p.Age == nil
		})).Return(&domain.User{ID: 7, Name: "marta"}, nil)

		name := "  marta "
		user, err := svc.Update(ctx, " 7 ", domain.UserPatch{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "marta", user.Name)
		dir.AssertExpectations(t)
	})

	t.Run("Fail: empty patch", func(t *testing.T) {
		dir := new(MockUserDirectory)
		svc := services.NewUserService(dir, nil, logger.Discard())

		_, err := svc.Update(ctx, "7", domain.UserPatch{})

		assert.ErrorIs(t, err, domain.ErrEmptyPatch)
		dir.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Fail: unknown user", func(t *testing.T) {
		dir := new(MockUserDirectory)
		svc := services.NewUserService(dir, nil, logger.Discard())

		dir.On("UpdateUser", ctx, "ghost", mock.Anything).Return(nil, domain.ErrUserNotFound)

		age := 40
		_, err := svc.Update(ctx, "ghost", domain.UserPatch{Age: &age})

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: every metric cache is invalidated", func(t *testing.T) {
		dir := new(MockUserDirectory)
		cache := new(MockWeeklyCache)
		svc := services.NewUserService(dir, cache, logger.Discard())

		dir.On("DeleteUser", ctx, "7").Return(nil)
		for _, metric := range domain.Metrics {
			cache.On("Invalidate", ctx, "7", metric).Return(nil).Once()
		}

		require.NoError(t, svc.Delete(ctx, "7"))
		dir.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("Success: a broken cache does not fail the delete", func(t *testing.T) {
		dir := new(MockUserDirectory)
		cache := new(MockWeeklyCache)
		svc := services.NewUserService(dir, cache, logger.Discard())

		dir.On("DeleteUser", ctx, "7").Return(nil)
		cache.On("Invalidate", ctx, "7", mock.Anything).Return(errors.New("redis down"))

		assert.NoError(t, svc.Delete(ctx, "7"))
	})

	t.Run("Fail: unknown user leaves the cache alone", func(t *testing.T) {
		dir := new(MockUserDirectory)
		cache := new(MockWeeklyCache)
		svc := services.NewUserService(dir, cache, logger.Discard())

		dir.On("DeleteUser", ctx, "ghost").Return(domain.ErrUserNotFound)

		assert.ErrorIs(t, svc.Delete(ctx, "ghost"), domain.ErrUserNotFound)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Fail: blank id", func(t *testing.T) {
		svc := services.NewUserService(new(MockUserDirectory), nil, logger.Discard())

		assert.ErrorIs(t, svc.Delete(ctx, "  "), domain.ErrUserIDRequired)
	})
}
