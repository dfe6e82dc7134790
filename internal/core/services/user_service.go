package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

type UserService struct {
	directory domain.UserDirectory
	cache     domain.WeeklyCache
	log       logger.Logger
}

// NewUserService takes a nil cache when caching is off.
func NewUserService(directory domain.UserDirectory, cache domain.WeeklyCache, log logger.Logger) *UserService {
	return &UserService{
		directory: directory,
		cache:     cache,
		log:       log,
	}
}

type CreateUserInput struct {
	Name   string
	Age    int
	Height float64
	Sex    string
	Email  string
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	in, err := domain.NewUserInput(input.Name, input.Age, input.Height, input.Sex, input.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.directory.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"name":    user.Name,
	}).Infof("user created")
	return user, nil
}

func (s *UserService) Update(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if err := patch.Normalize(); err != nil {
		return nil, err
	}

	user, err := s.directory.UpdateUser(ctx, userID, &patch)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", userID).Infof("user updated")
	return user, nil
}

// Delete removes the user and drops every cached week they own.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return err
	}

	if err := s.directory.DeleteUser(ctx, userID); err != nil {
		return err
	}

	if s.cache != nil {
		for _, metric := range domain.Metrics {
			if err := s.cache.Invalidate(ctx, userID, metric); err != nil {
				s.log.WithError(err).WithField("user_id", userID).Warnf("failed to invalidate %s cache", metric)
			}
		}
	}

	s.log.WithField("user_id", userID).Infof("user deleted")
	return nil
}
