package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"seller-users/internal/domain"
	"seller-users/internal/repository"
)

// UserService describes seller-scoped user lifecycle operations.
type UserService interface {
	Create(ctx context.Context, sellerID int64, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, sellerID int64, id string) (*domain.User, error)
	Update(ctx context.Context, sellerID int64, id string, patch domain.UserPatch) (*domain.User, error)
	SoftDelete(ctx context.Context, sellerID int64, id string) (*domain.User, error)
	List(ctx context.Context, sellerID int64, query domain.ListQuery) (*domain.UserPage, error)
}

type userService struct {
	users  repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, logger *logrus.Logger) UserService {
	return &userService{users: users, logger: logger}
}

func (s *userService) Create(ctx context.Context, sellerID int64, user *domain.User) (*domain.User, error) {
	user.ID = uuid.NewString()
	user.SellerID = sellerID

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.WithFields(logrus.Fields{
				"seller_id": sellerID,
				"email":     user.Email,
			}).Warn("duplicate user creation attempt")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"seller_id": sellerID,
		"email":     user.Email,
	}).Info("user created")
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, sellerID int64, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, sellerID, id)
}

func (s *userService) Update(ctx context.Context, sellerID int64, id string, patch domain.UserPatch) (*domain.User, error) {
	user, err := s.users.Update(ctx, sellerID, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   id,
		"seller_id": sellerID,
	}).Info("user updated")
	return user, nil
}

// SoftDelete marks the record inactive through the same partial-update path,
// so updated_at refreshes exactly like any other mutation.
func (s *userService) SoftDelete(ctx context.Context, sellerID int64, id string) (*domain.User, error) {
	inactive := false
	user, err := s.users.Update(ctx, sellerID, id, domain.UserPatch{IsActive: &inactive})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   id,
		"seller_id": sellerID,
	}).Info("user soft deleted")
	return user, nil
}

func (s *userService) List(ctx context.Context, sellerID int64, query domain.ListQuery) (*domain.UserPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = domain.DefaultPageSize
	}

	users, total, err := s.users.List(ctx, sellerID, query)
	if err != nil {
		return nil, err
	}

	totalPages := (total + query.PageSize - 1) / query.PageSize
	return &domain.UserPage{
		Users:       users,
		TotalCount:  total,
		Page:        query.Page,
		PageSize:    query.PageSize,
		TotalPages:  totalPages,
		HasNext:     query.Page < totalPages,
		HasPrevious: query.Page > 1,
	}, nil
}
