package repository

import (
	"context"

	"seller-users/internal/domain"
)

// UserRepository defines persistence operations for seller-scoped User
// entities. Every operation is bound to one seller; records of other sellers
// are invisible even with a correct id.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, sellerID int64, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, sellerID int64, email string) (*domain.User, error)
	Update(ctx context.Context, sellerID int64, id string, patch domain.UserPatch) (*domain.User, error)
	List(ctx context.Context, sellerID int64, query domain.ListQuery) ([]domain.User, int, error)
}
