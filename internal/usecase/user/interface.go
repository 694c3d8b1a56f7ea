package user

import (
	"context"

	domain "user-console/internal/domain/user"
)

// Service defines the user operations served by the reference backend.
type Service interface {
	CreateUser(ctx context.Context, in UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, in UserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Repository defines the interface for user data access operations.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)          // Create a new user
	GetByID(ctx context.Context, id int64) (*domain.User, error)        // Retrieve user by ID, NotFoundError when absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error) // Retrieve user by email, nil when absent
	Update(ctx context.Context, u *domain.User) error                   // Replace an existing user
	Delete(ctx context.Context, id int64) error                         // Delete user by ID
	List(ctx context.Context) ([]domain.User, error)                    // List every user
}
