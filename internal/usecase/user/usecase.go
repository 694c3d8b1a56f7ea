package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-console/internal/domain/user"
	pkgerrors "user-console/pkg/errors"
)

// Usecase implements the business rules of the reference backend.
type Usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

var _ Service = (*Usecase)(nil)

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a human-readable error.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewValidationError("", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError("", "validation failed: "+strings.Join(messages, ", "))
}

func invalidID(id int64) error {
	if id <= 0 {
		return pkgerrors.NewValidationError("id", "invalid user id")
	}
	return nil
}

// ensureEmailFree fails when email belongs to a user other than id.
func (uc *Usecase) ensureEmailFree(ctx context.Context, email string, id int64) error {
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		uc.log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil && existing.ID != id {
		uc.log.Warn("email already exists", zap.String("email", email), zap.Int64("existing_id", existing.ID))
		return pkgerrors.NewAlreadyExistsError("user", "email already exists")
	}
	return nil
}

// CreateUser creates a new user after validating the input and checking email uniqueness.
func (uc *Usecase) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	uc.log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := uc.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	id, err := uc.repo.Create(ctx, in.toDomain(0))
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}
	return in.toDomain(id), nil
}

// UpdateUser replaces the name, email and password of an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, id int64, in UserInput) (*domain.User, error) {
	uc.log.Info("updating user", zap.Int64("id", id), zap.String("name", in.Name), zap.String("email", in.Email))

	if err := invalidID(id); err != nil {
		return nil, err
	}
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := uc.ensureEmailFree(ctx, in.Email, id); err != nil {
		return nil, err
	}

	u := in.toDomain(id)
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Warn("failed to update user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// DeleteUser deletes a user.
func (uc *Usecase) DeleteUser(ctx context.Context, id int64) error {
	uc.log.Info("deleting user", zap.Int64("id", id))

	if err := invalidID(id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.log.Warn("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if err := invalidID(id); err != nil {
		return nil, err
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		uc.log.Debug("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// ListUsers returns every user.
func (uc *Usecase) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
