package user

import domain "user-console/internal/domain/user"

// UserInput is the payload accepted by create and update. Update replaces every field.
type UserInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

func (in UserInput) toDomain(id int64) *domain.User {
	return &domain.User{
		ID:       id,
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	}
}
