package user

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Draft holds the editable fields of a user that are not yet confirmed by the backend.
// It never carries an ID and is never shared with a displayed User.
type Draft struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// EmptyDraft returns a draft with all fields blank.
func EmptyDraft() Draft {
	return Draft{}
}

// DraftFrom copies the editable fields of u into a new draft.
func DraftFrom(u User) Draft {
	return Draft{
		Name:     u.Name,
		Email:    u.Email,
		Password: u.Password,
	}
}

// SetName replaces the draft name.
func (d *Draft) SetName(name string) { d.Name = name }

// SetEmail replaces the draft email.
func (d *Draft) SetEmail(email string) { d.Email = email }

// SetPassword replaces the draft password.
func (d *Draft) SetPassword(password string) { d.Password = password }

// Validate reports whether every field is filled in.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s is required", verrs[0].Field())
		}
		return err
	}
	return nil
}
