package user

import (
	"strings"
	"unicode/utf8"
)

// MaskRune is the character used to hide a password in read-only views.
const MaskRune = '•'

// User represents a user resource as returned by the backend.
type User struct {
	ID       int64  `json:"id"`       // ID is assigned by the backend and never changes
	Name     string `json:"name"`     // Name is the display name of the user
	Email    string `json:"email"`    // Email is the contact address of the user
	Password string `json:"password"` // Password is kept and shown in plain text by the backend contract
}

// MaskedPassword returns the user's password hidden behind mask characters.
func (u User) MaskedPassword() string {
	return MaskPassword(u.Password)
}

// MaskPassword returns one MaskRune per character of p.
func MaskPassword(p string) string {
	return strings.Repeat(string(MaskRune), utf8.RuneCountInString(p))
}
