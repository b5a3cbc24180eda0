package user

import (
	"regexp"

	"github.com/go-faster/errors"
)

// MinPasswordLength is the shortest password accepted on create and reset.
const MinPasswordLength = 8

var (
	ErrInvalidUsername = errors.New("username must be 3-32 characters of a-z, 0-9, '.', '_' or '-'")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidRole     = errors.New("unknown role")
)

var usernameRe = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)

// ValidateNew checks a NewUser before it is sent to the backend.
func ValidateNew(u NewUser) error {
	if !usernameRe.MatchString(u.Username) {
		return ErrInvalidUsername
	}
	if !u.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", u.Role)
	}
	return ValidatePassword(u.Password)
}

// ValidateUpdate checks an edited User before it is sent to the backend.
func ValidateUpdate(u User) error {
	if !usernameRe.MatchString(u.Username) {
		return ErrInvalidUsername
	}
	if !u.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", u.Role)
	}
	return nil
}

// ValidatePassword enforces MinPasswordLength.
func ValidatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
