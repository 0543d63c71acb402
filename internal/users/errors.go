package users

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrMissingEmail  = errors.New("email is required")
	ErrNoFields      = errors.New("no fields to update")
	ErrEmailConflict = errors.New("user with this email already exists")
)
