package user

import (
	"errors"
)

var (
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrUserDoesNotExist    = errors.New("user does not exist")
	ErrPasswordRequired    = errors.New("new password is required")
	ErrPasswordsDoNotMatch = errors.New("passwords do not match")
	ErrPasswordTooShort    = errors.New("password is too short")

	// ErrResetRateLimited is internal only, the request operation folds it
	// into a generic success so callers cannot probe the limiter.
	ErrResetRateLimited = errors.New("password reset rate limit exceeded")
)
