package resettoken

import (
	"errors"
)

var (
	ErrTokenRequired     = errors.New("reset token is required")
	ErrTokenInvalid      = errors.New("invalid reset token")
	ErrTokenDoesNotExist = errors.New("reset token does not exist")
	ErrTokenAlreadyUsed  = errors.New("reset token has already been used")
	ErrTokenExpired      = errors.New("reset token has expired")
	ErrTooManyAttempts   = errors.New("too many attempts for reset token")

	ErrTokenHashAlreadyExists = errors.New("reset token hash already exists")
)
