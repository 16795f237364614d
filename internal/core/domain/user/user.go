package user

import (
	c "resetme/internal/core/domain/common"
	"time"
)

type ID int64

type PasswordHash string

func (p PasswordHash) String() string {
	return "***"
}

type RawPassword string

func (p RawPassword) String() string {
	return "***"
}

// MinPasswordLength is the minimum accepted length of a new password.
const MinPasswordLength = 6

type User struct {
	ID           ID
	Email        c.Email
	Name         string
	PasswordHash PasswordHash
	CreatedAt    time.Time
	UpdatedAt    c.Optional[time.Time]

	// Rolling-window counters for password reset requests, see
	// services/request_password_reset.
	ResetRequestCount  uint32
	LastResetRequestAt c.Optional[time.Time]
}

type PasswordHasher interface {
	HashPassword(password RawPassword) (PasswordHash, error)
	ValidatePassword(password RawPassword, hash PasswordHash) bool
}
