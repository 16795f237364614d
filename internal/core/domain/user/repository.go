package user

import (
	"context"
	c "resetme/internal/core/domain/common"
	"time"
)

type CreateUserInput struct {
	Email        c.Email
	Name         string
	PasswordHash PasswordHash
	CreatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, input CreateUserInput) (User, error)
	GetByID(ctx context.Context, id ID) (User, error)
	GetByEmail(ctx context.Context, email c.Email) (User, error)
	SetPassword(ctx context.Context, id ID, password PasswordHash, at time.Time) error

	// IncrementResetRequests bumps the reset request counter and anchors
	// the rate window. Must be a single atomic update at the storage
	// layer, concurrent requests must not undercount.
	IncrementResetRequests(ctx context.Context, id ID, at time.Time) error

	// ClearResetRequests zeroes the counter and clears the window anchor.
	ClearResetRequests(ctx context.Context, id ID) error
}
