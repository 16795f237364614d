package resettoken

import (
	"context"
	c "resetme/internal/core/domain/common"
	"resetme/internal/core/domain/user"
	"time"
)

type CreateInput struct {
	UserID           user.ID
	TokenHash        TokenHash
	CreatedAt        time.Time
	ExpiresAt        time.Time
	RequestIP        c.Optional[string]
	RequestUserAgent c.Optional[string]
}

type Repository interface {
	Create(ctx context.Context, input CreateInput) (ResetToken, error)
	GetByHash(ctx context.Context, hash TokenHash) (ResetToken, error)

	// RegisterAttempt increments the attempt counter and records the
	// attempt time.
	RegisterAttempt(ctx context.Context, id ID, at time.Time) error

	// MarkUsed flips used=false to used=true as a single conditional
	// update. Returns ErrTokenAlreadyUsed when the flag was already set,
	// concurrent callers race for exactly one success.
	MarkUsed(ctx context.Context, id ID, at time.Time) error

	// InvalidateAllForUser marks every live token of the user as used and
	// returns the number of tokens invalidated.
	InvalidateAllForUser(ctx context.Context, userID user.ID, at time.Time) (int64, error)
}
