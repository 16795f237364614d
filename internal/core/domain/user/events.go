package user

import (
	"context"
	c "resetme/internal/core/domain/common"
	"time"
)

type PasswordChangedEvent struct {
	UserID ID
	Email  c.Email
	At     time.Time
}

type SecurityEventPublisher interface {
	PublishPasswordChanged(ctx context.Context, event PasswordChangedEvent) error
}
