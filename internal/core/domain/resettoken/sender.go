package resettoken

import (
	"context"
	c "resetme/internal/core/domain/common"
)

// Sender delivers the plaintext token out of band, e.g. via email.
type Sender interface {
	SendToken(ctx context.Context, email c.Email, token PlainToken) error
}
