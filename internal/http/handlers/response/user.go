package response

import (
	"resetme/internal/core/domain/user"
	"time"
)

// User is the public profile. The password hash never leaves the
// domain layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) FromDomainUser(du user.User) {
	u.ID = int64(du.ID)
	u.Email = string(du.Email)
	u.Name = du.Name
	u.CreatedAt = du.CreatedAt
}
