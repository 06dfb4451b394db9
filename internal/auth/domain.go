package auth

import (
	"time"

	"github.com/atelier-web/atelier/internal/gate"
)

// User represents an account able to sign in to the admin surface.
type User struct {
	ID            int64
	Email         string
	Name          string
	PasswordHash  string
	Role          gate.Role
	EmailVerified bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Principal maps the user onto the gate's identity model.
func (u *User) Principal() gate.Principal {
	return gate.Principal{ID: u.ID, Role: u.Role, EmailVerified: u.EmailVerified}
}
