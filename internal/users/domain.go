package users

import (
	"time"

	"github.com/atelier-web/atelier/internal/gate"
)

// User is an account visible to administrators. The password hash never
// leaves the repository layer.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          gate.Role `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
