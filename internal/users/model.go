package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

// User mirrors the `users` table. PasswordHash never leaves the API.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Role         domain.Role `json:"role"`
	PasswordHash string      `json:"-"`
	IBAN         *string     `json:"iban"`
	Phone        *string     `json:"phone"`
	IsActive     bool        `json:"is_active"`
	LastLoginAt  *time.Time  `json:"last_login_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Filter struct {
	Role   *domain.Role
	Active *bool
	Query  string
}

type CreateParams struct {
	Email        string
	FullName     string
	Role         domain.Role
	PasswordHash string
	IBAN         *string
	Phone        *string
}

// UpdateParams is a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Email    *string
	FullName *string
	Role     *domain.Role
	IBAN     *string
	Phone    *string
	IsActive *bool
}
