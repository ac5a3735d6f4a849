package personnel

import (
	"time"

	"github.com/google/uuid"
)

// Person is an external project member paid through balances. Personnel never log in.
type Person struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	NationalID *string   `json:"national_id"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	IBAN       *string   `json:"iban"`
	Notes      *string   `json:"notes"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Filter struct {
	Active *bool
	Query  string
}

type CreateParams struct {
	FullName   string
	NationalID *string
	Email      *string
	Phone      *string
	IBAN       *string
	Notes      *string
}

type UpdateParams struct {
	FullName   *string
	NationalID *string
	Email      *string
	Phone      *string
	IBAN       *string
	Notes      *string
	IsActive   *bool
}
