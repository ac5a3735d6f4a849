package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

// Instruction is a payout request against one balance.
type Instruction struct {
	ID                uuid.UUID            `json:"id"`
	InstructionNumber string               `json:"instruction_number"`
	BalanceID         uuid.UUID            `json:"balance_id"`
	Owner             domain.Owner         `json:"owner"`
	OwnerName         string               `json:"owner_name"`
	Amount            decimal.Decimal      `json:"amount"`
	IBAN              string               `json:"iban"`
	Status            domain.PaymentStatus `json:"status"`
	Description       string               `json:"description"`
	StatusNote        string               `json:"status_note"`
	CreatedBy         *uuid.UUID           `json:"created_by"`
	ProcessedBy       *uuid.UUID           `json:"processed_by"`
	ProcessedAt       *time.Time           `json:"processed_at"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type Filter struct {
	Status *domain.PaymentStatus
	Owner  *domain.Owner
}
