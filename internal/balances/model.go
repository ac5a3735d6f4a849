package balances

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
)

type Balance struct {
	ID        uuid.UUID       `json:"id"`
	Owner     domain.Owner    `json:"owner"`
	OwnerName string          `json:"owner_name"`
	Available decimal.Decimal `json:"available_amount"`
	Debt      decimal.Decimal `json:"debt_amount"`
	Reserved  decimal.Decimal `json:"reserved_amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (b Balance) State() ledger.Balance {
	return ledger.Balance{Available: b.Available, Debt: b.Debt, Reserved: b.Reserved}
}

// Transaction is one ledger row; Amount is signed only for adjustments.
type Transaction struct {
	ID              uuid.UUID              `json:"id"`
	BalanceID       uuid.UUID              `json:"balance_id"`
	Type            domain.TransactionType `json:"type"`
	Amount          decimal.Decimal        `json:"amount"`
	AvailableBefore decimal.Decimal        `json:"available_before"`
	AvailableAfter  decimal.Decimal        `json:"available_after"`
	DebtBefore      decimal.Decimal        `json:"debt_before"`
	DebtAfter       decimal.Decimal        `json:"debt_after"`
	ReferenceType   *string                `json:"reference_type"`
	ReferenceID     *uuid.UUID             `json:"reference_id"`
	Description     string                 `json:"description"`
	CreatedBy       *uuid.UUID             `json:"created_by"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Reference types stored on transactions.
const (
	RefIncome     = "income"
	RefExpense    = "expense"
	RefPayment    = "payment_instruction"
	RefAdjustment = "adjustment"
)

// Entry describes one balance mutation.
type Entry struct {
	Type          domain.TransactionType
	Amount        decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
	Description   string
	CreatedBy     *uuid.UUID
}

type Filter struct {
	OwnerType *domain.OwnerType
	// NonZero hides balances with nothing available, owed or reserved.
	NonZero bool
}
