package expenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type Expense struct {
	ID          uuid.UUID          `json:"id"`
	ProjectID   uuid.UUID          `json:"project_id"`
	ProjectCode string             `json:"project_code"`
	Amount      decimal.Decimal    `json:"amount"`
	ExpenseDate util.Date          `json:"expense_date"`
	ExpenseType domain.ExpenseType `json:"expense_type"`
	Description string             `json:"description"`
	CreatedBy   *uuid.UUID         `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
}

type Filter struct {
	ProjectID    *uuid.UUID
	Type         *domain.ExpenseType
	From         *util.Date
	To           *util.Date
	MemberUserID *uuid.UUID
}
