package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

// Contract is a supplementary contract amending a project's end date or budget.
// Previous values are kept so the latest amendment can be reverted.
type Contract struct {
	ID               uuid.UUID       `json:"id"`
	ProjectID        uuid.UUID       `json:"project_id"`
	AmendmentDate    util.Date       `json:"amendment_date"`
	NewEndDate       *util.Date      `json:"new_end_date"`
	AdditionalBudget decimal.Decimal `json:"additional_budget"`
	PreviousEndDate  *util.Date      `json:"previous_end_date"`
	PreviousBudget   decimal.Decimal `json:"previous_budget"`
	Description      string          `json:"description"`
	CreatedBy        *uuid.UUID      `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}
