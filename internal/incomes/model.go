package incomes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

// Income is one invoice issued for a project. Gross includes VAT.
type Income struct {
	ID                  uuid.UUID           `json:"id"`
	ProjectID           uuid.UUID           `json:"project_id"`
	ProjectCode         string              `json:"project_code"`
	InvoiceNumber       *string             `json:"invoice_number"`
	InvoiceDate         util.Date           `json:"invoice_date"`
	GrossAmount         decimal.Decimal     `json:"gross_amount"`
	VATRate             decimal.Decimal     `json:"vat_rate"`
	VATAmount           decimal.Decimal     `json:"vat_amount"`
	NetAmount           decimal.Decimal     `json:"net_amount"`
	CommissionRate      decimal.Decimal     `json:"commission_rate"`
	CommissionAmount    decimal.Decimal     `json:"commission_amount"`
	DistributableAmount decimal.Decimal     `json:"distributable_amount"`
	CollectedAmount     decimal.Decimal     `json:"collected_amount"`
	Status              domain.IncomeStatus `json:"status"`
	CollectionDate      *util.Date          `json:"collection_date"`
	Description         string              `json:"description"`
	CreatedBy           *uuid.UUID          `json:"created_by"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	Distributions []Distribution `json:"distributions,omitempty"`
	Commissions   []Commission   `json:"commissions,omitempty"`
}

// StatusFor derives the collection status from the collected amount.
func StatusFor(gross, collected decimal.Decimal) domain.IncomeStatus {
	switch {
	case !collected.IsPositive():
		return domain.IncomePending
	case collected.LessThan(gross):
		return domain.IncomePartial
	}
	return domain.IncomeCollected
}

// Distribution is the planned share of an income for one representative.
type Distribution struct {
	ID                uuid.UUID       `json:"id"`
	IncomeID          uuid.UUID       `json:"income_id"`
	Owner             domain.Owner    `json:"owner"`
	OwnerName         string          `json:"owner_name"`
	SharePercentage   decimal.Decimal `json:"share_percentage"`
	Amount            decimal.Decimal `json:"amount"`
	DistributedAmount decimal.Decimal `json:"distributed_amount"`
}

// Commission is the TTO commission booked for one collection.
type Commission struct {
	ID          uuid.UUID       `json:"id"`
	IncomeID    uuid.UUID       `json:"income_id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	ProjectCode string          `json:"project_code,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Filter struct {
	ProjectID *uuid.UUID
	Status    *domain.IncomeStatus
	From      *util.Date
	To        *util.Date
	// MemberUserID limits results to projects the user represents.
	MemberUserID *uuid.UUID
}

type CommissionFilter struct {
	ProjectID *uuid.UUID
	From      *util.Date
	To        *util.Date
}

type UpdateParams struct {
	InvoiceNumber *string
	InvoiceDate   *util.Date
	Description   *string
}
