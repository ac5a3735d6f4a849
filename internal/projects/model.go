package projects

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type Project struct {
	ID             uuid.UUID            `json:"id"`
	Code           string               `json:"code"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Budget         decimal.Decimal      `json:"budget"`
	StartDate      util.Date            `json:"start_date"`
	EndDate        *util.Date           `json:"end_date"`
	Status         domain.ProjectStatus `json:"status"`
	CommissionRate decimal.Decimal      `json:"commission_rate"`
	VATRate        decimal.Decimal      `json:"vat_rate"`
	ContractPath   *string              `json:"-"`
	HasContract    bool                 `json:"has_contract"`
	CreatedBy      *uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`

	Representatives []Representative `json:"representatives,omitempty"`
	Totals          *Totals          `json:"totals,omitempty"`
}

// Representative is a project member entitled to a share of its income.
type Representative struct {
	ID              uuid.UUID                 `json:"id"`
	Owner           domain.Owner              `json:"owner"`
	FullName        string                    `json:"full_name"`
	SharePercentage decimal.Decimal           `json:"share_percentage"`
	Role            domain.RepresentativeRole `json:"role"`
}

// Shares turns representatives into ledger shares keyed by owner.
func Shares(reps []Representative) []ledger.Share {
	out := make([]ledger.Share, 0, len(reps))
	for _, r := range reps {
		out = append(out, ledger.Share{Key: r.Owner.String(), Percentage: r.SharePercentage})
	}
	return out
}

type RepresentativeInput struct {
	Owner           domain.Owner
	SharePercentage decimal.Decimal
	Role            domain.RepresentativeRole
}

// Totals aggregates the money booked on a project.
type Totals struct {
	Gross       decimal.Decimal `json:"gross_amount"`
	Collected   decimal.Decimal `json:"collected_amount"`
	Commissions decimal.Decimal `json:"commission_amount"`
	Expenses    decimal.Decimal `json:"expense_amount"`
	IncomeCount int             `json:"income_count"`
}

type Filter struct {
	Status *domain.ProjectStatus
	Query  string
	// MemberUserID limits the list to projects the user represents.
	MemberUserID *uuid.UUID
}

type CreateParams struct {
	Code           string
	Name           string
	Description    string
	Budget         decimal.Decimal
	StartDate      util.Date
	EndDate        *util.Date
	CommissionRate decimal.Decimal
	VATRate        decimal.Decimal
	CreatedBy      *uuid.UUID
}

type UpdateParams struct {
	Code           *string
	Name           *string
	Description    *string
	Budget         *decimal.Decimal
	StartDate      *util.Date
	EndDate        *util.Date
	CommissionRate *decimal.Decimal
	VATRate        *decimal.Decimal
}
