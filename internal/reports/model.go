package reports

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

// Report is a generated xlsx file and the parameters it was built from.
type Report struct {
	ID          uuid.UUID         `json:"id"`
	Type        domain.ReportType `json:"type"`
	Title       string            `json:"title"`
	Parameters  json.RawMessage   `json:"parameters"`
	FilePath    string            `json:"-"`
	RowCount    int               `json:"row_count"`
	GeneratedBy *uuid.UUID        `json:"generated_by"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Params selects the rows of a report.
type Params struct {
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	From      *util.Date `json:"from,omitempty"`
	To        *util.Date `json:"to,omitempty"`
}

// Dashboard is the office-wide money overview.
type Dashboard struct {
	ActiveProjects       int             `json:"active_projects"`
	TotalProjects        int             `json:"total_projects"`
	GrossAmount          decimal.Decimal `json:"gross_amount"`
	CollectedAmount      decimal.Decimal `json:"collected_amount"`
	OutstandingAmount    decimal.Decimal `json:"outstanding_amount"`
	VATAmount            decimal.Decimal `json:"vat_amount"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	DistributedAmount    decimal.Decimal `json:"distributed_amount"`
	ExpenseAmount        decimal.Decimal `json:"expense_amount"`
	PendingPaymentCount  int             `json:"pending_payment_count"`
	PendingPaymentAmount decimal.Decimal `json:"pending_payment_amount"`
	AvailableTotal       decimal.Decimal `json:"available_total"`
	DebtTotal            decimal.Decimal `json:"debt_total"`
	ReservedTotal        decimal.Decimal `json:"reserved_total"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// ProjectSummary is one project's money picture with a per-member breakdown.
type ProjectSummary struct {
	ProjectID        uuid.UUID       `json:"project_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Budget           decimal.Decimal `json:"budget"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	CollectedAmount  decimal.Decimal `json:"collected_amount"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	ExpenseAmount    decimal.Decimal `json:"expense_amount"`
	Members          []MemberSummary `json:"members"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

type MemberSummary struct {
	Owner             domain.Owner    `json:"owner"`
	FullName          string          `json:"full_name"`
	SharePercentage   decimal.Decimal `json:"share_percentage"`
	PlannedAmount     decimal.Decimal `json:"planned_amount"`
	DistributedAmount decimal.Decimal `json:"distributed_amount"`
}

// Sheet is a rendered table ready for export.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]any
}
