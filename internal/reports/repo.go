package reports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrNotFound        = domain.NewError(domain.ErrNotFound, "error.report_not_found")
	ErrProjectNotFound = domain.NewError(domain.ErrNotFound, "error.project_not_found")
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `id, type, title, parameters, file_path, row_count, generated_by, created_at`

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	var params []byte
	err := row.Scan(&r.ID, &r.Type, &r.Title, &params, &r.FilePath, &r.RowCount, &r.GeneratedBy, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Parameters = json.RawMessage(params)
	return &r, nil
}

// Insert records a report; the id is chosen by the caller so the file can be written first.
func (r *Repo) Insert(ctx context.Context, rep Report) (*Report, error) {
	const q = `
INSERT INTO reports (id, type, title, parameters, file_path, row_count, generated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + columns
	return scanReport(r.pg.QueryRow(ctx, q, rep.ID, string(rep.Type), rep.Title, []byte(rep.Parameters),
		rep.FilePath, rep.RowCount, rep.GeneratedBy))
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.pg.QueryRow(ctx, `SELECT `+columns+` FROM reports WHERE id = $1`, id))
}

func (r *Repo) List(ctx context.Context, typ *domain.ReportType, page util.Page) ([]Report, int64, error) {
	var t *string
	if typ != nil {
		s := string(*typ)
		t = &s
	}
	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM reports WHERE ($1::text IS NULL OR type = $1)`, t).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+columns+` FROM reports WHERE ($1::text IS NULL OR type = $1)
ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, t, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rep)
	}
	return out, total, rows.Err()
}

// Delete removes the record and returns its file path.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	var path string
	err := r.pg.QueryRow(ctx, `DELETE FROM reports WHERE id = $1 RETURNING file_path`, id).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return path, err
}

func (r *Repo) Dashboard(ctx context.Context) (*Dashboard, error) {
	const q = `
SELECT
  (SELECT count(*) FROM projects WHERE status = 'active'),
  (SELECT count(*) FROM projects),
  COALESCE((SELECT sum(gross_amount) FROM incomes), 0),
  COALESCE((SELECT sum(collected_amount) FROM incomes), 0),
  COALESCE((SELECT sum(vat_amount) FROM incomes), 0),
  COALESCE((SELECT sum(amount) FROM commissions), 0),
  COALESCE((SELECT sum(distributed_amount) FROM income_distributions), 0),
  COALESCE((SELECT sum(amount) FROM expenses), 0),
  (SELECT count(*) FROM payment_instructions WHERE status IN ('pending', 'approved')),
  COALESCE((SELECT sum(amount) FROM payment_instructions WHERE status IN ('pending', 'approved')), 0),
  COALESCE((SELECT sum(available_amount) FROM balances), 0),
  COALESCE((SELECT sum(debt_amount) FROM balances), 0),
  COALESCE((SELECT sum(reserved_amount) FROM balances), 0)`
	var d Dashboard
	err := r.pg.QueryRow(ctx, q).Scan(
		&d.ActiveProjects, &d.TotalProjects, &d.GrossAmount, &d.CollectedAmount, &d.VATAmount,
		&d.CommissionAmount, &d.DistributedAmount, &d.ExpenseAmount, &d.PendingPaymentCount,
		&d.PendingPaymentAmount, &d.AvailableTotal, &d.DebtTotal, &d.ReservedTotal,
	)
	if err != nil {
		return nil, err
	}
	d.OutstandingAmount = d.GrossAmount.Sub(d.CollectedAmount)
	d.GeneratedAt = time.Now().UTC()
	return &d, nil
}

func (r *Repo) ProjectSummary(ctx context.Context, projectID uuid.UUID) (*ProjectSummary, error) {
	const q = `
SELECT p.id, p.code, p.name, p.budget,
  COALESCE((SELECT sum(gross_amount) FROM incomes WHERE project_id = p.id), 0),
  COALESCE((SELECT sum(collected_amount) FROM incomes WHERE project_id = p.id), 0),
  COALESCE((SELECT sum(vat_amount) FROM incomes WHERE project_id = p.id), 0),
  COALESCE((SELECT sum(amount) FROM commissions WHERE project_id = p.id), 0),
  COALESCE((SELECT sum(amount) FROM expenses WHERE project_id = p.id), 0)
FROM projects p WHERE p.id = $1`
	var s ProjectSummary
	err := r.pg.QueryRow(ctx, q, projectID).Scan(&s.ProjectID, &s.Code, &s.Name, &s.Budget,
		&s.GrossAmount, &s.CollectedAmount, &s.VATAmount, &s.CommissionAmount, &s.ExpenseAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	const members = `
SELECT pr.user_id, pr.personnel_id, COALESCE(u.full_name, pe.full_name, ''), pr.share_percentage,
  COALESCE(sum(d.amount), 0), COALESCE(sum(d.distributed_amount), 0)
FROM project_representatives pr
LEFT JOIN users u ON u.id = pr.user_id
LEFT JOIN personnel pe ON pe.id = pr.personnel_id
LEFT JOIN income_distributions d
  ON d.income_id IN (SELECT id FROM incomes WHERE project_id = pr.project_id)
 AND d.user_id IS NOT DISTINCT FROM pr.user_id
 AND d.personnel_id IS NOT DISTINCT FROM pr.personnel_id
WHERE pr.project_id = $1
GROUP BY pr.id, pr.user_id, pr.personnel_id, u.full_name, pe.full_name, pr.share_percentage
ORDER BY pr.share_percentage DESC, pr.id`
	rows, err := r.pg.Query(ctx, members, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.Members = make([]MemberSummary, 0)
	for rows.Next() {
		var m MemberSummary
		var userID, personnelID *uuid.UUID
		if err := rows.Scan(&userID, &personnelID, &m.FullName, &m.SharePercentage, &m.PlannedAmount, &m.DistributedAmount); err != nil {
			return nil, err
		}
		if m.Owner, err = domain.OwnerFromColumns(userID, personnelID); err != nil {
			return nil, err
		}
		s.Members = append(s.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.GeneratedAt = time.Now().UTC()
	return &s, nil
}

// Sheet loads the rows of a report type.
func (r *Repo) Sheet(ctx context.Context, typ domain.ReportType, p Params) (*Sheet, error) {
	switch typ {
	case domain.ReportIncomes:
		return r.query(ctx, Sheet{
			Title:   "Incomes",
			Headers: []string{"Project", "Invoice", "Invoice date", "Gross", "VAT rate", "VAT", "Net", "Commission", "Distributable", "Collected", "Status"},
		}, `
SELECT p.code, COALESCE(i.invoice_number, ''), i.invoice_date, i.gross_amount, i.vat_rate, i.vat_amount, i.net_amount,
  i.commission_amount, i.distributable_amount, i.collected_amount, i.status
FROM incomes i JOIN projects p ON p.id = i.project_id
WHERE ($1::uuid IS NULL OR i.project_id = $1)
  AND ($2::date IS NULL OR i.invoice_date >= $2)
  AND ($3::date IS NULL OR i.invoice_date <= $3)
ORDER BY i.invoice_date, p.code`, p.ProjectID, p.From, p.To)
	case domain.ReportExpenses:
		return r.query(ctx, Sheet{
			Title:   "Expenses",
			Headers: []string{"Project", "Date", "Type", "Amount", "Description"},
		}, `
SELECT p.code, e.expense_date, e.expense_type, e.amount, e.description
FROM expenses e JOIN projects p ON p.id = e.project_id
WHERE ($1::uuid IS NULL OR e.project_id = $1)
  AND ($2::date IS NULL OR e.expense_date >= $2)
  AND ($3::date IS NULL OR e.expense_date <= $3)
ORDER BY e.expense_date, p.code`, p.ProjectID, p.From, p.To)
	case domain.ReportBalances:
		return r.query(ctx, Sheet{
			Title:   "Balances",
			Headers: []string{"Owner", "Owner type", "Available", "Debt", "Reserved"},
		}, `
SELECT COALESCE(u.full_name, pe.full_name, ''), CASE WHEN b.user_id IS NOT NULL THEN 'user' ELSE 'personnel' END,
  b.available_amount, b.debt_amount, b.reserved_amount
FROM balances b
LEFT JOIN users u ON u.id = b.user_id
LEFT JOIN personnel pe ON pe.id = b.personnel_id
ORDER BY 1`)
	case domain.ReportPayments:
		return r.query(ctx, Sheet{
			Title:   "Payments",
			Headers: []string{"Number", "Owner", "IBAN", "Amount", "Status", "Created"},
		}, `
SELECT pi.instruction_number, COALESCE(u.full_name, pe.full_name, ''), pi.iban, pi.amount, pi.status, pi.created_at::date
FROM payment_instructions pi
LEFT JOIN users u ON u.id = pi.user_id
LEFT JOIN personnel pe ON pe.id = pi.personnel_id
WHERE ($1::date IS NULL OR pi.created_at >= $1)
  AND ($2::date IS NULL OR pi.created_at < $2::date + 1)
ORDER BY pi.created_at`, p.From, p.To)
	case domain.ReportProjectSummary:
		if p.ProjectID == nil {
			return nil, domain.Invalid("project_id", "error.project_required")
		}
		s, err := r.ProjectSummary(ctx, *p.ProjectID)
		if err != nil {
			return nil, err
		}
		return SummarySheet(s), nil
	}
	return nil, domain.Invalid("type", "error.invalid_report_type")
}

// SummarySheet flattens a project summary into one table.
func SummarySheet(s *ProjectSummary) *Sheet {
	sh := &Sheet{
		Title:   s.Code,
		Headers: []string{"Member", "Owner type", "Share %", "Planned", "Distributed"},
	}
	for _, m := range s.Members {
		sh.Rows = append(sh.Rows, []any{m.FullName, string(m.Owner.Type), m.SharePercentage, m.PlannedAmount, m.DistributedAmount})
	}
	sh.Rows = append(sh.Rows,
		[]any{},
		[]any{"Gross", "", "", s.GrossAmount},
		[]any{"Collected", "", "", s.CollectedAmount},
		[]any{"VAT", "", "", s.VATAmount},
		[]any{"Commission", "", "", s.CommissionAmount},
		[]any{"Expenses", "", "", s.ExpenseAmount},
	)
	return sh
}

func (r *Repo) query(ctx context.Context, sh Sheet, sql string, args ...any) (*Sheet, error) {
	rows, err := r.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		sh.Rows = append(sh.Rows, normalize(vals))
	}
	return &sh, rows.Err()
}

// normalize converts driver values into types the xlsx writer understands.
func normalize(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case time.Time:
			out[i] = util.NewDate(x).String()
		case decimal.Decimal:
			out[i] = x
		default:
			if d, ok := asDecimal(v); ok {
				out[i] = d
				continue
			}
			out[i] = v
		}
	}
	return out
}

func asDecimal(v any) (decimal.Decimal, bool) {
	n, ok := v.(pgtype.Numeric)
	if !ok || !n.Valid {
		return decimal.Zero, false
	}
	dv, err := n.Value()
	if err != nil {
		return decimal.Zero, false
	}
	s, ok := dv.(string)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}
