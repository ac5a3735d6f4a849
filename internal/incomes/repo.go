package incomes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrNotFound = domain.NewError(domain.ErrNotFound, "error.income_not_found")
	// ErrCollected blocks deleting an income once money was collected.
	ErrCollected = domain.NewError(domain.ErrConflict, "error.income_has_collections")
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `i.id, i.project_id, p.code, i.invoice_number, i.invoice_date, i.gross_amount, i.vat_rate, i.vat_amount,
  i.net_amount, i.commission_rate, i.commission_amount, i.distributable_amount, i.collected_amount, i.status,
  i.collection_date, i.description, i.created_by, i.created_at, i.updated_at`

const from = ` FROM incomes i JOIN projects p ON p.id = i.project_id`

func scanIncome(row pgx.Row) (*Income, error) {
	var in Income
	err := row.Scan(&in.ID, &in.ProjectID, &in.ProjectCode, &in.InvoiceNumber, &in.InvoiceDate, &in.GrossAmount,
		&in.VATRate, &in.VATAmount, &in.NetAmount, &in.CommissionRate, &in.CommissionAmount, &in.DistributableAmount,
		&in.CollectedAmount, &in.Status, &in.CollectionDate, &in.Description, &in.CreatedBy, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Income, error) {
	return scanIncome(r.pg.QueryRow(ctx, `SELECT `+columns+from+` WHERE i.id = $1`, id))
}

// FindForUpdate locks the income row for the rest of tx.
func (r *Repo) FindForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Income, error) {
	return scanIncome(tx.QueryRow(ctx, `SELECT `+columns+from+` WHERE i.id = $1 FOR UPDATE OF i`, id))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]Income, int64, error) {
	const where = `
WHERE ($1::uuid IS NULL OR i.project_id = $1)
  AND ($2::text IS NULL OR i.status = $2)
  AND ($3::date IS NULL OR i.invoice_date >= $3)
  AND ($4::date IS NULL OR i.invoice_date <= $4)
  AND ($5::uuid IS NULL OR EXISTS (
        SELECT 1 FROM project_representatives pr WHERE pr.project_id = i.project_id AND pr.user_id = $5))`
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	args := []any{f.ProjectID, status, f.From, f.To, f.MemberUserID}

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+columns+from+where+`
ORDER BY i.invoice_date DESC, i.created_at DESC LIMIT $6 OFFSET $7`, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Income, 0)
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *in)
	}
	return out, total, rows.Err()
}

// Insert stores a new income; ProjectCode is filled from the project.
func (r *Repo) Insert(ctx context.Context, tx pgx.Tx, in Income) (*Income, error) {
	const q = `
WITH ins AS (
  INSERT INTO incomes (project_id, invoice_number, invoice_date, gross_amount, vat_rate, vat_amount, net_amount,
    commission_rate, commission_amount, distributable_amount, description, created_by)
  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
  RETURNING *
)
SELECT ` + columns + ` FROM ins i JOIN projects p ON p.id = i.project_id`
	return scanIncome(tx.QueryRow(ctx, q, in.ProjectID, in.InvoiceNumber, in.InvoiceDate, in.GrossAmount, in.VATRate,
		in.VATAmount, in.NetAmount, in.CommissionRate, in.CommissionAmount, in.DistributableAmount, in.Description, in.CreatedBy))
}

// SetCollection stores the new cumulative collected amount and status.
func (r *Repo) SetCollection(ctx context.Context, tx pgx.Tx, id uuid.UUID, collected decimal.Decimal, status domain.IncomeStatus, date util.Date) error {
	const q = `
UPDATE incomes SET collected_amount = $2, status = $3, collection_date = $4, updated_at = now()
WHERE id = $1`
	tag, err := tx.Exec(ctx, q, id, collected, string(status), date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Income, error) {
	const q = `
WITH ins AS (
  UPDATE incomes
  SET invoice_number = COALESCE($2, invoice_number),
      invoice_date = COALESCE($3, invoice_date),
      description = COALESCE($4, description),
      updated_at = now()
  WHERE id = $1
  RETURNING *
)
SELECT ` + columns + ` FROM ins i JOIN projects p ON p.id = i.project_id`
	return scanIncome(r.pg.QueryRow(ctx, q, id, p.InvoiceNumber, p.InvoiceDate, p.Description))
}

// Delete removes an income with nothing collected; distributions cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		in, err := r.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.CollectedAmount.IsPositive() {
			return ErrCollected
		}
		_, err = tx.Exec(ctx, `DELETE FROM incomes WHERE id = $1`, id)
		return err
	})
}

func (r *Repo) InsertDistribution(ctx context.Context, tx pgx.Tx, d Distribution) error {
	const q = `
INSERT INTO income_distributions (income_id, user_id, personnel_id, share_percentage, amount)
VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.Exec(ctx, q, d.IncomeID, d.Owner.UserID(), d.Owner.PersonnelID(), d.SharePercentage, d.Amount)
	return err
}

// Distributions lists an income's planned shares; pass a tx to lock them.
func (r *Repo) Distributions(ctx context.Context, q db.Querier, incomeID uuid.UUID, forUpdate bool) ([]Distribution, error) {
	sql := `
SELECT d.id, d.income_id, d.user_id, d.personnel_id, COALESCE(u.full_name, pe.full_name, ''),
  d.share_percentage, d.amount, d.distributed_amount
FROM income_distributions d
LEFT JOIN users u ON u.id = d.user_id
LEFT JOIN personnel pe ON pe.id = d.personnel_id
WHERE d.income_id = $1
ORDER BY d.share_percentage DESC, d.created_at, d.id`
	if forUpdate {
		sql += ` FOR UPDATE OF d`
	}
	rows, err := q.Query(ctx, sql, incomeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Distribution, 0)
	for rows.Next() {
		var d Distribution
		var userID, personnelID *uuid.UUID
		if err := rows.Scan(&d.ID, &d.IncomeID, &userID, &personnelID, &d.OwnerName,
			&d.SharePercentage, &d.Amount, &d.DistributedAmount); err != nil {
			return nil, err
		}
		if d.Owner, err = domain.OwnerFromColumns(userID, personnelID); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DistributionsByOwner lists every planned share of one owner, newest first.
func (r *Repo) DistributionsByOwner(ctx context.Context, owner domain.Owner, page util.Page) ([]Distribution, error) {
	rows, err := r.pg.Query(ctx, `
SELECT d.id, d.income_id, d.user_id, d.personnel_id, d.share_percentage, d.amount, d.distributed_amount
FROM income_distributions d
WHERE d.user_id IS NOT DISTINCT FROM $1 AND d.personnel_id IS NOT DISTINCT FROM $2
ORDER BY d.created_at DESC, d.id
LIMIT $3 OFFSET $4`, owner.UserID(), owner.PersonnelID(), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Distribution, 0)
	for rows.Next() {
		var d Distribution
		var userID, personnelID *uuid.UUID
		if err := rows.Scan(&d.ID, &d.IncomeID, &userID, &personnelID, &d.SharePercentage, &d.Amount, &d.DistributedAmount); err != nil {
			return nil, err
		}
		d.Owner = owner
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) AddDistributed(ctx context.Context, tx pgx.Tx, distributionID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE income_distributions SET distributed_amount = distributed_amount + $2 WHERE id = $1`,
		distributionID, amount)
	return err
}

func (r *Repo) InsertCommission(ctx context.Context, tx pgx.Tx, c Commission) error {
	_, err := tx.Exec(ctx, `INSERT INTO commissions (income_id, project_id, rate, amount) VALUES ($1, $2, $3, $4)`,
		c.IncomeID, c.ProjectID, c.Rate, c.Amount)
	return err
}

// BookedCommission sums the commission already booked for an income.
func (r *Repo) BookedCommission(ctx context.Context, tx pgx.Tx, incomeID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT COALESCE(sum(amount), 0) FROM commissions WHERE income_id = $1`, incomeID).Scan(&sum)
	return sum, err
}

const commissionColumns = `c.id, c.income_id, c.project_id, p.code, c.rate, c.amount, c.created_at`

func scanCommission(row pgx.Row) (Commission, error) {
	var c Commission
	err := row.Scan(&c.ID, &c.IncomeID, &c.ProjectID, &c.ProjectCode, &c.Rate, &c.Amount, &c.CreatedAt)
	return c, err
}

func (r *Repo) Commissions(ctx context.Context, incomeID uuid.UUID) ([]Commission, error) {
	rows, err := r.pg.Query(ctx, `SELECT `+commissionColumns+`
FROM commissions c JOIN projects p ON p.id = c.project_id
WHERE c.income_id = $1 ORDER BY c.created_at, c.id`, incomeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Commission, 0)
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCommissions returns a page of booked commissions plus the total of all matching rows.
func (r *Repo) ListCommissions(ctx context.Context, f CommissionFilter, page util.Page) ([]Commission, int64, decimal.Decimal, error) {
	const where = `
WHERE ($1::uuid IS NULL OR c.project_id = $1)
  AND ($2::date IS NULL OR c.created_at >= $2)
  AND ($3::date IS NULL OR c.created_at < $3::date + 1)`
	var (
		count int64
		sum   decimal.Decimal
	)
	err := r.pg.QueryRow(ctx, `SELECT count(*), COALESCE(sum(c.amount), 0) FROM commissions c`+where,
		f.ProjectID, f.From, f.To).Scan(&count, &sum)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+commissionColumns+`
FROM commissions c JOIN projects p ON p.id = c.project_id`+where+`
ORDER BY c.created_at DESC, c.id LIMIT $4 OFFSET $5`, f.ProjectID, f.From, f.To, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	defer rows.Close()

	out := make([]Commission, 0)
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, 0, decimal.Zero, err
		}
		out = append(out, c)
	}
	return out, count, sum, rows.Err()
}
