package projects

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrNotFound    = domain.NewError(domain.ErrNotFound, "error.project_not_found")
	ErrCodeTaken   = domain.NewError(domain.ErrConflict, "error.project_code_taken")
	ErrHasActivity = domain.NewError(domain.ErrConflict, "error.project_has_activity")
	ErrBadDates    = domain.Invalid("end_date", "error.end_before_start")
	// ErrDuplicateRepresentative: the same user or personnel listed twice.
	ErrDuplicateRepresentative = domain.Invalid("representatives", "error.duplicate_representative")
	ErrUnknownOwner            = domain.Invalid("representatives", "error.representative_not_found")
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `p.id, p.code, p.name, p.description, p.budget, p.start_date, p.end_date, p.status,
  p.commission_rate, p.vat_rate, p.contract_path, p.created_by, p.created_at, p.updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Budget, &p.StartDate, &p.EndDate, &p.Status,
		&p.CommissionRate, &p.VATRate, &p.ContractPath, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.HasContract = p.ContractPath != nil && *p.ContractPath != ""
	return &p, nil
}

func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err, "projects_code_key"):
		return ErrCodeTaken
	case db.IsUniqueViolation(err, "project_representatives_user_key"),
		db.IsUniqueViolation(err, "project_representatives_personnel_key"):
		return ErrDuplicateRepresentative
	case db.IsForeignKeyViolation(err):
		return ErrUnknownOwner
	case db.IsCheckViolation(err):
		if pe, ok := db.AsPgError(err); ok && pe.ConstraintName == "projects_dates_check" {
			return ErrBadDates
		}
	}
	return err
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	return scanProject(r.pg.QueryRow(ctx, `SELECT `+columns+` FROM projects p WHERE p.id = $1`, id))
}

// Detail loads the project together with its representatives and totals.
func (r *Repo) Detail(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Representatives, err = r.Representatives(ctx, r.pg, id); err != nil {
		return nil, err
	}
	if p.Totals, err = r.Totals(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// FindForUpdate locks the project row for the rest of tx.
func (r *Repo) FindForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Project, error) {
	return scanProject(tx.QueryRow(ctx, `SELECT `+columns+` FROM projects p WHERE p.id = $1 FOR UPDATE`, id))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]Project, int64, error) {
	const where = `
WHERE ($1::text IS NULL OR p.status = $1)
  AND ($2 = '' OR p.code ILIKE '%' || $2 || '%' OR p.name ILIKE '%' || $2 || '%')
  AND ($3::uuid IS NULL OR EXISTS (
        SELECT 1 FROM project_representatives pr WHERE pr.project_id = p.id AND pr.user_id = $3))`
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	q := strings.TrimSpace(f.Query)

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM projects p`+where, status, q, f.MemberUserID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+columns+` FROM projects p`+where+`
ORDER BY p.start_date DESC, p.code LIMIT $4 OFFSET $5`, status, q, f.MemberUserID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Create inserts the project and its representatives. Shares must already be valid.
func (r *Repo) Create(ctx context.Context, p CreateParams, reps []RepresentativeInput) (*Project, error) {
	if err := ValidateRepresentatives(reps); err != nil {
		return nil, err
	}
	const q = `
INSERT INTO projects AS p (code, name, description, budget, start_date, end_date, commission_rate, vat_rate, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + columns

	var out *Project
	err := db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		var err error
		out, err = scanProject(tx.QueryRow(ctx, q,
			p.Code, p.Name, p.Description, p.Budget, p.StartDate, p.EndDate, p.CommissionRate, p.VATRate, p.CreatedBy,
		))
		if err != nil {
			return err
		}
		return insertRepresentatives(ctx, tx, out.ID, reps)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}
	out.Representatives, err = r.Representatives(ctx, r.pg, out.ID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Project, error) {
	const q = `
UPDATE projects p
SET code = COALESCE($2, code),
    name = COALESCE($3, name),
    description = COALESCE($4, description),
    budget = COALESCE($5, budget),
    start_date = COALESCE($6, start_date),
    end_date = COALESCE($7, end_date),
    commission_rate = COALESCE($8, commission_rate),
    vat_rate = COALESCE($9, vat_rate),
    updated_at = now()
WHERE p.id = $1
RETURNING ` + columns
	out, err := scanProject(r.pg.QueryRow(ctx, q, id,
		p.Code, p.Name, p.Description, p.Budget, p.StartDate, p.EndDate, p.CommissionRate, p.VATRate,
	))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return out, nil
}

func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus) (*Project, error) {
	const q = `UPDATE projects p SET status = $2, updated_at = now() WHERE p.id = $1 RETURNING ` + columns
	return scanProject(r.pg.QueryRow(ctx, q, id, string(status)))
}

// ApplyAmendment sets end date and budget from a supplementary contract (or its reversal).
func (r *Repo) ApplyAmendment(ctx context.Context, tx pgx.Tx, id uuid.UUID, endDate *util.Date, budget decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE projects SET end_date = $2, budget = $3, updated_at = now() WHERE id = $1`, id, endDate, budget)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetContractPath stores the document path and returns the previous one.
func (r *Repo) SetContractPath(ctx context.Context, id uuid.UUID, path string) (string, error) {
	const q = `
UPDATE projects p SET contract_path = $2, updated_at = now()
FROM (SELECT id, contract_path FROM projects WHERE id = $1 FOR UPDATE) old
WHERE p.id = old.id
RETURNING COALESCE(old.contract_path, '')`
	var prev string
	err := r.pg.QueryRow(ctx, q, id, path).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return prev, err
}

// Delete removes a project without incomes or expenses.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		if _, err := r.FindForUpdate(ctx, tx, id); err != nil {
			return err
		}
		var busy bool
		err := tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM incomes WHERE project_id = $1)
    OR EXISTS (SELECT 1 FROM expenses WHERE project_id = $1)`, id).Scan(&busy)
		if err != nil {
			return err
		}
		if busy {
			return ErrHasActivity
		}
		_, err = tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		return err
	})
}

// ReplaceRepresentatives swaps the whole representative set.
func (r *Repo) ReplaceRepresentatives(ctx context.Context, id uuid.UUID, reps []RepresentativeInput) ([]Representative, error) {
	if err := ValidateRepresentatives(reps); err != nil {
		return nil, err
	}
	err := db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		if _, err := r.FindForUpdate(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM project_representatives WHERE project_id = $1`, id); err != nil {
			return err
		}
		return insertRepresentatives(ctx, tx, id, reps)
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return r.Representatives(ctx, r.pg, id)
}

// Representatives lists members with their display names; q may be a tx.
func (r *Repo) Representatives(ctx context.Context, q db.Querier, projectID uuid.UUID) ([]Representative, error) {
	rows, err := q.Query(ctx, `
SELECT pr.id, pr.user_id, pr.personnel_id, COALESCE(u.full_name, pe.full_name, ''), pr.share_percentage, pr.role
FROM project_representatives pr
LEFT JOIN users u ON u.id = pr.user_id
LEFT JOIN personnel pe ON pe.id = pr.personnel_id
WHERE pr.project_id = $1
ORDER BY pr.share_percentage DESC, pr.created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Representative, 0)
	for rows.Next() {
		var rep Representative
		var userID, personnelID *uuid.UUID
		if err := rows.Scan(&rep.ID, &userID, &personnelID, &rep.FullName, &rep.SharePercentage, &rep.Role); err != nil {
			return nil, err
		}
		if rep.Owner, err = domain.OwnerFromColumns(userID, personnelID); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// IsMember reports whether the user represents the project.
func (r *Repo) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pg.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM project_representatives WHERE project_id = $1 AND user_id = $2)`, projectID, userID).Scan(&ok)
	return ok, err
}

func (r *Repo) Totals(ctx context.Context, id uuid.UUID) (*Totals, error) {
	const q = `
SELECT
  COALESCE((SELECT sum(gross_amount) FROM incomes WHERE project_id = $1), 0),
  COALESCE((SELECT sum(collected_amount) FROM incomes WHERE project_id = $1), 0),
  COALESCE((SELECT sum(amount) FROM commissions WHERE project_id = $1), 0),
  COALESCE((SELECT sum(amount) FROM expenses WHERE project_id = $1), 0),
  (SELECT count(*) FROM incomes WHERE project_id = $1)`
	var t Totals
	if err := r.pg.QueryRow(ctx, q, id).Scan(&t.Gross, &t.Collected, &t.Commissions, &t.Expenses, &t.IncomeCount); err != nil {
		return nil, err
	}
	return &t, nil
}

// ValidateRepresentatives checks roles, duplicates and the share total.
func ValidateRepresentatives(reps []RepresentativeInput) error {
	seen := make(map[domain.Owner]bool, len(reps))
	shares := make([]ledger.Share, 0, len(reps))
	for _, rep := range reps {
		if !rep.Owner.Type.Valid() || rep.Owner.ID == uuid.Nil {
			return domain.Invalid("representatives", "error.owner_required")
		}
		if !rep.Role.Valid() {
			return domain.Invalid("representatives", "error.invalid_representative_role")
		}
		if seen[rep.Owner] {
			return ErrDuplicateRepresentative
		}
		seen[rep.Owner] = true
		shares = append(shares, ledger.Share{Key: rep.Owner.String(), Percentage: rep.SharePercentage})
	}
	return ledger.ValidateShares(shares)
}

func insertRepresentatives(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, reps []RepresentativeInput) error {
	const q = `
INSERT INTO project_representatives (project_id, user_id, personnel_id, share_percentage, role)
VALUES ($1, $2, $3, $4, $5)`
	for _, rep := range reps {
		if _, err := tx.Exec(ctx, q, projectID, rep.Owner.UserID(), rep.Owner.PersonnelID(), rep.SharePercentage, string(rep.Role)); err != nil {
			return err
		}
	}
	return nil
}
