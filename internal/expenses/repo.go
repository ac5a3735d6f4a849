package expenses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var ErrNotFound = domain.NewError(domain.ErrNotFound, "error.expense_not_found")

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `e.id, e.project_id, p.code, e.amount, e.expense_date, e.expense_type, e.description, e.created_by, e.created_at`

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.ProjectID, &e.ProjectCode, &e.Amount, &e.ExpenseDate, &e.ExpenseType,
		&e.Description, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return scanExpense(r.pg.QueryRow(ctx, `SELECT `+columns+`
FROM expenses e JOIN projects p ON p.id = e.project_id WHERE e.id = $1`, id))
}

func (r *Repo) FindForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Expense, error) {
	return scanExpense(tx.QueryRow(ctx, `SELECT `+columns+`
FROM expenses e JOIN projects p ON p.id = e.project_id WHERE e.id = $1 FOR UPDATE OF e`, id))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]Expense, int64, error) {
	const where = `
WHERE ($1::uuid IS NULL OR e.project_id = $1)
  AND ($2::text IS NULL OR e.expense_type = $2)
  AND ($3::date IS NULL OR e.expense_date >= $3)
  AND ($4::date IS NULL OR e.expense_date <= $4)
  AND ($5::uuid IS NULL OR EXISTS (
        SELECT 1 FROM project_representatives pr WHERE pr.project_id = e.project_id AND pr.user_id = $5))`
	var typ *string
	if f.Type != nil {
		s := string(*f.Type)
		typ = &s
	}
	args := []any{f.ProjectID, typ, f.From, f.To, f.MemberUserID}

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM expenses e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+columns+` FROM expenses e JOIN projects p ON p.id = e.project_id`+where+`
ORDER BY e.expense_date DESC, e.created_at DESC LIMIT $6 OFFSET $7`, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, tx pgx.Tx, e Expense) (*Expense, error) {
	const q = `
WITH ins AS (
  INSERT INTO expenses (project_id, amount, expense_date, expense_type, description, created_by)
  VALUES ($1, $2, $3, $4, $5, $6)
  RETURNING *
)
SELECT ` + columns + ` FROM ins e JOIN projects p ON p.id = e.project_id`
	return scanExpense(tx.QueryRow(ctx, q, e.ProjectID, e.Amount, e.ExpenseDate, string(e.ExpenseType), e.Description, e.CreatedBy))
}

func (r *Repo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
