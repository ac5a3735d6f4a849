package contracts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

var ErrNotFound = domain.NewError(domain.ErrNotFound, "error.contract_not_found")

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `id, project_id, amendment_date, new_end_date, additional_budget, previous_end_date,
  previous_budget, description, created_by, created_at`

func scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.ProjectID, &c.AmendmentDate, &c.NewEndDate, &c.AdditionalBudget, &c.PreviousEndDate,
		&c.PreviousBudget, &c.Description, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Contract, error) {
	rows, err := r.pg.Query(ctx, `SELECT `+columns+` FROM supplementary_contracts
WHERE project_id = $1 ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) FindByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Contract, error) {
	return scanContract(q.QueryRow(ctx, `SELECT `+columns+` FROM supplementary_contracts WHERE id = $1`, id))
}

// Latest returns the most recent amendment of a project.
func (r *Repo) Latest(ctx context.Context, q db.Querier, projectID uuid.UUID) (*Contract, error) {
	return scanContract(q.QueryRow(ctx, `SELECT `+columns+` FROM supplementary_contracts
WHERE project_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, projectID))
}

func (r *Repo) Insert(ctx context.Context, tx pgx.Tx, c Contract) (*Contract, error) {
	const q = `
INSERT INTO supplementary_contracts (project_id, amendment_date, new_end_date, additional_budget,
  previous_end_date, previous_budget, description, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + columns
	return scanContract(tx.QueryRow(ctx, q, c.ProjectID, c.AmendmentDate, c.NewEndDate, c.AdditionalBudget,
		c.PreviousEndDate, c.PreviousBudget, c.Description, c.CreatedBy))
}

func (r *Repo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM supplementary_contracts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
