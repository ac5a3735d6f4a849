package personnel

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrNotFound        = domain.NewError(domain.ErrNotFound, "error.personnel_not_found")
	ErrNationalIDTaken = domain.NewError(domain.ErrConflict, "error.national_id_taken")
	ErrEmailTaken      = domain.NewError(domain.ErrConflict, "error.email_taken")
	ErrInUse           = domain.NewError(domain.ErrConflict, "error.personnel_in_use")
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `id, full_name, national_id, email, phone, iban, notes, is_active, created_at, updated_at`

func scanPerson(row pgx.Row) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.FullName, &p.NationalID, &p.Email, &p.Phone, &p.IBAN, &p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func mapUnique(err error) error {
	switch {
	case db.IsUniqueViolation(err, "personnel_national_id_key"):
		return ErrNationalIDTaken
	case db.IsUniqueViolation(err, "personnel_email_key"):
		return ErrEmailTaken
	}
	return err
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Person, error) {
	return scanPerson(r.pg.QueryRow(ctx, `SELECT `+columns+` FROM personnel WHERE id = $1`, id))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]Person, int64, error) {
	const where = `
WHERE ($1::boolean IS NULL OR is_active = $1)
  AND ($2 = '' OR full_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR national_id = $2)`
	q := strings.TrimSpace(f.Query)

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM personnel`+where, f.Active, q).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+columns+` FROM personnel`+where+` ORDER BY full_name LIMIT $3 OFFSET $4`, f.Active, q, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Create inserts the person and an empty balance in one transaction.
func (r *Repo) Create(ctx context.Context, p CreateParams) (*Person, error) {
	const q = `
INSERT INTO personnel (full_name, national_id, email, phone, iban, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + columns

	var out *Person
	err := db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		var err error
		out, err = scanPerson(tx.QueryRow(ctx, q, p.FullName, p.NationalID, p.Email, p.Phone, p.IBAN, p.Notes))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO balances (personnel_id) VALUES ($1)`, out.ID)
		return err
	})
	if err != nil {
		return nil, mapUnique(err)
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Person, error) {
	const q = `
UPDATE personnel
SET full_name = COALESCE($2, full_name),
    national_id = COALESCE($3, national_id),
    email = COALESCE($4, email),
    phone = COALESCE($5, phone),
    iban = COALESCE($6, iban),
    notes = COALESCE($7, notes),
    is_active = COALESCE($8, is_active),
    updated_at = now()
WHERE id = $1
RETURNING ` + columns
	out, err := scanPerson(r.pg.QueryRow(ctx, q, id, p.FullName, p.NationalID, p.Email, p.Phone, p.IBAN, p.Notes, p.IsActive))
	if err != nil {
		return nil, mapUnique(err)
	}
	return out, nil
}

// Delete refuses while the person represents a project or holds a non-zero balance.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		var inUse bool
		err := tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM project_representatives WHERE personnel_id = $1)
    OR EXISTS (SELECT 1 FROM balances WHERE personnel_id = $1
               AND (available_amount <> 0 OR debt_amount <> 0 OR reserved_amount <> 0))`, id).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return ErrInUse
		}
		if _, err := tx.Exec(ctx, `DELETE FROM balances WHERE personnel_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM personnel WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if db.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	return err
}
