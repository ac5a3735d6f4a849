package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrNotFound          = domain.NewError(domain.ErrNotFound, "error.payment_not_found")
	ErrInvalidTransition = domain.NewError(domain.ErrRule, "error.invalid_status_transition")
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const columns = `pi.id, pi.instruction_number, pi.balance_id, pi.user_id, pi.personnel_id,
  COALESCE(u.full_name, pe.full_name, ''), pi.amount, pi.iban, pi.status, pi.description, pi.status_note,
  pi.created_by, pi.processed_by, pi.processed_at, pi.created_at, pi.updated_at`

const joins = `
LEFT JOIN users u ON u.id = pi.user_id
LEFT JOIN personnel pe ON pe.id = pi.personnel_id`

func scanInstruction(row pgx.Row) (*Instruction, error) {
	var in Instruction
	var userID, personnelID *uuid.UUID
	err := row.Scan(&in.ID, &in.InstructionNumber, &in.BalanceID, &userID, &personnelID,
		&in.OwnerName, &in.Amount, &in.IBAN, &in.Status, &in.Description, &in.StatusNote,
		&in.CreatedBy, &in.ProcessedBy, &in.ProcessedAt, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if in.Owner, err = domain.OwnerFromColumns(userID, personnelID); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Instruction, error) {
	return scanInstruction(r.pg.QueryRow(ctx, `SELECT `+columns+` FROM payment_instructions pi`+joins+` WHERE pi.id = $1`, id))
}

func (r *Repo) FindForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Instruction, error) {
	return scanInstruction(tx.QueryRow(ctx, `SELECT `+columns+` FROM payment_instructions pi`+joins+`
WHERE pi.id = $1 FOR UPDATE OF pi`, id))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]Instruction, int64, error) {
	const where = `
WHERE ($1::text IS NULL OR pi.status = $1)
  AND ($2::boolean IS FALSE OR (pi.user_id IS NOT DISTINCT FROM $3 AND pi.personnel_id IS NOT DISTINCT FROM $4))`
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	byOwner := f.Owner != nil
	var userID, personnelID *uuid.UUID
	if byOwner {
		userID, personnelID = f.Owner.UserID(), f.Owner.PersonnelID()
	}
	args := []any{status, byOwner, userID, personnelID}

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM payment_instructions pi`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+columns+` FROM payment_instructions pi`+joins+where+`
ORDER BY pi.created_at DESC, pi.id LIMIT $5 OFFSET $6`, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Instruction, 0)
	for rows.Next() {
		in, err := scanInstruction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *in)
	}
	return out, total, rows.Err()
}

// Insert creates a pending instruction with the caller's id, so the reserve
// transaction can reference it. The number comes from the DB sequence.
func (r *Repo) Insert(ctx context.Context, tx pgx.Tx, in Instruction) (*Instruction, error) {
	const q = `
INSERT INTO payment_instructions (id, balance_id, user_id, personnel_id, amount, iban, description, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.Exec(ctx, q, in.ID, in.BalanceID, in.Owner.UserID(), in.Owner.PersonnelID(), in.Amount, in.IBAN,
		in.Description, in.CreatedBy)
	if err != nil {
		return nil, err
	}
	return scanInstruction(tx.QueryRow(ctx, `SELECT `+columns+` FROM payment_instructions pi`+joins+` WHERE pi.id = $1`, in.ID))
}

// SetStatus records a status change made by processedBy.
func (r *Repo) SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, note string, processedBy uuid.UUID) (*Instruction, error) {
	const q = `
UPDATE payment_instructions
SET status = $2, status_note = $3, processed_by = $4, processed_at = now(), updated_at = now()
WHERE id = $1`
	tag, err := tx.Exec(ctx, q, id, string(status), note, processedBy)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return scanInstruction(tx.QueryRow(ctx, `SELECT `+columns+` FROM payment_instructions pi`+joins+` WHERE pi.id = $1`, id))
}
