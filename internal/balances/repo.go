package balances

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var ErrNotFound = domain.NewError(domain.ErrNotFound, "error.balance_not_found")

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const selectBalance = `
SELECT b.id, b.user_id, b.personnel_id, COALESCE(u.full_name, pe.full_name, ''),
  b.available_amount, b.debt_amount, b.reserved_amount, b.updated_at
FROM balances b
LEFT JOIN users u ON u.id = b.user_id
LEFT JOIN personnel pe ON pe.id = b.personnel_id`

func scanBalance(row pgx.Row) (*Balance, error) {
	var b Balance
	var userID, personnelID *uuid.UUID
	err := row.Scan(&b.ID, &userID, &personnelID, &b.OwnerName, &b.Available, &b.Debt, &b.Reserved, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.Owner, err = domain.OwnerFromColumns(userID, personnelID); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Balance, error) {
	return scanBalance(r.pg.QueryRow(ctx, selectBalance+` WHERE b.id = $1`, id))
}

func (r *Repo) FindByOwner(ctx context.Context, owner domain.Owner) (*Balance, error) {
	return scanBalance(r.pg.QueryRow(ctx, selectBalance+`
WHERE b.user_id IS NOT DISTINCT FROM $1 AND b.personnel_id IS NOT DISTINCT FROM $2`, owner.UserID(), owner.PersonnelID()))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]Balance, int64, error) {
	const where = `
WHERE ($1::text IS NULL
       OR ($1 = 'user' AND b.user_id IS NOT NULL)
       OR ($1 = 'personnel' AND b.personnel_id IS NOT NULL))
  AND (NOT $2 OR b.available_amount <> 0 OR b.debt_amount <> 0 OR b.reserved_amount <> 0)`
	var ownerType *string
	if f.OwnerType != nil {
		s := string(*f.OwnerType)
		ownerType = &s
	}

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM balances b`+where, ownerType, f.NonZero).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, selectBalance+where+`
ORDER BY COALESCE(u.full_name, pe.full_name) LIMIT $3 OFFSET $4`, ownerType, f.NonZero, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Balance, 0)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

const txColumns = `id, balance_id, type, amount, available_before, available_after, debt_before, debt_after,
  reference_type, reference_id, description, created_by, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.BalanceID, &t.Type, &t.Amount, &t.AvailableBefore, &t.AvailableAfter,
		&t.DebtBefore, &t.DebtAfter, &t.ReferenceType, &t.ReferenceID, &t.Description, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) Transactions(ctx context.Context, balanceID uuid.UUID, page util.Page) ([]Transaction, int64, error) {
	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM balance_transactions WHERE balance_id = $1`, balanceID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, `SELECT `+txColumns+` FROM balance_transactions
WHERE balance_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, balanceID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

// TransactionsByReference lists ledger rows written for one income, expense or payment.
func (r *Repo) TransactionsByReference(ctx context.Context, q db.Querier, refType string, refID uuid.UUID) ([]Transaction, error) {
	rows, err := q.Query(ctx, `SELECT `+txColumns+` FROM balance_transactions
WHERE reference_type = $1 AND reference_id = $2 ORDER BY created_at, id`, refType, refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// lockByOwner selects the owner's balance FOR UPDATE, creating it if missing.
func (r *Repo) lockByOwner(ctx context.Context, tx pgx.Tx, owner domain.Owner) (*Balance, error) {
	const lock = selectBalance + `
WHERE b.user_id IS NOT DISTINCT FROM $1 AND b.personnel_id IS NOT DISTINCT FROM $2
FOR UPDATE OF b`
	b, err := scanBalance(tx.QueryRow(ctx, lock, owner.UserID(), owner.PersonnelID()))
	if !errors.Is(err, ErrNotFound) {
		return b, err
	}
	_, err = tx.Exec(ctx, `INSERT INTO balances (user_id, personnel_id) VALUES ($1, $2)`, owner.UserID(), owner.PersonnelID())
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, domain.Invalid("owner", "error.owner_not_found")
		}
		return nil, err
	}
	return scanBalance(tx.QueryRow(ctx, lock, owner.UserID(), owner.PersonnelID()))
}

func (r *Repo) lockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Balance, error) {
	return scanBalance(tx.QueryRow(ctx, selectBalance+` WHERE b.id = $1 FOR UPDATE OF b`, id))
}

// LockOwners locks the existing balances of owners in id order. Writes that
// touch several balances call it first, so concurrent transactions always
// queue on the same rows in the same order.
func (r *Repo) LockOwners(ctx context.Context, tx pgx.Tx, owners []domain.Owner) error {
	userIDs := make([]uuid.UUID, 0, len(owners))
	personnelIDs := make([]uuid.UUID, 0, len(owners))
	for _, o := range owners {
		switch o.Type {
		case domain.OwnerUser:
			userIDs = append(userIDs, o.ID)
		case domain.OwnerPersonnel:
			personnelIDs = append(personnelIDs, o.ID)
		}
	}
	return lockOrdered(ctx, tx, `
SELECT id FROM balances
WHERE user_id = ANY($1) OR personnel_id = ANY($2)
ORDER BY id
FOR UPDATE`, userIDs, personnelIDs)
}

// LockIDs is LockOwners for known balance ids.
func (r *Repo) LockIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	return lockOrdered(ctx, tx, `SELECT id FROM balances WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
}

func lockOrdered(ctx context.Context, tx pgx.Tx, q string, args ...any) error {
	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// Apply runs one ledger operation on the owner's balance inside tx and records
// the matching balance_transactions row.
func (r *Repo) Apply(ctx context.Context, tx pgx.Tx, owner domain.Owner, e Entry) (*Balance, error) {
	b, err := r.lockByOwner(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	return r.apply(ctx, tx, b, e)
}

// ApplyByID is Apply for a known balance id.
func (r *Repo) ApplyByID(ctx context.Context, tx pgx.Tx, id uuid.UUID, e Entry) (*Balance, error) {
	b, err := r.lockByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return r.apply(ctx, tx, b, e)
}

func (r *Repo) apply(ctx context.Context, tx pgx.Tx, b *Balance, e Entry) (*Balance, error) {
	before := b.State()
	after, err := Operate(before, e.Type, e.Amount)
	if err != nil {
		operations.WithLabelValues(string(e.Type), "rejected").Inc()
		return nil, err
	}

	const update = `
UPDATE balances SET available_amount = $2, debt_amount = $3, reserved_amount = $4, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	if err := tx.QueryRow(ctx, update, b.ID, after.Available, after.Debt, after.Reserved).Scan(&b.UpdatedAt); err != nil {
		return nil, err
	}

	var refType *string
	if e.ReferenceType != "" {
		refType = &e.ReferenceType
	}
	const insert = `
INSERT INTO balance_transactions (balance_id, type, amount, available_before, available_after,
  debt_before, debt_after, reference_type, reference_id, description, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = tx.Exec(ctx, insert, b.ID, string(e.Type), e.Amount, before.Available, after.Available,
		before.Debt, after.Debt, refType, e.ReferenceID, e.Description, e.CreatedBy)
	if err != nil {
		return nil, err
	}

	operations.WithLabelValues(string(e.Type), "applied").Inc()
	b.Available, b.Debt, b.Reserved = after.Available, after.Debt, after.Reserved
	return b, nil
}

// Operate maps a transaction type to its ledger operation.
func Operate(b ledger.Balance, t domain.TransactionType, amount decimal.Decimal) (ledger.Balance, error) {
	switch t {
	case domain.TxIncome, domain.TxExpenseReversal:
		return b.Credit(amount)
	case domain.TxExpense:
		return b.Debit(amount)
	case domain.TxPaymentReserve:
		return b.Reserve(amount)
	case domain.TxPaymentRelease:
		return b.Release(amount)
	case domain.TxPayment:
		return b.Settle(amount)
	case domain.TxAdjustment:
		return b.Adjust(amount)
	}
	return b, fmt.Errorf("balances: unknown transaction type %q", t)
}
