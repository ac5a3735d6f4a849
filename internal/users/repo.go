package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrNotFound   = domain.NewError(domain.ErrNotFound, "error.user_not_found")
	ErrEmailTaken = domain.NewError(domain.ErrConflict, "error.email_taken")
	// ErrInUse blocks deleting a user that still represents a project or holds money.
	ErrInUse = domain.NewError(domain.ErrConflict, "error.user_in_use")
)

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

const selectUser = `
SELECT id, email, full_name, role, password_hash, iban, phone, is_active, last_login_at, created_at, updated_at
FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.IBAN, &u.Phone,
		&u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.pg.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// FindByEmail matches case-insensitively.
func (r *Repo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pg.QueryRow(ctx, selectUser+` WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

func (r *Repo) List(ctx context.Context, f Filter, page util.Page) ([]User, int64, error) {
	const where = `
WHERE ($1::text IS NULL OR role = $1)
  AND ($2::boolean IS NULL OR is_active = $2)
  AND ($3 = '' OR full_name ILIKE '%' || $3 || '%' OR email ILIKE '%' || $3 || '%')`
	var role *string
	if f.Role != nil {
		s := string(*f.Role)
		role = &s
	}
	q := strings.TrimSpace(f.Query)

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT count(*) FROM users`+where, role, f.Active, q).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pg.Query(ctx, selectUser+where+` ORDER BY full_name LIMIT $4 OFFSET $5`, role, f.Active, q, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

// Create inserts the user together with its empty balance.
func (r *Repo) Create(ctx context.Context, p CreateParams) (*User, error) {
	const q = `
INSERT INTO users (email, full_name, role, password_hash, iban, phone)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, email, full_name, role, password_hash, iban, phone, is_active, last_login_at, created_at, updated_at`

	var u *User
	err := db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRow(ctx, q, strings.TrimSpace(p.Email), p.FullName, p.Role, p.PasswordHash, p.IBAN, p.Phone))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO balances (user_id) VALUES ($1)`, u.ID)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*User, error) {
	const q = `
UPDATE users
SET email = COALESCE($2, email),
    full_name = COALESCE($3, full_name),
    role = COALESCE($4, role),
    iban = COALESCE($5, iban),
    phone = COALESCE($6, phone),
    is_active = COALESCE($7, is_active),
    updated_at = now()
WHERE id = $1
RETURNING id, email, full_name, role, password_hash, iban, phone, is_active, last_login_at, created_at, updated_at`
	var role *string
	if p.Role != nil {
		s := string(*p.Role)
		role = &s
	}
	u, err := scanUser(r.pg.QueryRow(ctx, q, id, p.Email, p.FullName, role, p.IBAN, p.Phone, p.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pg.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) TouchLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pg.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

// Delete removes a user that represents no project and whose balance is empty.
// History that still points at the user (distributions, payments) also blocks it.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := db.WithTx(ctx, r.pg, func(tx pgx.Tx) error {
		var reps int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM project_representatives WHERE user_id = $1`, id).Scan(&reps); err != nil {
			return err
		}
		if reps > 0 {
			return ErrInUse
		}
		var nonZero bool
		err := tx.QueryRow(ctx, `
SELECT available_amount <> 0 OR debt_amount <> 0 OR reserved_amount <> 0
FROM balances WHERE user_id = $1 FOR UPDATE`, id).Scan(&nonZero)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if nonZero {
			return ErrInUse
		}
		if _, err := tx.Exec(ctx, `DELETE FROM balances WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
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

// EnsureAdmin creates an active admin with the given email unless one exists.
// It reports whether a user was created.
func (r *Repo) EnsureAdmin(ctx context.Context, email, fullName, passwordHash string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	_, err = r.Create(ctx, CreateParams{Email: email, FullName: fullName, Role: domain.RoleAdmin, PasswordHash: passwordHash})
	if errors.Is(err, ErrEmailTaken) {
		return false, nil
	}
	return err == nil, err
}

// IsActive reports whether the token's user still exists, is active and keeps its role.
func (r *Repo) IsActive(ctx context.Context, p security.Principal) (bool, error) {
	var active bool
	var role domain.Role
	err := r.pg.QueryRow(ctx, `SELECT is_active, role FROM users WHERE id = $1`, p.UserID).Scan(&active, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active && role == p.Role, nil
}
