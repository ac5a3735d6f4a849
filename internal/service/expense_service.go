package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/balances"
	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/expenses"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type ExpenseService struct {
	pg       *pgxpool.Pool
	expenses *expenses.Repo
	projects *projects.Repo
	balances *balances.Repo
	cache    *store.ReportCache
	logger   *zap.Logger
}

func NewExpenseService(pg *pgxpool.Pool, er *expenses.Repo, pr *projects.Repo, br *balances.Repo, cache *store.ReportCache, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{pg: pg, expenses: er, projects: pr, balances: br, cache: cache, logger: logger}
}

type CreateExpense struct {
	ProjectID   uuid.UUID
	Amount      decimal.Decimal
	ExpenseDate util.Date
	ExpenseType domain.ExpenseType
	Description string
	CreatedBy   *uuid.UUID
}

// Create records an expense. A shared expense is split over the project
// representatives by share and debited from their balances; a TTO expense
// touches no balance.
func (s *ExpenseService) Create(ctx context.Context, in CreateExpense) (*expenses.Expense, error) {
	amount := ledger.Round(in.Amount)
	if !amount.IsPositive() {
		return nil, ledger.ErrNonPositiveAmount
	}
	if !in.ExpenseType.Valid() {
		return nil, domain.Invalid("expense_type", "error.invalid_expense_type")
	}

	var out *expenses.Expense
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		p, err := s.projects.FindForUpdate(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		e, err := s.expenses.Insert(ctx, tx, expenses.Expense{
			ProjectID:   p.ID,
			Amount:      amount,
			ExpenseDate: in.ExpenseDate,
			ExpenseType: in.ExpenseType,
			Description: in.Description,
			CreatedBy:   in.CreatedBy,
		})
		if err != nil {
			return err
		}
		out = e
		if in.ExpenseType != domain.ExpenseShared {
			return nil
		}

		reps, err := s.projects.Representatives(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		allocs, err := ledger.SplitProportional(amount, projects.Shares(reps))
		if err != nil {
			return err
		}
		owners := make(map[string]domain.Owner, len(reps))
		locks := make([]domain.Owner, 0, len(reps))
		for _, r := range reps {
			owners[r.Owner.String()] = r.Owner
			locks = append(locks, r.Owner)
		}
		if err := s.balances.LockOwners(ctx, tx, locks); err != nil {
			return err
		}
		ref := e.ID
		desc := fmt.Sprintf("%s expense %s", p.Code, in.ExpenseDate)
		for _, a := range allocs {
			if !a.Amount.IsPositive() {
				continue
			}
			_, err := s.balances.Apply(ctx, tx, owners[a.Key], balances.Entry{
				Type:          domain.TxExpense,
				Amount:        a.Amount,
				ReferenceType: balances.RefExpense,
				ReferenceID:   &ref,
				Description:   desc,
				CreatedBy:     in.CreatedBy,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return out, nil
}

// Delete reverses every debit booked for the expense, then removes it.
func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID, by *uuid.UUID) error {
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		e, err := s.expenses.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		txs, err := s.balances.TransactionsByReference(ctx, tx, balances.RefExpense, e.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(txs))
		for _, t := range txs {
			ids = append(ids, t.BalanceID)
		}
		if err := s.balances.LockIDs(ctx, tx, ids); err != nil {
			return err
		}
		ref := e.ID
		for _, t := range txs {
			if t.Type != domain.TxExpense {
				continue
			}
			_, err := s.balances.ApplyByID(ctx, tx, t.BalanceID, balances.Entry{
				Type:          domain.TxExpenseReversal,
				Amount:        t.Amount,
				ReferenceType: balances.RefExpense,
				ReferenceID:   &ref,
				Description:   fmt.Sprintf("%s expense reversal", e.ProjectCode),
				CreatedBy:     by,
			})
			if err != nil {
				return err
			}
		}
		return s.expenses.Delete(ctx, tx, e.ID)
	})
	if err != nil {
		return err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return nil
}
