package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/balances"
	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
)

var ErrZeroAdjustment = domain.Invalid("amount", "error.amount_must_be_nonzero")

type BalanceService struct {
	pg       *pgxpool.Pool
	balances *balances.Repo
	cache    *store.ReportCache
	logger   *zap.Logger
}

func NewBalanceService(pg *pgxpool.Pool, br *balances.Repo, cache *store.ReportCache, logger *zap.Logger) *BalanceService {
	return &BalanceService{pg: pg, balances: br, cache: cache, logger: logger}
}

// Adjust applies a signed manual correction: positive credits, negative debits.
func (s *BalanceService) Adjust(ctx context.Context, id uuid.UUID, amount decimal.Decimal, description string, by uuid.UUID) (*balances.Balance, error) {
	amount = ledger.Round(amount)
	if amount.IsZero() {
		return nil, ErrZeroAdjustment
	}
	var out *balances.Balance
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		var err error
		out, err = s.balances.ApplyByID(ctx, tx, id, balances.Entry{
			Type:          domain.TxAdjustment,
			Amount:        amount,
			ReferenceType: balances.RefAdjustment,
			Description:   description,
			CreatedBy:     &by,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	s.logger.Info("balance adjusted",
		zap.String("balance_id", id.String()),
		zap.String("amount", amount.StringFixed(ledger.Scale)),
		zap.String("by", by.String()),
	)
	return out, nil
}
