// Package service runs the multi-table ledger writes: each operation locks
// the rows it touches, applies the ledger arithmetic and records balance
// transactions in one Postgres transaction.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
)

var ErrProjectInactive = domain.NewError(domain.ErrRule, "error.project_inactive")

// InvalidateReports drops cached dashboard data after a financial write.
// A cache failure only costs freshness, so it is logged and swallowed.
func InvalidateReports(ctx context.Context, cache *store.ReportCache, logger *zap.Logger) {
	if !cache.Enabled() {
		return
	}
	if err := cache.InvalidateAll(ctx); err != nil {
		logger.Warn("report cache invalidate failed", zap.Error(err))
	}
}
