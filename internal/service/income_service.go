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
	"github.com/Mikbal34/muhasebe-sub003/internal/incomes"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type IncomeService struct {
	pg       *pgxpool.Pool
	incomes  *incomes.Repo
	projects *projects.Repo
	balances *balances.Repo
	cache    *store.ReportCache
	logger   *zap.Logger
}

// NewIncomeService creates an IncomeService. A nil cache disables invalidation.
func NewIncomeService(pg *pgxpool.Pool, ir *incomes.Repo, pr *projects.Repo, br *balances.Repo, cache *store.ReportCache, logger *zap.Logger) *IncomeService {
	return &IncomeService{pg: pg, incomes: ir, projects: pr, balances: br, cache: cache, logger: logger}
}

type CreateIncome struct {
	ProjectID      uuid.UUID
	InvoiceNumber  *string
	InvoiceDate    util.Date
	GrossAmount    decimal.Decimal
	VATRate        *decimal.Decimal
	Description    string
	Collected      *decimal.Decimal
	CollectionDate *util.Date
	CreatedBy      *uuid.UUID
}

// Create records an invoice with its planned distributions and applies the
// optional initial collection.
func (s *IncomeService) Create(ctx context.Context, in CreateIncome) (*incomes.Income, error) {
	var id uuid.UUID
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		p, err := s.projects.FindForUpdate(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		if p.Status != domain.ProjectActive {
			return ErrProjectInactive
		}
		reps, err := s.projects.Representatives(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if len(reps) == 0 {
			return ledger.ErrNoShares
		}

		vatRate := p.VATRate
		if in.VATRate != nil {
			vatRate = *in.VATRate
		}
		br, err := ledger.CalculateIncome(in.GrossAmount, vatRate, p.CommissionRate)
		if err != nil {
			return err
		}
		allocs, err := ledger.Distribute(br.Distributable, projects.Shares(reps))
		if err != nil {
			return err
		}

		inc, err := s.incomes.Insert(ctx, tx, incomes.Income{
			ProjectID:           p.ID,
			InvoiceNumber:       in.InvoiceNumber,
			InvoiceDate:         in.InvoiceDate,
			GrossAmount:         br.Gross,
			VATRate:             br.VATRate,
			VATAmount:           br.VAT,
			NetAmount:           br.Net,
			CommissionRate:      br.CommissionRate,
			CommissionAmount:    br.Commission,
			DistributableAmount: br.Distributable,
			Description:         in.Description,
			CreatedBy:           in.CreatedBy,
		})
		if err != nil {
			return err
		}

		owners := make(map[string]domain.Owner, len(reps))
		for _, r := range reps {
			owners[r.Owner.String()] = r.Owner
		}
		for _, a := range allocs {
			err := s.incomes.InsertDistribution(ctx, tx, incomes.Distribution{
				IncomeID:        inc.ID,
				Owner:           owners[a.Key],
				SharePercentage: a.Percentage,
				Amount:          a.Amount,
			})
			if err != nil {
				return err
			}
		}

		if in.Collected != nil && ledger.Round(*in.Collected).IsPositive() {
			date := in.InvoiceDate
			if in.CollectionDate != nil {
				date = *in.CollectionDate
			}
			if err := s.collect(ctx, tx, inc, *in.Collected, date, in.CreatedBy); err != nil {
				return err
			}
		}
		id = inc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// Collect registers a payment received against an income.
func (s *IncomeService) Collect(ctx context.Context, id uuid.UUID, amount decimal.Decimal, date util.Date, by *uuid.UUID) (*incomes.Income, error) {
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		inc, err := s.incomes.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.collect(ctx, tx, inc, amount, date, by)
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// collect credits each representative with the part of their planned share
// now covered by the cumulative collected amount, and books the matching
// commission. Shares are recomputed from the total, so rounding never drifts
// across partial collections.
func (s *IncomeService) collect(ctx context.Context, tx pgx.Tx, inc *incomes.Income, amount decimal.Decimal, date util.Date, by *uuid.UUID) error {
	amount = ledger.Round(amount)
	if err := ledger.ValidateCollection(inc.GrossAmount, inc.CollectedAmount, amount); err != nil {
		return err
	}
	total := inc.CollectedAmount.Add(amount)

	dists, err := s.incomes.Distributions(ctx, tx, inc.ID, true)
	if err != nil {
		return err
	}
	owners := make([]domain.Owner, 0, len(dists))
	for _, d := range dists {
		owners = append(owners, d.Owner)
	}
	if err := s.balances.LockOwners(ctx, tx, owners); err != nil {
		return err
	}
	ref := inc.ID
	desc := incomeDescription(inc)
	for _, d := range dists {
		delta := ledger.CollectedPortion(d.Amount, inc.GrossAmount, total).Sub(d.DistributedAmount)
		if !delta.IsPositive() {
			continue
		}
		_, err := s.balances.Apply(ctx, tx, d.Owner, balances.Entry{
			Type:          domain.TxIncome,
			Amount:        delta,
			ReferenceType: balances.RefIncome,
			ReferenceID:   &ref,
			Description:   desc,
			CreatedBy:     by,
		})
		if err != nil {
			return err
		}
		if err := s.incomes.AddDistributed(ctx, tx, d.ID, delta); err != nil {
			return err
		}
	}

	booked, err := s.incomes.BookedCommission(ctx, tx, inc.ID)
	if err != nil {
		return err
	}
	if due := ledger.CollectedPortion(inc.CommissionAmount, inc.GrossAmount, total).Sub(booked); due.IsPositive() {
		err := s.incomes.InsertCommission(ctx, tx, incomes.Commission{
			IncomeID:  inc.ID,
			ProjectID: inc.ProjectID,
			Rate:      inc.CommissionRate,
			Amount:    due,
		})
		if err != nil {
			return err
		}
	}

	status := incomes.StatusFor(inc.GrossAmount, total)
	if err := s.incomes.SetCollection(ctx, tx, inc.ID, total, status, date); err != nil {
		return err
	}
	s.logger.Info("income collected",
		zap.String("income_id", inc.ID.String()),
		zap.String("amount", amount.StringFixed(ledger.Scale)),
		zap.String("status", string(status)),
	)
	return nil
}

func incomeDescription(inc *incomes.Income) string {
	if inc.InvoiceNumber != nil && *inc.InvoiceNumber != "" {
		return fmt.Sprintf("%s invoice %s", inc.ProjectCode, *inc.InvoiceNumber)
	}
	return fmt.Sprintf("%s income %s", inc.ProjectCode, inc.InvoiceDate)
}

// Get loads an income with its distributions and booked commissions.
func (s *IncomeService) Get(ctx context.Context, id uuid.UUID) (*incomes.Income, error) {
	inc, err := s.incomes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Distributions, err = s.incomes.Distributions(ctx, s.pg, id, false); err != nil {
		return nil, err
	}
	if inc.Commissions, err = s.incomes.Commissions(ctx, id); err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *IncomeService) Update(ctx context.Context, id uuid.UUID, p incomes.UpdateParams) (*incomes.Income, error) {
	if _, err := s.incomes.Update(ctx, id, p); err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

func (s *IncomeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.incomes.Delete(ctx, id); err != nil {
		return err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return nil
}
