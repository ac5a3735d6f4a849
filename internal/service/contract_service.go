package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/contracts"
	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrAmendmentEmpty    = domain.Invalid("new_end_date", "error.contract_change_required")
	ErrEndNotExtended    = domain.Invalid("new_end_date", "error.end_date_not_extended")
	ErrContractNotLatest = domain.NewError(domain.ErrRule, "error.contract_not_latest")
)

type ContractService struct {
	pg        *pgxpool.Pool
	contracts *contracts.Repo
	projects  *projects.Repo
	cache     *store.ReportCache
	logger    *zap.Logger
}

func NewContractService(pg *pgxpool.Pool, cr *contracts.Repo, pr *projects.Repo, cache *store.ReportCache, logger *zap.Logger) *ContractService {
	return &ContractService{pg: pg, contracts: cr, projects: pr, cache: cache, logger: logger}
}

type CreateContract struct {
	AmendmentDate    util.Date
	NewEndDate       *util.Date
	AdditionalBudget *decimal.Decimal
	Description      string
	CreatedBy        *uuid.UUID
}

// Create applies a supplementary contract to the project and keeps the values
// it replaced.
func (s *ContractService) Create(ctx context.Context, projectID uuid.UUID, in CreateContract) (*contracts.Contract, error) {
	if in.NewEndDate == nil && in.AdditionalBudget == nil {
		return nil, ErrAmendmentEmpty
	}
	add := decimal.Zero
	if in.AdditionalBudget != nil {
		add = ledger.Round(*in.AdditionalBudget)
		if !add.IsPositive() {
			return nil, domain.Invalid("additional_budget", "error.amount_must_be_positive")
		}
	}

	var out *contracts.Contract
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		p, err := s.projects.FindForUpdate(ctx, tx, projectID)
		if err != nil {
			return err
		}
		endDate := p.EndDate
		if in.NewEndDate != nil {
			current := p.StartDate
			if p.EndDate != nil {
				current = *p.EndDate
			}
			if !in.NewEndDate.After(current) {
				return ErrEndNotExtended
			}
			endDate = in.NewEndDate
		}
		if err := s.projects.ApplyAmendment(ctx, tx, p.ID, endDate, p.Budget.Add(add)); err != nil {
			return err
		}
		out, err = s.contracts.Insert(ctx, tx, contracts.Contract{
			ProjectID:        p.ID,
			AmendmentDate:    in.AmendmentDate,
			NewEndDate:       in.NewEndDate,
			AdditionalBudget: add,
			PreviousEndDate:  p.EndDate,
			PreviousBudget:   p.Budget,
			Description:      in.Description,
			CreatedBy:        in.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return out, nil
}

// Delete reverts the project to the values stored on the contract. Only the
// most recent contract of a project can be deleted.
func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) error {
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		c, err := s.contracts.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.projects.FindForUpdate(ctx, tx, c.ProjectID); err != nil {
			return err
		}
		latest, err := s.contracts.Latest(ctx, tx, c.ProjectID)
		if err != nil {
			return err
		}
		if latest.ID != c.ID {
			return ErrContractNotLatest
		}
		if err := s.projects.ApplyAmendment(ctx, tx, c.ProjectID, c.PreviousEndDate, c.PreviousBudget); err != nil {
			return err
		}
		return s.contracts.Delete(ctx, tx, c.ID)
	})
	if err != nil {
		return err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	return nil
}
