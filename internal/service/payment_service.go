package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/balances"
	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/payments"
	"github.com/Mikbal34/muhasebe-sub003/internal/personnel"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

var (
	ErrIBANRequired = domain.Invalid("iban", "error.iban_required")
	ErrIBANInvalid  = domain.Invalid("iban", "error.invalid_iban")
)

type PaymentService struct {
	pg        *pgxpool.Pool
	payments  *payments.Repo
	balances  *balances.Repo
	users     *users.Repo
	personnel *personnel.Repo
	cache     *store.ReportCache
	logger    *zap.Logger
}

func NewPaymentService(pg *pgxpool.Pool, pr *payments.Repo, br *balances.Repo, ur *users.Repo, per *personnel.Repo, cache *store.ReportCache, logger *zap.Logger) *PaymentService {
	return &PaymentService{pg: pg, payments: pr, balances: br, users: ur, personnel: per, cache: cache, logger: logger}
}

type CreatePayment struct {
	Owner       domain.Owner
	Amount      decimal.Decimal
	IBAN        *string
	Description string
	CreatedBy   *uuid.UUID
}

// Create opens a pending instruction and reserves its amount on the owner's
// balance.
func (s *PaymentService) Create(ctx context.Context, in CreatePayment) (*payments.Instruction, error) {
	amount := ledger.Round(in.Amount)
	if !amount.IsPositive() {
		return nil, ledger.ErrNonPositiveAmount
	}
	iban, err := s.resolveIBAN(ctx, in.Owner, in.IBAN)
	if err != nil {
		return nil, err
	}

	var out *payments.Instruction
	err = db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		id := uuid.New()
		b, err := s.balances.Apply(ctx, tx, in.Owner, balances.Entry{
			Type:          domain.TxPaymentReserve,
			Amount:        amount,
			ReferenceType: balances.RefPayment,
			ReferenceID:   &id,
			Description:   in.Description,
			CreatedBy:     in.CreatedBy,
		})
		if err != nil {
			return err
		}
		out, err = s.payments.Insert(ctx, tx, payments.Instruction{
			ID:          id,
			BalanceID:   b.ID,
			Owner:       in.Owner,
			Amount:      amount,
			IBAN:        iban,
			Description: in.Description,
			CreatedBy:   in.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	s.logger.Info("payment instruction created",
		zap.String("instruction", out.InstructionNumber),
		zap.String("owner", out.Owner.String()),
		zap.String("amount", amount.StringFixed(ledger.Scale)),
	)
	return out, nil
}

// resolveIBAN falls back to the IBAN stored on the owner.
func (s *PaymentService) resolveIBAN(ctx context.Context, owner domain.Owner, given *string) (string, error) {
	var raw string
	if given != nil {
		raw = strings.TrimSpace(*given)
	}
	if raw == "" {
		stored, err := s.ownerIBAN(ctx, owner)
		if err != nil {
			return "", err
		}
		raw = stored
	}
	if raw == "" {
		return "", ErrIBANRequired
	}
	iban, err := util.NormalizeIBAN(raw)
	if err != nil {
		return "", ErrIBANInvalid
	}
	return iban, nil
}

func (s *PaymentService) ownerIBAN(ctx context.Context, owner domain.Owner) (string, error) {
	var iban *string
	switch owner.Type {
	case domain.OwnerUser:
		u, err := s.users.FindByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		iban = u.IBAN
	case domain.OwnerPersonnel:
		p, err := s.personnel.FindByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		iban = p.IBAN
	default:
		return "", domain.Invalid("owner", "error.owner_required")
	}
	if iban == nil {
		return "", nil
	}
	return *iban, nil
}

// SetStatus moves an instruction along pending -> approved -> completed, or to
// rejected. Rejecting releases the reserve; completing settles it.
func (s *PaymentService) SetStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, note string, by uuid.UUID) (*payments.Instruction, error) {
	if !status.Valid() {
		return nil, domain.Invalid("status", "error.invalid_status")
	}
	var out *payments.Instruction
	err := db.WithTx(ctx, s.pg, func(tx pgx.Tx) error {
		cur, err := s.payments.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransition(status) {
			return payments.ErrInvalidTransition
		}

		var op domain.TransactionType
		switch status {
		case domain.PaymentRejected:
			op = domain.TxPaymentRelease
		case domain.PaymentCompleted:
			op = domain.TxPayment
		}
		if op != "" {
			ref := cur.ID
			_, err := s.balances.ApplyByID(ctx, tx, cur.BalanceID, balances.Entry{
				Type:          op,
				Amount:        cur.Amount,
				ReferenceType: balances.RefPayment,
				ReferenceID:   &ref,
				Description:   cur.InstructionNumber,
				CreatedBy:     &by,
			})
			if err != nil {
				return err
			}
		}
		out, err = s.payments.SetStatus(ctx, tx, cur.ID, status, note, by)
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateReports(ctx, s.cache, s.logger)
	s.logger.Info("payment instruction status changed",
		zap.String("instruction", out.InstructionNumber),
		zap.String("status", string(status)),
	)
	return out, nil
}
