package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/payments"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type PaymentsHandler struct {
	logger   *zap.Logger
	payments *payments.Repo
	svc      *service.PaymentService
}

func NewPaymentsHandler(logger *zap.Logger, paymentsRepo *payments.Repo, svc *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{logger: logger, payments: paymentsRepo, svc: svc}
}

// List shows staff every instruction; academicians only their own.
func (h *PaymentsHandler) List(c *gin.Context) {
	var f payments.Filter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := domain.PaymentStatus(raw)
		if !s.Valid() {
			invalid(c, "status", "error.invalid_status")
			return
		}
		f.Status = &s
	}
	p := principal(c)
	if p.Role.IsStaff() {
		userID := strings.TrimSpace(c.Query("user_id"))
		personnelID := strings.TrimSpace(c.Query("personnel_id"))
		if userID != "" || personnelID != "" {
			owner, err := domain.ParseOwner(userID, personnelID)
			if err != nil {
				fail(c, h.logger, "parse owner", err)
				return
			}
			f.Owner = &owner
		}
	} else {
		owner := domain.UserOwner(p.UserID)
		f.Owner = &owner
	}

	page := util.PageFromQuery(c)
	items, total, err := h.payments.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, h.logger, "list payments", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

func (h *PaymentsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, err := h.payments.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get payment", err)
		return
	}
	p := principal(c)
	if !p.Role.IsStaff() && in.Owner != domain.UserOwner(p.UserID) {
		forbidden(c)
		return
	}
	response.OK(c, in)
}

type createPaymentReq struct {
	UserID      string          `json:"user_id"`
	PersonnelID string          `json:"personnel_id"`
	Amount      decimal.Decimal `json:"amount"`
	IBAN        *string         `json:"iban"`
	Description string          `json:"description"`
}

// Create opens a payment instruction. Academicians may only request a payout
// of their own balance; the owner fields are then ignored.
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req createPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	req.Amount = ledger.Round(req.Amount)
	if !req.Amount.IsPositive() {
		invalid(c, "amount", "error.amount_must_be_positive")
		return
	}

	var owner domain.Owner
	p := principal(c)
	if p.Role.IsStaff() {
		var err error
		if owner, err = domain.ParseOwner(strings.TrimSpace(req.UserID), strings.TrimSpace(req.PersonnelID)); err != nil {
			fail(c, h.logger, "parse owner", err)
			return
		}
	} else {
		owner = domain.UserOwner(p.UserID)
	}

	in, err := h.svc.Create(c.Request.Context(), service.CreatePayment{
		Owner:       owner,
		Amount:      req.Amount,
		IBAN:        trim(req.IBAN),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   actor(c),
	})
	if err != nil {
		fail(c, h.logger, "create payment", err)
		return
	}
	response.Created(c, in)
}

type paymentStatusReq struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h *PaymentsHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req paymentStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	in, err := h.svc.SetStatus(c.Request.Context(), id,
		domain.PaymentStatus(strings.TrimSpace(req.Status)), strings.TrimSpace(req.Note), principal(c).UserID)
	if err != nil {
		fail(c, h.logger, "set payment status", err)
		return
	}
	response.OK(c, in)
}
