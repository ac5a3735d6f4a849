package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/balances"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/incomes"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type BalancesHandler struct {
	logger   *zap.Logger
	balances *balances.Repo
	incomes  *incomes.Repo
	svc      *service.BalanceService
}

func NewBalancesHandler(logger *zap.Logger, balancesRepo *balances.Repo, incomesRepo *incomes.Repo, svc *service.BalanceService) *BalancesHandler {
	return &BalancesHandler{logger: logger, balances: balancesRepo, incomes: incomesRepo, svc: svc}
}

func (h *BalancesHandler) List(c *gin.Context) {
	var f balances.Filter
	if raw := strings.TrimSpace(c.Query("owner_type")); raw != "" {
		t := domain.OwnerType(raw)
		if !t.Valid() {
			invalid(c, "owner_type", "error.invalid_owner_type")
			return
		}
		f.OwnerType = &t
	}
	nonZero, ok := queryBool(c, "non_zero")
	if !ok {
		return
	}
	f.NonZero = nonZero != nil && *nonZero

	page := util.PageFromQuery(c)
	items, total, err := h.balances.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, h.logger, "list balances", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

// Me returns the caller's balance. A user who never received money gets zeros.
func (h *BalancesHandler) Me(c *gin.Context) {
	owner := domain.UserOwner(principal(c).UserID)
	b, err := h.balances.FindByOwner(c.Request.Context(), owner)
	if errors.Is(err, balances.ErrNotFound) {
		response.OK(c, balances.Balance{
			Owner:     owner,
			Available: decimal.Zero,
			Debt:      decimal.Zero,
			Reserved:  decimal.Zero,
		})
		return
	}
	if err != nil {
		fail(c, h.logger, "get own balance", err)
		return
	}
	response.OK(c, b)
}

// load fetches a balance the caller may see: staff see all, others their own.
func (h *BalancesHandler) load(c *gin.Context) (*balances.Balance, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	b, err := h.balances.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get balance", err)
		return nil, false
	}
	p := principal(c)
	if !p.Role.IsStaff() && b.Owner != domain.UserOwner(p.UserID) {
		forbidden(c)
		return nil, false
	}
	return b, true
}

func (h *BalancesHandler) Get(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, b)
}

func (h *BalancesHandler) Transactions(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	page := util.PageFromQuery(c)
	items, total, err := h.balances.Transactions(c.Request.Context(), b.ID, page)
	if err != nil {
		fail(c, h.logger, "list transactions", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

type adjustReq struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required"`
}

// Adjust books a signed manual correction on a balance.
func (h *BalancesHandler) Adjust(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req adjustReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	b, err := h.svc.Adjust(c.Request.Context(), id, req.Amount, strings.TrimSpace(req.Description), principal(c).UserID)
	if err != nil {
		fail(c, h.logger, "adjust balance", err)
		return
	}
	response.OK(c, b)
}

// MyDistributions lists the income shares planned for the caller.
func (h *BalancesHandler) MyDistributions(c *gin.Context) {
	page := util.PageFromQuery(c)
	items, err := h.incomes.DistributionsByOwner(c.Request.Context(), domain.UserOwner(principal(c).UserID), page)
	if err != nil {
		fail(c, h.logger, "list own distributions", err)
		return
	}
	response.OK(c, items)
}
