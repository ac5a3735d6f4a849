package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/incomes"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type IncomesHandler struct {
	logger   *zap.Logger
	incomes  *incomes.Repo
	projects *projects.Repo
	svc      *service.IncomeService
}

func NewIncomesHandler(logger *zap.Logger, incomesRepo *incomes.Repo, projectsRepo *projects.Repo, svc *service.IncomeService) *IncomesHandler {
	return &IncomesHandler{logger: logger, incomes: incomesRepo, projects: projectsRepo, svc: svc}
}

func (h *IncomesHandler) List(c *gin.Context) {
	projectID, ok := projectScope(c, h.logger, h.projects)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	f := incomes.Filter{ProjectID: projectID, From: from, To: to, MemberUserID: memberScope(c)}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := domain.IncomeStatus(raw)
		if !s.Valid() {
			invalid(c, "status", "error.invalid_status")
			return
		}
		f.Status = &s
	}
	page := util.PageFromQuery(c)
	items, total, err := h.incomes.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, h.logger, "list incomes", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

func (h *IncomesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	inc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get income", err)
		return
	}
	if !requireMember(c, h.logger, h.projects, inc.ProjectID) {
		return
	}
	response.OK(c, inc)
}

type createIncomeReq struct {
	ProjectID       string           `json:"project_id" binding:"required"`
	InvoiceNumber   *string          `json:"invoice_number"`
	InvoiceDate     util.Date        `json:"invoice_date"`
	GrossAmount     decimal.Decimal  `json:"gross_amount"`
	VATRate         *decimal.Decimal `json:"vat_rate"`
	Description     string           `json:"description"`
	CollectedAmount *decimal.Decimal `json:"collected_amount"`
	CollectionDate  *util.Date       `json:"collection_date"`
}

func (h *IncomesHandler) Create(c *gin.Context) {
	var req createIncomeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
	if err != nil {
		invalid(c, "project_id", "error.invalid_id")
		return
	}
	if req.InvoiceDate.IsZero() {
		invalid(c, "invoice_date", "error.required")
		return
	}
	req.GrossAmount = ledger.Round(req.GrossAmount)
	if !req.GrossAmount.IsPositive() {
		invalid(c, "gross_amount", "error.amount_must_be_positive")
		return
	}
	if req.VATRate != nil {
		rate := ledger.RoundRate(*req.VATRate)
		if !ledger.ValidRate(rate) {
			invalid(c, "vat_rate", "error.rate_out_of_range")
			return
		}
		req.VATRate = &rate
	}
	if req.CollectedAmount != nil {
		collected := ledger.Round(*req.CollectedAmount)
		req.CollectedAmount = &collected
	}
	if req.CollectedAmount != nil && req.CollectedAmount.IsNegative() {
		invalid(c, "collected_amount", "error.amount_must_be_positive")
		return
	}
	// A zero initial collection means nothing was received yet.
	if req.CollectedAmount != nil && req.CollectedAmount.IsZero() {
		req.CollectedAmount = nil
	}

	inc, err := h.svc.Create(c.Request.Context(), service.CreateIncome{
		ProjectID:      projectID,
		InvoiceNumber:  trim(req.InvoiceNumber),
		InvoiceDate:    req.InvoiceDate,
		GrossAmount:    req.GrossAmount,
		VATRate:        req.VATRate,
		Description:    strings.TrimSpace(req.Description),
		Collected:      req.CollectedAmount,
		CollectionDate: req.CollectionDate,
		CreatedBy:      actor(c),
	})
	if err != nil {
		fail(c, h.logger, "create income", err)
		return
	}
	response.Created(c, inc)
}

type collectReq struct {
	Amount         decimal.Decimal `json:"amount"`
	CollectionDate util.Date       `json:"collection_date"`
}

// Collect registers money received against an income and credits the
// representatives with their part of it.
func (h *IncomesHandler) Collect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req collectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	req.Amount = ledger.Round(req.Amount)
	if !req.Amount.IsPositive() {
		invalid(c, "amount", "error.amount_must_be_positive")
		return
	}
	if req.CollectionDate.IsZero() {
		req.CollectionDate = util.Today()
	}
	inc, err := h.svc.Collect(c.Request.Context(), id, req.Amount, req.CollectionDate, actor(c))
	if err != nil {
		fail(c, h.logger, "collect income", err)
		return
	}
	response.OK(c, inc)
}

type updateIncomeReq struct {
	InvoiceNumber *string    `json:"invoice_number"`
	InvoiceDate   *util.Date `json:"invoice_date"`
	Description   *string    `json:"description"`
}

// Update changes invoice metadata only. Amounts are fixed once recorded.
func (h *IncomesHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateIncomeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	var description *string
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		description = &d
	}
	inc, err := h.svc.Update(c.Request.Context(), id, incomes.UpdateParams{
		InvoiceNumber: trim(req.InvoiceNumber),
		InvoiceDate:   req.InvoiceDate,
		Description:   description,
	})
	if err != nil {
		fail(c, h.logger, "update income", err)
		return
	}
	response.OK(c, inc)
}

func (h *IncomesHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "delete income", err)
		return
	}
	response.OK(c, nil)
}

func (h *IncomesHandler) Commissions(c *gin.Context) {
	projectID, ok := queryID(c, "project_id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	page := util.PageFromQuery(c)
	items, total, sum, err := h.incomes.ListCommissions(c.Request.Context(), incomes.CommissionFilter{
		ProjectID: projectID,
		From:      from,
		To:        to,
	}, page)
	if err != nil {
		fail(c, h.logger, "list commissions", err)
		return
	}
	response.OK(c, gin.H{
		"items":        items,
		"total":        total,
		"page":         page.Page,
		"limit":        page.Limit,
		"total_amount": sum,
	})
}
