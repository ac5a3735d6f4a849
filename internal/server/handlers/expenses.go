package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/expenses"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type ExpensesHandler struct {
	logger   *zap.Logger
	expenses *expenses.Repo
	projects *projects.Repo
	svc      *service.ExpenseService
}

func NewExpensesHandler(logger *zap.Logger, expensesRepo *expenses.Repo, projectsRepo *projects.Repo, svc *service.ExpenseService) *ExpensesHandler {
	return &ExpensesHandler{logger: logger, expenses: expensesRepo, projects: projectsRepo, svc: svc}
}

func (h *ExpensesHandler) List(c *gin.Context) {
	projectID, ok := projectScope(c, h.logger, h.projects)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	f := expenses.Filter{ProjectID: projectID, From: from, To: to, MemberUserID: memberScope(c)}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t := domain.ExpenseType(raw)
		if !t.Valid() {
			invalid(c, "type", "error.invalid_expense_type")
			return
		}
		f.Type = &t
	}
	page := util.PageFromQuery(c)
	items, total, err := h.expenses.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, h.logger, "list expenses", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

func (h *ExpensesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.expenses.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get expense", err)
		return
	}
	if !requireMember(c, h.logger, h.projects, e.ProjectID) {
		return
	}
	response.OK(c, e)
}

type createExpenseReq struct {
	ProjectID   string          `json:"project_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate util.Date       `json:"expense_date"`
	ExpenseType string          `json:"expense_type"`
	Description string          `json:"description"`
}

func (h *ExpensesHandler) Create(c *gin.Context) {
	var req createExpenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
	if err != nil {
		invalid(c, "project_id", "error.invalid_id")
		return
	}
	req.Amount = ledger.Round(req.Amount)
	if !req.Amount.IsPositive() {
		invalid(c, "amount", "error.amount_must_be_positive")
		return
	}
	if req.ExpenseDate.IsZero() {
		req.ExpenseDate = util.Today()
	}
	typ := domain.ExpenseType(strings.TrimSpace(req.ExpenseType))
	if typ == "" {
		typ = domain.ExpenseShared
	}
	if !typ.Valid() {
		invalid(c, "expense_type", "error.invalid_expense_type")
		return
	}

	e, err := h.svc.Create(c.Request.Context(), service.CreateExpense{
		ProjectID:   projectID,
		Amount:      req.Amount,
		ExpenseDate: req.ExpenseDate,
		ExpenseType: typ,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   actor(c),
	})
	if err != nil {
		fail(c, h.logger, "create expense", err)
		return
	}
	response.Created(c, e)
}

// Delete reverses the balance debits of a shared expense before removing it.
func (h *ExpensesHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, actor(c)); err != nil {
		fail(c, h.logger, "delete expense", err)
		return
	}
	response.OK(c, nil)
}
