package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/contracts"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type ContractsHandler struct {
	logger    *zap.Logger
	contracts *contracts.Repo
	projects  *projects.Repo
	svc       *service.ContractService
}

func NewContractsHandler(logger *zap.Logger, contractsRepo *contracts.Repo, projectsRepo *projects.Repo, svc *service.ContractService) *ContractsHandler {
	return &ContractsHandler{logger: logger, contracts: contractsRepo, projects: projectsRepo, svc: svc}
}

func (h *ContractsHandler) List(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !requireMember(c, h.logger, h.projects, projectID) {
		return
	}
	items, err := h.contracts.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		fail(c, h.logger, "list contracts", err)
		return
	}
	response.OK(c, items)
}

type createContractReq struct {
	AmendmentDate    util.Date        `json:"amendment_date"`
	NewEndDate       *util.Date       `json:"new_end_date"`
	AdditionalBudget *decimal.Decimal `json:"additional_budget"`
	Description      string           `json:"description"`
}

func (h *ContractsHandler) Create(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createContractReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	if req.AmendmentDate.IsZero() {
		req.AmendmentDate = util.Today()
	}
	out, err := h.svc.Create(c.Request.Context(), projectID, service.CreateContract{
		AmendmentDate:    req.AmendmentDate,
		NewEndDate:       req.NewEndDate,
		AdditionalBudget: req.AdditionalBudget,
		Description:      strings.TrimSpace(req.Description),
		CreatedBy:        actor(c),
	})
	if err != nil {
		fail(c, h.logger, "create contract", err)
		return
	}
	response.Created(c, out)
}

// Delete reverts the latest supplementary contract of a project.
func (h *ContractsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "delete contract", err)
		return
	}
	response.OK(c, nil)
}
