package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/storage"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

// LedgerDefaults are the rates used when a project does not set its own.
type LedgerDefaults struct {
	VATRate        decimal.Decimal
	CommissionRate decimal.Decimal
}

type ProjectsHandler struct {
	logger   *zap.Logger
	projects *projects.Repo
	files    *storage.Local
	cache    *store.ReportCache

	defaults  LedgerDefaults
	maxUpload int64
}

func NewProjectsHandler(
	logger *zap.Logger,
	projectsRepo *projects.Repo,
	files *storage.Local,
	cache *store.ReportCache,
	defaults LedgerDefaults,
	maxUpload int64,
) *ProjectsHandler {
	return &ProjectsHandler{
		logger:    logger,
		projects:  projectsRepo,
		files:     files,
		cache:     cache,
		defaults:  defaults,
		maxUpload: maxUpload,
	}
}

func (h *ProjectsHandler) List(c *gin.Context) {
	f := projects.Filter{
		Query:        strings.TrimSpace(c.Query("q")),
		MemberUserID: memberScope(c),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := domain.ProjectStatus(raw)
		if !s.Valid() {
			invalid(c, "status", "error.invalid_status")
			return
		}
		f.Status = &s
	}
	page := util.PageFromQuery(c)
	items, total, err := h.projects.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, h.logger, "list projects", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

// Get returns the project with its representatives and money totals.
func (h *ProjectsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !requireMember(c, h.logger, h.projects, id) {
		return
	}
	p, err := h.projects.Detail(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get project", err)
		return
	}
	response.OK(c, p)
}

type representativeReq struct {
	UserID          string          `json:"user_id"`
	PersonnelID     string          `json:"personnel_id"`
	SharePercentage decimal.Decimal `json:"share_percentage"`
	Role            string          `json:"role"`
}

func parseRepresentatives(in []representativeReq) ([]projects.RepresentativeInput, error) {
	out := make([]projects.RepresentativeInput, 0, len(in))
	for _, r := range in {
		owner, err := domain.ParseOwner(strings.TrimSpace(r.UserID), strings.TrimSpace(r.PersonnelID))
		if err != nil {
			return nil, err
		}
		role := domain.RepresentativeRole(strings.TrimSpace(r.Role))
		if role == "" {
			role = domain.RepresentativeResearcher
		}
		out = append(out, projects.RepresentativeInput{Owner: owner, SharePercentage: r.SharePercentage, Role: role})
	}
	return out, nil
}

type createProjectReq struct {
	Code            string              `json:"code" binding:"required"`
	Name            string              `json:"name" binding:"required"`
	Description     string              `json:"description"`
	Budget          decimal.Decimal     `json:"budget"`
	StartDate       util.Date           `json:"start_date"`
	EndDate         *util.Date          `json:"end_date"`
	CommissionRate  *decimal.Decimal    `json:"commission_rate"`
	VATRate         *decimal.Decimal    `json:"vat_rate"`
	Representatives []representativeReq `json:"representatives"`
}

func (h *ProjectsHandler) Create(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	if req.StartDate.IsZero() {
		invalid(c, "start_date", "error.required")
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		invalid(c, "end_date", "error.end_before_start")
		return
	}
	if req.Budget.IsNegative() {
		invalid(c, "budget", "error.budget_negative")
		return
	}
	commission := h.defaults.CommissionRate
	if req.CommissionRate != nil {
		commission = ledger.RoundRate(*req.CommissionRate)
	}
	vat := h.defaults.VATRate
	if req.VATRate != nil {
		vat = ledger.RoundRate(*req.VATRate)
	}
	if !ledger.ValidRate(commission) {
		invalid(c, "commission_rate", "error.rate_out_of_range")
		return
	}
	if !ledger.ValidRate(vat) {
		invalid(c, "vat_rate", "error.rate_out_of_range")
		return
	}
	reps, err := parseRepresentatives(req.Representatives)
	if err != nil {
		fail(c, h.logger, "parse representatives", err)
		return
	}

	p, err := h.projects.Create(c.Request.Context(), projects.CreateParams{
		Code:           strings.TrimSpace(req.Code),
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		Budget:         ledger.Round(req.Budget),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CommissionRate: commission,
		VATRate:        vat,
		CreatedBy:      actor(c),
	}, reps)
	if err != nil {
		fail(c, h.logger, "create project", err)
		return
	}
	service.InvalidateReports(c.Request.Context(), h.cache, h.logger)
	h.logger.Info("project created", zap.String("project_id", p.ID.String()), zap.String("code", p.Code))
	response.Created(c, p)
}

type updateProjectReq struct {
	Code           *string          `json:"code"`
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Budget         *decimal.Decimal `json:"budget"`
	StartDate      *util.Date       `json:"start_date"`
	EndDate        *util.Date       `json:"end_date"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	VATRate        *decimal.Decimal `json:"vat_rate"`
}

// Update patches project fields. Rate changes apply to incomes recorded afterwards.
func (h *ProjectsHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	if req.Budget != nil && req.Budget.IsNegative() {
		invalid(c, "budget", "error.budget_negative")
		return
	}
	if req.CommissionRate != nil {
		rate := ledger.RoundRate(*req.CommissionRate)
		req.CommissionRate = &rate
	}
	if req.VATRate != nil {
		rate := ledger.RoundRate(*req.VATRate)
		req.VATRate = &rate
	}
	if req.CommissionRate != nil && !ledger.ValidRate(*req.CommissionRate) {
		invalid(c, "commission_rate", "error.rate_out_of_range")
		return
	}
	if req.VATRate != nil && !ledger.ValidRate(*req.VATRate) {
		invalid(c, "vat_rate", "error.rate_out_of_range")
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		invalid(c, "end_date", "error.end_before_start")
		return
	}
	var description *string
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		description = &d
	}

	p, err := h.projects.Update(c.Request.Context(), id, projects.UpdateParams{
		Code:           trim(req.Code),
		Name:           trim(req.Name),
		Description:    description,
		Budget:         req.Budget,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CommissionRate: req.CommissionRate,
		VATRate:        req.VATRate,
	})
	if err != nil {
		fail(c, h.logger, "update project", err)
		return
	}
	service.InvalidateReports(c.Request.Context(), h.cache, h.logger)
	response.OK(c, p)
}

type projectStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *ProjectsHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req projectStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	status := domain.ProjectStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		invalid(c, "status", "error.invalid_status")
		return
	}
	p, err := h.projects.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		fail(c, h.logger, "set project status", err)
		return
	}
	service.InvalidateReports(c.Request.Context(), h.cache, h.logger)
	response.OK(c, p)
}

func (h *ProjectsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get project", err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "delete project", err)
		return
	}
	if p.ContractPath != nil {
		if err := h.files.Remove(*p.ContractPath); err != nil {
			h.logger.Warn("contract file remove failed", zap.String("project_id", id.String()), zap.Error(err))
		}
	}
	service.InvalidateReports(c.Request.Context(), h.cache, h.logger)
	response.OK(c, nil)
}

type representativesReq struct {
	Representatives []representativeReq `json:"representatives"`
}

// ReplaceRepresentatives swaps the member set. Planned distributions of
// existing incomes keep the shares they were created with.
func (h *ProjectsHandler) ReplaceRepresentatives(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req representativesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	reps, err := parseRepresentatives(req.Representatives)
	if err != nil {
		fail(c, h.logger, "parse representatives", err)
		return
	}
	out, err := h.projects.ReplaceRepresentatives(c.Request.Context(), id, reps)
	if err != nil {
		fail(c, h.logger, "replace representatives", err)
		return
	}
	service.InvalidateReports(c.Request.Context(), h.cache, h.logger)
	response.OK(c, out)
}

// UploadContract stores the signed contract as projects/{id}/contract-<n>.<ext>
// and removes the previous document once the new path is recorded.
func (h *ProjectsHandler) UploadContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, h.logger, "contract upload", storage.ErrFileRequired)
		return
	}
	if err := storage.ValidateUpload(file, h.maxUpload, storage.ContractExtensions); err != nil {
		fail(c, h.logger, "contract upload", err)
		return
	}
	if _, err := h.projects.FindByID(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "get project", err)
		return
	}

	// A fresh name per upload keeps the old file intact until the row points
	// at the new one.
	rel, err := h.files.SaveUpload(file, "projects/"+id.String(), "contract-"+uuid.NewString()[:8], h.maxUpload)
	if err != nil {
		fail(c, h.logger, "save contract", err)
		return
	}
	prev, err := h.projects.SetContractPath(c.Request.Context(), id, rel)
	if err != nil {
		_ = h.files.Remove(rel)
		fail(c, h.logger, "set contract path", err)
		return
	}
	if prev != "" && prev != rel {
		if err := h.files.Remove(prev); err != nil {
			h.logger.Warn("previous contract remove failed", zap.String("path", prev), zap.Error(err))
		}
	}
	response.Success(c, http.StatusOK, msg(c, "project.contract_uploaded"), gin.H{"has_contract": true})
}

func (h *ProjectsHandler) DownloadContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !requireMember(c, h.logger, h.projects, id) {
		return
	}
	p, err := h.projects.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get project", err)
		return
	}
	if p.ContractPath == nil {
		fail(c, h.logger, "contract download", storage.ErrFileNotFound)
		return
	}
	path, err := h.files.Path(*p.ContractPath)
	if err != nil {
		if !errors.Is(err, storage.ErrFileNotFound) {
			h.logger.Error("contract file stat failed", zap.String("project_id", id.String()), zap.Error(err))
		}
		fail(c, h.logger, "contract download", err)
		return
	}
	c.FileAttachment(path, p.Code+"-contract."+storage.Ext(path))
}

// projectScope parses an optional project id and checks the caller may see it.
func projectScope(c *gin.Context, logger *zap.Logger, repo *projects.Repo) (*uuid.UUID, bool) {
	id, ok := queryID(c, "project_id")
	if !ok {
		return nil, false
	}
	if id != nil && !requireMember(c, logger, repo, *id) {
		return nil, false
	}
	return id, true
}
