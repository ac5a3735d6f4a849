package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/reports"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type ReportsHandler struct {
	logger   *zap.Logger
	reports  *reports.Repo
	projects *projects.Repo
	svc      *service.ReportService
}

func NewReportsHandler(logger *zap.Logger, reportsRepo *reports.Repo, projectsRepo *projects.Repo, svc *service.ReportService) *ReportsHandler {
	return &ReportsHandler{logger: logger, reports: reportsRepo, projects: projectsRepo, svc: svc}
}

func (h *ReportsHandler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "dashboard", err)
		return
	}
	response.OK(c, d)
}

func (h *ReportsHandler) ProjectSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !requireMember(c, h.logger, h.projects, id) {
		return
	}
	s, err := h.svc.ProjectSummary(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "project summary", err)
		return
	}
	response.OK(c, s)
}

type generateReportReq struct {
	Type      string     `json:"type" binding:"required"`
	ProjectID *string    `json:"project_id"`
	From      *util.Date `json:"from"`
	To        *util.Date `json:"to"`
}

func (h *ReportsHandler) Generate(c *gin.Context) {
	var req generateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	p := reports.Params{From: req.From, To: req.To}
	if raw := trim(req.ProjectID); raw != nil {
		id, err := uuid.Parse(*raw)
		if err != nil {
			invalid(c, "project_id", "error.invalid_id")
			return
		}
		p.ProjectID = &id
	}
	typ := domain.ReportType(strings.TrimSpace(req.Type))
	rep, err := h.svc.Generate(c.Request.Context(), typ, p, actor(c))
	if err != nil {
		fail(c, h.logger, "generate report", err)
		return
	}
	h.logger.Info("report generated", zap.String("report_id", rep.ID.String()), zap.String("type", string(rep.Type)), zap.Int("rows", rep.RowCount))
	response.Created(c, rep)
}

func (h *ReportsHandler) List(c *gin.Context) {
	var typ *domain.ReportType
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t := domain.ReportType(raw)
		if !t.Valid() {
			invalid(c, "type", "error.invalid_report_type")
			return
		}
		typ = &t
	}
	page := util.PageFromQuery(c)
	items, total, err := h.reports.List(c.Request.Context(), typ, page)
	if err != nil {
		fail(c, h.logger, "list reports", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

func (h *ReportsHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rep, path, err := h.svc.Open(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "open report", err)
		return
	}
	name := string(rep.Type) + "-" + rep.CreatedAt.Format("20060102-150405") + ".xlsx"
	c.FileAttachment(path, name)
}

func (h *ReportsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "delete report", err)
		return
	}
	response.OK(c, nil)
}
