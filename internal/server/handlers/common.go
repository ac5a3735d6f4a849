package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/db"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/middleware"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

func lang(c *gin.Context) string {
	return middleware.LanguageFrom(c.Request.Context())
}

func msg(c *gin.Context, key string) string {
	return i18n.T(lang(c), key)
}

func principal(c *gin.Context) security.Principal {
	p, _ := middleware.PrincipalFrom(c.Request.Context())
	return p
}

// actor is the caller id as stored in created_by columns.
func actor(c *gin.Context) *uuid.UUID {
	id := principal(c).UserID
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// memberScope limits academicians to the projects they represent.
func memberScope(c *gin.Context) *uuid.UUID {
	p := principal(c)
	if p.Role.IsStaff() {
		return nil
	}
	id := p.UserID
	return &id
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRule):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail answers with the status of a domain error and its localized message.
// Anything else is logged as op and answered with a generic 500.
func fail(c *gin.Context, logger *zap.Logger, op string, err error) {
	// A CHECK constraint is the last line of input validation.
	if db.IsCheckViolation(err) {
		logger.Warn(op+" rejected by check constraint", zap.Error(err))
		badPayload(c)
		return
	}
	status := statusFor(err)
	var de *domain.Error
	if status == http.StatusInternalServerError || !errors.As(err, &de) {
		logger.Error(op+" failed", zap.Error(err), zap.String("request_id", middleware.RequestIDFrom(c.Request.Context())))
		response.Error(c, http.StatusInternalServerError, msg(c, "error.internal"))
		return
	}
	if de.Field != "" {
		response.ErrorWithData(c, status, msg(c, de.Key), gin.H{"field": de.Field})
		return
	}
	response.Error(c, status, msg(c, de.Key))
}

func invalid(c *gin.Context, field, key string) {
	response.ErrorWithData(c, http.StatusBadRequest, msg(c, key), gin.H{"field": field})
}

func badPayload(c *gin.Context) {
	response.Error(c, http.StatusBadRequest, msg(c, "error.invalid_payload"))
}

func forbidden(c *gin.Context) {
	response.Error(c, http.StatusForbidden, msg(c, "error.forbidden"))
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		invalid(c, name, "error.invalid_id")
		return uuid.Nil, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		invalid(c, name, "error.invalid_id")
		return nil, false
	}
	return &id, true
}

func queryDate(c *gin.Context, name string) (*util.Date, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	d, err := util.ParseDate(raw)
	if err != nil {
		invalid(c, name, "error.invalid_date")
		return nil, false
	}
	return &d, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		invalid(c, name, "error.invalid_payload")
		return nil, false
	}
	return &b, true
}

func dateRange(c *gin.Context) (from, to *util.Date, ok bool) {
	if from, ok = queryDate(c, "from"); !ok {
		return nil, nil, false
	}
	if to, ok = queryDate(c, "to"); !ok {
		return nil, nil, false
	}
	if from != nil && to != nil && to.Before(*from) {
		invalid(c, "to", "error.invalid_date_range")
		return nil, nil, false
	}
	return from, to, true
}

func listOf(items interface{}, total int64, page util.Page) response.List {
	return response.List{Items: items, Total: total, Page: page.Page, Limit: page.Limit}
}

// trim trims the pointed-to string; an empty result becomes nil.
func trim(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// requireMember lets staff through and academicians only into projects they
// represent. It writes the response itself when access is denied.
func requireMember(c *gin.Context, logger *zap.Logger, repo *projects.Repo, projectID uuid.UUID) bool {
	scope := memberScope(c)
	if scope == nil {
		return true
	}
	ok, err := repo.IsMember(c.Request.Context(), projectID, *scope)
	if err != nil {
		fail(c, logger, "project membership", err)
		return false
	}
	if !ok {
		forbidden(c)
		return false
	}
	return true
}
