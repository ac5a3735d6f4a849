package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type AuthHandler struct {
	logger *zap.Logger

	users   *users.Repo
	refresh *store.RefreshStore
	jwtm    *security.JWTManager
}

func NewAuthHandler(logger *zap.Logger, usersRepo *users.Repo, refreshStore *store.RefreshStore, jwtm *security.JWTManager) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		users:   usersRepo,
		refresh: refreshStore,
		jwtm:    jwtm,
	}
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}

	u, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		fail(c, h.logger, "find user by email", err)
		return
	}
	if u == nil || !util.ComparePassword(u.PasswordHash, req.Password) {
		response.Error(c, http.StatusUnauthorized, msg(c, "error.invalid_credentials"))
		return
	}
	if !u.IsActive {
		response.Error(c, http.StatusForbidden, msg(c, "error.account_inactive"))
		return
	}

	tokens, claims, err := h.jwtm.Issue(u.Role, u.ID)
	if err != nil {
		fail(c, h.logger, "token issue", err)
		return
	}
	if err := h.refresh.Put(c.Request.Context(), claims.UserID, claims.JTI); err != nil {
		fail(c, h.logger, "refresh store put", err)
		return
	}
	if err := h.users.TouchLogin(c.Request.Context(), u.ID); err != nil {
		h.logger.Warn("touch last login failed", zap.Error(err))
	}

	response.OK(c, gin.H{"tokens": tokens, "user": u})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates a refresh token. With Redis configured the old JTI is single-use.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	claims, err := h.jwtm.ParseRefresh(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, msg(c, "error.invalid_token"))
		return
	}
	if err := h.refresh.Consume(c.Request.Context(), claims.UserID, claims.JTI); err != nil {
		if errors.Is(err, store.ErrRefreshInvalid) {
			response.Error(c, http.StatusUnauthorized, msg(c, "error.invalid_token"))
			return
		}
		fail(c, h.logger, "refresh consume", err)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, msg(c, "error.invalid_token"))
		return
	}
	u, err := h.users.FindByID(c.Request.Context(), userID)
	if errors.Is(err, users.ErrNotFound) {
		response.Error(c, http.StatusUnauthorized, msg(c, "error.invalid_token"))
		return
	}
	if err != nil {
		fail(c, h.logger, "find user", err)
		return
	}
	if !u.IsActive {
		response.Error(c, http.StatusUnauthorized, msg(c, "error.account_inactive"))
		return
	}

	tokens, next, err := h.jwtm.Issue(u.Role, u.ID)
	if err != nil {
		fail(c, h.logger, "token issue", err)
		return
	}
	if err := h.refresh.Put(c.Request.Context(), next.UserID, next.JTI); err != nil {
		fail(c, h.logger, "refresh store put", err)
		return
	}
	response.OK(c, gin.H{"tokens": tokens})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	claims, err := h.jwtm.ParseRefresh(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, msg(c, "error.invalid_token"))
		return
	}
	// Logging out twice is not an error.
	if err := h.refresh.Consume(c.Request.Context(), claims.UserID, claims.JTI); err != nil && !errors.Is(err, store.ErrRefreshInvalid) {
		fail(c, h.logger, "refresh consume", err)
		return
	}
	response.Success(c, http.StatusOK, msg(c, "auth.logged_out"), nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.FindByID(c.Request.Context(), principal(c).UserID)
	if err != nil {
		fail(c, h.logger, "find user", err)
		return
	}
	response.OK(c, u)
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword also revokes every refresh token of the user.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	if err := util.ValidatePassword(req.NewPassword); err != nil {
		invalid(c, "new_password", "error.weak_password")
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.FindByID(ctx, principal(c).UserID)
	if err != nil {
		fail(c, h.logger, "find user", err)
		return
	}
	if !util.ComparePassword(u.PasswordHash, req.CurrentPassword) {
		invalid(c, "current_password", "error.wrong_password")
		return
	}
	hash, err := util.HashPassword(req.NewPassword)
	if err != nil {
		fail(c, h.logger, "hash password", err)
		return
	}
	if err := h.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		fail(c, h.logger, "update password", err)
		return
	}
	if err := h.refresh.RevokeAll(ctx, u.ID.String()); err != nil {
		h.logger.Warn("revoke refresh tokens failed", zap.Error(err))
	}
	response.Success(c, http.StatusOK, msg(c, "auth.password_changed"), nil)
}
