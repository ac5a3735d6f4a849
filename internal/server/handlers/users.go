package handlers

import (
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type UsersHandler struct {
	logger *zap.Logger
	users  *users.Repo
}

func NewUsersHandler(logger *zap.Logger, usersRepo *users.Repo) *UsersHandler {
	return &UsersHandler{logger: logger, users: usersRepo}
}

func (h *UsersHandler) List(c *gin.Context) {
	var f users.Filter
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			invalid(c, "role", "error.invalid_role")
			return
		}
		f.Role = &role
	}
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	f.Active = active
	f.Query = strings.TrimSpace(c.Query("q"))

	page := util.PageFromQuery(c)
	items, total, err := h.users.List(c.Request.Context(), f, page)
	if err != nil {
		fail(c, h.logger, "list users", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

func (h *UsersHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get user", err)
		return
	}
	response.OK(c, u)
}

type createUserReq struct {
	Email    string  `json:"email" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	Password string  `json:"password" binding:"required"`
	IBAN     *string `json:"iban"`
	Phone    *string `json:"phone"`
}

func (h *UsersHandler) Create(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	email, ok := normalizeEmail(c, req.Email)
	if !ok {
		return
	}
	role := domain.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		invalid(c, "role", "error.invalid_role")
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		invalid(c, "password", "error.weak_password")
		return
	}
	iban, ok := normalizeOptionalIBAN(c, req.IBAN)
	if !ok {
		return
	}
	phone, ok := normalizeOptionalPhone(c, req.Phone)
	if !ok {
		return
	}
	hash, err := util.HashPassword(req.Password)
	if err != nil {
		fail(c, h.logger, "hash password", err)
		return
	}

	u, err := h.users.Create(c.Request.Context(), users.CreateParams{
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		PasswordHash: hash,
		IBAN:         iban,
		Phone:        phone,
	})
	if err != nil {
		fail(c, h.logger, "create user", err)
		return
	}
	h.logger.Info("user created", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	response.Created(c, u)
}

type updateUserReq struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IBAN     *string `json:"iban"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func (h *UsersHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}

	var p users.UpdateParams
	if req.Email != nil {
		email, ok := normalizeEmail(c, *req.Email)
		if !ok {
			return
		}
		p.Email = &email
	}
	if name := trim(req.FullName); name != nil {
		p.FullName = name
	}
	if req.Role != nil {
		role := domain.Role(strings.TrimSpace(*req.Role))
		if !role.Valid() {
			invalid(c, "role", "error.invalid_role")
			return
		}
		p.Role = &role
	}
	if p.IBAN, ok = normalizeOptionalIBAN(c, req.IBAN); !ok {
		return
	}
	if p.Phone, ok = normalizeOptionalPhone(c, req.Phone); !ok {
		return
	}
	p.IsActive = req.IsActive

	// An admin must not lock themselves out.
	if id == principal(c).UserID && ((p.IsActive != nil && !*p.IsActive) || (p.Role != nil && *p.Role != domain.RoleAdmin)) {
		invalid(c, "id", "error.cannot_modify_self")
		return
	}

	u, err := h.users.Update(c.Request.Context(), id, p)
	if err != nil {
		fail(c, h.logger, "update user", err)
		return
	}
	response.OK(c, u)
}

func (h *UsersHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id == principal(c).UserID {
		invalid(c, "id", "error.cannot_modify_self")
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "delete user", err)
		return
	}
	response.OK(c, nil)
}

func normalizeEmail(c *gin.Context, raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		invalid(c, "email", "error.invalid_email")
		return "", false
	}
	return s, true
}

func normalizeOptionalIBAN(c *gin.Context, raw *string) (*string, bool) {
	v := trim(raw)
	if v == nil {
		return nil, true
	}
	iban, err := util.NormalizeIBAN(*v)
	if err != nil {
		invalid(c, "iban", "error.invalid_iban")
		return nil, false
	}
	return &iban, true
}

func normalizeOptionalPhone(c *gin.Context, raw *string) (*string, bool) {
	v := trim(raw)
	if v == nil {
		return nil, true
	}
	phone, err := util.NormalizePhone(*v)
	if err != nil {
		invalid(c, "phone", "error.invalid_phone")
		return nil, false
	}
	return &phone, true
}
