package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/personnel"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

type PersonnelHandler struct {
	logger    *zap.Logger
	personnel *personnel.Repo
}

func NewPersonnelHandler(logger *zap.Logger, repo *personnel.Repo) *PersonnelHandler {
	return &PersonnelHandler{logger: logger, personnel: repo}
}

func (h *PersonnelHandler) List(c *gin.Context) {
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	page := util.PageFromQuery(c)
	items, total, err := h.personnel.List(c.Request.Context(), personnel.Filter{
		Active: active,
		Query:  strings.TrimSpace(c.Query("q")),
	}, page)
	if err != nil {
		fail(c, h.logger, "list personnel", err)
		return
	}
	response.OK(c, listOf(items, total, page))
}

func (h *PersonnelHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.personnel.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get personnel", err)
		return
	}
	response.OK(c, p)
}

type personReq struct {
	FullName   *string `json:"full_name"`
	NationalID *string `json:"national_id"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	IBAN       *string `json:"iban"`
	Notes      *string `json:"notes"`
	IsActive   *bool   `json:"is_active"`
}

// contact validates the optional contact fields shared by create and update.
func (req personReq) contact(c *gin.Context) (nationalID, email, phone, iban *string, ok bool) {
	if nationalID = trim(req.NationalID); nationalID != nil && !validNationalID(*nationalID) {
		invalid(c, "national_id", "error.invalid_national_id")
		return nil, nil, nil, nil, false
	}
	if e := trim(req.Email); e != nil {
		v, ok := normalizeEmail(c, *e)
		if !ok {
			return nil, nil, nil, nil, false
		}
		email = &v
	}
	if phone, ok = normalizeOptionalPhone(c, req.Phone); !ok {
		return nil, nil, nil, nil, false
	}
	if iban, ok = normalizeOptionalIBAN(c, req.IBAN); !ok {
		return nil, nil, nil, nil, false
	}
	return nationalID, email, phone, iban, true
}

func (h *PersonnelHandler) Create(c *gin.Context) {
	var req personReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	name := trim(req.FullName)
	if name == nil {
		invalid(c, "full_name", "error.required")
		return
	}
	nationalID, email, phone, iban, ok := req.contact(c)
	if !ok {
		return
	}
	p, err := h.personnel.Create(c.Request.Context(), personnel.CreateParams{
		FullName:   *name,
		NationalID: nationalID,
		Email:      email,
		Phone:      phone,
		IBAN:       iban,
		Notes:      trim(req.Notes),
	})
	if err != nil {
		fail(c, h.logger, "create personnel", err)
		return
	}
	response.Created(c, p)
}

func (h *PersonnelHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req personReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c)
		return
	}
	nationalID, email, phone, iban, ok := req.contact(c)
	if !ok {
		return
	}
	p, err := h.personnel.Update(c.Request.Context(), id, personnel.UpdateParams{
		FullName:   trim(req.FullName),
		NationalID: nationalID,
		Email:      email,
		Phone:      phone,
		IBAN:       iban,
		Notes:      trim(req.Notes),
		IsActive:   req.IsActive,
	})
	if err != nil {
		fail(c, h.logger, "update personnel", err)
		return
	}
	response.OK(c, p)
}

func (h *PersonnelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.personnel.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, "delete personnel", err)
		return
	}
	response.OK(c, nil)
}

// validNationalID accepts an 11 digit Turkish identity number.
func validNationalID(s string) bool {
	if len(s) != 11 || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
