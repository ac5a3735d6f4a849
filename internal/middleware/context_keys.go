// Context keys and getters for request id, language and the authenticated principal.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
)

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyLanguage  contextKey = "language"
	ContextKeyPrincipal contextKey = "principal" // set by AuthMiddleware
)

// PrincipalFrom returns the authenticated caller (after AuthMiddleware).
func PrincipalFrom(ctx context.Context) (security.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(security.Principal)
	return p, ok
}

// UserIDFrom returns the authenticated user id or uuid.Nil.
func UserIDFrom(ctx context.Context) uuid.UUID {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.UserID
	}
	return uuid.Nil
}

// RoleFrom returns the authenticated role or "".
func RoleFrom(ctx context.Context) domain.Role {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.Role
	}
	return ""
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// LanguageFrom returns the negotiated language; defaults to i18n.DefaultLang.
func LanguageFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyLanguage).(string); ok {
		return v
	}
	return i18n.DefaultLang
}

// setValue stores v both on the gin context and on the request context.
func setValue(c *gin.Context, key contextKey, v any) {
	c.Set(string(key), v)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), key, v))
}
