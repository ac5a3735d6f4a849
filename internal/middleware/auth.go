// Middleware: Authorization: Bearer <token> and role checks.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
)

const HeaderAuthorization = "Authorization"
const BearerPrefix = "Bearer "

// TokenValidator checks a bearer token and returns the caller.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (security.Principal, error)
}

// ActiveChecker reports whether a user account may still use the API.
// Tokens stay valid until expiry, so deactivation is enforced here.
type ActiveChecker interface {
	IsActive(ctx context.Context, p security.Principal) (bool, error)
}

// AuthMiddleware requires a valid bearer token; 401 otherwise.
func AuthMiddleware(validator TokenValidator, active ActiveChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := LanguageFrom(c.Request.Context())
		raw := c.GetHeader(HeaderAuthorization)
		if raw == "" || !strings.HasPrefix(raw, BearerPrefix) {
			response.AbortWithError(c, http.StatusUnauthorized, i18n.T(lang, "error.unauthorized"))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(raw, BearerPrefix))
		if token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, i18n.T(lang, "error.unauthorized"))
			return
		}
		p, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, i18n.T(lang, "error.invalid_token"))
			return
		}
		if active != nil {
			ok, err := active.IsActive(c.Request.Context(), p)
			if err != nil {
				response.AbortWithError(c, http.StatusInternalServerError, i18n.T(lang, "error.internal"))
				return
			}
			if !ok {
				response.AbortWithError(c, http.StatusUnauthorized, i18n.T(lang, "error.account_inactive"))
				return
			}
		}
		setValue(c, ContextKeyPrincipal, p)
		c.Next()
	}
}

// RequireRoles lets only the given roles through; 403 otherwise. Must run after AuthMiddleware.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c.Request.Context())
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, i18n.T(LanguageFrom(c.Request.Context()), "error.unauthorized"))
			return
		}
		if !allowed[p.Role] {
			response.AbortWithError(c, http.StatusForbidden, i18n.T(LanguageFrom(c.Request.Context()), "error.forbidden"))
			return
		}
		c.Next()
	}
}
