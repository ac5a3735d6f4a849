// Middleware: turns a panic into a 500 without leaking the stack to the client.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
)

func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("panic", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", RequestIDFrom(c.Request.Context())),
					zap.Stack("stack"),
				)
				response.AbortWithError(c, http.StatusInternalServerError, i18n.T(LanguageFrom(c.Request.Context()), "error.internal"))
			}
		}()
		c.Next()
	}
}
