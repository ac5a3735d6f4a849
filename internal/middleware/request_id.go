// Middleware: X-Request-ID propagation.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderXRequestID = "X-Request-ID"

// RequestIDMiddleware keeps a valid incoming X-Request-ID (UUID) or generates one,
// and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := ""
		if id, err := uuid.Parse(c.GetHeader(HeaderXRequestID)); err == nil {
			rid = id.String()
		} else {
			rid = uuid.NewString()
		}
		setValue(c, ContextKeyRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
