// Middleware: response language from the Accept-Language header.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
)

const HeaderAcceptLanguage = "Accept-Language"

// LanguageMiddleware picks the first supported tag from Accept-Language and
// falls back to the default language.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setValue(c, ContextKeyLanguage, negotiateLanguage(c.GetHeader(HeaderAcceptLanguage)))
		c.Next()
	}
}

// negotiateLanguage walks "tr-TR,en;q=0.9" style values in order. Quality
// weights are ignored; browsers already list tags by preference.
func negotiateLanguage(h string) string {
	for _, part := range strings.Split(h, ",") {
		tag := strings.TrimSpace(part)
		if i := strings.IndexByte(tag, ';'); i >= 0 {
			tag = tag[:i]
		}
		if i := strings.IndexByte(tag, '-'); i >= 0 {
			tag = tag[:i]
		}
		tag = strings.ToLower(strings.TrimSpace(tag))
		if i18n.IsSupported(tag) {
			return tag
		}
	}
	return i18n.DefaultLang
}
