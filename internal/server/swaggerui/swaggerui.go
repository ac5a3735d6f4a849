package swaggerui

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var spec []byte

// Register serves a minimal Swagger UI backed by the embedded OpenAPI document.
func Register(r gin.IRoutes) {
	r.GET("/swagger/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", spec)
	})

	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>TTO Muhasebe API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>
      .topbar { display: none; }
    </style>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.onload = () => {
        const LS_KEY = 'muhasebe_language';

        function getLang() {
          try { return localStorage.getItem(LS_KEY) || 'tr'; } catch(e) { return 'tr'; }
        }

        window.ui = SwaggerUIBundle({
          url: '/swagger/openapi.yaml',
          dom_id: '#swagger-ui',
          deepLinking: true,
          persistAuthorization: true,
          docExpansion: 'none',
          defaultModelsExpandDepth: -1,
          requestInterceptor: (req) => {
            // Messages come back in the language stored in localStorage.
            req.headers = req.headers || {};
            if (!req.headers['Accept-Language']) req.headers['Accept-Language'] = getLang();
            return req;
          }
        });
      };
    </script>
  </body>
</html>`
