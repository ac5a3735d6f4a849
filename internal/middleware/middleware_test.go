package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
)

type fakeValidator struct {
	p   security.Principal
	err error
}

func (f fakeValidator) ValidateToken(context.Context, string) (security.Principal, error) {
	return f.p, f.err
}

type fakeActive struct {
	ok  bool
	err error
}

func (f fakeActive) IsActive(context.Context, security.Principal) (bool, error) {
	return f.ok, f.err
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LanguageMiddleware())
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, string(RoleFrom(c.Request.Context())))
	})
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	admin := security.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
	bearer := map[string]string{HeaderAuthorization: "Bearer tok"}

	tests := []struct {
		name      string
		validator fakeValidator
		active    ActiveChecker
		header    map[string]string
		wantCode  int
		wantBody  string
	}{
		{name: "no header", validator: fakeValidator{p: admin}, wantCode: http.StatusUnauthorized},
		{name: "not bearer", validator: fakeValidator{p: admin}, header: map[string]string{HeaderAuthorization: "Basic abc"}, wantCode: http.StatusUnauthorized},
		{name: "empty token", validator: fakeValidator{p: admin}, header: map[string]string{HeaderAuthorization: "Bearer   "}, wantCode: http.StatusUnauthorized},
		{name: "bad token", validator: fakeValidator{err: security.ErrInvalidToken}, header: bearer, wantCode: http.StatusUnauthorized},
		{name: "inactive", validator: fakeValidator{p: admin}, active: fakeActive{ok: false}, header: bearer, wantCode: http.StatusUnauthorized},
		{name: "active check fails", validator: fakeValidator{p: admin}, active: fakeActive{err: errors.New("db down")}, header: bearer, wantCode: http.StatusInternalServerError},
		{name: "ok", validator: fakeValidator{p: admin}, active: fakeActive{ok: true}, header: bearer, wantCode: http.StatusOK, wantBody: "admin"},
		{name: "ok without active checker", validator: fakeValidator{p: admin}, header: bearer, wantCode: http.StatusOK, wantBody: "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(AuthMiddleware(tt.validator, tt.active))
			w := do(r, tt.header)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	bearer := map[string]string{HeaderAuthorization: "Bearer tok"}
	tests := []struct {
		role     domain.Role
		wantCode int
	}{
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleManager, http.StatusOK},
		{domain.RoleAcademician, http.StatusForbidden},
	}
	for _, tt := range tests {
		p := security.Principal{UserID: uuid.New(), Role: tt.role}
		r := newEngine(AuthMiddleware(fakeValidator{p: p}, nil), RequireRoles(domain.RoleAdmin, domain.RoleManager))
		if w := do(r, bearer); w.Code != tt.wantCode {
			t.Errorf("%s: code = %d, want %d", tt.role, w.Code, tt.wantCode)
		}
	}

	// Without AuthMiddleware there is no principal.
	r := newEngine(RequireRoles(domain.RoleAdmin))
	if w := do(r, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no principal: code = %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	w := do(r, nil)
	if _, err := uuid.Parse(w.Header().Get(HeaderXRequestID)); err != nil {
		t.Fatalf("generated id %q: %v", w.Header().Get(HeaderXRequestID), err)
	}

	id := uuid.NewString()
	if got := do(r, map[string]string{HeaderXRequestID: id}).Header().Get(HeaderXRequestID); got != id {
		t.Errorf("kept id = %q, want %q", got, id)
	}
	if got := do(r, map[string]string{HeaderXRequestID: "not-a-uuid"}).Header().Get(HeaderXRequestID); got == "not-a-uuid" {
		t.Error("invalid incoming id must be replaced")
	}
}

func TestNegotiateLanguage(t *testing.T) {
	tests := []struct{ header, want string }{
		{"", i18n.DefaultLang},
		{"en", "en"},
		{"en-US,en;q=0.9", "en"},
		{"de-DE, tr;q=0.8", "tr"},
		{"TR-tr", "tr"},
		{"fr", i18n.DefaultLang},
	}
	for _, tt := range tests {
		if got := negotiateLanguage(tt.header); got != tt.want {
			t.Errorf("negotiateLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/x", func(*gin.Context) { panic("boom") })

	w := do(r, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("panic value leaked: %s", w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := newEngine(SecurityHeadersMiddleware())
	w := do(r, nil)
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestHTTPMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodGet, "/items/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/items/:id", http.MethodGet, "204")); got != 3 {
		t.Errorf("requests = %v, want 3", got)
	}
}
