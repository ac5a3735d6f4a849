package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/balances"
	"github.com/Mikbal34/muhasebe-sub003/internal/config"
	"github.com/Mikbal34/muhasebe-sub003/internal/contracts"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/expenses"
	"github.com/Mikbal34/muhasebe-sub003/internal/incomes"
	"github.com/Mikbal34/muhasebe-sub003/internal/infra"
	"github.com/Mikbal34/muhasebe-sub003/internal/middleware"
	"github.com/Mikbal34/muhasebe-sub003/internal/payments"
	"github.com/Mikbal34/muhasebe-sub003/internal/personnel"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/reports"
	"github.com/Mikbal34/muhasebe-sub003/internal/security"
	"github.com/Mikbal34/muhasebe-sub003/internal/server/handlers"
	"github.com/Mikbal34/muhasebe-sub003/internal/server/swaggerui"
	"github.com/Mikbal34/muhasebe-sub003/internal/service"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
)

const jwtIssuer = "muhasebe"

func NewRouter(cfg *config.Config, deps *infra.Infra, logger *zap.Logger) http.Handler {
	if cfg.App.IsLocal() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(balances.Collectors()...)
	metrics := middleware.NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger(logger))
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Security.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language", middleware.HeaderXRequestID},
		ExposeHeaders:    []string{middleware.HeaderXRequestID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.LanguageMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	swaggerui.Register(r)

	usersRepo := users.NewRepo(deps.PG)
	personnelRepo := personnel.NewRepo(deps.PG)
	projectsRepo := projects.NewRepo(deps.PG)
	contractsRepo := contracts.NewRepo(deps.PG)
	balancesRepo := balances.NewRepo(deps.PG)
	incomesRepo := incomes.NewRepo(deps.PG)
	expensesRepo := expenses.NewRepo(deps.PG)
	paymentsRepo := payments.NewRepo(deps.PG)
	reportsRepo := reports.NewRepo(deps.PG)

	jwtm := security.NewJWTManager(cfg.Security.JWTSecret, jwtIssuer, cfg.Security.AccessTTL.Duration(), cfg.Security.RefreshTTL.Duration())
	refreshStore := store.NewRefreshStore(deps.Redis, cfg.Security.RefreshTTL.Duration())
	reportCache := store.NewReportCache(deps.Redis, cfg.Cache.DashboardTTL.Duration())

	incomeSvc := service.NewIncomeService(deps.PG, incomesRepo, projectsRepo, balancesRepo, reportCache, logger)
	expenseSvc := service.NewExpenseService(deps.PG, expensesRepo, projectsRepo, balancesRepo, reportCache, logger)
	paymentSvc := service.NewPaymentService(deps.PG, paymentsRepo, balancesRepo, usersRepo, personnelRepo, reportCache, logger)
	contractSvc := service.NewContractService(deps.PG, contractsRepo, projectsRepo, reportCache, logger)
	balanceSvc := service.NewBalanceService(deps.PG, balancesRepo, reportCache, logger)
	reportSvc := service.NewReportService(reportsRepo, deps.Files, reportCache, logger)

	healthH := handlers.NewHealthHandler(logger, deps.PG, deps.Redis, cfg.App.Version)
	authH := handlers.NewAuthHandler(logger, usersRepo, refreshStore, jwtm)
	usersH := handlers.NewUsersHandler(logger, usersRepo)
	personnelH := handlers.NewPersonnelHandler(logger, personnelRepo)
	projectsH := handlers.NewProjectsHandler(logger, projectsRepo, deps.Files, reportCache, handlers.LedgerDefaults{
		VATRate:        cfg.Ledger.VATRate(),
		CommissionRate: cfg.Ledger.CommissionRate(),
	}, cfg.Storage.MaxUploadSize)
	contractsH := handlers.NewContractsHandler(logger, contractsRepo, projectsRepo, contractSvc)
	incomesH := handlers.NewIncomesHandler(logger, incomesRepo, projectsRepo, incomeSvc)
	expensesH := handlers.NewExpensesHandler(logger, expensesRepo, projectsRepo, expenseSvc)
	balancesH := handlers.NewBalancesHandler(logger, balancesRepo, incomesRepo, balanceSvc)
	paymentsH := handlers.NewPaymentsHandler(logger, paymentsRepo, paymentSvc)
	reportsH := handlers.NewReportsHandler(logger, reportsRepo, projectsRepo, reportSvc)

	v1 := r.Group("/api/v1")
	if deps.Redis != nil {
		v1.Use(middleware.RateLimitMiddleware(deps.Redis, middleware.RateLimit{
			Name:   "api",
			Limit:  cfg.Security.RateLimitRPS,
			Window: time.Second,
		}, logger))
	}
	v1.GET("/health", healthH.Get)

	login := v1.Group("/auth")
	if deps.Redis != nil {
		login.Use(middleware.RateLimitMiddleware(deps.Redis, middleware.RateLimit{
			Name:   "login",
			Limit:  cfg.Security.LoginRateLimit,
			Window: cfg.Security.LoginRateWindow.Duration(),
		}, logger))
	}
	login.POST("/login", authH.Login)
	v1.POST("/auth/refresh", authH.Refresh)
	v1.POST("/auth/logout", authH.Logout)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(jwtm, usersRepo))
	staff := middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager)
	admin := middleware.RequireRoles(domain.RoleAdmin)

	authed.GET("/auth/me", authH.Me)
	authed.PUT("/auth/me/password", authH.ChangePassword)

	u := authed.Group("/users", admin)
	u.GET("", usersH.List)
	u.GET("/:id", usersH.Get)
	u.POST("", usersH.Create)
	u.PATCH("/:id", usersH.Update)
	u.DELETE("/:id", usersH.Delete)

	pe := authed.Group("/personnel", staff)
	pe.GET("", personnelH.List)
	pe.GET("/:id", personnelH.Get)
	pe.POST("", personnelH.Create)
	pe.PATCH("/:id", personnelH.Update)
	pe.DELETE("/:id", personnelH.Delete)

	authed.GET("/projects", projectsH.List)
	authed.GET("/projects/:id", projectsH.Get)
	authed.GET("/projects/:id/contract", projectsH.DownloadContract)
	authed.GET("/projects/:id/supplementary-contracts", contractsH.List)
	pr := authed.Group("/projects", staff)
	pr.POST("", projectsH.Create)
	pr.PATCH("/:id", projectsH.Update)
	pr.PATCH("/:id/status", projectsH.SetStatus)
	pr.DELETE("/:id", projectsH.Delete)
	pr.PUT("/:id/representatives", projectsH.ReplaceRepresentatives)
	pr.POST("/:id/contract", projectsH.UploadContract)
	pr.POST("/:id/supplementary-contracts", contractsH.Create)
	authed.DELETE("/supplementary-contracts/:id", staff, contractsH.Delete)

	authed.GET("/incomes", incomesH.List)
	authed.GET("/incomes/:id", incomesH.Get)
	in := authed.Group("/incomes", staff)
	in.POST("", incomesH.Create)
	in.POST("/:id/collections", incomesH.Collect)
	in.PATCH("/:id", incomesH.Update)
	in.DELETE("/:id", incomesH.Delete)
	authed.GET("/commissions", staff, incomesH.Commissions)

	authed.GET("/expenses", expensesH.List)
	authed.GET("/expenses/:id", expensesH.Get)
	authed.POST("/expenses", staff, expensesH.Create)
	authed.DELETE("/expenses/:id", staff, expensesH.Delete)

	authed.GET("/balances", staff, balancesH.List)
	authed.GET("/balances/me", balancesH.Me)
	authed.GET("/balances/me/distributions", balancesH.MyDistributions)
	authed.GET("/balances/:id", balancesH.Get)
	authed.GET("/balances/:id/transactions", balancesH.Transactions)
	authed.POST("/balances/:id/adjustments", admin, balancesH.Adjust)

	authed.GET("/payment-instructions", paymentsH.List)
	authed.GET("/payment-instructions/:id", paymentsH.Get)
	authed.POST("/payment-instructions", paymentsH.Create)
	authed.PATCH("/payment-instructions/:id/status", staff, paymentsH.SetStatus)

	rp := authed.Group("/reports")
	rp.GET("/projects/:id/summary", reportsH.ProjectSummary)
	rp.GET("/dashboard", staff, reportsH.Dashboard)
	rp.GET("", staff, reportsH.List)
	rp.POST("", staff, reportsH.Generate)
	rp.GET("/:id/download", staff, reportsH.Download)
	rp.DELETE("/:id", staff, reportsH.Delete)

	return r
}
