package router

import (
	"time"

	"investx/config"
	"investx/internal/domain"
	"investx/internal/handler"
	"investx/internal/metrics"
	"investx/internal/middleware"
	"investx/internal/service"
	"investx/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Services is everything the HTTP layer needs. main builds it once; tests build it on memstore.
type Services struct {
	Auth          *service.AuthService
	AdminAuth     *service.AdminAuthService
	Admin         *service.AdminService
	Ledger        *service.LedgerService
	Accounts      *service.AccountService
	Packages      *service.PackageService
	Policy        *service.PolicyService
	Audit         *service.AuditService
	Notifications *service.NotificationService
	DB            service.Pinger
	Hub           *ws.Hub
}

// Setup wires routes and middleware. The returned stop func releases the rate limiter janitors.
func Setup(cfg *config.Config, svc Services) (*gin.Engine, func()) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.GinMiddleware())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	global := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	login := middleware.PerMinute(cfg.RateLimit.LoginPerMinute)
	stop := func() {
		global.Stop()
		login.Stop()
	}
	loginMw := middleware.RateLimit(login)

	authHandler := handler.NewAuthHandler(svc.Auth)
	meHandler := handler.NewMeHandler(svc.Accounts)
	paymentHandler := handler.NewPaymentHandler(svc.Ledger, svc.Accounts)
	investmentHandler := handler.NewInvestmentHandler(svc.Ledger, svc.Accounts)
	withdrawalHandler := handler.NewWithdrawalHandler(svc.Ledger, svc.Accounts)
	referralHandler := handler.NewReferralHandler(svc.Accounts)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	systemHandler := handler.NewSystemHandler(cfg.PaymentInfo, svc.Packages, svc.DB)
	adminHandler := handler.NewAdminHandler(svc.AdminAuth, svc.Admin, svc.Ledger, svc.Accounts, svc.Packages, svc.Policy, svc.Audit)

	authMw := middleware.AuthRequired(&cfg.JWT)
	userMw := middleware.RequireRole(domain.RoleUser)
	adminMw := middleware.AdminRequired(svc.AdminAuth)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", systemHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(global))
	{
		api.GET("/healthz", systemHandler.Healthz)
		api.GET("/packages", systemHandler.Packages)
		api.GET("/payment-info", systemHandler.PaymentInfo)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", loginMw, authHandler.Register)
			authGroup.POST("/login", loginMw, authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMw, userMw, authHandler.Logout)
			authGroup.PATCH("/change-password", authMw, userMw, authHandler.ChangePassword)
		}

		me := api.Group("/me")
		me.Use(authMw, userMw)
		{
			me.GET("", meHandler.Profile)
			me.GET("/dashboard", meHandler.Dashboard)
			me.GET("/transactions", meHandler.Transactions)
			me.POST("/payments", paymentHandler.Submit)
			me.GET("/payments", paymentHandler.List)
			me.POST("/investments", investmentHandler.Create)
			me.GET("/investments", investmentHandler.List)
			me.POST("/withdrawals", withdrawalHandler.Create)
			me.GET("/withdrawals", withdrawalHandler.List)
			me.GET("/referrals", referralHandler.Summary)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/fcm-token", notificationHandler.RegisterToken)
		}

		api.POST("/admin/login", loginMw, adminHandler.Login)
		api.POST("/admin/refresh", adminHandler.Refresh)

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.PATCH("/change-password", adminHandler.ChangePassword)
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/system", adminHandler.System)

			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)
			admin.POST("/users/:id/credit", adminHandler.CreditUser)

			admin.GET("/payments", adminHandler.ListPayments)
			admin.POST("/payments/:id/approve", adminHandler.ApprovePayment)
			admin.POST("/payments/:id/reject", adminHandler.RejectPayment)

			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

			admin.GET("/packages", adminHandler.ListPackages)
			admin.POST("/packages", adminHandler.CreatePackage)
			admin.PUT("/packages/:id", adminHandler.UpdatePackage)
			admin.PATCH("/packages/:id/toggle", adminHandler.TogglePackage)
			admin.DELETE("/packages/:id", adminHandler.DeletePackage)

			admin.GET("/investments", adminHandler.ListInvestments)
			admin.POST("/investments/settle", adminHandler.Settle)

			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}
	}

	r.GET("/ws/account", ws.UpgradeAccountWS(&cfg.JWT, svc.Hub, svc.Accounts, ws.NewUpgrader(cfg.Server.AllowedOrigins)))

	return r, stop
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}
