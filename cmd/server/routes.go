package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/webermont/LeiaMais/internal/handlers"
	"github.com/webermont/LeiaMais/internal/middleware"
)

func (a *app) router() (*gin.Engine, error) {
	gin.SetMode(a.cfg.Server.Mode)
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()

	// Add global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.CORS(a.cfg.Server.AllowOrigins...))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Metrics(a.metrics))

	// Interfaces must stay untyped nil when redis is off.
	var redisHealth handlers.HealthChecker
	if a.redis != nil {
		redisHealth = a.redis
	}
	store := a.db.Store()

	rateLimiter := middleware.NewRateLimiter(a.redisClientOrNil())
	authMiddleware := middleware.NewAuthMiddleware(a.auth)

	healthHandler := handlers.NewHealthHandler(version, a.db, redisHealth)
	authHandler := handlers.NewAuthHandler(a.auth, a.users)
	bookHandler := handlers.NewBookHandler(a.books)
	userHandler := handlers.NewUserHandler(a.users)
	loanHandler := handlers.NewLoanHandler(a.loans)
	fineHandler := handlers.NewFineHandler(a.fines)
	reportHandler := handlers.NewReportHandler(a.reports)
	settingsHandler := handlers.NewSettingsHandler(a.settings)
	auditHandler := handlers.NewAuditHandler(store)

	// Public routes (no authentication required)
	public := r.Group("/api/v1")
	{
		public.GET("/ping", healthHandler.Ping)
		public.GET("/health", healthHandler.Health)

		auth := public.Group("/auth")
		auth.Use(rateLimiter.AuthLimit(), middleware.NoStore())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}
	}

	// Protected routes (authentication required)
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(rateLimiter.APILimit())
	protected.Use(middleware.Audit(store, a.logger))
	{
		protected.GET("/profile", middleware.NoStore(), authHandler.GetProfile)
		protected.POST("/auth/logout", authHandler.Logout)

		books := protected.Group("/books")
		{
			books.GET("", bookHandler.ListBooks)
			books.GET("/:id", bookHandler.GetBook)
			books.POST("", authMiddleware.RequireStaff(), bookHandler.CreateBook)
			books.PUT("/:id", authMiddleware.RequireStaff(), bookHandler.UpdateBook)
			books.DELETE("/:id", authMiddleware.RequireStaff(), bookHandler.DeleteBook)
		}

		// Members may read their own record; the handlers check ownership.
		users := protected.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/loans", userHandler.ListUserLoans)
			users.GET("", authMiddleware.RequireStaff(), userHandler.ListUsers)
			users.POST("", authMiddleware.RequireStaff(), userHandler.CreateUser)
			users.PUT("/:id", authMiddleware.RequireStaff(), userHandler.UpdateUser)
			users.POST("/:id/block", authMiddleware.RequireStaff(), userHandler.BlockUser)
			users.POST("/:id/unblock", authMiddleware.RequireStaff(), userHandler.UnblockUser)
			users.DELETE("/:id", authMiddleware.RequireAdmin(), userHandler.DeleteUser)
		}

		loans := protected.Group("/loans")
		{
			loans.GET("/:id", loanHandler.GetLoan)
			loans.GET("", authMiddleware.RequireStaff(), loanHandler.ListLoans)
			loans.GET("/overdue", authMiddleware.RequireStaff(), loanHandler.ListOverdueLoans)
			loans.POST("/borrow", authMiddleware.RequireStaff(), loanHandler.Borrow)
			loans.POST("/:id/return", authMiddleware.RequireStaff(), loanHandler.Return)
			loans.POST("/:id/renew", authMiddleware.RequireStaff(), loanHandler.Renew)
		}

		fines := protected.Group("/fines")
		{
			fines.GET("/user/:userId", fineHandler.ListUserFines)
			fines.GET("/calculate/:loanId", authMiddleware.RequireStaff(), fineHandler.CalculateFine)
			fines.POST("", authMiddleware.RequireStaff(), fineHandler.CreateFine)
			fines.PATCH("/:id", authMiddleware.RequireStaff(), fineHandler.UpdateFineStatus)
			fines.GET("/pending", authMiddleware.RequireStaff(), fineHandler.ListPendingFines)
			fines.POST("/process-automatic", authMiddleware.RequireStaff(), fineHandler.ProcessAutomaticFines)
		}

		reportHandler.RegisterRoutes(protected.Group("", authMiddleware.RequireStaff()))

		settings := protected.Group("/settings")
		{
			settings.GET("", authMiddleware.RequireStaff(), settingsHandler.ListSettings)
			settings.GET("/:key", authMiddleware.RequireStaff(), settingsHandler.GetSetting)
			settings.PUT("/:key", authMiddleware.RequireAdmin(), settingsHandler.UpsertSetting)
		}

		protected.GET("/audit-logs", authMiddleware.RequireAdmin(), auditHandler.ListAuditLogs)
	}

	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	r.GET("/health", healthHandler.Health)

	return r, nil
}
