package routes

import (
	"time"

	"chitfund-ledger/internal/adapters/http/handlers"
	"chitfund-ledger/internal/adapters/http/middleware"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/config"
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup configures all routes for the application. rdb may be nil; the
// idempotency guard on the job endpoints is skipped without it.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, store storage.ObjectStore, rdb *redis.Client) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	tierRepo := repositories.NewTierRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	mainAccountRepo := repositories.NewMainAccountRepository(db)
	proofRepo := repositories.NewProofRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	uow := repositories.NewGormUoW(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, uow)
	loanService := services.NewLoanService(loanRepo, tierRepo, userRepo, notificationRepo, uow)
	tierService := services.NewTierService(tierRepo)
	contributionService := services.NewContributionService(
		proofRepo, transactionRepo, userRepo, notificationRepo, uow, store, cfg.Fund)
	ledgerService := services.NewLedgerService(transactionRepo, userRepo, mainAccountRepo, uow, cfg.Fund)
	notificationService := services.NewNotificationService(notificationRepo)
	jobsService := services.NewJobsService(
		userRepo, loanRepo, proofRepo, transactionRepo, notificationRepo, uow, cfg.Fund)
	exportService := services.NewExportService(userRepo, loanRepo, transactionRepo)
	dashboardService := services.NewDashboardService(
		userRepo, loanRepo, transactionRepo, proofRepo, notificationRepo, mainAccountRepo)
	cronService := services.NewCronService(jobsService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService)
	tierHandler := handlers.NewTierHandler(tierService)
	contributionHandler := handlers.NewContributionHandler(contributionService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	jobsHandler := handlers.NewJobsHandler(jobsService)
	exportHandler := handlers.NewExportHandler(exportService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Proof images stored on disk are served from the same process
	if cfg.Storage.Driver == "disk" {
		app.Static(cfg.Storage.DiskURL, cfg.Storage.DiskRoot)
	}

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), userHandler.GetProfile)
	authRoutes.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)

	// Profile routes (authenticated users)
	profileRoutes := apiV1.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	profileRoutes.Get("/", userHandler.GetProfile)
	profileRoutes.Put("/", userHandler.UpdateProfile)
	profileRoutes.Put("/password", userHandler.ChangePassword)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	userRoutes.Get("/", userHandler.ListUsers)
	userRoutes.Post("/", userHandler.CreateUser)
	userRoutes.Post("/bulk", userHandler.BulkCreateUsers)
	userRoutes.Get("/:id", userHandler.GetUser)
	userRoutes.Put("/:id", userHandler.UpdateUser)
	userRoutes.Delete("/:id", userHandler.DeleteUser)
	userRoutes.Put("/:id/password", userHandler.SetPassword)

	// Loan tier master data (read for all authenticated users)
	tierRoutes := apiV1.Group("/tiers")
	tierRoutes.Use(middleware.AuthMiddleware(cfg))
	tierRoutes.Get("/", middleware.MasterDataCache(), tierHandler.ListTiers)
	tierRoutes.Get("/:id", tierHandler.GetTier)
	tierRoutes.Post("/", middleware.AdminOnly(), tierHandler.CreateTier)
	tierRoutes.Put("/:id", middleware.AdminOnly(), tierHandler.UpdateTier)
	tierRoutes.Delete("/:id", middleware.AdminOnly(), tierHandler.DeleteTier)

	// Loan routes (member)
	loanRoutes := apiV1.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	loanRoutes.Post("/", loanHandler.CreateLoan)
	loanRoutes.Get("/my", loanHandler.GetMyLoans)

	// Loan admin routes
	loanAdmin := apiV1.Group("/admin/loans")
	loanAdmin.Use(middleware.AuthMiddleware(cfg))
	loanAdmin.Use(middleware.AdminOnly())
	loanAdmin.Get("/", loanHandler.ListLoans)
	loanAdmin.Get("/finished", loanHandler.ListFinishedLoans)
	loanAdmin.Get("/repayments", loanHandler.MonthlyRepaymentList)
	loanAdmin.Post("/historical", loanHandler.CreateHistoricalLoan)
	loanAdmin.Get("/:id", loanHandler.GetLoan)
	loanAdmin.Put("/:id", loanHandler.UpdateLoan)
	loanAdmin.Delete("/:id", loanHandler.DeleteLoan)
	loanAdmin.Post("/:id/approve", loanHandler.ApproveLoan)
	loanAdmin.Post("/:id/reject", loanHandler.RejectLoan)
	loanAdmin.Post("/:id/disburse", loanHandler.DisburseLoan)
	loanAdmin.Post("/:id/close", loanHandler.CloseLoan)

	// Contribution routes (member)
	contributionRoutes := apiV1.Group("/contributions")
	contributionRoutes.Use(middleware.AuthMiddleware(cfg))
	contributionRoutes.Post("/", contributionHandler.SubmitProof)
	contributionRoutes.Get("/my", contributionHandler.GetMyProofs)

	// Contribution admin routes
	contributionAdmin := apiV1.Group("/admin/contributions")
	contributionAdmin.Use(middleware.AuthMiddleware(cfg))
	contributionAdmin.Use(middleware.AdminOnly())
	contributionAdmin.Get("/", contributionHandler.ListProofs)
	contributionAdmin.Get("/monthly", contributionHandler.MonthlyContributionList)
	contributionAdmin.Post("/:id/approve", contributionHandler.ApproveProof)
	contributionAdmin.Post("/:id/reject", contributionHandler.RejectProof)
	contributionAdmin.Delete("/:id", contributionHandler.DeleteProof)

	// Ledger routes (member)
	ledgerRoutes := apiV1.Group("/ledger")
	ledgerRoutes.Use(middleware.AuthMiddleware(cfg))
	ledgerRoutes.Get("/my", ledgerHandler.GetMyTransactions)
	ledgerRoutes.Get("/balance", ledgerHandler.GetMainBalance)

	// Ledger admin routes
	ledgerAdmin := apiV1.Group("/admin/ledger")
	ledgerAdmin.Use(middleware.AuthMiddleware(cfg))
	ledgerAdmin.Use(middleware.AdminOnly())
	ledgerAdmin.Get("/", ledgerHandler.ListTransactions)
	ledgerAdmin.Post("/", ledgerHandler.CreateTransaction)
	ledgerAdmin.Post("/backfill", ledgerHandler.BackfillContributions)
	ledgerAdmin.Post("/reconcile", ledgerHandler.Reconcile)
	ledgerAdmin.Post("/:id/reverse", ledgerHandler.ReverseTransaction)
	ledgerAdmin.Delete("/:id", ledgerHandler.DeleteTransaction)

	// Notification routes (authenticated users)
	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	notificationRoutes.Get("/", notificationHandler.ListMine)
	notificationRoutes.Get("/unread", notificationHandler.UnreadCount)
	notificationRoutes.Put("/read-all", notificationHandler.MarkAllRead)
	notificationRoutes.Put("/:id/read", notificationHandler.MarkRead)

	// Job routes (Admin only, idempotent when Redis is configured)
	jobRoutes := apiV1.Group("/admin/jobs")
	jobRoutes.Use(middleware.AuthMiddleware(cfg))
	jobRoutes.Use(middleware.AdminOnly())
	if rdb != nil {
		jobRoutes.Use(middleware.Idempotency(rdb, 24*time.Hour))
	}
	jobRoutes.Post("/monthly-dues", jobsHandler.RunMonthlyDues)
	jobRoutes.Post("/notifications", jobsHandler.RunNotifications)
	jobRoutes.Post("/late-fees", jobsHandler.RunLateFees)

	// Export routes (Admin only)
	exportRoutes := apiV1.Group("/admin/exports")
	exportRoutes.Use(middleware.AuthMiddleware(cfg))
	exportRoutes.Use(middleware.AdminOnly())
	exportRoutes.Get("/users", exportHandler.ExportUsers)
	exportRoutes.Get("/transactions", exportHandler.ExportTransactions)
	exportRoutes.Get("/loans", exportHandler.ExportLoans)
	exportRoutes.Get("/loan-history", exportHandler.ExportLoanHistory)

	// Dashboard routes
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Get("/", dashboardHandler.MemberDashboard)
	dashboardRoutes.Get("/admin", middleware.AdminOnly(), dashboardHandler.AdminDashboard)

	return cronService
}
