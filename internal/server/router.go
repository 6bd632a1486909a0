// Package server assembles the HTTP API: services, handlers, middleware and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"dompet/internal/config"
	"dompet/internal/handlers"
	"dompet/internal/middleware"
	"dompet/internal/services"
	"dompet/internal/validator"
)

// NewRouter wires every service against db and registers the API routes.
func NewRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	validator.Register()
	policy := services.NewFamilyAccessPolicy()

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	accountService := services.NewAccountService(db, policy)
	categoryService := services.NewCategoryService(db, policy)
	transactionService := services.NewTransactionService(db, policy)
	budgetService := services.NewBudgetService(db, policy)
	projectService := services.NewProjectService(db, policy)
	paymentService := services.NewProjectPaymentService(db, policy)
	reconcileService := services.NewReconcileService(db, policy)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	projectHandler := handlers.NewProjectHandler(projectService, auditService)
	paymentHandler := handlers.NewProjectPaymentHandler(paymentService, auditService)
	reconcileHandler := handlers.NewReconcileHandler(reconcileService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Operator routes, authenticated by API key instead of a user token
	maintenance := v1.Group("/maintenance")
	maintenance.Use(middleware.MaintenanceAuth(cfg.MaintenanceAPIKey))
	maintenance.POST("/reconcile", reconcileHandler.ReconcileAll)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/profile/family", authHandler.JoinFamily)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)
	accounts.POST("/:id/reconcile", reconcileHandler.ReconcileAccount)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.POST("/:id/reconcile", reconcileHandler.ReconcileBudget)

	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.GetUserProjects)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PUT("/:id", projectHandler.UpdateProject)
	projects.POST("/:id/items", projectHandler.CreateItem)

	items := protected.Group("/project-items")
	items.GET("/:id", projectHandler.GetItem)
	items.PUT("/:id", projectHandler.UpdateItem)
	items.DELETE("/:id", projectHandler.DeleteItem)
	items.POST("/:id/cancel", projectHandler.CancelItem)
	items.GET("/:id/checklist", projectHandler.GetChecklist)
	items.POST("/:id/checklist", projectHandler.AddChecklistTask)
	items.GET("/:id/payments", paymentHandler.ListPayments)
	items.POST("/:id/payments", paymentHandler.CreatePayment)
	items.POST("/:id/purchase", paymentHandler.Purchase)

	checklist := protected.Group("/checklist")
	checklist.PUT("/:id", projectHandler.UpdateChecklistTask)
	checklist.DELETE("/:id", projectHandler.DeleteChecklistTask)

	payments := protected.Group("/project-payments")
	payments.PUT("/:id", paymentHandler.UpdatePayment)
	payments.DELETE("/:id", paymentHandler.DeletePayment)

	return router
}
