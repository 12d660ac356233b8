// internal/handler/routes.go
package handler

import (
	"net/http"

	"dompetku/internal/auth"
	"dompetku/internal/middleware"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the whole API surface on the router. Everything
// under /api/v1 except register and login requires a bearer token.
func RegisterRoutes(router *gin.Engine, store storage.Store, tokens *auth.TokenService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(store, tokens)
	wallets := NewWalletHandler(store)
	categories := NewCategoryHandler(store)
	payees := NewPayeeHandler(store)
	transactions := NewTransactionHandler(store)
	transfers := NewTransferHandler(store)
	budgets := NewBudgetHandler(store)
	goals := NewGoalHandler(store)
	debts := NewDebtHandler(store)
	reports := NewReportHandler(store)

	router.POST("/api/v1/register", authHandler.Register)
	router.POST("/api/v1/login", authHandler.Login)

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		v1.GET("/me", authHandler.Me)
		v1.POST("/me/telegram", authHandler.LinkTelegram)

		v1.POST("/wallets", wallets.Create)
		v1.GET("/wallets", wallets.List)
		v1.GET("/wallets/:id", wallets.Get)
		v1.PUT("/wallets/:id", wallets.Update)
		v1.DELETE("/wallets/:id", wallets.Delete)

		v1.POST("/categories", categories.Create)
		v1.GET("/categories", categories.List)
		v1.PUT("/categories/:id", categories.Update)
		v1.DELETE("/categories/:id", categories.Delete)

		v1.POST("/payees", payees.Create)
		v1.GET("/payees", payees.List)
		v1.PUT("/payees/:id", payees.Update)
		v1.DELETE("/payees/:id", payees.Delete)

		v1.POST("/transactions", transactions.Create)
		v1.GET("/transactions", transactions.List)
		v1.GET("/transactions/export", transactions.Export)
		v1.GET("/transactions/:id", transactions.Get)
		v1.PUT("/transactions/:id", transactions.Update)
		v1.DELETE("/transactions/:id", transactions.Delete)

		v1.POST("/transfers", transfers.Create)
		v1.GET("/transfers", transfers.List)
		v1.DELETE("/transfers/:id", transfers.Delete)

		v1.POST("/budgets", budgets.Create)
		v1.GET("/budgets", budgets.List)
		v1.PUT("/budgets/:id", budgets.Update)
		v1.DELETE("/budgets/:id", budgets.Delete)

		v1.POST("/goals", goals.Create)
		v1.GET("/goals", goals.List)
		v1.DELETE("/goals/:id", goals.Delete)
		v1.POST("/goals/:id/savings", goals.AddSavings)

		v1.POST("/debts", debts.Create)
		v1.GET("/debts", debts.List)
		v1.DELETE("/debts/:id", debts.Delete)
		v1.POST("/debts/:id/pay", debts.Pay)

		v1.GET("/dashboard", reports.Dashboard)
		v1.GET("/reports/statement", reports.StatementPDF)
	}
}
