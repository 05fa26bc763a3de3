package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ruivenancio/finance-app/internal/auth"
	"github.com/ruivenancio/finance-app/internal/handlers"
	"github.com/ruivenancio/finance-app/internal/service"
)

type Services struct {
	Auth         *auth.Service
	Accounts     *service.AccountService
	Categories   *service.CategoryService
	Transactions *service.TransactionService
	Stocks       *service.StockService
	Dashboard    *service.DashboardService
}

func SetupRouter(s Services) *gin.Engine {
	r := gin.Default()
	r.Use(handlers.CORSMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to Personal Finance API"})
	})

	r.POST("/auth/register", handlers.RegisterHandler(s.Auth))
	r.POST("/auth/login", handlers.LoginHandler(s.Auth))

	authed := r.Group("/", handlers.AuthRequired(s.Auth))
	{
		authed.GET("/auth/me", handlers.MeHandler())

		authed.GET("/accounts", handlers.ListAccountsHandler(s.Accounts))
		authed.POST("/accounts", handlers.CreateAccountHandler(s.Accounts))
		authed.PUT("/accounts/:id", handlers.UpdateAccountHandler(s.Accounts))
		authed.DELETE("/accounts/:id", handlers.DeleteAccountHandler(s.Accounts))

		authed.GET("/categories", handlers.ListCategoriesHandler(s.Categories))
		authed.POST("/categories", handlers.CreateCategoryHandler(s.Categories))
		authed.PUT("/categories/:id", handlers.UpdateCategoryHandler(s.Categories))
		authed.DELETE("/categories/:id", handlers.DeleteCategoryHandler(s.Categories))

		authed.GET("/transactions", handlers.ListTransactionsHandler(s.Transactions))
		authed.POST("/transactions", handlers.CreateTransactionHandler(s.Transactions))
		authed.PUT("/transactions/:id", handlers.UpdateTransactionHandler(s.Transactions))
		authed.DELETE("/transactions/:id", handlers.DeleteTransactionHandler(s.Transactions))
		authed.POST("/transactions/transfer", handlers.TransferHandler(s.Transactions))
		authed.POST("/transactions/import", handlers.ImportTransactionsHandler(s.Transactions))

		authed.GET("/stocks", handlers.ListStocksHandler(s.Stocks))
		authed.POST("/stocks", handlers.CreateStockHandler(s.Stocks))
		authed.POST("/stocks/sync", handlers.SyncStocksHandler(s.Stocks))
		authed.GET("/stocks/:id", handlers.GetStockHandler(s.Stocks))
		authed.PUT("/stocks/:id", handlers.UpdateStockHandler(s.Stocks))
		authed.DELETE("/stocks/:id", handlers.DeleteStockHandler(s.Stocks))
		authed.GET("/stocks/:id/transactions", handlers.ListStockTransactionsHandler(s.Stocks))
		authed.POST("/stocks/:id/transactions", handlers.CreateStockTransactionHandler(s.Stocks))

		authed.GET("/budgets", handlers.ListBudgetsHandler(s.Dashboard))
		authed.GET("/dashboard/summary", handlers.DashboardSummaryHandler(s.Dashboard))
	}

	return r
}
