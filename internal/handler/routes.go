package handler

import (
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the route handlers registered by RegisterRoutes
type Handlers struct {
	Auth       *AuthHandler
	Expense    *ExpenseHandler
	Receivable *ReceivableHandler
	Settings   *SettingsHandler
	Dashboard  *DashboardHandler
	Receipt    *ReceiptHandler
	WebSocket  *WebSocketHandler
	Servers    []Server
}

// RegisterRoutes sets up all API routes. rateLimiter may be nil.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", OpenAPI3Handler(h.Servers))

	// WebSocket authenticates with a token query parameter
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	protected := []echo.MiddlewareFunc{authMiddleware.Authenticate()}
	if rateLimiter != nil {
		protected = append(protected, middleware.RateLimitMiddleware(rateLimiter))
	}

	// Auth routes (signup and signin are public)
	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/signin", h.Auth.SignIn)
	auth.POST("/callback", h.Auth.Callback, protected...)
	auth.GET("/me", h.Auth.Me, protected...)

	// Expense routes (protected)
	expenses := api.Group("/expenses", protected...)
	expenses.POST("", h.Expense.CreateExpense)
	expenses.GET("", h.Expense.GetExpenses)
	expenses.GET("/:id", h.Expense.GetExpense)
	expenses.PATCH("/:id", h.Expense.UpdateExpense)
	expenses.DELETE("/:id", h.Expense.DeleteExpense)
	expenses.PATCH("/:id/pay", h.Expense.MarkPaid)
	expenses.POST("/:id/next-installment", h.Expense.NextInstallment)
	expenses.POST("/:id/receipt", h.Receipt.UploadReceipt)
	expenses.GET("/:id/receipt", h.Receipt.GetReceipt)

	// Receivable routes (protected)
	receivables := api.Group("/receivables", protected...)
	receivables.POST("", h.Receivable.CreateReceivable)
	receivables.GET("", h.Receivable.GetReceivables)
	receivables.GET("/:id", h.Receivable.GetReceivable)
	receivables.PATCH("/:id", h.Receivable.UpdateReceivable)
	receivables.DELETE("/:id", h.Receivable.DeleteReceivable)
	receivables.PATCH("/:id/receive", h.Receivable.MarkReceived)

	// Settings routes (protected)
	settings := api.Group("/settings", protected...)
	settings.GET("", h.Settings.GetSettings)
	settings.PUT("/income", h.Settings.UpdateIncome)
	settings.POST("/people", h.Settings.AddPerson)
	settings.PATCH("/people/:id", h.Settings.RenamePerson)
	settings.DELETE("/people/:id", h.Settings.RemovePerson)
	settings.POST("/categories", h.Settings.AddCategory)
	settings.PATCH("/categories/:id", h.Settings.RenameCategory)
	settings.DELETE("/categories/:id", h.Settings.RemoveCategory)

	// Dashboard routes (protected)
	dashboard := api.Group("/dashboard", protected...)
	dashboard.GET("/summary", h.Dashboard.GetSummary)
}
