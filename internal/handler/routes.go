package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/lendora/lendora-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, loanHandler *LoanHandler, paymentHandler *PaymentHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Loan routes (protected)
	loans := api.Group("/loans")
	loans.Use(authMiddleware.Authenticate())
	loans.Use(middleware.RateLimitMiddleware(rateLimiter))
	loans.POST("", loanHandler.CreateLoan)
	loans.POST("/preview", loanHandler.PreviewLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.POST("/:id/disburse", loanHandler.DisburseLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.GET("/:id/schedule", loanHandler.GetSchedule)
	loans.POST("/:id/payments", paymentHandler.RecordPayment)
	loans.GET("/:id/payments", paymentHandler.GetPayments)
}
