// internal/app/router.go
package app

import (
	billingHandler "gymflow-service/internal/handlers/billing"
	rollupHandler "gymflow-service/internal/handlers/rollup"
	settlementHandler "gymflow-service/internal/handlers/settlement"
	subscriptionHandler "gymflow-service/internal/handlers/subscription"
	wsHandler "gymflow-service/internal/handlers/ws"
	"gymflow-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	BillingHandler      *billingHandler.BillingHandler
	SettlementHandler   *settlementHandler.SettlementHandler
	RollupHandler       *rollupHandler.RollupHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	WSHandler           *wsHandler.WebSocketHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health & Metrics ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.AuthMiddleware.Auth(), h.WSHandler.HandleConnection)

	// ==================== Gym Billing ====================
	gyms := api.Group("/gyms/:gym_id")
	gyms.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireGymAccess())
	{
		gyms.GET("/billing/current", h.BillingHandler.GetCurrentMonthBill)
		gyms.GET("/billing/history", h.BillingHandler.GetBillingHistory)
		gyms.GET("/billing/summary", h.RollupHandler.GetGymBillingSummary)

		gyms.POST("/subscription/payments", h.SubscriptionHandler.RecordPayment)
		gyms.GET("/subscription/payments", h.SubscriptionHandler.ListPayments)
		gyms.POST("/subscription/payments/:payment_id/capture", h.SubscriptionHandler.CapturePayment)
	}

	// ==================== Bills & Settlement ====================
	bills := api.Group("/billing/bills")
	bills.Use(h.AuthMiddleware.Auth())
	{
		bills.GET("/:bill_id", h.BillingHandler.GetBillDetail)
		bills.POST("/:bill_id/pay", h.SettlementHandler.PayBill)
		bills.POST("/:bill_id/confirm", h.SettlementHandler.ConfirmPayment)
		bills.POST("/:bill_id/payments", h.SettlementHandler.RecordPayment)
	}

	// ==================== Admin ====================
	admin := api.Group("")
	admin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireAdmin())
	{
		admin.POST("/billing/finalize", h.BillingHandler.Finalize)
		admin.POST("/billing/finalize-all", h.BillingHandler.FinalizeAll)
		admin.GET("/platform/billing/summary", h.RollupHandler.GetPlatformBillingSummary)
	}
}
