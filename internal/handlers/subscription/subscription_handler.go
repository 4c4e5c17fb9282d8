// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"net/http"
	"strconv"

	subdomain "gymflow-service/internal/domain/subscription"
	"gymflow-service/internal/pkg/response"
	service "gymflow-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService *service.Service
}

func NewSubscriptionHandler(subscriptionService *service.Service) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// RecordPayment records a gym's CRM subscription payment
func (h *SubscriptionHandler) RecordPayment(c *gin.Context) {
	gymID, err := strconv.ParseInt(c.Param("gym_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid gym ID", err)
		return
	}

	var input subdomain.RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.subscriptionService.RecordPayment(c.Request.Context(), gymID, &input)
	if err != nil {
		response.FromError(c, "failed to record subscription payment", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription payment recorded", p)
}

// CapturePayment marks a created subscription payment captured after the
// gateway confirms it
func (h *SubscriptionHandler) CapturePayment(c *gin.Context) {
	paymentID := c.Param("payment_id")
	if paymentID == "" {
		response.Error(c, http.StatusBadRequest, "missing payment ID", nil)
		return
	}

	var input struct {
		GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.subscriptionService.CapturePayment(c.Request.Context(), paymentID, input.GatewayPaymentID)
	if err != nil {
		response.FromError(c, "failed to capture subscription payment", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription payment captured", p)
}

// ListPayments lists a gym's subscription payments
func (h *SubscriptionHandler) ListPayments(c *gin.Context) {
	gymID, err := strconv.ParseInt(c.Param("gym_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid gym ID", err)
		return
	}

	var filters subdomain.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	payments, err := h.subscriptionService.ListPayments(c.Request.Context(), gymID, &filters)
	if err != nil {
		response.FromError(c, "failed to list subscription payments", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription payments retrieved", gin.H{
		"payments": payments,
		"count":    len(payments),
	})
}
