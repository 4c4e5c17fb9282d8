// internal/handlers/settlement/settlement_handler.go
package settlement

import (
	"net/http"

	"gymflow-service/internal/domain/payment"
	"gymflow-service/internal/middleware"
	"gymflow-service/internal/pkg/response"
	service "gymflow-service/internal/service/settlement"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	settlementService *service.Service
}

func NewSettlementHandler(settlementService *service.Service) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// PayBill creates a gateway order for the bill's outstanding amount
func (h *SettlementHandler) PayBill(c *gin.Context) {
	billID := c.Param("bill_id")
	if billID == "" {
		response.Error(c, http.StatusBadRequest, "missing bill ID", nil)
		return
	}

	order, err := h.settlementService.InitiatePayment(c.Request.Context(), billID)
	if err != nil {
		response.FromError(c, "failed to initiate payment", err)
		return
	}

	response.Success(c, http.StatusCreated, "gateway order created", order)
}

// ConfirmPayment settles a bill from a signed gateway confirmation
func (h *SettlementHandler) ConfirmPayment(c *gin.Context) {
	billID := c.Param("bill_id")
	processedBy := middleware.MustGetIdentityID(c)

	var conf payment.GatewayConfirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid confirmation payload", err)
		return
	}

	ev, err := h.settlementService.ConfirmPayment(c.Request.Context(), billID, conf, processedBy)
	if err != nil {
		response.FromError(c, "failed to confirm payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment confirmed", ev)
}

// RecordPayment records an offline settlement (cash, bank transfer, UPI)
func (h *SettlementHandler) RecordPayment(c *gin.Context) {
	billID := c.Param("bill_id")
	processedBy := middleware.MustGetIdentityID(c)

	var input payment.RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payment payload", err)
		return
	}

	ev, err := h.settlementService.RecordPayment(c.Request.Context(), billID, input, processedBy)
	if err != nil {
		response.FromError(c, "failed to record payment", err)
		return
	}

	response.Success(c, http.StatusCreated, "payment recorded", ev)
}
