// internal/handlers/billing/billing_handler.go
package billing

import (
	"net/http"
	"strconv"

	billingdomain "gymflow-service/internal/domain/billing"
	"gymflow-service/internal/pkg/response"
	service "gymflow-service/internal/service/billing"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService *service.Service
}

func NewBillingHandler(billingService *service.Service) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// GetCurrentMonthBill returns the live, recomputed bill for the in-progress month
func (h *BillingHandler) GetCurrentMonthBill(c *gin.Context) {
	gymID, err := strconv.ParseInt(c.Param("gym_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid gym ID", err)
		return
	}

	bill, err := h.billingService.GetCurrentMonthBill(c.Request.Context(), gymID)
	if err != nil {
		response.FromError(c, "failed to compute current month bill", err)
		return
	}

	response.Success(c, http.StatusOK, "current month bill computed", bill.ToResponse())
}

// GetBillingHistory returns the live current month followed by finalized months
func (h *BillingHandler) GetBillingHistory(c *gin.Context) {
	gymID, err := strconv.ParseInt(c.Param("gym_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid gym ID", err)
		return
	}

	var filters billingdomain.HistoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	bills, err := h.billingService.GetBillingHistory(c.Request.Context(), gymID, filters.MonthsBack)
	if err != nil {
		response.FromError(c, "failed to load billing history", err)
		return
	}

	resp := billingdomain.HistoryResponse{GymID: gymID}
	for i := range bills {
		resp.Bills = append(resp.Bills, bills[i].ToResponse())
	}
	resp.Count = len(resp.Bills)

	response.Success(c, http.StatusOK, "billing history retrieved", resp)
}

// GetBillDetail returns one bill with its lines, breakdown and payments
func (h *BillingHandler) GetBillDetail(c *gin.Context) {
	billID := c.Param("bill_id")
	if billID == "" {
		response.Error(c, http.StatusBadRequest, "missing bill ID", nil)
		return
	}

	bill, err := h.billingService.GetBillDetail(c.Request.Context(), billID)
	if err != nil {
		response.FromError(c, "failed to load bill", err)
		return
	}

	response.Success(c, http.StatusOK, "bill retrieved", bill.ToResponse())
}

// Finalize freezes one gym's bill for a closed month (idempotent)
func (h *BillingHandler) Finalize(c *gin.Context) {
	var req billingdomain.FinalizeMonthInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	bill, err := h.billingService.FinalizeMonth(c.Request.Context(), req.GymID, req.Month, req.Year)
	if err != nil {
		response.FromError(c, "failed to finalize billing month", err)
		return
	}

	response.Success(c, http.StatusOK, "billing month finalized", bill.ToResponse())
}

// FinalizeAll runs finalization for every gym; per-gym failures are reported, not fatal
func (h *BillingHandler) FinalizeAll(c *gin.Context) {
	var req billingdomain.FinalizeAllInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	finalized, failed, err := h.billingService.FinalizeAllGyms(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		response.FromError(c, "failed to finalize billing month", err)
		return
	}

	response.Success(c, http.StatusOK, "finalization batch completed", gin.H{
		"finalized_count": len(finalized),
		"failed_gym_ids":  failed,
	})
}
