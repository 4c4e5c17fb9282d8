// internal/handlers/rollup/rollup_handler.go
package rollup

import (
	"net/http"
	"strconv"

	"gymflow-service/internal/pkg/response"
	service "gymflow-service/internal/service/rollup"

	"github.com/gin-gonic/gin"
)

type RollupHandler struct {
	rollupService *service.Service
}

func NewRollupHandler(rollupService *service.Service) *RollupHandler {
	return &RollupHandler{rollupService: rollupService}
}

// GetGymBillingSummary aggregates one gym's finalized history
func (h *RollupHandler) GetGymBillingSummary(c *gin.Context) {
	gymID, err := strconv.ParseInt(c.Param("gym_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid gym ID", err)
		return
	}

	summary, err := h.rollupService.GymSummary(c.Request.Context(), gymID)
	if err != nil {
		response.FromError(c, "failed to build gym billing summary", err)
		return
	}

	response.Success(c, http.StatusOK, "gym billing summary", summary)
}

// GetPlatformBillingSummary rolls every gym up for the reporting period
func (h *RollupHandler) GetPlatformBillingSummary(c *gin.Context) {
	period := c.Query("period")

	summary, err := h.rollupService.PlatformSummary(c.Request.Context(), period)
	if err != nil {
		response.FromError(c, "failed to build platform billing summary", err)
		return
	}

	response.Success(c, http.StatusOK, "platform billing summary", summary)
}
