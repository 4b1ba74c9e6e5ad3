package handlers

import (
	"net/http"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/services"

	"github.com/gin-gonic/gin"
)

// StockHandler serves tank stock updates and their audit trail
type StockHandler struct {
	service *services.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service *services.StockService) *StockHandler {
	return &StockHandler{service: service}
}

// UpdateTankStockRequest is the body of a stock update
type UpdateTankStockRequest struct {
	StockLiters *float64 `json:"stockLiters" binding:"required"`
	Reason      string   `json:"reason" binding:"required"`
}

// UpdateTankStock sets a tank's measured stock
// @Summary Update tank stock
// @Tags Tanks
// @Accept json
// @Produce json
// @Param id path string true "Tank ID"
// @Param request body UpdateTankStockRequest true "New stock"
// @Success 200 {object} models.SuccessResponse{data=models.TankStockAudit}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/tanks/{id}/stock [put]
func (h *StockHandler) UpdateTankStock(c *gin.Context) {
	tankID, valid := uuidParam(c, "id", "tank")
	if !valid {
		return
	}
	var req UpdateTankStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	audit, err := h.service.UpdateTankStock(c.Request.Context(), tankID, services.UpdateTankStockInput{
		StockLiters: *req.StockLiters,
		Reason:      req.Reason,
		ChangedBy:   actorName(c),
	})
	if err != nil {
		respondError(c, err, true)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    audit,
		Message: stringPtr("Tank stock updated"),
	})
}

// GetTankHistory lists a tank's stock changes, newest first
// @Summary Tank stock history
// @Tags Tanks
// @Produce json
// @Param id path string true "Tank ID"
// @Param limit query int false "Limit" default(100)
// @Success 200 {object} models.ListResponse
// @Router /api/v1/tanks/{id}/history [get]
func (h *StockHandler) GetTankHistory(c *gin.Context) {
	tankID, valid := uuidParam(c, "id", "tank")
	if !valid {
		return
	}
	limit, valid := intQuery(c, "limit", services.DefaultHistoryLimit)
	if !valid {
		return
	}
	if limit < 1 || limit > 500 {
		limit = services.DefaultHistoryLimit
	}

	history, err := h.service.GetTankHistory(c.Request.Context(), tankID, limit)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{Success: true, Data: history, Total: len(history)})
}
