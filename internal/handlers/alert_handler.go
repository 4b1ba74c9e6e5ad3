package handlers

import (
	"net/http"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/services"

	"github.com/gin-gonic/gin"
)

// AlertHandler serves the alert feed
type AlertHandler struct {
	service *services.AlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(service *services.AlertService) *AlertHandler {
	return &AlertHandler{service: service}
}

// ListAlerts returns all active alerts
// @Summary Active alerts
// @Tags Alerts
// @Produce json
// @Success 200 {object} models.ListResponse
// @Router /api/v1/alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.service.GetActiveAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{Success: true, Data: alerts, Total: len(alerts)})
}

// GetAlertSummary counts active alerts
// @Summary Alert summary
// @Tags Alerts
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=engine.AlertSummary}
// @Router /api/v1/alerts/summary [get]
func (h *AlertHandler) GetAlertSummary(c *gin.Context) {
	summary, err := h.service.GetAlertSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, summary)
}

// GetDepotAlerts returns the active alerts of one depot
// @Summary Depot alerts
// @Tags Alerts
// @Produce json
// @Param id path string true "Depot ID"
// @Success 200 {object} models.ListResponse
// @Router /api/v1/alerts/depots/{id} [get]
func (h *AlertHandler) GetDepotAlerts(c *gin.Context) {
	depotID, valid := uuidParam(c, "id", "depot")
	if !valid {
		return
	}

	alerts, err := h.service.GetDepotAlerts(c.Request.Context(), depotID)
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{Success: true, Data: alerts, Total: len(alerts)})
}
