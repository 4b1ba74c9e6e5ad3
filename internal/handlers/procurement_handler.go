package handlers

import (
	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/services"

	"github.com/gin-gonic/gin"
)

// ProcurementHandler serves the read-only procurement endpoints
type ProcurementHandler struct {
	service              *services.ProcurementService
	defaultDaysThreshold float64
}

// NewProcurementHandler creates a new ProcurementHandler. defaultDays is used when
// the shortage query omits days.
func NewProcurementHandler(service *services.ProcurementService, defaultDays float64) *ProcurementHandler {
	return &ProcurementHandler{service: service, defaultDaysThreshold: defaultDays}
}

// GetShortages lists depot×fuel combinations running short
// @Summary Upcoming shortages
// @Tags Procurement
// @Produce json
// @Param days query number false "Days-left threshold"
// @Success 200 {object} models.SuccessResponse{data=engine.ShortageScan}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/shortages [get]
func (h *ProcurementHandler) GetShortages(c *gin.Context) {
	days, valid := floatQuery(c, "days", h.defaultDaysThreshold)
	if !valid {
		return
	}

	scan, err := h.service.GetUpcomingShortages(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, scan)
}

// GetSummary aggregates the procurement state of the fleet
// @Summary Procurement summary
// @Tags Procurement
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=engine.ProcurementSummary}
// @Router /api/v1/procurement/summary [get]
func (h *ProcurementHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetProcurementSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, summary)
}

// GetSupplierRecommendations ranks suppliers for a manual order
// @Summary Supplier recommendations
// @Tags Procurement
// @Produce json
// @Param fuelTypeId query string true "Fuel type ID"
// @Param requiredTons query number true "Quantity in tons"
// @Param urgency query string false "Urgency tier" default(WARNING)
// @Success 200 {object} models.SuccessResponse{data=[]engine.SupplierScore}
// @Router /api/v1/suppliers/recommendations [get]
func (h *ProcurementHandler) GetSupplierRecommendations(c *gin.Context) {
	fuelTypeID, valid := uuidQuery(c, "fuelTypeId")
	if !valid {
		return
	}
	if c.Query("requiredTons") == "" {
		validationError(c, "requiredTons is required")
		return
	}
	tons, valid := floatQuery(c, "requiredTons", 0)
	if !valid {
		return
	}
	urgency, err := engine.ParseUrgency(c.DefaultQuery("urgency", engine.UrgencyWarning.String()))
	if err != nil {
		respondError(c, err, false)
		return
	}

	scores, err := h.service.GetSupplierRecommendations(c.Request.Context(), fuelTypeID, tons, urgency)
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, scores)
}

// GetForecast projects one depot×fuel forward
// @Summary Depot forecast
// @Tags Procurement
// @Produce json
// @Param depotId query string true "Depot ID"
// @Param fuelTypeId query string true "Fuel type ID"
// @Param horizonDays query int false "Days to project"
// @Success 200 {object} models.SuccessResponse{data=services.DepotForecast}
// @Router /api/v1/forecast [get]
func (h *ProcurementHandler) GetForecast(c *gin.Context) {
	depotID, valid := uuidQuery(c, "depotId")
	if !valid {
		return
	}
	fuelTypeID, valid := uuidQuery(c, "fuelTypeId")
	if !valid {
		return
	}
	horizon, valid := intQuery(c, "horizonDays", 0)
	if !valid {
		return
	}

	forecast, err := h.service.GetDepotForecast(c.Request.Context(), depotID, fuelTypeID, horizon)
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, forecast)
}
