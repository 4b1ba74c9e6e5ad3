package handlers

import (
	"net/http"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CrisisHandler serves crisis options and the crisis case workflow
type CrisisHandler struct {
	service *services.CrisisService
}

// NewCrisisHandler creates a new CrisisHandler
func NewCrisisHandler(service *services.CrisisService) *CrisisHandler {
	return &CrisisHandler{service: service}
}

// LinkPORequest attaches a compensating purchase order to a case
type LinkPORequest struct {
	Role            models.CompensatingPORole `json:"role" binding:"required"`
	PurchaseOrderID uuid.UUID                 `json:"purchaseOrderId" binding:"required"`
}

// ResolveCaseRequest closes a case
type ResolveCaseRequest struct {
	Notes string `json:"notes"`
}

// actorName identifies the caller for audit fields (name > preferred_username > email, then user id)
func actorName(c *gin.Context) string {
	if actor := gosharedmw.GetActorInfo(c); actor.ActorName != "" {
		return actor.ActorName
	}
	return c.GetString("user_id")
}

// GetOptions computes split-delivery and transfer options for a depot in crisis
// @Summary Crisis options
// @Tags Crisis
// @Produce json
// @Param depotId query string true "Receiving depot ID"
// @Param fuelTypeId query string true "Fuel type ID"
// @Success 200 {object} models.SuccessResponse{data=engine.CrisisOptions}
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/crisis/options [get]
func (h *CrisisHandler) GetOptions(c *gin.Context) {
	depotID, valid := uuidQuery(c, "depotId")
	if !valid {
		return
	}
	fuelTypeID, valid := uuidQuery(c, "fuelTypeId")
	if !valid {
		return
	}

	options, err := h.service.FindCrisisOptions(c.Request.Context(), depotID, fuelTypeID)
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, options)
}

// AcceptSplitDelivery redirects part of a sibling's incoming order
// @Summary Accept split delivery
// @Tags Crisis
// @Accept json
// @Produce json
// @Param request body services.AcceptSplitDeliveryInput true "Split delivery"
// @Success 201 {object} models.SuccessResponse{data=models.CrisisCase}
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/crisis/split-delivery [post]
func (h *CrisisHandler) AcceptSplitDelivery(c *gin.Context) {
	var input services.AcceptSplitDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationError(c, err.Error())
		return
	}
	input.CreatedBy = actorName(c)

	crisisCase, err := h.service.AcceptSplitDelivery(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, true)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    crisisCase,
		Message: stringPtr("Split delivery accepted"),
	})
}

// AcceptTransfer moves stock from a sibling depot
// @Summary Accept transfer
// @Tags Crisis
// @Accept json
// @Produce json
// @Param request body services.AcceptTransferInput true "Transfer"
// @Success 201 {object} models.SuccessResponse{data=models.CrisisCase}
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/crisis/transfer [post]
func (h *CrisisHandler) AcceptTransfer(c *gin.Context) {
	var input services.AcceptTransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationError(c, err.Error())
		return
	}
	input.CreatedBy = actorName(c)

	crisisCase, err := h.service.AcceptTransfer(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, true)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    crisisCase,
		Message: stringPtr("Transfer accepted"),
	})
}

// ListCases lists crisis cases, optionally by status
// @Summary List crisis cases
// @Tags Crisis
// @Produce json
// @Param status query string false "accepted, monitoring or resolved"
// @Success 200 {object} models.ListResponse
// @Router /api/v1/crisis/cases [get]
func (h *CrisisHandler) ListCases(c *gin.Context) {
	cases, err := h.service.ListCases(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{Success: true, Data: cases, Total: len(cases)})
}

// GetCase returns one crisis case
// @Summary Get crisis case
// @Tags Crisis
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} models.SuccessResponse{data=models.CrisisCase}
// @Router /api/v1/crisis/cases/{id} [get]
func (h *CrisisHandler) GetCase(c *gin.Context) {
	id, valid := uuidParam(c, "id", "case")
	if !valid {
		return
	}

	crisisCase, err := h.service.GetCase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, false)
		return
	}
	ok(c, crisisCase)
}

// LinkCompensatingPO attaches a purchase order and moves the case to monitoring
// @Summary Link compensating PO
// @Tags Crisis
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param request body LinkPORequest true "Purchase order"
// @Success 200 {object} models.SuccessResponse{data=models.CrisisCase}
// @Router /api/v1/crisis/cases/{id}/compensating-po [post]
func (h *CrisisHandler) LinkCompensatingPO(c *gin.Context) {
	id, valid := uuidParam(c, "id", "case")
	if !valid {
		return
	}
	var req LinkPORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	crisisCase, err := h.service.LinkCompensatingPO(c.Request.Context(), id, req.Role, req.PurchaseOrderID)
	if err != nil {
		respondError(c, err, true)
		return
	}
	ok(c, crisisCase)
}

// ResolveCase closes a crisis case
// @Summary Resolve crisis case
// @Tags Crisis
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param request body ResolveCaseRequest false "Resolution notes"
// @Success 200 {object} models.SuccessResponse{data=models.CrisisCase}
// @Router /api/v1/crisis/cases/{id}/resolve [post]
func (h *CrisisHandler) ResolveCase(c *gin.Context) {
	id, valid := uuidParam(c, "id", "case")
	if !valid {
		return
	}
	var req ResolveCaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			validationError(c, err.Error())
			return
		}
	}

	crisisCase, err := h.service.ResolveCase(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, err, true)
		return
	}
	ok(c, crisisCase)
}
