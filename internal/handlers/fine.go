package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webermont/LeiaMais/internal/models"
	"github.com/webermont/LeiaMais/internal/services"
)

// FineHandler handles fine-related HTTP requests
type FineHandler struct {
	fineService services.FineServiceInterface
}

// NewFineHandler creates a new fine handler
func NewFineHandler(fineService services.FineServiceInterface) *FineHandler {
	return &FineHandler{
		fineService: fineService,
	}
}

// CalculateFine previews the fine for an overdue loan without saving it
// @Summary Preview the fine for a loan
// @Tags fines
// @Produce json
// @Param loanId path int true "Loan ID"
// @Success 200 {object} models.FineCalculation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/fines/calculate/{loanId} [get]
func (h *FineHandler) CalculateFine(c *gin.Context) {
	loanID, ok := parseID(c, "loanId")
	if !ok {
		return
	}

	calculation, err := h.fineService.CalculateFine(c.Request.Context(), loanID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, calculation)
}

// CreateFine issues a fine for a loan and marks the loan overdue
// @Summary Create a fine
// @Tags fines
// @Accept json
// @Produce json
// @Param fine body models.CreateFineRequest true "Loan to fine"
// @Success 201 {object} models.FineResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/fines [post]
func (h *FineHandler) CreateFine(c *gin.Context) {
	var req models.CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	fine, err := h.fineService.CreateFine(c.Request.Context(), req.LoanID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fine)
}

// UpdateFineStatus moves a fine to paid or cancelled
// @Summary Update a fine's status
// @Tags fines
// @Accept json
// @Produce json
// @Param id path int true "Fine ID"
// @Param status body models.UpdateFineStatusRequest true "New status"
// @Success 200 {object} models.FineResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/fines/{id} [patch]
func (h *FineHandler) UpdateFineStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateFineStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	fine, err := h.fineService.UpdateFineStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fine)
}

// ListUserFines lists every fine issued to a member
// @Summary List a member's fines
// @Tags fines
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.FineResponse
// @Router /api/v1/fines/user/{userId} [get]
func (h *FineHandler) ListUserFines(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	if !allowSelfOrStaff(c, userID) {
		return
	}

	fines, err := h.fineService.ListUserFines(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fines)
}

// ListPendingFines lists fines that have not been settled
// @Summary List pending fines
// @Tags fines
// @Produce json
// @Success 200 {array} models.FineResponse
// @Router /api/v1/fines/pending [get]
func (h *FineHandler) ListPendingFines(c *gin.Context) {
	fines, err := h.fineService.ListPendingFines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fines)
}

// ProcessAutomaticFines fines every overdue loan that has no fine yet
// @Summary Run automatic fine processing
// @Tags fines
// @Produce json
// @Success 200 {object} models.ProcessFinesResult
// @Router /api/v1/fines/process-automatic [post]
func (h *FineHandler) ProcessAutomaticFines(c *gin.Context) {
	result, err := h.fineService.ProcessAutomaticFines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
