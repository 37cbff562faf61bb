package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webermont/LeiaMais/internal/models"
	"github.com/webermont/LeiaMais/internal/services"
)

// LoanHandler handles circulation requests
type LoanHandler struct {
	loanService services.LoanServiceInterface
}

func NewLoanHandler(loanService services.LoanServiceInterface) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// Borrow lends a copy of a book to a member
// @Summary Borrow a book
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body models.BorrowRequest true "Book and member"
// @Success 201 {object} models.LoanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/loans/borrow [post]
func (h *LoanHandler) Borrow(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	loan, err := h.loanService.Borrow(c.Request.Context(), req.BookID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loan)
}

// Return closes a loan. Late returns block the member.
// @Summary Return a book
// @Tags loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} models.ReturnResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/loans/{id}/return [post]
func (h *LoanHandler) Return(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.loanService.Return(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Renew extends the due date of an active loan
// @Summary Renew a loan
// @Tags loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/loans/{id}/renew [post]
func (h *LoanHandler) Renew(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.Renew(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.GetLoan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !allowSelfOrStaff(c, loan.UserID) {
		return
	}

	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) ListLoans(c *gin.Context) {
	var filter models.LoanFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	loans, err := h.loanService.ListLoans(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loans)
}

// ListOverdueLoans lists active loans past their due date
func (h *LoanHandler) ListOverdueLoans(c *gin.Context) {
	loans, err := h.loanService.ListOverdueLoans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loans)
}
