package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/models"
	"github.com/webermont/LeiaMais/internal/services"
)

// ReportHandler serves the on-demand library reports
type ReportHandler struct {
	reportService services.ReportServiceInterface
}

// NewReportHandler creates a new report handler instance
func NewReportHandler(reportService services.ReportServiceInterface) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// RegisterRoutes registers all report routes
func (rh *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("/summary", rh.GetSummary)
		reports.GET("/fines", rh.GetFinesReport)
		reports.GET("/loans", rh.GetLoansReport)
	}
}

// GetSummary aggregates totals, most borrowed books, member and monthly stats
// @Summary Library summary report
// @Tags reports
// @Produce json
// @Param startDate query string false "Inclusive start (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end (YYYY-MM-DD)"
// @Param userId query int false "Member"
// @Param bookId query int false "Book"
// @Param status query string false "Loan status"
// @Success 200 {object} models.LibraryReport
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/reports/summary [get]
func (rh *ReportHandler) GetSummary(c *gin.Context) {
	filter, ok := bindReportFilter(c)
	if !ok {
		return
	}

	report, err := rh.reportService.GenerateReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (rh *ReportHandler) GetFinesReport(c *gin.Context) {
	filter, ok := bindReportFilter(c)
	if !ok {
		return
	}

	report, err := rh.reportService.FinesReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (rh *ReportHandler) GetLoansReport(c *gin.Context) {
	filter, ok := bindReportFilter(c)
	if !ok {
		return
	}

	report, err := rh.reportService.LoansReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func bindReportFilter(c *gin.Context) (models.ReportFilter, bool) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return filter, false
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		respondError(c, apperrors.Validation("endDate must not be before startDate"))
		return filter, false
	}

	return filter, true
}
