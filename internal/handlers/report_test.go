package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webermont/LeiaMais/internal/models"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GenerateReport(ctx context.Context, filter models.ReportFilter) (*models.LibraryReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LibraryReport), args.Error(1)
}

func (m *MockReportService) FinesReport(ctx context.Context, filter models.ReportFilter) (*models.FinesReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FinesReport), args.Error(1)
}

func (m *MockReportService) LoansReport(ctx context.Context, filter models.ReportFilter) (*models.LoansReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoansReport), args.Error(1)
}

func reportRouter(svc *MockReportService) http.Handler {
	router := staffRouter()
	NewReportHandler(svc).RegisterRoutes(&router.RouterGroup)
	return router
}

func TestReportHandler_GetSummary(t *testing.T) {
	t.Run("date range parsed", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("GenerateReport", mock.Anything, mock.MatchedBy(func(f models.ReportFilter) bool {
			return f.StartDate != nil && f.EndDate != nil &&
				f.StartDate.Format(time.DateOnly) == "2024-01-01" &&
				f.EndDate.Format(time.DateOnly) == "2024-03-31" &&
				f.UserID == 10
		})).Return(&models.LibraryReport{
			Totals: models.ReportTotals{
				TotalLoans:   4,
				OverdueLoans: 2,
				TotalFines:   models.NewMoney(decimal.RequireFromString("18.75")),
				PaidFines:    models.NewMoney(decimal.RequireFromString("12.00")),
				PendingFines: models.NewMoney(decimal.RequireFromString("6.75")),
			},
			MostBorrowedBooks: []models.BookBorrowStat{},
			UserStats:         []models.UserStat{},
			MonthlyStats:      []models.MonthlyStat{},
			GeneratedAt:       testTime,
		}, nil)

		w := doRequest(reportRouter(svc), http.MethodGet, "/reports/summary?startDate=2024-01-01&endDate=2024-03-31&userId=10", nil)

		require.Equal(t, http.StatusOK, w.Code)
		report := decodeJSON[models.LibraryReport](t, w)
		assert.Equal(t, 4, report.Totals.TotalLoans)
		assert.True(t, decimal.RequireFromString("6.75").Equal(report.Totals.PendingFines.Decimal))
		svc.AssertExpectations(t)
	})

	t.Run("end before start", func(t *testing.T) {
		svc := new(MockReportService)

		w := doRequest(reportRouter(svc), http.MethodGet, "/reports/summary?startDate=2024-03-01&endDate=2024-01-01", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "endDate must not be before startDate", decodeError(t, w).Error)
		svc.AssertNotCalled(t, "GenerateReport", mock.Anything, mock.Anything)
	})

	t.Run("bad date", func(t *testing.T) {
		w := doRequest(reportRouter(new(MockReportService)), http.MethodGet, "/reports/summary?startDate=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportHandler_FinesAndLoans(t *testing.T) {
	svc := new(MockReportService)
	svc.On("FinesReport", mock.Anything, models.ReportFilter{}).Return(&models.FinesReport{
		Fines:        []models.FineResponse{*sampleFine(1, models.FineStatusPaid)},
		TotalFines:   models.NewMoney(decimal.RequireFromString("4.50")),
		PaidFines:    models.NewMoney(decimal.RequireFromString("4.50")),
		PendingFines: models.NewMoney(decimal.Zero),
	}, nil)
	svc.On("LoansReport", mock.Anything, models.ReportFilter{Status: models.LoanStatusOverdue}).Return(&models.LoansReport{
		Loans:   []models.LoanResponse{},
		Overdue: 0,
	}, nil)
	router := reportRouter(svc)

	w := doRequest(router, http.MethodGet, "/reports/fines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON[models.FinesReport](t, w).Fines, 1)

	w = doRequest(router, http.MethodGet, "/reports/loans?status=overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}
