package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

const mostBorrowedLimit = 10

// ReportServiceInterface defines the interface for report operations
type ReportServiceInterface interface {
	GenerateReport(ctx context.Context, filter models.ReportFilter) (*models.LibraryReport, error)
	FinesReport(ctx context.Context, filter models.ReportFilter) (*models.FinesReport, error)
	LoansReport(ctx context.Context, filter models.ReportFilter) (*models.LoansReport, error)
}

// ReportService computes reports on demand from the current data. Nothing
// is cached or stored.
type ReportService struct {
	querier queries.Querier
	logger  *zap.Logger
	now     func() time.Time
}

func NewReportService(querier queries.Querier, logger *zap.Logger) *ReportService {
	return &ReportService{
		querier: querier,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ReportData is the raw material a report is aggregated from.
type ReportData struct {
	Loans []queries.Loan
	Fines []queries.Fine
	Users []queries.User
	Books []queries.Book
}

func (s *ReportService) load(ctx context.Context, filter models.ReportFilter) (ReportData, error) {
	var data ReportData
	var err error

	data.Loans, err = s.querier.ListLoans(ctx, queries.ListLoansParams{UserID: filter.UserID, BookID: filter.BookID})
	if err != nil {
		return data, fmt.Errorf("failed to load loans: %w", err)
	}
	data.Fines, err = s.querier.ListFines(ctx, queries.ListFinesParams{UserID: filter.UserID})
	if err != nil {
		return data, fmt.Errorf("failed to load fines: %w", err)
	}
	data.Users, err = s.querier.ListUsers(ctx, queries.ListUsersParams{})
	if err != nil {
		return data, fmt.Errorf("failed to load users: %w", err)
	}
	data.Books, err = s.querier.ListBooks(ctx, queries.ListBooksParams{})
	if err != nil {
		return data, fmt.Errorf("failed to load books: %w", err)
	}
	return data, nil
}

func (s *ReportService) GenerateReport(ctx context.Context, filter models.ReportFilter) (*models.LibraryReport, error) {
	data, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := AggregateReport(data, filter, s.now())
	s.logger.Debug("Report generated", zap.Int("loans", report.Totals.TotalLoans))
	return &report, nil
}

// FinesReport lists the fines on the filtered loans with their totals.
func (s *ReportService) FinesReport(ctx context.Context, filter models.ReportFilter) (*models.FinesReport, error) {
	data, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loans := FilterLoans(data.Loans, filter, now)
	fines := finesForLoans(data.Fines, loans)
	total, paid := sumFines(fines)

	return &models.FinesReport{
		Fines:        fineResponses(fines),
		TotalFines:   models.NewMoney(total),
		PaidFines:    models.NewMoney(paid),
		PendingFines: models.NewMoney(total.Sub(paid)),
		GeneratedAt:  now,
	}, nil
}

// LoansReport lists the filtered loans with a breakdown by state. Active
// loans past their due date are counted as overdue, not active.
func (s *ReportService) LoansReport(ctx context.Context, filter models.ReportFilter) (*models.LoansReport, error) {
	data, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loans := FilterLoans(data.Loans, filter, now)
	report := &models.LoansReport{
		Loans:       loanResponses(loans, now),
		GeneratedAt: now,
	}
	for i := range loans {
		switch {
		case loans[i].Status == models.LoanStatusReturned:
			report.Returned++
		case loans[i].IsOverdue(now):
			report.Overdue++
		default:
			report.Active++
		}
	}
	return report, nil
}

// AggregateReport is the pure report computation. It reads only its
// arguments, so the same input always yields the same report.
func AggregateReport(data ReportData, filter models.ReportFilter, now time.Time) models.LibraryReport {
	loans := FilterLoans(data.Loans, filter, now)
	fines := finesForLoans(data.Fines, loans)

	books := make(map[int64]queries.Book, len(data.Books))
	for _, b := range data.Books {
		books[b.ID] = b
	}
	users := make(map[int64]queries.User, len(data.Users))
	for _, u := range data.Users {
		users[u.ID] = u
	}

	total, paid := sumFines(fines)
	report := models.LibraryReport{
		Totals: models.ReportTotals{
			TotalLoans:   len(loans),
			TotalFines:   models.NewMoney(total),
			PaidFines:    models.NewMoney(paid),
			PendingFines: models.NewMoney(total.Sub(paid)),
		},
		GeneratedAt: now,
	}
	for i := range loans {
		if loans[i].IsOverdue(now) {
			report.Totals.OverdueLoans++
		}
	}

	report.MostBorrowedBooks = mostBorrowed(loans, books)
	report.UserStats = userStats(loans, fines, users, now)
	report.MonthlyStats = monthlyStats(loans, fines)

	return report
}

// FilterLoans applies the report filter. The date range is inclusive and
// compares calendar days of the borrow date; an overdue status filter
// matches the derived overdue state.
func FilterLoans(loans []queries.Loan, filter models.ReportFilter, now time.Time) []queries.Loan {
	filtered := make([]queries.Loan, 0, len(loans))
	for _, l := range loans {
		if filter.UserID != 0 && l.UserID != filter.UserID {
			continue
		}
		if filter.BookID != 0 && l.BookID != filter.BookID {
			continue
		}
		borrowed := startOfDay(l.BorrowDate)
		if filter.StartDate != nil && borrowed.Before(startOfDay(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && borrowed.After(startOfDay(*filter.EndDate)) {
			continue
		}
		switch filter.Status {
		case "":
		case models.LoanStatusOverdue:
			if !l.IsOverdue(now) {
				continue
			}
		default:
			if l.Status != filter.Status {
				continue
			}
		}
		filtered = append(filtered, l)
	}
	return filtered
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func finesForLoans(fines []queries.Fine, loans []queries.Loan) []queries.Fine {
	ids := make(map[int64]struct{}, len(loans))
	for _, l := range loans {
		ids[l.ID] = struct{}{}
	}
	out := make([]queries.Fine, 0, len(fines))
	for _, f := range fines {
		if _, ok := ids[f.LoanID]; ok {
			out = append(out, f)
		}
	}
	return out
}

// sumFines returns the total of every fine and of the paid ones.
func sumFines(fines []queries.Fine) (total, paid decimal.Decimal) {
	total, paid = decimal.Zero, decimal.Zero
	for _, f := range fines {
		total = total.Add(f.Amount)
		if f.Status == models.FineStatusPaid {
			paid = paid.Add(f.Amount)
		}
	}
	return total, paid
}

func mostBorrowed(loans []queries.Loan, books map[int64]queries.Book) []models.BookBorrowStat {
	var stats []models.BookBorrowStat
	index := make(map[int64]int)
	for _, l := range loans {
		i, ok := index[l.BookID]
		if !ok {
			b := books[l.BookID]
			stats = append(stats, models.BookBorrowStat{BookID: l.BookID, Title: b.Title, Author: b.Author})
			i = len(stats) - 1
			index[l.BookID] = i
		}
		stats[i].Count++
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	if len(stats) > mostBorrowedLimit {
		stats = stats[:mostBorrowedLimit]
	}
	if stats == nil {
		stats = []models.BookBorrowStat{}
	}
	return stats
}

func userStats(loans []queries.Loan, fines []queries.Fine, users map[int64]queries.User, now time.Time) []models.UserStat {
	var stats []models.UserStat
	index := make(map[int64]int)
	for _, l := range loans {
		i, ok := index[l.UserID]
		if !ok {
			stats = append(stats, models.UserStat{UserID: l.UserID, Name: users[l.UserID].Name, FineTotal: models.NewMoney(decimal.Zero)})
			i = len(stats) - 1
			index[l.UserID] = i
		}
		stats[i].LoanCount++
		if l.IsOverdue(now) {
			stats[i].OverdueCount++
		}
	}
	for _, f := range fines {
		if i, ok := index[f.UserID]; ok {
			stats[i].FineTotal = stats[i].FineTotal.Plus(f.Amount)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].LoanCount > stats[j].LoanCount })
	if stats == nil {
		stats = []models.UserStat{}
	}
	return stats
}

// monthlyStats buckets by the YYYY-MM of the borrow date. Returns count
// loans from that month that have since come back; fines count towards the
// month their loan was borrowed.
func monthlyStats(loans []queries.Loan, fines []queries.Fine) []models.MonthlyStat {
	months := make(map[string]*models.MonthlyStat)
	loanMonth := make(map[int64]string, len(loans))
	for _, l := range loans {
		key := l.BorrowDate.UTC().Format("2006-01")
		loanMonth[l.ID] = key
		m, ok := months[key]
		if !ok {
			m = &models.MonthlyStat{Month: key, FineTotal: models.NewMoney(decimal.Zero)}
			months[key] = m
		}
		m.Loans++
		if l.Status == models.LoanStatusReturned {
			m.Returns++
		}
	}
	for _, f := range fines {
		if key, ok := loanMonth[f.LoanID]; ok {
			months[key].FineTotal = months[key].FineTotal.Plus(f.Amount)
		}
	}

	stats := make([]models.MonthlyStat, 0, len(months))
	for _, m := range months {
		stats = append(stats, *m)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Month < stats[j].Month })
	return stats
}
