package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/dbtest"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// MockNotifier records notifications
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyFineCreated(ctx context.Context, user models.UserResponse, fine models.FineResponse) error {
	args := m.Called(ctx, user, fine)
	return args.Error(0)
}

func (m *MockNotifier) NotifyLoanOverdue(ctx context.Context, user models.UserResponse, fine models.FineResponse, daysOverdue int) error {
	args := m.Called(ctx, user, fine, daysOverdue)
	return args.Error(0)
}

func (m *MockNotifier) NotifyUserBlocked(ctx context.Context, user models.UserResponse) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockSettingsReader for testing the fine calculator
type MockSettingsReader struct {
	mock.Mock
}

func (m *MockSettingsReader) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// libraryFixture wires the circulation services over an in-memory store
// with a frozen clock.
type libraryFixture struct {
	store    *queries.SQLStore
	settings *SettingsService
	calc     *FineCalculator
	loans    *LoanService
	fines    *FineService
	users    *UserService
	books    *BookService
	reports  *ReportService
}

func newLibraryFixture(t *testing.T, now time.Time) *libraryFixture {
	t.Helper()

	logger := zap.NewNop()
	store := dbtest.NewStore(t)
	notifier := NewLogNotifier(logger)

	settings := NewSettingsService(store, nil, time.Minute, nil, logger)
	calc := NewFineCalculator(settings, decimal.RequireFromString("1.00"), logger)

	f := &libraryFixture{
		store:    store,
		settings: settings,
		calc:     calc,
		loans:    NewLoanService(store, notifier, nil, logger, 2),
		fines:    NewFineService(store, calc, notifier, nil, logger),
		users:    NewUserService(store, nil, notifier, nil, logger),
		books:    NewBookService(store, logger),
		reports:  NewReportService(store, logger),
	}
	f.setNow(now)
	return f
}

func (f *libraryFixture) setNow(now time.Time) {
	f.loans.now = fixedClock(now)
	f.fines.now = fixedClock(now)
	f.users.now = fixedClock(now)
	f.reports.now = fixedClock(now)
}

func (f *libraryFixture) book(t *testing.T, title string, copies int) queries.Book {
	t.Helper()
	b, err := f.store.CreateBook(context.Background(), queries.CreateBookParams{
		Title:       title,
		Author:      "Author of " + title,
		TotalCopies: copies,
	})
	require.NoError(t, err)
	return b
}

func (f *libraryFixture) user(t *testing.T, name string, role models.UserRole) queries.User {
	t.Helper()
	policy := role.Policy()
	u, err := f.store.CreateUser(context.Background(), queries.CreateUserParams{
		Name:           name,
		Email:          name + "@leiamais.test",
		Role:           role,
		BorrowLimit:    policy.BorrowLimit,
		BorrowDuration: policy.BorrowDuration,
	})
	require.NoError(t, err)
	return u
}

// loanDueAt inserts an active loan directly, bypassing borrow checks.
func (f *libraryFixture) loanDueAt(t *testing.T, bookID, userID int64, due time.Time) queries.Loan {
	t.Helper()
	ctx := context.Background()
	l, err := f.store.CreateLoan(ctx, queries.CreateLoanParams{
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: due.AddDate(0, 0, -7),
		DueDate:    due,
	})
	require.NoError(t, err)
	_, err = f.store.DecrementAvailableCopies(ctx, bookID)
	require.NoError(t, err)
	require.NoError(t, f.store.IncrementActiveLoans(ctx, userID))
	return l
}

func (f *libraryFixture) setFineRate(t *testing.T, rate string) {
	t.Helper()
	_, err := f.store.UpsertSetting(context.Background(), queries.UpsertSettingParams{Key: models.SettingFinePerDay, Value: rate})
	require.NoError(t, err)
}
