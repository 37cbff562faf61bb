package queries_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webermont/LeiaMais/internal/database/dbtest"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

func seedBookAndUser(t *testing.T, store *queries.SQLStore, copies int) (queries.Book, queries.User) {
	t.Helper()
	ctx := context.Background()

	book, err := store.CreateBook(ctx, queries.CreateBookParams{
		Title:       "Dom Casmurro",
		Author:      "Machado de Assis",
		Isbn:        "9788535910663",
		Genre:       "Romance",
		TotalCopies: copies,
	})
	require.NoError(t, err)

	user, err := store.CreateUser(ctx, queries.CreateUserParams{
		Name:           "Ana Souza",
		Email:          "Ana@Example.com",
		Role:           models.RoleStudent,
		BorrowLimit:    3,
		BorrowDuration: 7,
	})
	require.NoError(t, err)

	return book, user
}

func TestBooks_CreateListAndCopies(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	book, _ := seedBookAndUser(t, store, 1)

	assert.Equal(t, 1, book.TotalCopies)
	assert.Equal(t, 1, book.AvailableCopies)

	n, err := store.DecrementAvailableCopies(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// No copies left: the guarded update matches nothing.
	n, err = store.DecrementAvailableCopies(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, store.IncrementAvailableCopies(ctx, book.ID))
	require.NoError(t, store.IncrementAvailableCopies(ctx, book.ID))

	got, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies, "increment never exceeds total copies")

	books, err := store.ListBooks(ctx, queries.ListBooksParams{Query: "casmurro"})
	require.NoError(t, err)
	assert.Len(t, books, 1)

	books, err = store.ListBooks(ctx, queries.ListBooksParams{Genre: "poetry"})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestBooks_GetMissing(t *testing.T) {
	store := dbtest.NewStore(t)

	_, err := store.GetBook(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = store.UpdateBook(context.Background(), queries.UpdateBookParams{ID: 42, Title: "x", Author: "y"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUsers_EmailLowercasedAndBlock(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	_, user := seedBookAndUser(t, store, 1)

	assert.Equal(t, "ana@example.com", user.Email)

	byEmail, err := store.GetUserByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	until := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	blocked, err := store.SetUserBlock(ctx, queries.SetUserBlockParams{ID: user.ID, BlockedUntil: &until, BlockReason: "Late return by 2 days"})
	require.NoError(t, err)
	require.NotNil(t, blocked.BlockedUntil)
	assert.True(t, until.Equal(*blocked.BlockedUntil))
	assert.Equal(t, "Late return by 2 days", blocked.BlockReason)
	assert.True(t, blocked.IsBlocked(time.Now()))

	cleared, err := store.SetUserBlock(ctx, queries.SetUserBlockParams{ID: user.ID})
	require.NoError(t, err)
	assert.Nil(t, cleared.BlockedUntil)
	assert.Empty(t, cleared.BlockReason)
	assert.False(t, cleared.IsBlocked(time.Now()))
}

func TestUsers_ActiveLoansFloorAtZero(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	_, user := seedBookAndUser(t, store, 1)

	require.NoError(t, store.IncrementActiveLoans(ctx, user.ID))
	require.NoError(t, store.DecrementActiveLoans(ctx, user.ID))
	require.NoError(t, store.DecrementActiveLoans(ctx, user.ID))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ActiveLoans)
}

func TestLoansAndFines(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	book, user := seedBookAndUser(t, store, 2)

	borrowed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	loan, err := store.CreateLoan(ctx, queries.CreateLoanParams{
		BookID:     book.ID,
		UserID:     user.ID,
		BorrowDate: borrowed,
		DueDate:    borrowed.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.True(t, borrowed.AddDate(0, 0, 7).Equal(loan.DueDate))
	assert.Nil(t, loan.ReturnDate)
	assert.False(t, loan.FinePaid)

	unfined, err := store.ListUnfinedActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, unfined, 1)

	open, err := store.CountOpenLoansByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, open)

	fine, err := store.CreateFine(ctx, queries.CreateFineParams{
		LoanID:  loan.ID,
		Amount:  decimal.RequireFromString("4.5"),
		DueDate: loan.DueDate,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, fine.UserID)
	assert.Equal(t, models.FineStatusPending, fine.Status)
	assert.True(t, decimal.RequireFromString("4.50").Equal(fine.Amount))

	require.NoError(t, store.UpdateLoanStatus(ctx, queries.UpdateLoanStatusParams{ID: loan.ID, Status: models.LoanStatusOverdue}))
	unfined, err = store.ListUnfinedActiveLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, unfined)

	pending, err := store.ListFines(ctx, queries.ListFinesParams{Status: models.FineStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	paid, err := store.UpdateFineStatus(ctx, queries.UpdateFineStatusParams{ID: fine.ID, Status: models.FineStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, models.FineStatusPaid, paid.Status)
	require.NoError(t, store.SetLoanFinePaid(ctx, loan.ID))

	returnedAt := borrowed.AddDate(0, 0, 10)
	returned, err := store.MarkLoanReturned(ctx, queries.MarkLoanReturnedParams{ID: loan.ID, ReturnDate: returnedAt})
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returnedAt.Equal(*returned.ReturnDate))
	assert.True(t, returned.FinePaid)

	// A returned loan cannot be returned twice.
	_, err = store.MarkLoanReturned(ctx, queries.MarkLoanReturnedParams{ID: loan.ID, ReturnDate: returnedAt})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	byUser, err := store.ListFines(ctx, queries.ListFinesParams{UserID: user.ID})
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
}

func TestClaimOverdueLoan(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	book, user := seedBookAndUser(t, store, 2)

	borrowed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	loan, err := store.CreateLoan(ctx, queries.CreateLoanParams{BookID: book.ID, UserID: user.ID, BorrowDate: borrowed, DueDate: borrowed.AddDate(0, 0, 7)})
	require.NoError(t, err)

	require.NoError(t, store.ClaimOverdueLoan(ctx, loan.ID))
	claimed, err := store.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusOverdue, claimed.Status)

	// Only the first claim wins.
	assert.ErrorIs(t, store.ClaimOverdueLoan(ctx, loan.ID), sql.ErrNoRows)

	paid, err := store.CreateLoan(ctx, queries.CreateLoanParams{BookID: book.ID, UserID: user.ID, BorrowDate: borrowed, DueDate: borrowed.AddDate(0, 0, 7)})
	require.NoError(t, err)
	require.NoError(t, store.SetLoanFinePaid(ctx, paid.ID))
	assert.ErrorIs(t, store.ClaimOverdueLoan(ctx, paid.ID), sql.ErrNoRows)
}

func TestRenewLoan(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	book, user := seedBookAndUser(t, store, 1)

	now := time.Now().UTC().Truncate(time.Second)
	loan, err := store.CreateLoan(ctx, queries.CreateLoanParams{BookID: book.ID, UserID: user.ID, BorrowDate: now, DueDate: now.AddDate(0, 0, 7)})
	require.NoError(t, err)

	renewed, err := store.RenewLoan(ctx, queries.RenewLoanParams{ID: loan.ID, DueDate: loan.DueDate.AddDate(0, 0, 7)})
	require.NoError(t, err)
	assert.Equal(t, 1, renewed.RenewalCount)
	assert.True(t, now.AddDate(0, 0, 14).Equal(renewed.DueDate))
}

func TestSettingsUpsert(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	_, err := store.GetSetting(ctx, models.SettingFinePerDay)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = store.UpsertSetting(ctx, queries.UpsertSettingParams{Key: models.SettingFinePerDay, Value: "1.00"})
	require.NoError(t, err)
	s, err := store.UpsertSetting(ctx, queries.UpsertSettingParams{Key: models.SettingFinePerDay, Value: "2.25", Description: "Daily fine"})
	require.NoError(t, err)
	assert.Equal(t, "2.25", s.Value)
	assert.Equal(t, "Daily fine", s.Description)

	all, err := store.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAuditLogs(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	uid := int64(7)
	require.NoError(t, store.CreateAuditLog(ctx, queries.CreateAuditLogParams{Action: "create", Resource: "books", StatusCode: 201, UserID: &uid}))
	require.NoError(t, store.CreateAuditLog(ctx, queries.CreateAuditLogParams{Action: "delete", Resource: "books", ResourceID: "3", StatusCode: 204}))

	logs, err := store.ListAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0].Action)
	assert.Nil(t, logs[0].UserID)
	require.NotNil(t, logs[1].UserID)
	assert.Equal(t, uid, *logs[1].UserID)
}

func TestExecTx_CommitsOnSuccess(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	book, user := seedBookAndUser(t, store, 1)

	err := store.ExecTx(ctx, func(q queries.Querier) error {
		if _, err := q.DecrementAvailableCopies(ctx, book.ID); err != nil {
			return err
		}
		return q.IncrementActiveLoans(ctx, user.ID)
	})
	require.NoError(t, err)

	got, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)
}

func TestExecTx_RollsBackOnError(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	book, _ := seedBookAndUser(t, store, 1)

	boom := errors.New("boom")
	err := store.ExecTx(ctx, func(q queries.Querier) error {
		if _, err := q.DecrementAvailableCopies(ctx, book.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
}

func TestExecTx_SQLMock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := queries.NewStore(sqlx.NewDb(db, "sqlmock"))
	ctx := context.Background()

	t.Run("rollback when the update fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE loans SET status")).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := store.ExecTx(ctx, func(q queries.Querier) error {
			return q.UpdateLoanStatus(ctx, queries.UpdateLoanStatusParams{ID: 1, Status: models.LoanStatusOverdue})
		})
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows matched is reported as ErrNoRows", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE loans SET fine_paid")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.ExecTx(ctx, func(q queries.Querier) error {
			return q.SetLoanFinePaid(ctx, 99)
		})
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure is wrapped", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("disk full"))

		err := store.ExecTx(ctx, func(q queries.Querier) error { return nil })
		assert.ErrorContains(t, err, "failed to commit transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
