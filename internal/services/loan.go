package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

// LoanServiceInterface defines the interface for loan operations
type LoanServiceInterface interface {
	Borrow(ctx context.Context, bookID, userID int64) (*models.LoanResponse, error)
	Return(ctx context.Context, loanID int64) (*models.ReturnResponse, error)
	Renew(ctx context.Context, loanID int64) (*models.LoanResponse, error)
	GetLoan(ctx context.Context, id int64) (*models.LoanResponse, error)
	ListLoans(ctx context.Context, filter models.LoanFilter) ([]models.LoanResponse, error)
	ListOverdueLoans(ctx context.Context) ([]models.LoanResponse, error)
}

// LoanService runs the borrow, return and renewal workflow. Every workflow
// touches the loan, the book's copy count and the member's loan counter in
// one transaction.
type LoanService struct {
	store       queries.Store
	notifier    Notifier
	metrics     *MetricsService
	logger      *zap.Logger
	maxRenewals int
	now         func() time.Time
}

func NewLoanService(store queries.Store, notifier Notifier, metrics *MetricsService, logger *zap.Logger, maxRenewals int) *LoanService {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &LoanService{
		store:       store,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		maxRenewals: maxRenewals,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Borrow lends one copy of a book. Checks run in a fixed order and the
// first failure is returned: book exists, user exists, a copy is on the
// shelf, the user is not blocked, the user is under their borrow limit.
func (s *LoanService) Borrow(ctx context.Context, bookID, userID int64) (*models.LoanResponse, error) {
	now := s.now()

	var loan queries.Loan
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		book, err := q.GetBook(ctx, bookID)
		if err != nil {
			return notFound(err, ErrBookNotFound, "get book")
		}

		user, err := q.GetUser(ctx, userID)
		if err != nil {
			return notFound(err, ErrUserNotFound, "get user")
		}

		if book.AvailableCopies <= 0 {
			return ErrNoCopiesAvailable
		}

		if user.IsBlocked(now) {
			return ErrUserBlocked(user.BlockedUntil.Format("2006-01-02"))
		}

		if user.BorrowLimit > 0 && user.ActiveLoans >= user.BorrowLimit {
			return ErrBorrowLimitReached
		}

		// The guarded decrement is what actually reserves the copy.
		n, err := q.DecrementAvailableCopies(ctx, book.ID)
		if err != nil {
			return fmt.Errorf("failed to update book copies: %w", err)
		}
		if n == 0 {
			return ErrNoCopiesAvailable
		}

		loan, err = q.CreateLoan(ctx, queries.CreateLoanParams{
			BookID:     book.ID,
			UserID:     user.ID,
			BorrowDate: now,
			DueDate:    now.AddDate(0, 0, borrowDuration(user)),
		})
		if err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		if err := q.IncrementActiveLoans(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to update user loans: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLoanEvent("borrow")
	s.logger.Info("Book borrowed",
		zap.Int64("loan_id", loan.ID),
		zap.Int64("book_id", bookID),
		zap.Int64("user_id", userID),
		zap.Time("due_date", loan.DueDate),
	)

	response := loan.ToResponse(now)
	return &response, nil
}

// Return closes a loan and puts the copy back. A late return blocks the
// member: 3 days when up to three days late, 7 days beyond that.
func (s *LoanService) Return(ctx context.Context, loanID int64) (*models.ReturnResponse, error) {
	now := s.now()

	var (
		loan     queries.Loan
		user     queries.User
		daysLate int
	)
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		current, err := q.GetLoan(ctx, loanID)
		if err != nil {
			return notFound(err, ErrLoanNotFound, "get loan")
		}

		if current.Status == models.LoanStatusReturned {
			return ErrLoanAlreadyReturned
		}

		loan, err = q.MarkLoanReturned(ctx, queries.MarkLoanReturnedParams{ID: current.ID, ReturnDate: now})
		if err != nil {
			if isNoRows(err) {
				return ErrLoanAlreadyReturned
			}
			return fmt.Errorf("failed to mark loan returned: %w", err)
		}

		if err := q.IncrementAvailableCopies(ctx, current.BookID); err != nil {
			return fmt.Errorf("failed to update book copies: %w", err)
		}

		if err := q.DecrementActiveLoans(ctx, current.UserID); err != nil {
			return fmt.Errorf("failed to update user loans: %w", err)
		}

		if now.After(current.DueDate) {
			daysLate = DaysOverdue(current.DueDate, now)
			user, err = applyBlock(ctx, q, current.UserID, BlockDurationForLateDays(daysLate), LateReturnReason(daysLate), now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLoanEvent("return")

	response := &models.ReturnResponse{
		Loan:     loan.ToResponse(now),
		DaysLate: daysLate,
	}

	if daysLate > 0 {
		s.metrics.RecordLoanEvent("late_return")
		s.metrics.RecordUserBlock()
		s.logger.Info("Late return, user blocked",
			zap.Int64("loan_id", loan.ID),
			zap.Int64("user_id", user.ID),
			zap.Int("days_late", daysLate),
			zap.Timep("blocked_until", user.BlockedUntil),
		)

		response.BlockedUntil = user.BlockedUntil
		response.BlockReason = user.BlockReason

		if err := s.notifier.NotifyUserBlocked(ctx, user.ToResponse(now)); err != nil {
			s.logger.Warn("Failed to send block notification", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	} else {
		s.logger.Info("Book returned", zap.Int64("loan_id", loan.ID))
	}

	return response, nil
}

// Renew extends an active loan that is not yet due by the member's borrow
// duration, counted from the current due date.
func (s *LoanService) Renew(ctx context.Context, loanID int64) (*models.LoanResponse, error) {
	now := s.now()

	var loan queries.Loan
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		current, err := q.GetLoan(ctx, loanID)
		if err != nil {
			return notFound(err, ErrLoanNotFound, "get loan")
		}

		switch {
		case current.Status == models.LoanStatusReturned:
			return ErrLoanAlreadyReturned
		case current.IsOverdue(now):
			return ErrRenewalOverdue
		case current.RenewalCount >= s.maxRenewals:
			return ErrRenewalLimit
		}

		user, err := q.GetUser(ctx, current.UserID)
		if err != nil {
			return notFound(err, ErrUserNotFound, "get user")
		}
		if user.IsBlocked(now) {
			return ErrUserBlocked(user.BlockedUntil.Format("2006-01-02"))
		}

		loan, err = q.RenewLoan(ctx, queries.RenewLoanParams{
			ID:      current.ID,
			DueDate: current.DueDate.AddDate(0, 0, borrowDuration(user)),
		})
		if err != nil {
			return notFound(err, ErrLoanNotFound, "renew loan")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLoanEvent("renew")
	s.logger.Info("Loan renewed", zap.Int64("loan_id", loan.ID), zap.Int("renewal_count", loan.RenewalCount))

	response := loan.ToResponse(now)
	return &response, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id int64) (*models.LoanResponse, error) {
	loan, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrLoanNotFound, "get loan")
	}

	response := loan.ToResponse(s.now())
	return &response, nil
}

// ListLoans filters by user, book and status. Filtering by overdue matches
// the derived state, so active loans past their due date are included.
func (s *LoanService) ListLoans(ctx context.Context, filter models.LoanFilter) ([]models.LoanResponse, error) {
	params := queries.ListLoansParams{
		UserID: filter.UserID,
		BookID: filter.BookID,
		Status: filter.Status,
	}
	if filter.Status == models.LoanStatusOverdue {
		params.Status = ""
	}

	loans, err := s.store.ListLoans(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	now := s.now()
	if filter.Status == models.LoanStatusOverdue {
		loans = overdueLoans(loans, now)
	}
	return loanResponses(loans, now), nil
}

func (s *LoanService) ListOverdueLoans(ctx context.Context) ([]models.LoanResponse, error) {
	return s.ListLoans(ctx, models.LoanFilter{Status: models.LoanStatusOverdue})
}

func overdueLoans(loans []queries.Loan, now time.Time) []queries.Loan {
	overdue := make([]queries.Loan, 0, len(loans))
	for _, l := range loans {
		if l.IsOverdue(now) {
			overdue = append(overdue, l)
		}
	}
	return overdue
}

// borrowDuration falls back to the role policy when the member has none set.
func borrowDuration(user queries.User) int {
	if user.BorrowDuration > 0 {
		return user.BorrowDuration
	}
	return user.Role.Policy().BorrowDuration
}
