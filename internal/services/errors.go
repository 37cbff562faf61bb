package services

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/webermont/LeiaMais/internal/apperrors"
)

// Common service errors
var (
	ErrBookNotFound    = apperrors.New(apperrors.KindNotFound, "BOOK_NOT_FOUND", http.StatusNotFound, "book not found")
	ErrUserNotFound    = apperrors.New(apperrors.KindNotFound, "USER_NOT_FOUND", http.StatusNotFound, "user not found")
	ErrLoanNotFound    = apperrors.New(apperrors.KindNotFound, "LOAN_NOT_FOUND", http.StatusNotFound, "loan not found")
	ErrFineNotFound    = apperrors.New(apperrors.KindNotFound, "FINE_NOT_FOUND", http.StatusNotFound, "fine not found")
	ErrSettingNotFound = apperrors.New(apperrors.KindNotFound, "SETTING_NOT_FOUND", http.StatusNotFound, "setting not found")

	ErrNoCopiesAvailable   = apperrors.Precondition("NO_COPIES_AVAILABLE", "no copies available")
	ErrBorrowLimitReached  = apperrors.Precondition("BORROW_LIMIT_REACHED", "borrow limit reached")
	ErrLoanAlreadyReturned = apperrors.Precondition("LOAN_ALREADY_RETURNED", "loan already returned")
	ErrLoanNotActive       = apperrors.Precondition("LOAN_NOT_ACTIVE", "loan is not active or overdue")
	ErrLoanNotOverdue      = apperrors.Precondition("LOAN_NOT_OVERDUE", "loan is not overdue")
	ErrRenewalOverdue      = apperrors.Precondition("LOAN_OVERDUE", "overdue loans cannot be renewed")
	ErrRenewalLimit        = apperrors.Precondition("RENEWAL_LIMIT_REACHED", "renewal limit reached")
	ErrEmailTaken          = apperrors.Precondition("EMAIL_TAKEN", "email already registered")
	ErrUserHasLoans        = apperrors.Precondition("USER_HAS_ACTIVE_LOANS", "user has active loans")
	ErrUserHasPendingFines = apperrors.Precondition("USER_HAS_PENDING_FINES", "user has pending fines")
	ErrBookHasLoans        = apperrors.Precondition("BOOK_HAS_ACTIVE_LOANS", "book has active loans")
	ErrCopiesOnLoan        = apperrors.Precondition("COPIES_ON_LOAN", "total copies cannot be lower than copies on loan")
)

// ErrUserBlocked reports the date a block ends, as YYYY-MM-DD.
func ErrUserBlocked(until string) error {
	return apperrors.Precondition("USER_BLOCKED", fmt.Sprintf("user is blocked until %s", until))
}

// ErrInvalidFineTransition reports a fine that has already left pending.
func ErrInvalidFineTransition(current string) error {
	return apperrors.Precondition("INVALID_FINE_TRANSITION", fmt.Sprintf("fine is already %s", current))
}

// notFound maps sql.ErrNoRows to the given domain error and wraps anything else.
func notFound(err error, missing error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return missing
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
