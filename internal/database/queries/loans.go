package queries

import (
	"context"
	"strings"
	"time"

	"github.com/webermont/LeiaMais/internal/models"
)

type LoanQuerier interface {
	CreateLoan(ctx context.Context, arg CreateLoanParams) (Loan, error)
	GetLoan(ctx context.Context, id int64) (Loan, error)
	ListLoans(ctx context.Context, arg ListLoansParams) ([]Loan, error)
	ListUnfinedActiveLoans(ctx context.Context) ([]Loan, error)
	CountOpenLoansByBook(ctx context.Context, bookID int64) (int, error)
	MarkLoanReturned(ctx context.Context, arg MarkLoanReturnedParams) (Loan, error)
	UpdateLoanStatus(ctx context.Context, arg UpdateLoanStatusParams) error
	ClaimOverdueLoan(ctx context.Context, id int64) error
	SetLoanFinePaid(ctx context.Context, id int64) error
	RenewLoan(ctx context.Context, arg RenewLoanParams) (Loan, error)
}

const loanColumns = `id, book_id, user_id, borrow_date, due_date, return_date, status, renewal_count, fine_paid, created_at, updated_at`

type CreateLoanParams struct {
	BookID     int64
	UserID     int64
	BorrowDate time.Time
	DueDate    time.Time
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) (Loan, error) {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO loans (book_id, user_id, borrow_date, due_date, status, renewal_count, fine_paid, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		arg.BookID, arg.UserID, arg.BorrowDate.UTC(), arg.DueDate.UTC(), models.LoanStatusActive, false, now, now)
	if err != nil {
		return Loan{}, err
	}
	return q.GetLoan(ctx, id)
}

func (q *Queries) GetLoan(ctx context.Context, id int64) (Loan, error) {
	var l Loan
	err := q.get(ctx, &l, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	return l, err
}

// ListLoansParams filters loans. Zero values mean "any".
type ListLoansParams struct {
	UserID int64
	BookID int64
	Status models.LoanStatus
}

func (q *Queries) ListLoans(ctx context.Context, arg ListLoansParams) ([]Loan, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if arg.UserID != 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, arg.UserID)
	}
	if arg.BookID != 0 {
		conditions = append(conditions, "book_id = ?")
		args = append(args, arg.BookID)
	}
	if arg.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, arg.Status)
	}

	loans := []Loan{}
	err := q.selectAll(ctx, &loans, `SELECT `+loanColumns+` FROM loans WHERE `+strings.Join(conditions, " AND ")+` ORDER BY id`, args...)
	return loans, err
}

// ListUnfinedActiveLoans returns active loans whose fine has not been paid.
// Callers decide which of them are past due.
func (q *Queries) ListUnfinedActiveLoans(ctx context.Context) ([]Loan, error) {
	loans := []Loan{}
	err := q.selectAll(ctx, &loans, `SELECT `+loanColumns+` FROM loans WHERE status = ? AND fine_paid = ? ORDER BY due_date, id`,
		models.LoanStatusActive, false)
	return loans, err
}

func (q *Queries) CountOpenLoansByBook(ctx context.Context, bookID int64) (int, error) {
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM loans WHERE book_id = ? AND status <> ?`, bookID, models.LoanStatusReturned)
	return n, err
}

type MarkLoanReturnedParams struct {
	ID         int64
	ReturnDate time.Time
}

func (q *Queries) MarkLoanReturned(ctx context.Context, arg MarkLoanReturnedParams) (Loan, error) {
	err := q.update(ctx, `UPDATE loans SET return_date = ?, status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		arg.ReturnDate.UTC(), models.LoanStatusReturned, q.now(), arg.ID, models.LoanStatusReturned)
	if err != nil {
		return Loan{}, err
	}
	return q.GetLoan(ctx, arg.ID)
}

type UpdateLoanStatusParams struct {
	ID     int64
	Status models.LoanStatus
}

func (q *Queries) UpdateLoanStatus(ctx context.Context, arg UpdateLoanStatusParams) error {
	return q.update(ctx, `UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`, arg.Status, q.now(), arg.ID)
}

// ClaimOverdueLoan stamps an active, unpaid loan as overdue. It reports
// sql.ErrNoRows when another run already moved the loan on.
func (q *Queries) ClaimOverdueLoan(ctx context.Context, id int64) error {
	return q.update(ctx, `UPDATE loans SET status = ?, updated_at = ? WHERE id = ? AND status = ? AND fine_paid = ?`,
		models.LoanStatusOverdue, q.now(), id, models.LoanStatusActive, false)
}

func (q *Queries) SetLoanFinePaid(ctx context.Context, id int64) error {
	return q.update(ctx, `UPDATE loans SET fine_paid = ?, updated_at = ? WHERE id = ?`, true, q.now(), id)
}

type RenewLoanParams struct {
	ID      int64
	DueDate time.Time
}

func (q *Queries) RenewLoan(ctx context.Context, arg RenewLoanParams) (Loan, error) {
	err := q.update(ctx, `UPDATE loans SET due_date = ?, renewal_count = renewal_count + 1, updated_at = ? WHERE id = ?`,
		arg.DueDate.UTC(), q.now(), arg.ID)
	if err != nil {
		return Loan{}, err
	}
	return q.GetLoan(ctx, arg.ID)
}
