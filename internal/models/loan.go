package models

import "time"

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusActive, LoanStatusReturned, LoanStatusOverdue:
		return true
	}
	return false
}

// IsOpen reports whether the book is still out with the borrower.
func (s LoanStatus) IsOpen() bool {
	return s == LoanStatusActive || s == LoanStatusOverdue
}

type BorrowRequest struct {
	BookID int64 `json:"bookId" binding:"required,min=1"`
	UserID int64 `json:"userId" binding:"required,min=1"`
}

// LoanFilter narrows loan listings. Zero values mean "any".
type LoanFilter struct {
	UserID int64      `form:"userId"`
	BookID int64      `form:"bookId"`
	Status LoanStatus `form:"status" binding:"omitempty,loanstatus"`
}

type LoanResponse struct {
	ID           int64      `json:"id"`
	BookID       int64      `json:"bookId"`
	UserID       int64      `json:"userId"`
	BorrowDate   time.Time  `json:"borrowDate"`
	DueDate      time.Time  `json:"dueDate"`
	ReturnDate   *time.Time `json:"returnDate"`
	Status       LoanStatus `json:"status"`
	RenewalCount int        `json:"renewalCount"`
	FinePaid     bool       `json:"finePaid"`
	IsOverdue    bool       `json:"isOverdue"`
}

// ReturnResponse reports the closed loan and any block applied for lateness.
type ReturnResponse struct {
	Loan         LoanResponse `json:"loan"`
	DaysLate     int          `json:"daysLate"`
	BlockedUntil *time.Time   `json:"blockedUntil,omitempty"`
	BlockReason  string       `json:"blockReason,omitempty"`
}
