package models

import "time"

// ReportFilter narrows the loans a report is computed over. Dates apply to
// the loan's borrow date and are inclusive.
type ReportFilter struct {
	StartDate *time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"endDate" time_format:"2006-01-02"`
	UserID    int64      `form:"userId"`
	BookID    int64      `form:"bookId"`
	Status    LoanStatus `form:"status" binding:"omitempty,loanstatus"`
}

type ReportTotals struct {
	TotalLoans   int   `json:"totalLoans"`
	OverdueLoans int   `json:"overdueLoans"`
	TotalFines   Money `json:"totalFines"`
	PaidFines    Money `json:"paidFines"`
	PendingFines Money `json:"pendingFines"`
}

type BookBorrowStat struct {
	BookID int64  `json:"bookId"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Count  int    `json:"count"`
}

type UserStat struct {
	UserID       int64  `json:"userId"`
	Name         string `json:"name"`
	LoanCount    int    `json:"loanCount"`
	OverdueCount int    `json:"overdueCount"`
	FineTotal    Money  `json:"fineTotal"`
}

type MonthlyStat struct {
	Month     string `json:"month"` // YYYY-MM
	Loans     int    `json:"loans"`
	Returns   int    `json:"returns"`
	FineTotal Money  `json:"fineTotal"`
}

type LibraryReport struct {
	Totals            ReportTotals     `json:"totals"`
	MostBorrowedBooks []BookBorrowStat `json:"mostBorrowedBooks"`
	UserStats         []UserStat       `json:"userStats"`
	MonthlyStats      []MonthlyStat    `json:"monthlyStats"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

type FinesReport struct {
	Fines        []FineResponse `json:"fines"`
	TotalFines   Money          `json:"totalFines"`
	PaidFines    Money          `json:"paidFines"`
	PendingFines Money          `json:"pendingFines"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

type LoansReport struct {
	Loans       []LoanResponse `json:"loans"`
	Active      int            `json:"active"`
	Returned    int            `json:"returned"`
	Overdue     int            `json:"overdue"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
