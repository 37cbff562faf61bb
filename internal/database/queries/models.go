package queries

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/webermont/LeiaMais/internal/models"
)

type Book struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	Isbn            string    `db:"isbn"`
	Genre           string    `db:"genre"`
	Location        string    `db:"location"`
	TotalCopies     int       `db:"total_copies"`
	AvailableCopies int       `db:"available_copies"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type User struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"`
	Email          string          `db:"email"`
	PasswordHash   string          `db:"password_hash"`
	Role           models.UserRole `db:"role"`
	BorrowLimit    int             `db:"borrow_limit"`
	BorrowDuration int             `db:"borrow_duration"`
	ActiveLoans    int             `db:"active_loans"`
	BlockedUntil   *time.Time      `db:"blocked_until"`
	BlockReason    string          `db:"block_reason"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type Loan struct {
	ID           int64             `db:"id"`
	BookID       int64             `db:"book_id"`
	UserID       int64             `db:"user_id"`
	BorrowDate   time.Time         `db:"borrow_date"`
	DueDate      time.Time         `db:"due_date"`
	ReturnDate   *time.Time        `db:"return_date"`
	Status       models.LoanStatus `db:"status"`
	RenewalCount int               `db:"renewal_count"`
	FinePaid     bool              `db:"fine_paid"`
	CreatedAt    time.Time         `db:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at"`
}

// Fine carries the owning loan's user_id, joined in on every read.
type Fine struct {
	ID        int64             `db:"id"`
	LoanID    int64             `db:"loan_id"`
	UserID    int64             `db:"user_id"`
	Amount    decimal.Decimal   `db:"amount"`
	Status    models.FineStatus `db:"status"`
	DueDate   time.Time         `db:"due_date"`
	CreatedAt time.Time         `db:"created_at"`
	UpdatedAt time.Time         `db:"updated_at"`
}

type Setting struct {
	Key         string    `db:"key"`
	Value       string    `db:"value"`
	Description string    `db:"description"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type AuditLog struct {
	ID         int64     `db:"id"`
	Action     string    `db:"action"`
	Resource   string    `db:"resource"`
	ResourceID string    `db:"resource_id"`
	UserID     *int64    `db:"user_id"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	StatusCode int       `db:"status_code"`
	CreatedAt  time.Time `db:"created_at"`
}
