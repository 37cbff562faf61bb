package models

import "time"

type FineStatus string

const (
	FineStatusPending   FineStatus = "pending"
	FineStatusPaid      FineStatus = "paid"
	FineStatusCancelled FineStatus = "cancelled"
)

func (s FineStatus) IsValid() bool {
	switch s {
	case FineStatusPending, FineStatusPaid, FineStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo allows only pending -> paid and pending -> cancelled.
func (s FineStatus) CanTransitionTo(next FineStatus) bool {
	return s == FineStatusPending && (next == FineStatusPaid || next == FineStatusCancelled)
}

type CreateFineRequest struct {
	LoanID int64 `json:"loanId" binding:"required,min=1"`
}

type UpdateFineStatusRequest struct {
	Status FineStatus `json:"status" binding:"required,finestatus"`
}

type FineResponse struct {
	ID        int64      `json:"id"`
	LoanID    int64      `json:"loanId"`
	UserID    int64      `json:"userId"`
	Amount    Money      `json:"amount"`
	Status    FineStatus `json:"status"`
	DueDate   time.Time  `json:"dueDate"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FineCalculation is the read-only preview of what a loan would be fined today.
type FineCalculation struct {
	DaysOverdue int       `json:"daysOverdue"`
	Amount      Money     `json:"amount"`
	DueDate     time.Time `json:"dueDate"`
}

type ProcessFinesResult struct {
	Processed int            `json:"processed"`
	Fines     []FineResponse `json:"fines"`
}
