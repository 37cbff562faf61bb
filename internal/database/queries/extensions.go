package queries

import (
	"time"

	"github.com/webermont/LeiaMais/internal/models"
)

// ToResponse converts queries.Book to models.BookResponse
func (b *Book) ToResponse() models.BookResponse {
	return models.BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.Isbn,
		Genre:           b.Genre,
		Location:        b.Location,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          models.BookStatusFor(b.AvailableCopies),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// IsBlocked reports whether the block is still in force at now.
func (u *User) IsBlocked(now time.Time) bool {
	return u.BlockedUntil != nil && u.BlockedUntil.After(now)
}

// ToResponse converts queries.User to models.UserResponse
func (u *User) ToResponse(now time.Time) models.UserResponse {
	return models.UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		BorrowLimit:    u.BorrowLimit,
		BorrowDuration: u.BorrowDuration,
		ActiveLoans:    u.ActiveLoans,
		BlockedUntil:   u.BlockedUntil,
		BlockReason:    u.BlockReason,
		IsBlocked:      u.IsBlocked(now),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// IsOverdue is the derived overdue state: still out and past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status == models.LoanStatusOverdue {
		return true
	}
	return l.Status == models.LoanStatusActive && l.DueDate.Before(now)
}

// ToResponse converts queries.Loan to models.LoanResponse
func (l *Loan) ToResponse(now time.Time) models.LoanResponse {
	return models.LoanResponse{
		ID:           l.ID,
		BookID:       l.BookID,
		UserID:       l.UserID,
		BorrowDate:   l.BorrowDate,
		DueDate:      l.DueDate,
		ReturnDate:   l.ReturnDate,
		Status:       l.Status,
		RenewalCount: l.RenewalCount,
		FinePaid:     l.FinePaid,
		IsOverdue:    l.IsOverdue(now),
	}
}

// ToResponse converts queries.Fine to models.FineResponse
func (f *Fine) ToResponse() models.FineResponse {
	return models.FineResponse{
		ID:        f.ID,
		LoanID:    f.LoanID,
		UserID:    f.UserID,
		Amount:    models.NewMoney(f.Amount),
		Status:    f.Status,
		DueDate:   f.DueDate,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ToResponse converts queries.Setting to models.SettingResponse
func (s *Setting) ToResponse() models.SettingResponse {
	return models.SettingResponse{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}
