package queries

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webermont/LeiaMais/internal/models"
)

type FineQuerier interface {
	CreateFine(ctx context.Context, arg CreateFineParams) (Fine, error)
	GetFine(ctx context.Context, id int64) (Fine, error)
	ListFines(ctx context.Context, arg ListFinesParams) ([]Fine, error)
	UpdateFineStatus(ctx context.Context, arg UpdateFineStatusParams) (Fine, error)
}

const fineSelect = `SELECT f.id, f.loan_id, l.user_id, f.amount, f.status, f.due_date, f.created_at, f.updated_at
FROM fines f JOIN loans l ON l.id = f.loan_id`

type CreateFineParams struct {
	LoanID  int64
	Amount  decimal.Decimal
	DueDate time.Time
}

// CreateFine stores a pending fine. The amount is fixed from here on.
func (q *Queries) CreateFine(ctx context.Context, arg CreateFineParams) (Fine, error) {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO fines (loan_id, amount, status, due_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		arg.LoanID, arg.Amount.StringFixed(2), models.FineStatusPending, arg.DueDate.UTC(), now, now)
	if err != nil {
		return Fine{}, err
	}
	return q.GetFine(ctx, id)
}

func (q *Queries) GetFine(ctx context.Context, id int64) (Fine, error) {
	var f Fine
	err := q.get(ctx, &f, fineSelect+` WHERE f.id = ?`, id)
	return f, err
}

// ListFinesParams filters fines. Zero values mean "any".
type ListFinesParams struct {
	UserID int64
	LoanID int64
	Status models.FineStatus
}

func (q *Queries) ListFines(ctx context.Context, arg ListFinesParams) ([]Fine, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if arg.UserID != 0 {
		conditions = append(conditions, "l.user_id = ?")
		args = append(args, arg.UserID)
	}
	if arg.LoanID != 0 {
		conditions = append(conditions, "f.loan_id = ?")
		args = append(args, arg.LoanID)
	}
	if arg.Status != "" {
		conditions = append(conditions, "f.status = ?")
		args = append(args, arg.Status)
	}

	fines := []Fine{}
	err := q.selectAll(ctx, &fines, fineSelect+` WHERE `+strings.Join(conditions, " AND ")+` ORDER BY f.id`, args...)
	return fines, err
}

type UpdateFineStatusParams struct {
	ID     int64
	Status models.FineStatus
}

func (q *Queries) UpdateFineStatus(ctx context.Context, arg UpdateFineStatusParams) (Fine, error) {
	err := q.update(ctx, `UPDATE fines SET status = ?, updated_at = ? WHERE id = ?`, arg.Status, q.now(), arg.ID)
	if err != nil {
		return Fine{}, err
	}
	return q.GetFine(ctx, arg.ID)
}
