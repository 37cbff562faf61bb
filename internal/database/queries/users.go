package queries

import (
	"context"
	"strings"
	"time"

	"github.com/webermont/LeiaMais/internal/models"
)

type UserQuerier interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error)
	UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetUserBlock(ctx context.Context, arg SetUserBlockParams) (User, error)
	IncrementActiveLoans(ctx context.Context, id int64) error
	DecrementActiveLoans(ctx context.Context, id int64) error
}

const userColumns = `id, name, email, password_hash, role, borrow_limit, borrow_duration, active_loans, blocked_until, block_reason, created_at, updated_at`

type CreateUserParams struct {
	Name           string
	Email          string
	PasswordHash   string
	Role           models.UserRole
	BorrowLimit    int
	BorrowDuration int
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO users (name, email, password_hash, role, borrow_limit, borrow_duration, active_loans, block_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 0, '', ?, ?)`,
		arg.Name, strings.ToLower(arg.Email), arg.PasswordHash, arg.Role, arg.BorrowLimit, arg.BorrowDuration, now, now)
	if err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, id)
}

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return u, err
}

// ListUsersParams filters members. Limit <= 0 returns every match.
type ListUsersParams struct {
	Query  string
	Role   models.UserRole
	Limit  int
	Offset int
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if arg.Query != "" {
		like := "%" + strings.ToLower(arg.Query) + "%"
		conditions = append(conditions, "(LOWER(name) LIKE ? OR email LIKE ?)")
		args = append(args, like, like)
	}
	if arg.Role != "" {
		conditions = append(conditions, "role = ?")
		args = append(args, arg.Role)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY id`
	if arg.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, arg.Limit, arg.Offset)
	}

	users := []User{}
	err := q.selectAll(ctx, &users, query, args...)
	return users, err
}

type UpdateUserParams struct {
	ID             int64
	Name           string
	Email          string
	Role           models.UserRole
	BorrowLimit    int
	BorrowDuration int
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	err := q.update(ctx, `UPDATE users
SET name = ?, email = ?, role = ?, borrow_limit = ?, borrow_duration = ?, updated_at = ?
WHERE id = ?`,
		arg.Name, strings.ToLower(arg.Email), arg.Role, arg.BorrowLimit, arg.BorrowDuration, q.now(), arg.ID)
	if err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, arg.ID)
}

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// SetUserBlockParams overwrites the block. A nil BlockedUntil clears it.
type SetUserBlockParams struct {
	ID           int64
	BlockedUntil *time.Time
	BlockReason  string
}

func (q *Queries) SetUserBlock(ctx context.Context, arg SetUserBlockParams) (User, error) {
	var blockedUntil interface{}
	if arg.BlockedUntil != nil {
		blockedUntil = arg.BlockedUntil.UTC()
	}
	err := q.update(ctx, `UPDATE users SET blocked_until = ?, block_reason = ?, updated_at = ? WHERE id = ?`,
		blockedUntil, arg.BlockReason, q.now(), arg.ID)
	if err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, arg.ID)
}

func (q *Queries) IncrementActiveLoans(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, `UPDATE users SET active_loans = active_loans + 1, updated_at = ? WHERE id = ?`, q.now(), id)
	return err
}

// DecrementActiveLoans floors the counter at zero.
func (q *Queries) DecrementActiveLoans(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, `UPDATE users
SET active_loans = CASE WHEN active_loans > 0 THEN active_loans - 1 ELSE 0 END,
    updated_at = ?
WHERE id = ?`, q.now(), id)
	return err
}
