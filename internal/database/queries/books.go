package queries

import (
	"context"
	"strings"
)

type BookQuerier interface {
	CreateBook(ctx context.Context, arg CreateBookParams) (Book, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error)
	UpdateBook(ctx context.Context, arg UpdateBookParams) (Book, error)
	DeleteBook(ctx context.Context, id int64) error
	DecrementAvailableCopies(ctx context.Context, id int64) (int64, error)
	IncrementAvailableCopies(ctx context.Context, id int64) error
}

const bookColumns = `id, title, author, isbn, genre, location, total_copies, available_copies, created_at, updated_at`

type CreateBookParams struct {
	Title       string
	Author      string
	Isbn        string
	Genre       string
	Location    string
	TotalCopies int
}

func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) (Book, error) {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO books (title, author, isbn, genre, location, total_copies, available_copies, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Author, arg.Isbn, arg.Genre, arg.Location, arg.TotalCopies, arg.TotalCopies, now, now)
	if err != nil {
		return Book{}, err
	}
	return q.GetBook(ctx, id)
}

func (q *Queries) GetBook(ctx context.Context, id int64) (Book, error) {
	var b Book
	err := q.get(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	return b, err
}

// ListBooksParams filters the catalog. Limit <= 0 returns every match.
type ListBooksParams struct {
	Query         string
	Genre         string
	AvailableOnly bool
	Limit         int
	Offset        int
}

func (q *Queries) ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if arg.Query != "" {
		like := "%" + strings.ToLower(arg.Query) + "%"
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?)")
		args = append(args, like, like, like)
	}
	if arg.Genre != "" {
		conditions = append(conditions, "LOWER(genre) = ?")
		args = append(args, strings.ToLower(arg.Genre))
	}
	if arg.AvailableOnly {
		conditions = append(conditions, "available_copies > 0")
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY id`
	if arg.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, arg.Limit, arg.Offset)
	}

	books := []Book{}
	err := q.selectAll(ctx, &books, query, args...)
	return books, err
}

type UpdateBookParams struct {
	ID              int64
	Title           string
	Author          string
	Isbn            string
	Genre           string
	Location        string
	TotalCopies     int
	AvailableCopies int
}

func (q *Queries) UpdateBook(ctx context.Context, arg UpdateBookParams) (Book, error) {
	err := q.update(ctx, `UPDATE books
SET title = ?, author = ?, isbn = ?, genre = ?, location = ?, total_copies = ?, available_copies = ?, updated_at = ?
WHERE id = ?`,
		arg.Title, arg.Author, arg.Isbn, arg.Genre, arg.Location, arg.TotalCopies, arg.AvailableCopies, q.now(), arg.ID)
	if err != nil {
		return Book{}, err
	}
	return q.GetBook(ctx, arg.ID)
}

func (q *Queries) DeleteBook(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, `DELETE FROM books WHERE id = ?`, id)
	return err
}

// DecrementAvailableCopies takes one copy off the shelf. It affects no row
// when the book has no copies left, so concurrent borrows cannot overdraw.
func (q *Queries) DecrementAvailableCopies(ctx context.Context, id int64) (int64, error) {
	return q.exec(ctx, `UPDATE books SET available_copies = available_copies - 1, updated_at = ?
WHERE id = ? AND available_copies > 0`, q.now(), id)
}

// IncrementAvailableCopies puts one copy back, never exceeding total_copies.
func (q *Queries) IncrementAvailableCopies(ctx context.Context, id int64) error {
	_, err := q.exec(ctx, `UPDATE books
SET available_copies = CASE WHEN available_copies < total_copies THEN available_copies + 1 ELSE total_copies END,
    updated_at = ?
WHERE id = ?`, q.now(), id)
	return err
}
