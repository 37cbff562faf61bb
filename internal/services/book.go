package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

// BookServiceInterface defines the interface for book service operations
type BookServiceInterface interface {
	CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error)
	GetBook(ctx context.Context, id int64) (*models.BookResponse, error)
	ListBooks(ctx context.Context, req models.BookSearchRequest) ([]models.BookResponse, error)
	UpdateBook(ctx context.Context, id int64, req models.UpdateBookRequest) (*models.BookResponse, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BookService handles catalog operations
type BookService struct {
	store  queries.Store
	logger *zap.Logger
}

// NewBookService creates a new book service
func NewBookService(store queries.Store, logger *zap.Logger) *BookService {
	return &BookService{
		store:  store,
		logger: logger,
	}
}

// CreateBook adds a title with all of its copies on the shelf
func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error) {
	book, err := s.store.CreateBook(ctx, queries.CreateBookParams{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Isbn:        strings.TrimSpace(req.ISBN),
		Genre:       strings.TrimSpace(req.Genre),
		Location:    strings.TrimSpace(req.Location),
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info("Book created", zap.Int64("book_id", book.ID), zap.String("title", book.Title))

	response := book.ToResponse()
	return &response, nil
}

// GetBook retrieves a book by its ID
func (s *BookService) GetBook(ctx context.Context, id int64) (*models.BookResponse, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBookNotFound, "get book")
	}

	response := book.ToResponse()
	return &response, nil
}

// ListBooks searches the catalog by title, author, ISBN and genre
func (s *BookService) ListBooks(ctx context.Context, req models.BookSearchRequest) ([]models.BookResponse, error) {
	books, err := s.store.ListBooks(ctx, queries.ListBooksParams{
		Query:         strings.TrimSpace(req.Query),
		Genre:         strings.TrimSpace(req.Genre),
		AvailableOnly: req.AvailableOnly,
		Limit:         req.Limit,
		Offset:        req.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	responses := make([]models.BookResponse, len(books))
	for i := range books {
		responses[i] = books[i].ToResponse()
	}
	return responses, nil
}

// UpdateBook applies a partial update. Changing the total shifts the
// available count by the same delta; copies already on loan stay counted.
func (s *BookService) UpdateBook(ctx context.Context, id int64, req models.UpdateBookRequest) (*models.BookResponse, error) {
	var updated queries.Book
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		book, err := q.GetBook(ctx, id)
		if err != nil {
			return notFound(err, ErrBookNotFound, "get book")
		}

		params := queries.UpdateBookParams{
			ID:              book.ID,
			Title:           book.Title,
			Author:          book.Author,
			Isbn:            book.Isbn,
			Genre:           book.Genre,
			Location:        book.Location,
			TotalCopies:     book.TotalCopies,
			AvailableCopies: book.AvailableCopies,
		}

		if req.Title != nil {
			params.Title = strings.TrimSpace(*req.Title)
		}
		if req.Author != nil {
			params.Author = strings.TrimSpace(*req.Author)
		}
		if req.ISBN != nil {
			params.Isbn = strings.TrimSpace(*req.ISBN)
		}
		if req.Genre != nil {
			params.Genre = strings.TrimSpace(*req.Genre)
		}
		if req.Location != nil {
			params.Location = strings.TrimSpace(*req.Location)
		}
		if req.TotalCopies != nil {
			delta := *req.TotalCopies - book.TotalCopies
			if book.AvailableCopies+delta < 0 {
				return ErrCopiesOnLoan
			}
			params.TotalCopies = *req.TotalCopies
			params.AvailableCopies = book.AvailableCopies + delta
		}

		updated, err = q.UpdateBook(ctx, params)
		if err != nil {
			return notFound(err, ErrBookNotFound, "update book")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := updated.ToResponse()
	return &response, nil
}

// DeleteBook removes a title that has no copies out
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if _, err := s.store.GetBook(ctx, id); err != nil {
		return notFound(err, ErrBookNotFound, "get book")
	}

	open, err := s.store.CountOpenLoansByBook(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count loans: %w", err)
	}
	if open > 0 {
		return ErrBookHasLoans
	}

	if err := s.store.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	s.logger.Info("Book deleted", zap.Int64("book_id", id))
	return nil
}
