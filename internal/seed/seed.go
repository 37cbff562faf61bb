package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

//go:embed fixtures/library.yaml
var defaultFixtures []byte

type Setting struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Description string `yaml:"description"`
}

type Book struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	ISBN        string `yaml:"isbn"`
	Genre       string `yaml:"genre"`
	Location    string `yaml:"location"`
	TotalCopies int    `yaml:"total_copies"`
}

// User falls back to its role policy when limits are omitted.
type User struct {
	Name           string          `yaml:"name"`
	Email          string          `yaml:"email"`
	Role           models.UserRole `yaml:"role"`
	Password       string          `yaml:"password"`
	BorrowLimit    *int            `yaml:"borrow_limit"`
	BorrowDuration *int            `yaml:"borrow_duration"`
}

type Fixtures struct {
	Settings []Setting `yaml:"settings"`
	Books    []Book    `yaml:"books"`
	Users    []User    `yaml:"users"`
}

// Result counts what a run inserted; existing rows are skipped.
type Result struct {
	Settings int
	Books    int
	Users    int
}

// PasswordHasher hashes fixture passwords. *services.AuthService satisfies it.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Default returns the embedded demo catalog.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Load reads fixtures from a YAML file.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) Validate() error {
	for i, b := range f.Books {
		if b.Title == "" || b.Author == "" {
			return fmt.Errorf("book %d: title and author are required", i)
		}
		if b.TotalCopies < 1 {
			return fmt.Errorf("book %q: total_copies must be at least 1", b.Title)
		}
	}
	for i, u := range f.Users {
		if u.Name == "" || u.Email == "" {
			return fmt.Errorf("user %d: name and email are required", i)
		}
		if !u.Role.IsValid() {
			return fmt.Errorf("user %q: invalid role %q", u.Email, u.Role)
		}
	}
	for i, s := range f.Settings {
		if s.Key == "" {
			return fmt.Errorf("setting %d: key is required", i)
		}
	}
	return nil
}

// Seeder writes fixtures through the store. Running it twice is safe: users
// match on email and books on ISBN, or on title and author when there is none.
type Seeder struct {
	store  queries.Store
	hasher PasswordHasher
	logger *zap.Logger
}

func NewSeeder(store queries.Store, hasher PasswordHasher, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, hasher: hasher, logger: logger}
}

func (s *Seeder) Seed(ctx context.Context, f *Fixtures) (*Result, error) {
	result := &Result{}

	for _, setting := range f.Settings {
		if _, err := s.store.UpsertSetting(ctx, queries.UpsertSettingParams{
			Key:         setting.Key,
			Value:       setting.Value,
			Description: setting.Description,
		}); err != nil {
			return result, fmt.Errorf("failed to seed setting %q: %w", setting.Key, err)
		}
		result.Settings++
	}

	for _, b := range f.Books {
		exists, err := s.bookExists(ctx, b)
		if err != nil {
			return result, err
		}
		if exists {
			continue
		}
		if _, err := s.store.CreateBook(ctx, queries.CreateBookParams{
			Title:       b.Title,
			Author:      b.Author,
			Isbn:        b.ISBN,
			Genre:       b.Genre,
			Location:    b.Location,
			TotalCopies: b.TotalCopies,
		}); err != nil {
			return result, fmt.Errorf("failed to seed book %q: %w", b.Title, err)
		}
		result.Books++
	}

	for _, u := range f.Users {
		created, err := s.seedUser(ctx, u)
		if err != nil {
			return result, err
		}
		if created {
			result.Users++
		}
	}

	s.logger.Info("Seed complete",
		zap.Int("settings", result.Settings),
		zap.Int("books", result.Books),
		zap.Int("users", result.Users),
	)
	return result, nil
}

func (s *Seeder) bookExists(ctx context.Context, b Book) (bool, error) {
	query := b.ISBN
	if query == "" {
		query = b.Title
	}
	books, err := s.store.ListBooks(ctx, queries.ListBooksParams{Query: query})
	if err != nil {
		return false, fmt.Errorf("failed to look up book %q: %w", b.Title, err)
	}
	for _, existing := range books {
		if b.ISBN != "" && existing.Isbn == b.ISBN {
			return true, nil
		}
		if b.ISBN == "" && strings.EqualFold(existing.Title, b.Title) && strings.EqualFold(existing.Author, b.Author) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Seeder) seedUser(ctx context.Context, u User) (bool, error) {
	email := strings.ToLower(u.Email)
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up user %q: %w", email, err)
	}

	policy := u.Role.Policy()
	params := queries.CreateUserParams{
		Name:           u.Name,
		Email:          email,
		Role:           u.Role,
		BorrowLimit:    policy.BorrowLimit,
		BorrowDuration: policy.BorrowDuration,
	}
	if u.BorrowLimit != nil {
		params.BorrowLimit = *u.BorrowLimit
	}
	if u.BorrowDuration != nil {
		params.BorrowDuration = *u.BorrowDuration
	}

	if u.Password != "" {
		if s.hasher == nil {
			return false, fmt.Errorf("user %q has a password but no hasher is configured", email)
		}
		hash, err := s.hasher.HashPassword(u.Password)
		if err != nil {
			return false, fmt.Errorf("failed to hash password for %q: %w", email, err)
		}
		params.PasswordHash = hash
	}

	if _, err := s.store.CreateUser(ctx, params); err != nil {
		return false, fmt.Errorf("failed to seed user %q: %w", email, err)
	}
	return true, nil
}
