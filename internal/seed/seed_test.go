package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/dbtest"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

type prefixHasher struct{}

func (prefixHasher) HashPassword(p string) (string, error) { return "h:" + p, nil }

func TestDefault(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, f.Books)
	assert.NotEmpty(t, f.Users)

	var rate string
	for _, s := range f.Settings {
		if s.Key == models.SettingFinePerDay {
			rate = s.Value
		}
	}
	assert.Equal(t, "1.00", rate)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed", yaml: "books: [title"},
		{name: "book without copies", yaml: "books:\n  - title: A\n    author: B\n"},
		{name: "book without author", yaml: "books:\n  - title: A\n    total_copies: 1\n"},
		{name: "unknown role", yaml: "users:\n  - name: A\n    email: a@x.test\n    role: janitor\n"},
		{name: "setting without key", yaml: "settings:\n  - value: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte("books:\n  - title: Iracema\n    author: José de Alencar\n    total_copies: 2\n"), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Books, 1)
	assert.Equal(t, 2, f.Books[0].TotalCopies)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeeder_Seed(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	seeder := NewSeeder(store, prefixHasher{}, zap.NewNop())

	fixtures, err := Default()
	require.NoError(t, err)

	result, err := seeder.Seed(ctx, fixtures)
	require.NoError(t, err)
	assert.Equal(t, len(fixtures.Books), result.Books)
	assert.Equal(t, len(fixtures.Users), result.Users)

	admin, err := store.GetUserByEmail(ctx, "admin@leiamais.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "h:changeme123", admin.PasswordHash)

	student, err := store.GetUserByEmail(ctx, "pedro@leiamais.local")
	require.NoError(t, err)
	assert.Equal(t, 3, student.BorrowLimit)
	assert.Equal(t, 7, student.BorrowDuration)
	assert.Empty(t, student.PasswordHash)

	rate, err := store.GetSetting(ctx, models.SettingFinePerDay)
	require.NoError(t, err)
	assert.Equal(t, "1.00", rate.Value)

	again, err := seeder.Seed(ctx, fixtures)
	require.NoError(t, err)
	assert.Zero(t, again.Books)
	assert.Zero(t, again.Users)

	books, err := store.ListBooks(ctx, queries.ListBooksParams{})
	require.NoError(t, err)
	assert.Len(t, books, len(fixtures.Books))
}

func TestSeeder_BooksWithoutISBN(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	seeder := NewSeeder(store, nil, zap.NewNop())

	f := &Fixtures{Books: []Book{{Title: "Iracema", Author: "José de Alencar", TotalCopies: 1}}}

	_, err := seeder.Seed(ctx, f)
	require.NoError(t, err)
	result, err := seeder.Seed(ctx, f)
	require.NoError(t, err)
	assert.Zero(t, result.Books)
}

func TestSeeder_PasswordWithoutHasher(t *testing.T) {
	seeder := NewSeeder(dbtest.NewStore(t), nil, zap.NewNop())
	f := &Fixtures{Users: []User{{Name: "A", Email: "a@leiamais.test", Role: models.RoleAdmin, Password: "secret123"}}}

	_, err := seeder.Seed(context.Background(), f)
	assert.Error(t, err)
}
