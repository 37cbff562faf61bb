package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/models"
)

type stubHasher struct{}

func (stubHasher) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrInvalidPassword
	}
	return "hashed:" + password, nil
}

func intPtr(v int) *int { return &v }

func TestUserService_CreateUser(t *testing.T) {
	f := newLibraryFixture(t, testNow)
	ctx := context.Background()

	t.Run("role defaults", func(t *testing.T) {
		resp, err := f.users.CreateUser(ctx, models.CreateUserRequest{Name: " Ana ", Email: "Ana@LeiaMais.test", Role: models.RoleTeacher})
		require.NoError(t, err)
		assert.Equal(t, "Ana", resp.Name)
		assert.Equal(t, "ana@leiamais.test", resp.Email)
		assert.Equal(t, 5, resp.BorrowLimit)
		assert.Equal(t, 30, resp.BorrowDuration)
		assert.False(t, resp.IsBlocked)
	})

	t.Run("explicit limits override the policy", func(t *testing.T) {
		resp, err := f.users.CreateUser(ctx, models.CreateUserRequest{
			Name: "Bia", Email: "bia@leiamais.test", Role: models.RoleStudent,
			BorrowLimit: intPtr(1), BorrowDuration: intPtr(14),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.BorrowLimit)
		assert.Equal(t, 14, resp.BorrowDuration)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.users.CreateUser(ctx, models.CreateUserRequest{Name: "Other", Email: "ANA@leiamais.test", Role: models.RoleStudent})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := f.users.CreateUser(ctx, models.CreateUserRequest{Name: "X", Email: "x@leiamais.test", Role: "janitor"})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("password without hasher", func(t *testing.T) {
		_, err := f.users.CreateUser(ctx, models.CreateUserRequest{Name: "Y", Email: "y@leiamais.test", Role: models.RoleStudent, Password: "longenough"})
		assert.Error(t, err)
	})

	t.Run("password is hashed", func(t *testing.T) {
		f.users.hasher = stubHasher{}
		resp, err := f.users.CreateUser(ctx, models.CreateUserRequest{Name: "Z", Email: "z@leiamais.test", Role: models.RoleLibrarian, Password: "longenough"})
		require.NoError(t, err)

		stored, err := f.store.GetUser(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "hashed:longenough", stored.PasswordHash)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	f := newLibraryFixture(t, testNow)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	f.user(t, "bia", models.RoleStudent)

	name := "Ana Maria"
	role := models.RoleTeacher
	resp, err := f.users.UpdateUser(ctx, ana.ID, models.UpdateUserRequest{Name: &name, Role: &role, BorrowLimit: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", resp.Name)
	assert.Equal(t, models.RoleTeacher, resp.Role)
	assert.Equal(t, 4, resp.BorrowLimit)
	assert.Equal(t, 7, resp.BorrowDuration, "untouched fields keep their value")

	taken := "bia@leiamais.test"
	_, err = f.users.UpdateUser(ctx, ana.ID, models.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	same := "ANA@leiamais.test"
	_, err = f.users.UpdateUser(ctx, ana.ID, models.UpdateUserRequest{Email: &same})
	assert.NoError(t, err)

	_, err = f.users.UpdateUser(ctx, 999, models.UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteUser(t *testing.T) {
	f := newLibraryFixture(t, testNow)
	ctx := context.Background()
	book := f.book(t, "Quincas Borba", 1)
	ana := f.user(t, "ana", models.RoleStudent)

	loan, err := f.loans.Borrow(ctx, book.ID, ana.ID)
	require.NoError(t, err)

	err = f.users.DeleteUser(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrUserHasLoans)

	_, err = f.loans.Return(ctx, loan.ID)
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(ctx, ana.ID))

	_, err = f.users.GetUser(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = f.users.DeleteUser(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteUser_PendingFines(t *testing.T) {
	f := newLibraryFixture(t, testNow)
	ctx := context.Background()
	book := f.book(t, "Dom Casmurro", 1)
	ana := f.user(t, "ana", models.RoleStudent)
	loan := f.loanDueAt(t, book.ID, ana.ID, testNow.AddDate(0, 0, -3))

	fine, err := f.fines.CreateFine(ctx, loan.ID)
	require.NoError(t, err)
	_, err = f.loans.Return(ctx, loan.ID)
	require.NoError(t, err)

	err = f.users.DeleteUser(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrUserHasPendingFines)
	assert.True(t, apperrors.IsPrecondition(err))

	fines, err := f.fines.ListUserFines(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, fines, 1)

	_, err = f.fines.UpdateFineStatus(ctx, fine.ID, models.FineStatusPaid)
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(ctx, ana.ID))
}

func TestUserService_BlockAndUnblock(t *testing.T) {
	f := newLibraryFixture(t, testNow)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)

	notifier := new(MockNotifier)
	notifier.On("NotifyUserBlocked", mock.Anything, mock.MatchedBy(func(u models.UserResponse) bool {
		return u.ID == ana.ID && u.IsBlocked
	})).Return(nil).Once()
	f.users.notifier = notifier

	resp, err := f.users.ApplyBlock(ctx, ana.ID, 5, "Damaged book")
	require.NoError(t, err)
	assert.True(t, resp.IsBlocked)
	assert.Equal(t, "Damaged book", resp.BlockReason)
	require.NotNil(t, resp.BlockedUntil)
	assert.True(t, testNow.AddDate(0, 0, 5).Equal(*resp.BlockedUntil))
	notifier.AssertExpectations(t)

	book := f.book(t, "Quincas Borba", 1)
	_, err = f.loans.Borrow(ctx, book.ID, ana.ID)
	assert.True(t, apperrors.IsPrecondition(err))

	resp, err = f.users.Unblock(ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsBlocked)
	assert.Nil(t, resp.BlockedUntil)
	assert.Empty(t, resp.BlockReason)

	_, err = f.loans.Borrow(ctx, book.ID, ana.ID)
	assert.NoError(t, err)

	_, err = f.users.ApplyBlock(ctx, ana.ID, 0, "nope")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = f.users.ApplyBlock(ctx, 999, 3, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.users.Unblock(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ListUsersAndLoans(t *testing.T) {
	f := newLibraryFixture(t, testNow)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	f.user(t, "prof", models.RoleTeacher)
	book := f.book(t, "Quincas Borba", 2)

	students, err := f.users.ListUsers(ctx, models.UserSearchRequest{Role: models.RoleStudent, Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, ana.ID, students[0].ID)

	all, err := f.users.ListUsers(ctx, models.UserSearchRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.loans.Borrow(ctx, book.ID, ana.ID)
	require.NoError(t, err)

	loans, err := f.users.ListUserLoans(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, loans, 1)

	_, err = f.users.ListUserLoans(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
