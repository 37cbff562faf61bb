package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

// PasswordHasher hashes member passwords. *AuthService satisfies it.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// UserServiceInterface defines the interface for user service operations
type UserServiceInterface interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.UserResponse, error)
	GetUser(ctx context.Context, id int64) (*models.UserResponse, error)
	ListUsers(ctx context.Context, req models.UserSearchRequest) ([]models.UserResponse, error)
	UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.UserResponse, error)
	DeleteUser(ctx context.Context, id int64) error
	ApplyBlock(ctx context.Context, id int64, days int, reason string) (*models.UserResponse, error)
	Unblock(ctx context.Context, id int64) (*models.UserResponse, error)
	ListUserLoans(ctx context.Context, id int64) ([]models.LoanResponse, error)
}

// UserService handles member administration and borrowing blocks
type UserService struct {
	store    queries.Store
	hasher   PasswordHasher
	notifier Notifier
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserService(store queries.Store, hasher PasswordHasher, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *UserService {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &UserService{
		store:    store,
		hasher:   hasher,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser registers a member. Borrow limit and duration default to the
// role policy unless given explicitly.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.UserResponse, error) {
	if !req.Role.IsValid() {
		return nil, apperrors.Validation("invalid role")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !isNoRows(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	policy := req.Role.Policy()
	params := queries.CreateUserParams{
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		Role:           req.Role,
		BorrowLimit:    policy.BorrowLimit,
		BorrowDuration: policy.BorrowDuration,
	}
	if req.BorrowLimit != nil {
		params.BorrowLimit = *req.BorrowLimit
	}
	if req.BorrowDuration != nil {
		params.BorrowDuration = *req.BorrowDuration
	}

	if req.Password != "" {
		if s.hasher == nil {
			return nil, errors.New("password hashing is not configured")
		}
		hash, err := s.hasher.HashPassword(req.Password)
		if err != nil {
			return nil, apperrors.Validation("password must be at least 8 characters")
		}
		params.PasswordHash = hash
	}

	user, err := s.store.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))

	response := user.ToResponse(s.now())
	return &response, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.UserResponse, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}

	response := user.ToResponse(s.now())
	return &response, nil
}

func (s *UserService) ListUsers(ctx context.Context, req models.UserSearchRequest) ([]models.UserResponse, error) {
	users, err := s.store.ListUsers(ctx, queries.ListUsersParams{
		Query:  req.Query,
		Role:   req.Role,
		Limit:  req.Limit,
		Offset: req.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse(now)
	}
	return responses, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.UserResponse, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}

	params := queries.UpdateUserParams{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		BorrowLimit:    user.BorrowLimit,
		BorrowDuration: user.BorrowDuration,
	}

	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
				return nil, ErrEmailTaken
			} else if !isNoRows(err) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		params.Email = email
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, apperrors.Validation("invalid role")
		}
		params.Role = *req.Role
	}
	if req.BorrowLimit != nil {
		params.BorrowLimit = *req.BorrowLimit
	}
	if req.BorrowDuration != nil {
		params.BorrowDuration = *req.BorrowDuration
	}

	updated, err := s.store.UpdateUser(ctx, params)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "update user")
	}

	response := updated.ToResponse(s.now())
	return &response, nil
}

// DeleteUser removes a member that has no books out and no pending fines.
// Loan and fine history cascades with the user.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return notFound(err, ErrUserNotFound, "get user")
	}

	if user.ActiveLoans > 0 {
		return ErrUserHasLoans
	}

	pending, err := s.store.ListFines(ctx, queries.ListFinesParams{UserID: id, Status: models.FineStatusPending})
	if err != nil {
		return fmt.Errorf("failed to list pending fines: %w", err)
	}
	if len(pending) > 0 {
		return ErrUserHasPendingFines
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

// ApplyBlock prevents the member from borrowing for the given number of days
// from now, replacing any earlier block.
func (s *UserService) ApplyBlock(ctx context.Context, id int64, days int, reason string) (*models.UserResponse, error) {
	if days <= 0 {
		return nil, apperrors.Validation("block days must be positive")
	}

	now := s.now()
	user, err := applyBlock(ctx, s.store, id, days, reason, now)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUserBlock()
	s.logger.Info("User blocked", zap.Int64("user_id", id), zap.Int("days", days), zap.String("reason", reason))

	response := user.ToResponse(now)
	if err := s.notifier.NotifyUserBlocked(ctx, response); err != nil {
		s.logger.Warn("Failed to send block notification", zap.Int64("user_id", id), zap.Error(err))
	}
	return &response, nil
}

// Unblock clears the block and its reason.
func (s *UserService) Unblock(ctx context.Context, id int64) (*models.UserResponse, error) {
	user, err := s.store.SetUserBlock(ctx, queries.SetUserBlockParams{ID: id})
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "unblock user")
	}

	s.logger.Info("User unblocked", zap.Int64("user_id", id))

	response := user.ToResponse(s.now())
	return &response, nil
}

func (s *UserService) ListUserLoans(ctx context.Context, id int64) ([]models.LoanResponse, error) {
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}

	loans, err := s.store.ListLoans(ctx, queries.ListLoansParams{UserID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	return loanResponses(loans, s.now()), nil
}

// applyBlock is shared by the admin action and late returns, which run it
// inside the return transaction.
func applyBlock(ctx context.Context, q queries.UserQuerier, id int64, days int, reason string, now time.Time) (queries.User, error) {
	until := now.AddDate(0, 0, days)
	user, err := q.SetUserBlock(ctx, queries.SetUserBlockParams{
		ID:           id,
		BlockedUntil: &until,
		BlockReason:  reason,
	})
	if err != nil {
		return queries.User{}, notFound(err, ErrUserNotFound, "block user")
	}
	return user, nil
}

func loanResponses(loans []queries.Loan, now time.Time) []models.LoanResponse {
	responses := make([]models.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = loans[i].ToResponse(now)
	}
	return responses
}
