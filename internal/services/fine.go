package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

// FineServiceInterface defines the interface for fine operations
type FineServiceInterface interface {
	CalculateFine(ctx context.Context, loanID int64) (*models.FineCalculation, error)
	CreateFine(ctx context.Context, loanID int64) (*models.FineResponse, error)
	UpdateFineStatus(ctx context.Context, id int64, status models.FineStatus) (*models.FineResponse, error)
	ListUserFines(ctx context.Context, userID int64) ([]models.FineResponse, error)
	ListPendingFines(ctx context.Context) ([]models.FineResponse, error)
	ProcessAutomaticFines(ctx context.Context) (*models.ProcessFinesResult, error)
}

// FineService issues and settles fines. Amounts are computed once, when the
// fine is created, and never recomputed.
type FineService struct {
	store      queries.Store
	calculator *FineCalculator
	notifier   Notifier
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

func NewFineService(store queries.Store, calculator *FineCalculator, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *FineService {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &FineService{
		store:      store,
		calculator: calculator,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CalculateFine previews the fine an open, past-due loan would receive now.
// Nothing is persisted.
func (s *FineService) CalculateFine(ctx context.Context, loanID int64) (*models.FineCalculation, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, notFound(err, ErrLoanNotFound, "get loan")
	}

	if !loan.Status.IsOpen() {
		return nil, ErrLoanNotActive
	}

	now := s.now()
	if !loan.DueDate.Before(now) {
		return nil, ErrLoanNotOverdue
	}

	days := DaysOverdue(loan.DueDate, now)
	return &models.FineCalculation{
		DaysOverdue: days,
		Amount:      models.NewMoney(s.calculator.CalculateFineAmount(ctx, days)),
		DueDate:     loan.DueDate,
	}, nil
}

// CreateFine fines a loan for its current days overdue, which is zero for a
// loan that is not yet due. Open loans are stamped overdue in the same
// transaction; returned loans keep their status.
func (s *FineService) CreateFine(ctx context.Context, loanID int64) (*models.FineResponse, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, notFound(err, ErrLoanNotFound, "get loan")
	}

	fine, err := s.issueFine(ctx, loan, "manual")
	if err != nil {
		return nil, err
	}

	s.notify(ctx, loan.UserID, fine)
	return fine, nil
}

// UpdateFineStatus settles a pending fine as paid or cancelled. Paying also
// marks the loan's fine as paid.
func (s *FineService) UpdateFineStatus(ctx context.Context, id int64, status models.FineStatus) (*models.FineResponse, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation("invalid fine status")
	}

	var updated queries.Fine
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		fine, err := q.GetFine(ctx, id)
		if err != nil {
			return notFound(err, ErrFineNotFound, "get fine")
		}

		if !fine.Status.CanTransitionTo(status) {
			return ErrInvalidFineTransition(string(fine.Status))
		}

		if status == models.FineStatusPaid {
			if err := q.SetLoanFinePaid(ctx, fine.LoanID); err != nil {
				return notFound(err, ErrLoanNotFound, "mark loan fine paid")
			}
		}

		updated, err = q.UpdateFineStatus(ctx, queries.UpdateFineStatusParams{ID: fine.ID, Status: status})
		if err != nil {
			return notFound(err, ErrFineNotFound, "update fine")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fine status updated", zap.Int64("fine_id", id), zap.String("status", string(status)))

	response := updated.ToResponse()
	return &response, nil
}

func (s *FineService) ListUserFines(ctx context.Context, userID int64) ([]models.FineResponse, error) {
	fines, err := s.store.ListFines(ctx, queries.ListFinesParams{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list fines: %w", err)
	}
	return fineResponses(fines), nil
}

func (s *FineService) ListPendingFines(ctx context.Context) ([]models.FineResponse, error) {
	fines, err := s.store.ListFines(ctx, queries.ListFinesParams{Status: models.FineStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list fines: %w", err)
	}
	return fineResponses(fines), nil
}

// ProcessAutomaticFines fines every active, unfined loan that is past due,
// one transaction per loan. Fined loans become overdue and so drop out of
// the next run. A loan that fails is logged and skipped.
func (s *FineService) ProcessAutomaticFines(ctx context.Context) (*models.ProcessFinesResult, error) {
	candidates, err := s.store.ListUnfinedActiveLoans(ctx)
	if err != nil {
		s.metrics.RecordFineRun(err)
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	now := s.now()
	result := &models.ProcessFinesResult{Fines: []models.FineResponse{}}

	for _, loan := range candidates {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordFineRun(err)
			return nil, err
		}
		if !loan.DueDate.Before(now) {
			continue
		}

		fine, err := s.issueFine(ctx, loan, "automatic")
		if errors.Is(err, errLoanAlreadyFined) {
			s.logger.Debug("Loan fined by another run, skipping", zap.Int64("loan_id", loan.ID))
			continue
		}
		if err != nil {
			s.logger.Error("Failed to fine overdue loan", zap.Int64("loan_id", loan.ID), zap.Error(err))
			continue
		}

		result.Fines = append(result.Fines, *fine)
		s.notifyOverdue(ctx, loan.UserID, fine, DaysOverdue(loan.DueDate, now))
	}

	result.Processed = len(result.Fines)
	s.metrics.RecordFineRun(nil)
	s.logger.Info("Automatic fines processed", zap.Int("candidates", len(candidates)), zap.Int("processed", result.Processed))

	return result, nil
}

// errLoanAlreadyFined marks a snapshot loan that a concurrent run has fined.
var errLoanAlreadyFined = errors.New("loan already fined")

// issueFine looks the rate up before the transaction opens, then writes the
// fine and stamps the loan atomically. Automatic fines claim the loan first so
// that overlapping runs fine it once.
func (s *FineService) issueFine(ctx context.Context, loan queries.Loan, origin string) (*models.FineResponse, error) {
	now := s.now()
	days := DaysOverdue(loan.DueDate, now)
	amount := s.calculator.CalculateFineAmount(ctx, days)

	var fine queries.Fine
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		current, err := q.GetLoan(ctx, loan.ID)
		if err != nil {
			return notFound(err, ErrLoanNotFound, "get loan")
		}

		automatic := origin == "automatic"
		if automatic {
			if current.Status != models.LoanStatusActive || current.FinePaid {
				return errLoanAlreadyFined
			}
			if err := q.ClaimOverdueLoan(ctx, current.ID); err != nil {
				if isNoRows(err) {
					return errLoanAlreadyFined
				}
				return fmt.Errorf("failed to claim loan: %w", err)
			}
		}

		fine, err = q.CreateFine(ctx, queries.CreateFineParams{
			LoanID:  current.ID,
			Amount:  amount,
			DueDate: current.DueDate,
		})
		if err != nil {
			return fmt.Errorf("failed to create fine: %w", err)
		}

		if !automatic && current.Status.IsOpen() {
			if err := q.UpdateLoanStatus(ctx, queries.UpdateLoanStatusParams{ID: current.ID, Status: models.LoanStatusOverdue}); err != nil {
				return fmt.Errorf("failed to mark loan overdue: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	amountF, _ := amount.Float64()
	s.metrics.RecordFineCreated(origin, amountF)
	s.logger.Info("Fine created",
		zap.Int64("fine_id", fine.ID),
		zap.Int64("loan_id", loan.ID),
		zap.Int("days_overdue", days),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("origin", origin),
	)

	response := fine.ToResponse()
	return &response, nil
}

func (s *FineService) notify(ctx context.Context, userID int64, fine *models.FineResponse) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load user for fine notification", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := s.notifier.NotifyFineCreated(ctx, user.ToResponse(s.now()), *fine); err != nil {
		s.logger.Warn("Failed to send fine notification", zap.Int64("fine_id", fine.ID), zap.Error(err))
	}
}

func (s *FineService) notifyOverdue(ctx context.Context, userID int64, fine *models.FineResponse, days int) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load user for overdue notification", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := s.notifier.NotifyLoanOverdue(ctx, user.ToResponse(s.now()), *fine, days); err != nil {
		s.logger.Warn("Failed to send overdue notification", zap.Int64("loan_id", fine.LoanID), zap.Error(err))
	}
}

func fineResponses(fines []queries.Fine) []models.FineResponse {
	responses := make([]models.FineResponse, len(fines))
	for i := range fines {
		responses[i] = fines[i].ToResponse()
	}
	return responses
}
