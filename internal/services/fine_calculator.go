package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/models"
)

const day = 24 * time.Hour

// DefaultFinePerDay is used when no usable fine_per_day setting exists.
var DefaultFinePerDay = decimal.RequireFromString("1.00")

// FineCalculator turns days overdue into a fine amount using the
// fine_per_day setting.
type FineCalculator struct {
	settings    SettingsReader
	defaultRate decimal.Decimal
	logger      *zap.Logger
}

// NewFineCalculator creates a calculator. A zero or negative defaultRate
// falls back to DefaultFinePerDay.
func NewFineCalculator(settings SettingsReader, defaultRate decimal.Decimal, logger *zap.Logger) *FineCalculator {
	if !defaultRate.IsPositive() {
		defaultRate = DefaultFinePerDay
	}
	return &FineCalculator{
		settings:    settings,
		defaultRate: defaultRate,
		logger:      logger,
	}
}

// Rate returns the current daily rate. It never fails; a missing,
// unparsable or negative setting yields the default rate.
func (c *FineCalculator) Rate(ctx context.Context) decimal.Decimal {
	if c.settings == nil {
		return c.defaultRate
	}

	raw, err := c.settings.Get(ctx, models.SettingFinePerDay)
	if err != nil {
		c.logger.Debug("Using default fine rate", zap.Error(err))
		return c.defaultRate
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		c.logger.Warn("Invalid fine_per_day setting, using default", zap.String("value", raw))
		return c.defaultRate
	}

	return rate
}

// CalculateFineAmount returns rate * daysOverdue rounded half-up to cents.
// Negative day counts are treated as zero.
func (c *FineCalculator) CalculateFineAmount(ctx context.Context, daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}
	return c.Rate(ctx).Mul(decimal.NewFromInt(int64(daysOverdue))).Round(2)
}

// DaysOverdue counts started days between dueDate and now: any part of a
// day past the due date counts as a full day. Zero when not yet due.
func DaysOverdue(dueDate, now time.Time) int {
	late := now.Sub(dueDate)
	if late <= 0 {
		return 0
	}
	days := int(late / day)
	if late%day != 0 {
		days++
	}
	return days
}
