package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

const settingsCachePrefix = "settings:"

// SettingsCache is the read-through cache in front of the settings table.
// *database.RedisClient satisfies it.
type SettingsCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SettingsReader is the lookup the fine calculator depends on.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// SettingsServiceInterface defines the interface for settings operations
type SettingsServiceInterface interface {
	Get(ctx context.Context, key string) (string, error)
	GetSetting(ctx context.Context, key string) (*models.SettingResponse, error)
	ListSettings(ctx context.Context) ([]models.SettingResponse, error)
	UpsertSetting(ctx context.Context, key string, req models.UpsertSettingRequest) (*models.SettingResponse, error)
}

type SettingsService struct {
	querier queries.SettingQuerier
	cache   SettingsCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSettingsService creates a settings service. cache may be nil.
func NewSettingsService(querier queries.SettingQuerier, cache SettingsCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		querier: querier,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns the raw value of a setting, consulting the cache first.
// Cache failures fall through to the database.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, settingsCachePrefix+key)
		if err == nil {
			s.metrics.RecordCacheLookup(true)
			return val, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	setting, err := s.querier.GetSetting(ctx, key)
	if err != nil {
		return "", notFound(err, ErrSettingNotFound, "get setting")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, settingsCachePrefix+key, setting.Value, s.ttl); err != nil {
			s.logger.Warn("Failed to cache setting", zap.String("key", key), zap.Error(err))
		}
	}

	return setting.Value, nil
}

func (s *SettingsService) GetSetting(ctx context.Context, key string) (*models.SettingResponse, error) {
	setting, err := s.querier.GetSetting(ctx, key)
	if err != nil {
		return nil, notFound(err, ErrSettingNotFound, "get setting")
	}

	response := setting.ToResponse()
	return &response, nil
}

func (s *SettingsService) ListSettings(ctx context.Context) ([]models.SettingResponse, error) {
	settings, err := s.querier.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	responses := make([]models.SettingResponse, len(settings))
	for i := range settings {
		responses[i] = settings[i].ToResponse()
	}
	return responses, nil
}

// UpsertSetting writes a setting and drops its cached value.
func (s *SettingsService) UpsertSetting(ctx context.Context, key string, req models.UpsertSettingRequest) (*models.SettingResponse, error) {
	if key == "" {
		return nil, apperrors.Validation("setting key is required")
	}
	if err := validateSettingValue(key, req.Value); err != nil {
		return nil, err
	}

	setting, err := s.querier.UpsertSetting(ctx, queries.UpsertSettingParams{
		Key:         key,
		Value:       req.Value,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCachePrefix+key); err != nil {
			s.logger.Warn("Failed to invalidate cached setting", zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Info("Setting updated", zap.String("key", key), zap.String("value", req.Value))

	response := setting.ToResponse()
	return &response, nil
}

func validateSettingValue(key, value string) error {
	switch key {
	case models.SettingFinePerDay:
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return apperrors.Validation("fine_per_day must be a decimal number")
		}
		if rate.IsNegative() {
			return apperrors.Validation("fine_per_day must not be negative")
		}
	}
	return nil
}
