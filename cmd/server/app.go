package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/config"
	"github.com/webermont/LeiaMais/internal/database"
	"github.com/webermont/LeiaMais/internal/logger"
	"github.com/webermont/LeiaMais/internal/services"
)

// app holds everything the commands share once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.Database
	redis  *database.RedisClient

	metrics  *services.MetricsService
	auth     *services.AuthService
	settings *services.SettingsService
	books    *services.BookService
	users    *services.UserService
	loans    *services.LoanService
	fines    *services.FineService
	reports  *services.ReportService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(cfg.Log)

	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	a := &app{cfg: cfg, logger: log, db: db}

	if cfg.Redis.Enabled {
		a.redis, err = database.NewRedis(cfg.Redis, log)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
	} else {
		log.Info("Redis disabled; rate limiting, token revocation and settings cache are off")
	}

	if err := a.initServices(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) initServices() error {
	cfg := a.cfg
	store := a.db.Store()

	// Use RSA keys if configured, otherwise generate ephemeral ones
	jwtPrivateKey := cfg.JWT.PrivateKey
	refreshPrivateKey := cfg.JWT.RefreshPrivateKey
	if jwtPrivateKey == "" || refreshPrivateKey == "" {
		a.logger.Warn("JWT keys not configured; generating ephemeral keys, tokens will not survive a restart")
	}
	var err error
	if jwtPrivateKey == "" {
		if jwtPrivateKey, err = generateRSAPrivateKey(); err != nil {
			return err
		}
	}
	if refreshPrivateKey == "" {
		if refreshPrivateKey, err = generateRSAPrivateKey(); err != nil {
			return err
		}
	}

	defaultRate, err := decimal.NewFromString(cfg.Library.DefaultFinePerDay)
	if err != nil {
		return fmt.Errorf("invalid library.default_fine_per_day %q: %w", cfg.Library.DefaultFinePerDay, err)
	}

	a.metrics = services.NewMetricsService()
	notifier := services.NewNotifier(cfg.Email, a.logger)

	// Interfaces must stay untyped nil when redis is off.
	var cache services.SettingsCache
	if a.redis != nil {
		cache = a.redis
	}
	a.settings = services.NewSettingsService(store, cache, cfg.Redis.SettingsTTL, a.metrics, a.logger)

	a.auth, err = services.NewAuthService(
		store,
		jwtPrivateKey,
		refreshPrivateKey,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshExpiryHours)*time.Hour,
		a.logger,
		a.redisClientOrNil(),
	)
	if err != nil {
		return fmt.Errorf("initialize auth service: %w", err)
	}

	calculator := services.NewFineCalculator(a.settings, defaultRate, a.logger)
	a.books = services.NewBookService(store, a.logger)
	a.users = services.NewUserService(store, a.auth, notifier, a.metrics, a.logger)
	a.loans = services.NewLoanService(store, notifier, a.metrics, a.logger, cfg.Library.MaxRenewals)
	a.fines = services.NewFineService(store, calculator, notifier, a.metrics, a.logger)
	a.reports = services.NewReportService(store, a.logger)
	return nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	a.db.Close()
	_ = a.logger.Sync()
}

func (a *app) redisClientOrNil() *redis.Client {
	if a.redis == nil {
		return nil
	}
	return a.redis.Client
}

// generateRSAPrivateKey returns a PKCS1 PEM key for development setups
// that have no keys configured.
func generateRSAPrivateKey() (string, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", fmt.Errorf("generate RSA key: %w", err)
	}

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}
	return string(pem.EncodeToMemory(block)), nil
}
