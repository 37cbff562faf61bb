package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/webermont/LeiaMais/internal/config"
	"github.com/webermont/LeiaMais/internal/database/queries"
)

type Database struct {
	Driver string
	// Pool is set only for Postgres; DB wraps it for the shared query layer.
	Pool   *pgxpool.Pool
	DB     *sqlx.DB
	logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) (*Database, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return NewSQLite(cfg.Database.SQLitePath, logger)
	case config.DriverPostgres:
		return NewPostgres(cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func NewPostgres(cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	if cfg.URL == "" && (cfg.Host == "" || cfg.Port == 0) {
		return nil, fmt.Errorf("database host and port are required")
	}

	// Configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to database", zap.String("driver", config.DriverPostgres))

	return &Database{
		Driver: config.DriverPostgres,
		Pool:   pool,
		DB:     sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		logger: logger,
	}, nil
}

// NewSQLite opens an embedded database file, or a private in-memory database
// when path is ":memory:".
func NewSQLite(path string, logger *zap.Logger) (*Database, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One writer at a time; for :memory: this also keeps a single shared database.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to database", zap.String("driver", config.DriverSQLite), zap.String("path", path))

	return &Database{
		Driver: config.DriverSQLite,
		DB:     db,
		logger: logger,
	}, nil
}

// Store returns the transactional query layer over this connection.
func (db *Database) Store() *queries.SQLStore {
	return queries.NewStore(db.DB)
}

func (db *Database) Close() {
	if db.DB != nil {
		db.DB.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
	db.logger.Info("Database connection closed")
}

func (db *Database) Health(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	return db.DB.PingContext(ctx)
}
