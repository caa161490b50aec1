package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type DB struct {
	*sql.DB
}

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// URL takes precedence over the discrete fields when set
	URL string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Instrumented    bool
}

// DSN renders the lib/pq connection string
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// target extracts tracing attributes, parsing URL when it is used
func (c Config) target() telemetry.DatabaseTarget {
	t := telemetry.DatabaseTarget{Name: c.DBName, Host: c.Host}
	t.Port, _ = strconv.Atoi(c.Port)
	if c.URL == "" {
		return t
	}
	if u, err := url.Parse(c.URL); err == nil {
		t.Host = u.Hostname()
		t.Port, _ = strconv.Atoi(u.Port())
		if len(u.Path) > 1 {
			t.Name = u.Path[1:]
		}
	}
	return t
}

func (c Config) applyPool(db *sql.DB) {
	maxOpen, maxIdle, lifetime := c.MaxOpenConns, c.MaxIdleConns, c.ConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

// Open connects using the instrumented driver when config.Instrumented is set
func Open(ctx context.Context, config Config) (*DB, error) {
	if config.Instrumented {
		return NewInstrumentedConnection(ctx, config)
	}
	return NewConnection(ctx, config)
}

func NewConnection(ctx context.Context, config Config) (*DB, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"host":      config.Host,
		"port":      config.Port,
		"database":  config.DBName,
		"ssl_mode":  config.SSLMode,
		"operation": "database_connection",
	})

	logger.Info("Establishing database connection")

	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		logger.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	config.applyPool(db)

	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Error("Failed to ping database")
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")
	return &DB{db}, nil
}

// NewInstrumentedConnection creates a new database connection with OpenTelemetry instrumentation
func NewInstrumentedConnection(ctx context.Context, config Config) (*DB, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"host":            config.Host,
		"port":            config.Port,
		"database":        config.DBName,
		"ssl_mode":        config.SSLMode,
		"operation":       "instrumented_database_connection",
		"instrumentation": "opentelemetry",
	})

	logger.Info("Establishing instrumented database connection")

	db, err := telemetry.InstrumentDatabase("postgres", config.DSN(), config.target())
	if err != nil {
		logger.WithError(err).Error("Failed to open instrumented database connection")
		return nil, err
	}
	config.applyPool(db)

	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Error("Failed to ping instrumented database")
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Instrumented database connection established successfully")
	return &DB{db}, nil
}

func (db *DB) Health(ctx context.Context) error {
	logger := telemetry.GetContextualLogger(ctx).WithField("operation", "database_health_check")

	err := db.PingContext(ctx)
	if err != nil {
		logger.WithError(err).Error("Database health check failed")
	}
	return err
}

// WithTransaction runs fn inside a transaction. It rolls back when fn
// returns an error or panics and commits otherwise.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	logger := telemetry.GetContextualLogger(ctx).WithField("operation", "database_transaction")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.WithField("panic", p).Error("Transaction panicked, rolling back")
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.WithError(rbErr).Warn("Failed to roll back transaction")
			}
			return
		}
		if err = tx.Commit(); err != nil {
			logger.WithError(err).Error("Failed to commit transaction")
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(tx)
}
