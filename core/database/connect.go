package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	coreconfig "github.com/m3rciful/fuelbot/core/config"
	"github.com/m3rciful/fuelbot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	waitTimeout    = 30 * time.Second
	waitInterval   = 2 * time.Second
)

func init() {
	sqlx.BindDriver(coreconfig.DriverSQLite, sqlx.QUESTION)
}

// Connect opens the configured database, sizes the pool and verifies connectivity.
func Connect(cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case coreconfig.DriverPostgres:
		return connectPostgres(cfg)
	case coreconfig.DriverSQLite, "":
		return connectSQLite(cfg)
	default:
		return nil, fmt.Errorf("db connect: driver %q has no SQL backend", cfg.Driver)
	}
}

// PostgresDSN builds a lib/pq keyword DSN.
func PostgresDSN(cfg coreconfig.DatabaseConfig) string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// SQLiteDSN enables foreign keys and a busy timeout for the modernc driver.
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func connectPostgres(cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	dsn := PostgresDSN(cfg)
	if err := waitForDatabase(coreconfig.DriverPostgres, dsn, waitTimeout); err != nil {
		logger.DB.Error("db not ready",
			slog.String("event", "db.wait"),
			slog.String("driver", coreconfig.DriverPostgres),
			slog.String("host", cfg.Host),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return open(cfg, coreconfig.DriverPostgres, dsn, cfg.MaxConnections,
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	)
}

// ensureDir creates the parent directory of a sqlite file.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

func connectSQLite(cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent handlers.
	return open(cfg, coreconfig.DriverSQLite, SQLiteDSN(cfg.Path), 1,
		slog.String("db", cfg.Path),
	)
}

func open(cfg coreconfig.DatabaseConfig, driver, dsn string, pool int, where ...slog.Attr) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	attrs := func(extra ...slog.Attr) []any {
		out := []any{slog.String("event", "db.connect"), slog.String("driver", driver)}
		for _, a := range where {
			out = append(out, a)
		}
		for _, a := range extra {
			out = append(out, a)
		}
		return out
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	took := logger.RoundMS(time.Since(start))
	if err != nil {
		logger.DB.Error("db connect failed", attrs(
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if pool <= 0 {
		pool = cfg.MaxConnections
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	logger.DB.Debug("db pool configured",
		slog.String("event", "db.pool"),
		slog.Int("pool_open", pool),
	)

	logger.DB.Info("db connected", attrs(
		slog.Int("pool_open", pool),
		slog.Duration("duration", took),
	)...)
	return db, nil
}

// waitForDatabase retries a ping until the server answers or timeout elapses.
func waitForDatabase(driver, dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		db, err := sqlx.Open(driver, dsn)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			err = db.PingContext(ctx)
			cancel()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		}
		time.Sleep(waitInterval)
	}
}
