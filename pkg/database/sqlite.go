package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// MemoryPath selects a process-lifetime in-memory database
const MemoryPath = ":memory:"

// Config holds database configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is the session store connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// New opens the session store. An empty path or MemoryPath opens an in-memory database
// pinned to a single connection, since every sqlite memory connection is its own database.
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn, inMemory := dataSourceName(cfg.Path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	if inMemory {
		cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime = 1, 1, 0
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}

	logger.Info("Session store opened",
		zap.String("path", cfg.Path),
		zap.Bool("in_memory", inMemory))

	return &DB{DB: sqlDB, logger: logger}, nil
}

func dataSourceName(path string) (string, bool) {
	if path == "" || path == MemoryPath {
		return "file::memory:?_foreign_keys=on", true
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path), false
}

// OpenSessionStore opens the database and applies the embedded schema and reference data
func OpenSessionStore(cfg Config, logger *zap.Logger) (*DB, error) {
	db, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := NewMigrator(db, logger).Run(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WithTransaction runs fn in a transaction, rolling back on error or panic
func (db *DB) WithTransaction(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	done = true
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.logger.Debug("Closing session store")
	return db.DB.Close()
}
