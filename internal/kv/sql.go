package kv

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"quotedeck/internal/config"
	"quotedeck/internal/logger"
)

// SQLStore persists key-value state through database/sql. The driver is
// selected by config: sqlite for a per-profile file, mysql for a shared
// profile database.
type SQLStore struct {
	db     *sql.DB
	upsert string
}

func NewSQLStore(cfg config.StorageConfig) (*SQLStore, error) {
	var (
		driver string
		dsn    string
		upsert string
	)

	switch cfg.Type {
	case "sqlite":
		driver = "sqlite3"
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.FilePath)
		upsert = `INSERT INTO kv_state (k, v, updated_at) VALUES (?, ?, ?)
				  ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		upsert = `INSERT INTO kv_state (k, v, updated_at) VALUES (?, ?, ?)
				  ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)`
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Type, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s storage: %w", cfg.Type, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	schema := `CREATE TABLE IF NOT EXISTS kv_state (
		k VARCHAR(255) NOT NULL PRIMARY KEY,
		v BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init kv schema: %w", err)
	}

	logger.Log.Info("Opened local storage",
		zap.String("type", cfg.Type),
		zap.String("path", cfg.FilePath),
	)

	return &SQLStore{db: db, upsert: upsert}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_state WHERE k = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_state WHERE k = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
