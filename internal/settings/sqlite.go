package settings

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
)

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    symbol     TEXT NOT NULL DEFAULT '',
    side       TEXT NOT NULL DEFAULT '',
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (symbol, side, key)
)`

// SQLiteSource persists settings in a local sqlite database so operators can
// retune risk parameters without a redeploy.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens (and if needed initializes) the settings database.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable WAL mode for crash recovery
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(settingsSchema); err != nil {
		return nil, fmt.Errorf("failed to create settings schema: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

// Lookup returns the value stored for the exact scope.
func (s *SQLiteSource) Lookup(symbol string, side market.Side, key core.SettingKey) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE symbol = ? AND side = ? AND key = ?`,
		symbol, string(side), string(key),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting from db: %w", err)
	}
	return value, true, nil
}

// Upsert writes one value, replacing any previous value in the same scope.
func (s *SQLiteSource) Upsert(ctx context.Context, symbol string, side market.Side, key core.SettingKey, value string, updatedAt int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (symbol, side, key, value, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (symbol, side, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		symbol, string(side), string(key), value, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write setting to db: %w", err)
	}
	return nil
}

// Delete removes one value from the exact scope.
func (s *SQLiteSource) Delete(ctx context.Context, symbol string, side market.Side, key core.SettingKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE symbol = ? AND side = ? AND key = ?`,
		symbol, string(side), string(key),
	)
	if err != nil {
		return fmt.Errorf("failed to delete setting from db: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
