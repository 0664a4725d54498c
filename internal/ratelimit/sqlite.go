package ratelimit

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore keeps window counters in SQLite. It exists so deployments
// that restart frequently, or run the admission check from more than one
// process on the same host, can share one window file without touching
// the limiter itself.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Admit implements Store. The upsert is a single statement, so the
// read-check-then-write on the counter is atomic across processes.
func (s *SQLiteStore) Admit(key string, limit int, now, expiresAt time.Time) (bool, error) {
	if err := s.Sweep(now); err != nil {
		return false, err
	}

	res, err := s.db.Exec(`
		INSERT INTO rate_limit_windows (key, count, expires_at) VALUES (?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET count = count + 1 WHERE count < ?`,
		key, expiresAt.UnixMilli(), limit)
	if err != nil {
		return false, fmt.Errorf("failed to update rate limit window: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit result: %w", err)
	}

	return affected > 0, nil
}

// Sweep implements Store
func (s *SQLiteStore) Sweep(before time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM rate_limit_windows WHERE expires_at < ?`, before.UnixMilli()); err != nil {
		return fmt.Errorf("failed to sweep rate limit windows: %w", err)
	}
	return nil
}
