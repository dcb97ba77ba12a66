package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bryanwahyu/threatdesk/internal/domain/records"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// RecordRepository stores records in a single SQLite table.
type RecordRepository struct {
	db *sql.DB
}

// Open opens path, or an in-memory database when path is empty.
func Open(ctx context.Context, path string) (*RecordRepository, error) {
	dsn := "file::memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?mode=rwc"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer, and each in-memory connection is its own database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return &RecordRepository{db: db}, nil
}

func (r *RecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (r *RecordRepository) Put(ctx context.Context, key string, data []byte) error {
	const q = `
INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`
	_, err := r.db.ExecContext(ctx, q, key, string(data), time.Now().Unix())
	return err
}

func (r *RecordRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key)
	return err
}

func (r *RecordRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *RecordRepository) Close() error { return r.db.Close() }
