package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/threatdesk/internal/domain/records"
)

const createRecords = `
CREATE TABLE IF NOT EXISTS threatdesk_records (
  record_key VARCHAR(191) NOT NULL PRIMARY KEY,
  value_json LONGTEXT NOT NULL,
  updated_at DATETIME(3) NOT NULL
) DEFAULT CHARSET=utf8mb4;`

type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates the table when it is missing.
func NewRecordRepository(ctx context.Context, db *sql.DB) (*RecordRepository, error) {
	if _, err := db.ExecContext(ctx, createRecords); err != nil {
		return nil, err
	}
	return &RecordRepository{db: db}, nil
}

func (r *RecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := r.db.QueryRowContext(ctx,
		`SELECT value_json FROM threatdesk_records WHERE record_key=? LIMIT 1;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

// Put insert/update one record
func (r *RecordRepository) Put(ctx context.Context, key string, data []byte) error {
	const q = `
INSERT INTO threatdesk_records (record_key, value_json, updated_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE value_json=VALUES(value_json), updated_at=VALUES(updated_at);`
	_, err := r.db.ExecContext(ctx, q, key, jsonOrEmpty(data), time.Now().UTC())
	return err
}

func (r *RecordRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM threatdesk_records WHERE record_key=?;`, key)
	return err
}

func (r *RecordRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *RecordRepository) Close() error { return r.db.Close() }
