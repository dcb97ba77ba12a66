package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/threatdesk/internal/domain/records"
)

const createRecords = `
CREATE TABLE IF NOT EXISTS threatdesk_records (
  record_key TEXT PRIMARY KEY,
  value_json JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);`

type RecordRepository struct{ db *sql.DB }

func NewRecordRepository(ctx context.Context, db *sql.DB) (*RecordRepository, error) {
	if _, err := db.ExecContext(ctx, createRecords); err != nil {
		return nil, err
	}
	return &RecordRepository{db: db}, nil
}

func (r *RecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value_json FROM threatdesk_records WHERE record_key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *RecordRepository) Put(ctx context.Context, key string, data []byte) error {
	const q = `
INSERT INTO threatdesk_records (record_key, value_json, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (record_key) DO UPDATE SET
 value_json = EXCLUDED.value_json,
 updated_at = EXCLUDED.updated_at;`
	_, err := r.db.ExecContext(ctx, q, key, string(data), time.Now().UTC())
	return err
}

func (r *RecordRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM threatdesk_records WHERE record_key = $1`, key)
	return err
}

func (r *RecordRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *RecordRepository) Close() error { return r.db.Close() }
