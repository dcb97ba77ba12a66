package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	domain "github.com/bryanwahyu/threatdesk/internal/domain/records"
	"github.com/bryanwahyu/threatdesk/internal/domain/scans"
)

// ScanLogRepository mirrors the full scan history into one record.
type ScanLogRepository struct {
	store  domain.Store
	logger *slog.Logger
}

func NewScanLogRepository(store domain.Store, logger *slog.Logger) *ScanLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanLogRepository{store: store, logger: logger}
}

// Load returns the stored history newest first; empty when absent or malformed.
func (r *ScanLogRepository) Load(ctx context.Context) []scans.Result {
	b, err := r.store.Get(ctx, domain.KeyScanLog)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("scan log unreadable, starting empty", "error", err)
		}
		return []scans.Result{}
	}
	var out []scans.Result
	if err := json.Unmarshal(b, &out); err != nil {
		r.logger.Warn("error loading results, starting empty", "error", err)
		return []scans.Result{}
	}
	if out == nil {
		out = []scans.Result{}
	}
	return out
}

// Save writes the whole list, every time.
func (r *ScanLogRepository) Save(ctx context.Context, results []scans.Result) error {
	if results == nil {
		results = []scans.Result{}
	}
	b, err := json.Marshal(results)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, domain.KeyScanLog, b); err != nil {
		return fmt.Errorf("save scan log: %w", err)
	}
	return nil
}

// Clear removes the record.
func (r *ScanLogRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, domain.KeyScanLog); err != nil {
		return fmt.Errorf("clear scan log: %w", err)
	}
	return nil
}
