package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bryanwahyu/threatdesk/internal/domain/records"
)

func TestRecordRepository(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "in memory", path: func(*testing.T) string { return "" }},
		{name: "file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "db", "threatdesk.db") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo, err := Open(ctx, tt.path(t))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer repo.Close()

			if err := repo.Ping(ctx); err != nil {
				t.Fatalf("Ping() error = %v", err)
			}
			if _, err := repo.Get(ctx, records.KeyScanLog); !errors.Is(err, records.ErrNotFound) {
				t.Fatalf("Get() = %v, want ErrNotFound", err)
			}
			if err := repo.Put(ctx, records.KeyScanLog, []byte(`[1]`)); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if err := repo.Put(ctx, records.KeyScanLog, []byte(`[1,2]`)); err != nil {
				t.Fatalf("Put() upsert error = %v", err)
			}
			got, err := repo.Get(ctx, records.KeyScanLog)
			if err != nil || string(got) != `[1,2]` {
				t.Fatalf("Get() = %s, %v; want [1,2]", got, err)
			}
			if err := repo.Delete(ctx, records.KeyScanLog); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := repo.Get(ctx, records.KeyScanLog); !errors.Is(err, records.ErrNotFound) {
				t.Errorf("Get() after Delete = %v, want ErrNotFound", err)
			}
		})
	}
}
