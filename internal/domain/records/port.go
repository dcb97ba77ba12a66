package records

import (
	"context"
	"errors"
)

// Keys of the two records the console keeps.
const (
	KeyProfile = "operator_profile"
	KeyScanLog = "scan_results"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("record not found")

// Store keeps whole JSON documents by key. Put overwrites, Delete of a
// missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
