package scans

import "context"

// Log is the durable mirror of the scan history. Load never fails: absent or
// corrupt data yields an empty log.
type Log interface {
	Load(ctx context.Context) []Result
	Save(ctx context.Context, results []Result) error
	Clear(ctx context.Context) error
}
