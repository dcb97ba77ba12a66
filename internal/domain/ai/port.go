package ai

import "context"

// Client makes exactly one inference call per Analyze, without retries.
type Client interface {
	Analyze(ctx context.Context, input string, category Category) (SecurityStatus, error)
}
