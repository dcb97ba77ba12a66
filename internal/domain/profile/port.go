package profile

import "context"

// Repository persists the single operator profile. Load falls back to
// Default() when nothing usable is stored.
type Repository interface {
	Load(ctx context.Context) Profile
	Save(ctx context.Context, p Profile) error
}
