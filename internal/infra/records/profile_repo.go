package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/threatdesk/internal/domain/profile"
	domain "github.com/bryanwahyu/threatdesk/internal/domain/records"
)

// ProfileRepository mirrors the operator profile into one record.
type ProfileRepository struct {
	store  domain.Store
	logger *slog.Logger
}

func NewProfileRepository(store domain.Store, logger *slog.Logger) *ProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileRepository{store: store, logger: logger}
}

// Load returns the stored profile, or profile.Default() when there is none
// or it does not decode.
func (r *ProfileRepository) Load(ctx context.Context) profile.Profile {
	b, err := r.store.Get(ctx, domain.KeyProfile)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("profile record unreadable, using default", "error", err)
		}
		return profile.Default()
	}
	var p profile.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		r.logger.Warn("profile record corrupt, using default", "error", err)
		return profile.Default()
	}
	return p
}

// Save overwrites the whole record.
func (r *ProfileRepository) Save(ctx context.Context, p profile.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, domain.KeyProfile, b); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
