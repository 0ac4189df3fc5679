// Package entitlement holds the account entitlement core: the authoritative
// profile store facade, the usage meter gating metered AI actions, and the
// purchase reconciler that applies billing events exactly once.
package entitlement

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mixmind/internal/domain"
)

// Store is the single source of truth for account profiles. All reads return
// consistent snapshots and all writes are partial merges that never clobber
// unspecified fields. Every backend call is bounded by the configured timeout
// so callers see domain.ErrStoreUnavailable instead of a hang.
type Store struct {
	backend domain.ProfileStore
	logger  zerolog.Logger
	timeout time.Duration
}

// NewStore wraps the profile-store port. A non-positive timeout disables the
// per-call deadline.
func NewStore(backend domain.ProfileStore, logger zerolog.Logger, timeout time.Duration) *Store {
	return &Store{backend: backend, logger: logger, timeout: timeout}
}

// Get reads the current profile snapshot.
func (s *Store) Get(ctx context.Context, accountID string) (*domain.Profile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.backend.Get(ctx, accountID)
}

// CreateIfAbsent initializes a free-tier profile at signup. If a profile
// already exists it is returned unchanged.
func (s *Store) CreateIfAbsent(ctx context.Context, accountID string, createdAt time.Time) (*domain.Profile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	profile, err := s.backend.Create(ctx, domain.NewProfile(accountID, createdAt))
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("account_id", accountID).Msg("profile ready")
	return profile, nil
}

// ApplyMerge merges the partial update into the stored profile and returns
// the result. applied is false only when the update carried a purchase guard
// and the transaction id was already in the ledger.
func (s *Store) ApplyMerge(ctx context.Context, accountID string, update domain.ProfileUpdate) (*domain.Profile, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	profile, applied, err := s.backend.MergeUpdate(ctx, accountID, update)
	if err != nil {
		return nil, false, err
	}
	return profile, applied, nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
