package repo

import (
	"context"
	"sync"

	"mixmind/internal/domain"
)

// ProfileRepositoryMemory is an in-process domain.ProfileStore used in
// development mode and in tests. Every merge runs under the store mutex, so
// it honors the same no-lost-update contract as the SQL adapter.
type ProfileRepositoryMemory struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

// NewMemoryProfileRepository creates an empty in-memory store.
func NewMemoryProfileRepository() *ProfileRepositoryMemory {
	return &ProfileRepositoryMemory{profiles: make(map[string]*domain.Profile)}
}

// Get returns a snapshot of the stored profile.
func (r *ProfileRepositoryMemory) Get(ctx context.Context, accountID string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

// Create stores a fresh profile if none exists yet.
func (r *ProfileRepositoryMemory) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[profile.AccountID]; ok {
		return existing.Clone(), nil
	}
	r.profiles[profile.AccountID] = profile.Clone()
	return profile.Clone(), nil
}

// MergeUpdate applies the partial update atomically.
func (r *ProfileRepositoryMemory) MergeUpdate(ctx context.Context, accountID string, update domain.ProfileUpdate) (*domain.Profile, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[accountID]
	if !ok {
		return nil, false, domain.ErrProfileNotFound
	}
	if update.IfPurchaseAbsent != "" && p.PurchaseApplied(update.IfPurchaseAbsent) {
		return p.Clone(), false, nil
	}

	if update.SetPremium != nil {
		p.IsPremium = *update.SetPremium
	}
	if update.SetEntitlement != nil {
		ent := *update.SetEntitlement
		p.ActiveEntitlement = &ent
	}
	p.MeteredUsageCount += update.AddUsage
	p.FavoritesCount += update.AddFavorites
	if p.FavoritesCount < 0 {
		p.FavoritesCount = 0
	}
	for _, id := range update.UnionPurchaseIDs {
		if !p.PurchaseApplied(id) {
			p.AppliedPurchaseIDs = append(p.AppliedPurchaseIDs, id)
		}
	}
	return p.Clone(), true, nil
}

var _ domain.ProfileStore = (*ProfileRepositoryMemory)(nil)
