package entitlement

import (
	"context"
	"time"

	"mixmind/internal/domain"
)

// QuotaUnlimited is the remaining-quota sentinel reported for premium
// accounts.
const QuotaUnlimited = -1

// Meter gates and accounts for consumption of metered AI actions. Decisions
// are advisory reads: quota is a soft ceiling and a burst of concurrent
// callers may slightly overshoot it rather than serialize every check.
type Meter struct {
	store          *Store
	weeklyGrant    int
	favoritesLimit int
	now            func() time.Time
}

// NewMeter builds a meter over the entitlement store. weeklyGrant is the
// free-tier allowance added per 7-day period (cumulative, never reset) and
// favoritesLimit caps favorites for free accounts.
func NewMeter(store *Store, weeklyGrant, favoritesLimit int) *Meter {
	return &Meter{
		store:          store,
		weeklyGrant:    weeklyGrant,
		favoritesLimit: favoritesLimit,
		now:            time.Now,
	}
}

// AllowedQuota returns the cumulative lifetime allowance for the profile:
// the weekly grant at signup plus the same grant at the start of each
// subsequent 7-day period, at integer day granularity.
func (m *Meter) AllowedQuota(profile *domain.Profile) int {
	days := int(m.now().Sub(profile.CreatedAt) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return (days/7 + 1) * m.weeklyGrant
}

// CanConsume reports whether the account may run a metered action right now.
// Exhausted quota is a plain false, never an error.
func (m *Meter) CanConsume(ctx context.Context, accountID string) (bool, error) {
	profile, err := m.store.Get(ctx, accountID)
	if err != nil {
		return false, err
	}
	if profile.IsPremium {
		return true, nil
	}
	return profile.MeteredUsageCount < m.AllowedQuota(profile), nil
}

// RecordConsumption adds one consumption to the lifetime counter and returns
// the new count. Callers invoke it only after the gated action succeeded;
// a crash between action success and this write under-counts usage, which is
// an accepted imprecision of post-hoc accounting.
func (m *Meter) RecordConsumption(ctx context.Context, accountID string) (int, error) {
	profile, _, err := m.store.ApplyMerge(ctx, accountID, domain.ProfileUpdate{AddUsage: 1})
	if err != nil {
		return 0, err
	}
	return profile.MeteredUsageCount, nil
}

// RemainingQuota returns how many metered actions the account has left, or
// QuotaUnlimited for premium accounts. Never negative.
func (m *Meter) RemainingQuota(ctx context.Context, accountID string) (int, error) {
	profile, err := m.store.Get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if profile.IsPremium {
		return QuotaUnlimited, nil
	}
	remaining := m.AllowedQuota(profile) - profile.MeteredUsageCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CanAddFavorite reports whether the account may save another favorite.
func (m *Meter) CanAddFavorite(ctx context.Context, accountID string) (bool, error) {
	profile, err := m.store.Get(ctx, accountID)
	if err != nil {
		return false, err
	}
	if profile.IsPremium {
		return true, nil
	}
	return profile.FavoritesCount < m.favoritesLimit, nil
}

// RecordFavoriteAdded bumps the favorites counter and returns the new count.
func (m *Meter) RecordFavoriteAdded(ctx context.Context, accountID string) (int, error) {
	profile, _, err := m.store.ApplyMerge(ctx, accountID, domain.ProfileUpdate{AddFavorites: 1})
	if err != nil {
		return 0, err
	}
	return profile.FavoritesCount, nil
}

// RecordFavoriteRemoved decrements the favorites counter, flooring at zero,
// and returns the new count.
func (m *Meter) RecordFavoriteRemoved(ctx context.Context, accountID string) (int, error) {
	profile, _, err := m.store.ApplyMerge(ctx, accountID, domain.ProfileUpdate{AddFavorites: -1})
	if err != nil {
		return 0, err
	}
	return profile.FavoritesCount, nil
}
