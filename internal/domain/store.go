package domain

import "context"

// ProfileUpdate is a partial merge against a stored profile. Zero-valued
// fields are left untouched; increments are applied atomically by the
// backing store so concurrent writers never lose updates.
type ProfileUpdate struct {
	// SetPremium and SetEntitlement are written together by callers so the
	// premium-iff-entitlement invariant holds after every merge.
	SetPremium     *bool
	SetEntitlement *Entitlement

	// AddUsage and AddFavorites are atomic counter deltas. Favorites never
	// go below zero.
	AddUsage     int
	AddFavorites int

	// UnionPurchaseIDs is merged into the dedup ledger (set union).
	UnionPurchaseIDs []string

	// IfPurchaseAbsent, when non-empty, makes the whole merge conditional:
	// it is applied only if the given transaction id is not already in the
	// ledger. A failed condition is not an error; MergeUpdate reports it
	// through its applied result.
	IfPurchaseAbsent string
}

// ProfileStore is the port to the external keyed document store holding
// account profiles. Implementations must provide last-write-wins merge
// semantics per field, atomic increments and ledger union, and surface
// ErrStoreUnavailable on transient backend failure.
type ProfileStore interface {
	// Get returns the current profile snapshot or ErrProfileNotFound.
	Get(ctx context.Context, accountID string) (*Profile, error)

	// Create inserts a fresh profile if none exists and returns the stored
	// profile either way (idempotent initialization).
	Create(ctx context.Context, profile *Profile) (*Profile, error)

	// MergeUpdate merges the update into the stored profile and returns the
	// resulting snapshot. applied is false only when an IfPurchaseAbsent
	// condition failed; the returned profile is then the unchanged current
	// state. Returns ErrProfileNotFound when no profile exists.
	MergeUpdate(ctx context.Context, accountID string, update ProfileUpdate) (profile *Profile, applied bool, err error)
}
