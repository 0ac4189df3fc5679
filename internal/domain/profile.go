package domain

import (
	"slices"
	"time"
)

// Entitlement is a grant of premium access tied to a specific purchase
// transaction. The entitlement id doubles as the transaction id that
// produced the grant.
type Entitlement struct {
	EntitlementID string
	ProductID     string
	GrantedAt     time.Time
}

// Profile is the authoritative per-account record. IsPremium is true iff
// ActiveEntitlement is set; the two are never written independently.
type Profile struct {
	AccountID          string
	CreatedAt          time.Time
	IsPremium          bool
	ActiveEntitlement  *Entitlement
	MeteredUsageCount  int
	FavoritesCount     int
	AppliedPurchaseIDs []string
}

// NewProfile returns a fresh free-tier profile as created at signup.
func NewProfile(accountID string, createdAt time.Time) *Profile {
	return &Profile{
		AccountID: accountID,
		CreatedAt: createdAt.UTC(),
	}
}

// PurchaseApplied reports whether the transaction id is already in the
// dedup ledger.
func (p *Profile) PurchaseApplied(transactionID string) bool {
	return slices.Contains(p.AppliedPurchaseIDs, transactionID)
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing shared slices.
func (p *Profile) Clone() *Profile {
	cp := *p
	if p.ActiveEntitlement != nil {
		ent := *p.ActiveEntitlement
		cp.ActiveEntitlement = &ent
	}
	cp.AppliedPurchaseIDs = slices.Clone(p.AppliedPurchaseIDs)
	return &cp
}
