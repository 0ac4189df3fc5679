package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"mixmind/internal/domain"
	"mixmind/internal/infra"
	"mixmind/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileStore backed by PostgreSQL.
// Counter increments and the purchase-absent guard are evaluated inside a
// single UPDATE, so concurrent writers never lose updates.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// Get fetches the current profile snapshot.
func (r *ProfileRepositoryPG) Get(ctx context.Context, accountID string) (*domain.Profile, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProfile, accountID)
	return scanProfile(row)
}

// Create inserts a profile if absent and returns the stored row either way.
func (r *ProfileRepositoryPG) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCreateProfile, profile.AccountID, profile.CreatedAt)
	stored, err := scanProfile(row)
	if errors.Is(err, domain.ErrProfileNotFound) {
		// The insert-or-select always yields a row; no row means the
		// backend dropped the statement.
		return nil, fmt.Errorf("create profile %s: %w", profile.AccountID, domain.ErrStoreUnavailable)
	}
	return stored, err
}

// MergeUpdate merges the partial update into the stored profile.
func (r *ProfileRepositoryPG) MergeUpdate(ctx context.Context, accountID string, update domain.ProfileUpdate) (*domain.Profile, bool, error) {
	var entitlementID, productID *string
	var grantedAt *time.Time
	if ent := update.SetEntitlement; ent != nil {
		entitlementID = &ent.EntitlementID
		productID = &ent.ProductID
		granted := ent.GrantedAt
		grantedAt = &granted
	}

	ids := update.UnionPurchaseIDs
	if ids == nil {
		ids = []string{}
	}
	var guard *string
	if update.IfPurchaseAbsent != "" {
		guard = &update.IfPurchaseAbsent
	}

	row := r.sql.QueryRow(ctx, sqlinline.QMergeProfile,
		accountID,
		update.SetPremium,
		entitlementID,
		productID,
		grantedAt,
		update.AddUsage,
		update.AddFavorites,
		ids,
		guard,
	)

	merged, err := scanProfile(row)
	if err == nil {
		return merged, true, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, false, err
	}

	// Zero rows: either the purchase guard failed or the profile is gone.
	if guard == nil {
		return nil, false, domain.ErrProfileNotFound
	}
	current, err := r.Get(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var entitlementID, productID *string
	var grantedAt *time.Time
	err := row.Scan(
		&p.AccountID,
		&p.CreatedAt,
		&p.IsPremium,
		&entitlementID,
		&productID,
		&grantedAt,
		&p.MeteredUsageCount,
		&p.FavoritesCount,
		&p.AppliedPurchaseIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile store: %v: %w", err, domain.ErrStoreUnavailable)
	}
	if entitlementID != nil {
		ent := domain.Entitlement{EntitlementID: *entitlementID}
		if productID != nil {
			ent.ProductID = *productID
		}
		if grantedAt != nil {
			ent.GrantedAt = *grantedAt
		}
		p.ActiveEntitlement = &ent
	}
	return &p, nil
}

var _ domain.ProfileStore = (*ProfileRepositoryPG)(nil)
