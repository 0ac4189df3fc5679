package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mixmind/internal/domain"
)

// Reconciler translates billing purchase notifications into entitlement
// changes, exactly once per transaction id. Redelivery of an applied
// transaction is a successful no-op, so at-least-once delivery is safe.
type Reconciler struct {
	store  *Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewReconciler builds a reconciler over the entitlement store.
func NewReconciler(store *Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger, now: time.Now}
}

// ApplyResult reports the outcome of a purchase application.
type ApplyResult struct {
	// Applied is false when the transaction id was already in the dedup
	// ledger; Profile then holds the unchanged current state.
	Applied bool
	Profile *domain.Profile
}

// ApplyPurchase grants premium for the purchase event. The ledger check and
// the entitlement merge run as one conditional store write, so concurrent
// delivery of the same transaction cannot double-apply. If the write fails
// transiently the transaction id is not added to the ledger and a retry
// repeats the whole merge.
func (r *Reconciler) ApplyPurchase(ctx context.Context, accountID string, event domain.PurchaseEvent) (ApplyResult, error) {
	if err := event.Validate(); err != nil {
		r.logger.Warn().Err(err).Str("account_id", accountID).Msg("discarding malformed purchase event")
		return ApplyResult{}, err
	}

	premium := true
	update := domain.ProfileUpdate{
		SetPremium: &premium,
		SetEntitlement: &domain.Entitlement{
			EntitlementID: event.TransactionID,
			ProductID:     event.ProductID,
			GrantedAt:     r.now().UTC(),
		},
		UnionPurchaseIDs: []string{event.TransactionID},
		IfPurchaseAbsent: event.TransactionID,
	}

	profile, applied, err := r.store.ApplyMerge(ctx, accountID, update)
	if err != nil {
		return ApplyResult{}, err
	}
	if applied {
		r.logger.Info().
			Str("account_id", accountID).
			Str("transaction_id", event.TransactionID).
			Str("product_id", event.ProductID).
			Msg("purchase applied")
	}
	return ApplyResult{Applied: applied, Profile: profile}, nil
}

// ReconcileRestored applies a restore sweep over the supplied purchase list
// in order, returning how many events were newly applied. The surviving
// active entitlement is whichever valid event was applied last, so callers
// that care which product wins must pre-sort by purchase recency. Malformed
// events are logged and skipped; store failures abort the sweep.
func (r *Reconciler) ReconcileRestored(ctx context.Context, accountID string, events []domain.PurchaseEvent) (int, error) {
	applied := 0
	for _, event := range events {
		result, err := r.ApplyPurchase(ctx, accountID, event)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidPurchaseEvent) {
				continue
			}
			return applied, err
		}
		if result.Applied {
			applied++
		}
	}
	r.logger.Info().
		Str("account_id", accountID).
		Int("delivered", len(events)).
		Int("applied", applied).
		Msg("restore sweep finished")
	return applied, nil
}
