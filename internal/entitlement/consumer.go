package entitlement

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"mixmind/internal/billing"
	"mixmind/internal/domain"
)

// Consumer drains a live billing notification channel and funnels every
// event through the reconciler, so push delivery and restore sweeps share
// one idempotent entry point.
type Consumer struct {
	reconciler *Reconciler
	events     <-chan billing.Notification
	logger     zerolog.Logger
}

// NewConsumer wires a notification channel to the reconciler.
func NewConsumer(reconciler *Reconciler, events <-chan billing.Notification, logger zerolog.Logger) *Consumer {
	return &Consumer{reconciler: reconciler, events: events, logger: logger}
}

// Run consumes notifications until the context is cancelled or the channel
// closes. Malformed events are dropped; store failures are logged and the
// event is abandoned, relying on the collaborator's at-least-once redelivery.
func (c *Consumer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-c.events:
			if !ok {
				return
			}
			result, err := c.reconciler.ApplyPurchase(ctx, n.AccountID, n.Event)
			switch {
			case errors.Is(err, domain.ErrInvalidPurchaseEvent):
				// Already logged by the reconciler; nothing to retry.
			case err != nil:
				c.logger.Error().Err(err).
					Str("account_id", n.AccountID).
					Str("transaction_id", n.Event.TransactionID).
					Msg("purchase notification failed, awaiting redelivery")
			case !result.Applied:
				c.logger.Debug().
					Str("account_id", n.AccountID).
					Str("transaction_id", n.Event.TransactionID).
					Msg("purchase notification already applied")
			}
		}
	}
}

// RestoreFromBilling runs a one-shot restore sweep using the pull-style
// collaborator and returns how many purchases were newly applied.
func (r *Reconciler) RestoreFromBilling(ctx context.Context, lister billing.Lister, accountID string) (int, error) {
	events, err := lister.ActivePurchases(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return r.ReconcileRestored(ctx, accountID, events)
}
