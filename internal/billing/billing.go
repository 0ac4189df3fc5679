// Package billing defines the ports to the external purchase/billing
// collaborator. This service only consumes purchase events and active
// purchase lists; it never initiates a purchase.
package billing

import (
	"context"

	"mixmind/internal/domain"
)

// Notification is a purchase event delivered for a specific account, either
// by a push-style live channel or by a webhook.
type Notification struct {
	AccountID string
	Event     domain.PurchaseEvent
}

// Lister is the pull-style side of the collaborator: it reports the
// purchases currently active for an account, used by restore sweeps after
// reinstall or relogin.
type Lister interface {
	ActivePurchases(ctx context.Context, accountID string) ([]domain.PurchaseEvent, error)
}
