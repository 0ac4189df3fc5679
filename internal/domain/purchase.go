package domain

import (
	"fmt"
	"strings"
	"time"
)

// PurchaseEvent is a purchase or restore notification delivered by the
// billing collaborator. It is transient: nothing beyond the transaction id
// is persisted by this core once applied.
type PurchaseEvent struct {
	TransactionID string
	ProductID     string
	PurchasedAt   time.Time
}

// Validate reports ErrInvalidPurchaseEvent for events that can never be
// applied. Such events are discarded, not retried.
func (e PurchaseEvent) Validate() error {
	if strings.TrimSpace(e.TransactionID) == "" {
		return fmt.Errorf("%w: missing transaction id", ErrInvalidPurchaseEvent)
	}
	if strings.TrimSpace(e.ProductID) == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidPurchaseEvent)
	}
	return nil
}
