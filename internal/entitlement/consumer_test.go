package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mixmind/internal/billing"
	"mixmind/internal/domain"
)

func TestConsumerRunAppliesNotifications(t *testing.T) {
	t0 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore()
	mustCreate(t, store, "acct-1", t0)
	reconciler := newTestReconciler(store, t0)

	events := make(chan billing.Notification, 4)
	events <- billing.Notification{AccountID: "acct-1", Event: purchaseEvent("tx-1", "premium_monthly", t0)}
	events <- billing.Notification{AccountID: "acct-1", Event: purchaseEvent("tx-1", "premium_monthly", t0)}
	events <- billing.Notification{AccountID: "acct-1", Event: purchaseEvent("", "premium_monthly", t0)}
	events <- billing.Notification{AccountID: "acct-1", Event: purchaseEvent("tx-2", "premium_yearly", t0)}
	close(events)

	done := make(chan struct{})
	consumer := NewConsumer(reconciler, events, zerolog.Nop())
	go func() {
		defer close(done)
		consumer.Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run() did not return after channel close")
	}

	profile, err := store.Get(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !profile.IsPremium {
		t.Fatalf("profile.IsPremium = false, want true")
	}
	if len(profile.AppliedPurchaseIDs) != 2 {
		t.Fatalf("ledger = %v, want tx-1 and tx-2", profile.AppliedPurchaseIDs)
	}
	if got := profile.ActiveEntitlement.ProductID; got != "premium_yearly" {
		t.Fatalf("ActiveEntitlement.ProductID = %q, want premium_yearly", got)
	}
}

func TestConsumerRunStopsOnCancel(t *testing.T) {
	store := newTestStore()
	reconciler := newTestReconciler(store, time.Now())

	events := make(chan billing.Notification)
	consumer := NewConsumer(reconciler, events, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run() did not return after cancel")
	}
}

type staticLister struct {
	events []domain.PurchaseEvent
	err    error
}

func (l staticLister) ActivePurchases(ctx context.Context, accountID string) ([]domain.PurchaseEvent, error) {
	return l.events, l.err
}

func TestRestoreFromBilling(t *testing.T) {
	t0 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore()
	mustCreate(t, store, "acct-1", t0)
	reconciler := newTestReconciler(store, t0)

	lister := staticLister{events: []domain.PurchaseEvent{
		purchaseEvent("tx-1", "premium_monthly", t0),
		purchaseEvent("tx-2", "premium_yearly", t0),
		purchaseEvent("tx-1", "premium_monthly", t0),
	}}
	applied, err := reconciler.RestoreFromBilling(context.Background(), lister, "acct-1")
	if err != nil {
		t.Fatalf("RestoreFromBilling() error: %v", err)
	}
	if applied != 2 {
		t.Fatalf("RestoreFromBilling() applied = %d, want 2", applied)
	}
}

func TestRestoreFromBillingListerFailure(t *testing.T) {
	store := newTestStore()
	reconciler := newTestReconciler(store, time.Now())

	lister := staticLister{err: domain.ErrStoreUnavailable}
	if _, err := reconciler.RestoreFromBilling(context.Background(), lister, "acct-1"); err == nil {
		t.Fatalf("RestoreFromBilling() error = nil, want lister failure")
	}
}
