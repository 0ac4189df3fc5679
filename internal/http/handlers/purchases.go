package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mixmind/internal/domain"
	"mixmind/internal/middleware"
)

type purchaseEventDTO struct {
	TransactionID string    `json:"transaction_id"`
	ProductID     string    `json:"product_id"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

func (d purchaseEventDTO) toDomain() domain.PurchaseEvent {
	return domain.PurchaseEvent{
		TransactionID: d.TransactionID,
		ProductID:     d.ProductID,
		PurchasedAt:   d.PurchasedAt,
	}
}

type purchaseNotification struct {
	AccountID string           `json:"account_id"`
	Event     purchaseEventDTO `json:"event"`
}

// purchaseAccount authorizes the purchase target: account holders may apply
// purchases to themselves, admin/billing tokens to anyone.
func (a *App) purchaseAccount(w http.ResponseWriter, r *http.Request, requested string) string {
	caller := middleware.UserIDFromContext(r.Context())
	if caller == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return ""
	}
	accountID := requested
	if accountID == "" {
		accountID = caller
	}
	if accountID != caller && middleware.RoleFromContext(r.Context()) != middleware.RoleAdmin {
		a.error(w, http.StatusForbidden, "forbidden", "cannot apply purchases to another account")
		return ""
	}
	return accountID
}

// PurchaseCreate is the live purchase notification path. Redelivery of an
// already-applied transaction succeeds with applied=false.
func (a *App) PurchaseCreate(w http.ResponseWriter, r *http.Request) {
	var req purchaseNotification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	accountID := a.purchaseAccount(w, r, req.AccountID)
	if accountID == "" {
		return
	}

	result, err := a.Reconciler.ApplyPurchase(r.Context(), accountID, req.Event.toDomain())
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"applied": result.Applied,
		"profile": toProfileDTO(result.Profile),
	})
}

type restoreRequest struct {
	AccountID string             `json:"account_id"`
	Events    []purchaseEventDTO `json:"events"`
}

// PurchaseRestore runs a restore sweep over the posted purchase list in the
// order received. Clients that care which product ends up active must
// pre-sort by purchase recency.
func (a *App) PurchaseRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	accountID := a.purchaseAccount(w, r, req.AccountID)
	if accountID == "" {
		return
	}

	events := make([]domain.PurchaseEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, e.toDomain())
	}
	applied, err := a.Reconciler.ReconcileRestored(r.Context(), accountID, events)
	if err != nil {
		a.storeError(w, err)
		return
	}

	profile, err := a.Store.Get(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"applied_count": applied,
		"profile":       toProfileDTO(profile),
	})
}
