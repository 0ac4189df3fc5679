package handlers

import (
	"net/http"

	"mixmind/internal/entitlement"
	"mixmind/internal/middleware"
)

type quotaResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
	Message   string `json:"message"`
}

var quotaMessages = map[string]struct{ allowed, denied, unlimited string }{
	"en": {
		allowed:   "You can run AI generations.",
		denied:    "Weekly free limit reached. Upgrade to premium for unlimited access.",
		unlimited: "Premium: unlimited AI generations.",
	},
	"id": {
		allowed:   "Anda dapat menjalankan generasi AI.",
		denied:    "Batas gratis mingguan tercapai. Upgrade ke premium untuk akses tanpa batas.",
		unlimited: "Premium: generasi AI tanpa batas.",
	},
}

// QuotaGet is the advisory gate the app calls before attempting a metered
// action. It never mutates state; exhausted quota is a normal allowed=false.
func (a *App) QuotaGet(w http.ResponseWriter, r *http.Request) {
	accountID := a.accountID(w, r)
	if accountID == "" {
		return
	}

	allowed, err := a.Meter.CanConsume(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	remaining, err := a.Meter.RemainingQuota(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}

	msgs, ok := quotaMessages[middleware.LocaleFromContext(r.Context())]
	if !ok {
		msgs = quotaMessages["en"]
	}
	resp := quotaResponse{Allowed: allowed, Remaining: remaining}
	switch {
	case remaining == entitlement.QuotaUnlimited:
		resp.Unlimited = true
		resp.Message = msgs.unlimited
	case allowed:
		resp.Message = msgs.allowed
	default:
		resp.Message = msgs.denied
	}
	a.json(w, http.StatusOK, resp)
}

// ConsumptionCreate records one metered-action consumption after the gated
// action succeeded. Accounting is post-hoc: this endpoint never denies.
func (a *App) ConsumptionCreate(w http.ResponseWriter, r *http.Request) {
	accountID := a.accountID(w, r)
	if accountID == "" {
		return
	}
	count, err := a.Meter.RecordConsumption(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"metered_usage_count": count})
}
