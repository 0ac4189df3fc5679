package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mixmind/internal/domain"
	"mixmind/internal/middleware"
)

type entitlementDTO struct {
	EntitlementID string    `json:"entitlement_id"`
	ProductID     string    `json:"product_id"`
	GrantedAt     time.Time `json:"granted_at"`
}

type profileDTO struct {
	AccountID         string          `json:"account_id"`
	CreatedAt         time.Time       `json:"created_at"`
	IsPremium         bool            `json:"is_premium"`
	ActiveEntitlement *entitlementDTO `json:"active_entitlement,omitempty"`
	MeteredUsageCount int             `json:"metered_usage_count"`
	FavoritesCount    int             `json:"favorites_count"`
}

func toProfileDTO(p *domain.Profile) profileDTO {
	dto := profileDTO{
		AccountID:         p.AccountID,
		CreatedAt:         p.CreatedAt,
		IsPremium:         p.IsPremium,
		MeteredUsageCount: p.MeteredUsageCount,
		FavoritesCount:    p.FavoritesCount,
	}
	if ent := p.ActiveEntitlement; ent != nil {
		dto.ActiveEntitlement = &entitlementDTO{
			EntitlementID: ent.EntitlementID,
			ProductID:     ent.ProductID,
			GrantedAt:     ent.GrantedAt,
		}
	}
	return dto
}

// accountID resolves the target account for the request and enforces that
// callers only act on their own profile unless the token carries the admin
// role. An empty return means the response has already been written.
func (a *App) accountID(w http.ResponseWriter, r *http.Request) string {
	target := chi.URLParam(r, "id")
	if target == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "account id required")
		return ""
	}
	caller := middleware.UserIDFromContext(r.Context())
	if caller == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return ""
	}
	if caller != target && middleware.RoleFromContext(r.Context()) != middleware.RoleAdmin {
		a.error(w, http.StatusForbidden, "forbidden", "cannot act on another account")
		return ""
	}
	return target
}

type createAccountRequest struct {
	AccountID string `json:"account_id"`
}

// AccountCreate initializes a free-tier profile at signup. Re-posting for an
// existing account returns the stored profile unchanged.
func (a *App) AccountCreate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserIDFromContext(r.Context())
	if caller == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	accountID := caller
	if r.Body != nil && r.ContentLength != 0 {
		var req createAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		if req.AccountID != "" && req.AccountID != caller {
			if middleware.RoleFromContext(r.Context()) != middleware.RoleAdmin {
				a.error(w, http.StatusForbidden, "forbidden", "cannot create another account")
				return
			}
			accountID = req.AccountID
		}
	}

	profile, err := a.Store.CreateIfAbsent(r.Context(), accountID, time.Now().UTC())
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, toProfileDTO(profile))
}

// AccountGet returns the current profile snapshot.
func (a *App) AccountGet(w http.ResponseWriter, r *http.Request) {
	accountID := a.accountID(w, r)
	if accountID == "" {
		return
	}
	profile, err := a.Store.Get(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, toProfileDTO(profile))
}
