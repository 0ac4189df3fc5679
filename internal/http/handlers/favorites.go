package handlers

import (
	"net/http"
)

// FavoriteAllowanceGet reports whether the account may save another
// favorite: free accounts are capped, premium is unbounded.
func (a *App) FavoriteAllowanceGet(w http.ResponseWriter, r *http.Request) {
	accountID := a.accountID(w, r)
	if accountID == "" {
		return
	}
	allowed, err := a.Meter.CanAddFavorite(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

// FavoriteCreate bumps the favorites counter after the app saved a favorite.
func (a *App) FavoriteCreate(w http.ResponseWriter, r *http.Request) {
	accountID := a.accountID(w, r)
	if accountID == "" {
		return
	}
	count, err := a.Meter.RecordFavoriteAdded(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"favorites_count": count})
}

// FavoriteDelete decrements the favorites counter, flooring at zero.
func (a *App) FavoriteDelete(w http.ResponseWriter, r *http.Request) {
	accountID := a.accountID(w, r)
	if accountID == "" {
		return
	}
	count, err := a.Meter.RecordFavoriteRemoved(r.Context(), accountID)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"favorites_count": count})
}
