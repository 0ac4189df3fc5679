package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"mixmind/internal/domain"
	"mixmind/internal/entitlement"
)

// App bundles the entitlement core components behind the HTTP surface.
type App struct {
	Store      *entitlement.Store
	Meter      *entitlement.Meter
	Reconciler *entitlement.Reconciler
	Logger     zerolog.Logger
}

func NewApp(store *entitlement.Store, meter *entitlement.Meter, reconciler *entitlement.Reconciler, logger zerolog.Logger) *App {
	return &App{Store: store, Meter: meter, Reconciler: reconciler, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]string{"error": slug, "message": message})
}

// storeError maps core errors onto API responses. Quota exhaustion and
// already-applied purchases never reach this path; they are normal outcomes.
func (a *App) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		a.error(w, http.StatusNotFound, "not_found", "account profile not found")
	case errors.Is(err, domain.ErrInvalidPurchaseEvent):
		a.error(w, http.StatusBadRequest, "invalid_purchase", "purchase event is malformed")
	case errors.Is(err, domain.ErrStoreUnavailable):
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "profile store unavailable, retry later")
	default:
		a.Logger.Error().Err(err).Msg("unhandled core error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
