package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mixmind/internal/http/handlers"
	"mixmind/internal/infra"
	"mixmind/internal/middleware"
)

// NewRouter builds the HTTP surface of the entitlement service.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.I18N("en", lookup),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", app.AccountCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.AccountGet)
				r.Get("/quota", app.QuotaGet)
				r.Post("/consumptions", app.ConsumptionCreate)
				r.Get("/favorites/allowance", app.FavoriteAllowanceGet)
				r.Post("/favorites", app.FavoriteCreate)
				r.Delete("/favorites", app.FavoriteDelete)
			})
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", app.PurchaseCreate)
			r.Post("/restore", app.PurchaseRestore)
		})
	})

	return r
}
