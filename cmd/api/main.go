package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mixmind/internal/adapter/repo"
	"mixmind/internal/domain"
	"mixmind/internal/entitlement"
	"mixmind/internal/http/handlers"
	httpapi "mixmind/internal/http/httpapi"
	"mixmind/internal/infra"
	"mixmind/internal/infra/geoip"
	"mixmind/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Profile store backend: PostgreSQL, or the in-memory store when
	// developing without a database.
	var backend domain.ProfileStore
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		backend = repo.NewProfileRepository(infra.NewSQLRunner(dbpool, logger))
	} else {
		logger.Warn().Msg("no DATABASE_URL, using in-memory profile store")
		backend = repo.NewMemoryProfileRepository()
	}

	store := entitlement.NewStore(backend, logger, cfg.StoreTimeout)
	meter := entitlement.NewMeter(store, cfg.FreeWeeklyGrant, cfg.FreeFavoritesLimit)
	reconciler := entitlement.NewReconciler(store, logger)

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(store, meter, reconciler, logger)
	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
