// Package server runs the HTTP API until its context is cancelled.
package server

import (
	"context"
	"time"

	"mediadetect/internal/bootstrap"
	"mediadetect/internal/http/handlers"
	"mediadetect/internal/http/httpapi"
	"mediadetect/internal/infra"
	"mediadetect/internal/infra/geoip"
)

const shutdownTimeout = 30 * time.Second

// Run serves until ctx is done, then drains in-flight requests.
func Run(ctx context.Context, cfg *infra.Config, logger infra.Logger) error {
	rt, err := bootstrap.New(cfg, &logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	app := &handlers.App{
		Pipeline:       rt.Pipeline,
		DetectorName:   rt.Detector.Name(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	}
	if hc, ok := rt.Detector.(handlers.HealthChecker); ok {
		app.DetectorHealth = hc
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   geo.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		PublishedDir:    rt.Layout.PublishedDir(),
		PublicPrefix:    cfg.PublicOutputsPrefix,
	})
	srv := infra.NewHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr()).Msg("API listening")
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
