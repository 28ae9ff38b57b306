package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chefconsole/internal/adapter/repo"
	"chefconsole/internal/domain"
	"chefconsole/internal/generation"
	"chefconsole/internal/http/handlers"
	httpapi "chefconsole/internal/http/httpapi"
	"chefconsole/internal/infra"
	"chefconsole/internal/infra/credentials"
	"chefconsole/internal/infra/geoip"
	"chefconsole/internal/session"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect database")
	}

	var directory domain.PlanDirectory = repo.StaticDirectory{}
	apiKey := strings.TrimSpace(cfg.GenerationAPIKey)
	baseURL := cfg.GenerationBaseURL
	if dbpool != nil {
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		directory = repo.NewPlanDirectory(runner)
		stored, ok, err := credentials.NewStore(runner).Generation(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("api: failed to load generation credentials from store")
		case ok:
			if apiKey == "" {
				apiKey = stored.APIKey
			}
			if stored.BaseURL != "" {
				baseURL = stored.BaseURL
			}
		}
	} else {
		logger.Warn().Msg("api: DATABASE_URL not set, plan lookups use the static directory")
	}
	if apiKey == "" {
		logger.Warn().Msg("api: generation api key missing, requests are sent unauthenticated")
	}

	client, err := generation.NewClient(generation.Options{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		RequestTimeout: cfg.GenerationTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure generation client")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("api: geoip database unavailable")
	}
	defer resolver.Close()

	sess, err := session.New(session.Options{
		Config:    cfg,
		Generator: client,
		Directory: directory,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to start session")
	}

	app := handlers.NewApp(sess, &logger)
	app.FitWaitToWriteTimeout(cfg.HTTPWriteTimeout)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          &logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Translator:      sess.Translator,
		CountryLookup:   resolver.Lookup(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("generation_base_url", baseURL).Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	sess.Close()
	logger.Info().Msg("api: stopped")
}
