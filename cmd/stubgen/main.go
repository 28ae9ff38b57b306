package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chefconsole/internal/generation/stubserver"
	"chefconsole/internal/infra"
	"chefconsole/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	logger := infra.NewLogger(appEnv, os.Getenv("LOG_LEVEL")).With().Str("cmd", "stubgen").Logger()

	steps := getEnvInt("STUBGEN_STEPS", 3)
	stub := stubserver.New(stubserver.Options{Steps: steps, Logger: &logger})

	for planID, script := range parseScripts(os.Getenv("STUBGEN_FAIL_PLANS")) {
		stub.SetScript(planID, script)
		logger.Info().Int64("plan_id", planID).Bool("fail_start", script.FailStart).Str("fail_job", script.FailJob).Msg("stubgen: scripted plan")
	}

	handler := middleware.RequestID(middleware.Logger(logger)(stub.Handler()))
	srv := &http.Server{
		Addr:              ":" + getEnv("STUBGEN_PORT", "8090"),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Int("steps", steps).Msg("stubgen: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("stubgen: server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("stubgen: shutdown failed")
	}
}

// parseScripts reads "12:start,13:no recipes match" into per-plan failure scripts.
func parseScripts(raw string) map[int64]stubserver.Script {
	out := make(map[int64]stubserver.Script)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idRaw, mode, _ := strings.Cut(part, ":")
		planID, err := strconv.ParseInt(strings.TrimSpace(idRaw), 10, 64)
		if err != nil || planID <= 0 {
			continue
		}
		mode = strings.TrimSpace(mode)
		switch {
		case mode == "start":
			out[planID] = stubserver.Script{FailStart: true}
		case strings.HasPrefix(mode, "flaky"):
			n, _ := strconv.Atoi(strings.TrimPrefix(mode, "flaky"))
			if n <= 0 {
				n = 2
			}
			out[planID] = stubserver.Script{FlakyPolls: n}
		case mode == "":
			out[planID] = stubserver.Script{FailJob: "generation failed"}
		default:
			out[planID] = stubserver.Script{FailJob: mode}
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
