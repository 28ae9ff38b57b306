package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/infra"
	"chefconsole/internal/jobs"
	"chefconsole/internal/session"
	"chefconsole/internal/toast"
)

const (
	defaultWaitTimeout = 25 * time.Second
	maxWaitTimeout     = 60 * time.Second
)

type App struct {
	Session *session.Session
	Logger  *infra.Logger
	// MaxWait caps the long-poll timeout accepted by WaitGeneration.
	MaxWait time.Duration
}

func NewApp(sess *session.Session, logger *infra.Logger) *App {
	return &App{Session: sess, Logger: infra.LoggerOrDiscard(logger), MaxWait: maxWaitTimeout}
}

// FitWaitToWriteTimeout lowers MaxWait so a long poll answers before the
// server's write timeout. The result stays positive for any positive
// timeout: one second of headroom, but never less than half the timeout.
func (a *App) FitWaitToWriteTimeout(writeTimeout time.Duration) {
	if writeTimeout <= 0 || (a.MaxWait > 0 && a.MaxWait < writeTimeout) {
		return
	}
	budget := writeTimeout - time.Second
	if budget < writeTimeout/2 {
		budget = writeTimeout / 2
	}
	if budget <= 0 {
		budget = writeTimeout
	}
	a.MaxWait = budget
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps domain errors to HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidScope):
		a.error(w, http.StatusBadRequest, "invalid_scope", err.Error())
	case errors.Is(err, domain.ErrDuplicateActiveJob):
		a.error(w, http.StatusConflict, "duplicate_active_job", "a generation is already running for this plan or slot")
	case errors.Is(err, domain.ErrStartFailed):
		a.error(w, http.StatusBadGateway, "start_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, toast.ErrNothingShowing):
		a.error(w, http.StatusConflict, "toast_hidden", err.Error())
	case errors.Is(err, jobs.ErrClosed):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "session is shutting down")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("http: unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
