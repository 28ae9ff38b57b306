package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/jobs"
	"chefconsole/internal/middleware"
	"chefconsole/internal/subscription"

	"github.com/go-chi/chi/v5"
)

type startGenerationRequest struct {
	Mode       domain.Mode         `json:"mode"`
	Slot       *domain.SlotContext `json:"slot"`
	ClientName string              `json:"client_name"`
	Context    map[string]any      `json:"context"`
}

type waitResponse struct {
	Job      jobs.Job             `json:"job"`
	Result   *subscription.Result `json:"result,omitempty"`
	TimedOut bool                 `json:"timed_out"`
}

// StartGeneration handles POST /v1/plans/{planID}/generations.
func (a *App) StartGeneration(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil || planID <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid plan id")
		return
	}
	var req startGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Mode = domain.Mode(strings.ToLower(strings.TrimSpace(string(req.Mode))))

	if dir := a.Session.Directory; dir != nil {
		exists, err := dir.PlanExists(r.Context(), planID)
		if err != nil {
			a.Logger.Warn().Err(err).Int64("plan_id", planID).Msg("http: plan lookup failed")
		} else if !exists {
			a.error(w, http.StatusNotFound, "not_found", "plan not found")
			return
		}
	}

	jobID, err := a.Session.Registry.Start(r.Context(), jobs.StartRequest{
		Scope:      domain.Scope{PlanID: planID, Slot: req.Slot},
		Mode:       req.Mode,
		ClientName: req.ClientName,
		Locale:     middleware.LocaleFromContext(r.Context()),
		Extra:      req.Context,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	job, err := a.Session.Registry.Get(jobID)
	if err != nil {
		a.json(w, http.StatusAccepted, map[string]any{"job_id": jobID})
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{"job_id": jobID, "job": job})
}

// ListGenerations handles GET /v1/generations.
func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	var planID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("plan_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid plan_id")
			return
		}
		planID = &id
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.Session.Registry.ActiveJobs(planID)})
}

// GetGeneration handles GET /v1/generations/{jobID}.
func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	job, err := a.Session.Registry.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

// WaitGeneration subscribes for the length of the request and returns when
// the job finishes, the timeout passes or the client goes away.
func (a *App) WaitGeneration(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	timeout := defaultWaitTimeout
	if raw := strings.TrimSpace(r.URL.Query().Get("timeout")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid timeout")
			return
		}
		timeout = time.Duration(secs) * time.Second
	}
	if a.MaxWait > 0 && timeout > a.MaxWait {
		timeout = a.MaxWait
	}

	done := make(chan subscription.Result, 1)
	detach, err := a.Session.Registry.Subscribe(jobID, subscription.Callbacks{
		OnComplete: func(res subscription.Result) { done <- res },
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer detach()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	resp := waitResponse{}
	select {
	case res := <-done:
		resp.Result = &res
	case <-timer.C:
		resp.TimedOut = true
	case <-r.Context().Done():
		return
	}

	job, err := a.Session.Registry.Get(jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp.Job = job
	a.json(w, http.StatusOK, resp)
}
