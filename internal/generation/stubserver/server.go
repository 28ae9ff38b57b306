// Package stubserver is a deterministic stand-in for the meal generation
// service. It speaks the same JSON contract as the real service and is used by
// cmd/stubgen and by tests that need an HTTP peer.
package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"chefconsole/internal/domain"
	"chefconsole/internal/infra"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Script changes how the stub answers for one plan.
type Script struct {
	// FailStart rejects the start call with a 503.
	FailStart bool
	// FailJob ends the job as failed with this message once polling reaches the last step.
	FailJob string
	// FlakyPolls answers the first N status polls with a 500.
	FlakyPolls int
	// Invalid appends suggestions that fail boundary validation.
	Invalid int
}

// Options configures the stub service.
type Options struct {
	// Steps is the number of status polls a job spends running before it finishes.
	Steps  int
	Logger *infra.Logger
}

// Server keeps stub jobs in memory.
type Server struct {
	mu      sync.Mutex
	steps   int
	jobs    map[string]*stubJob
	scripts map[int64]Script
	starts  int
	logger  *infra.Logger
}

type stubJob struct {
	id        string
	planID    int64
	mode      domain.Mode
	slot      *domain.SlotContext
	polls     int
	flaky     int
	requested int
	script    Script
}

type startBody struct {
	Mode     domain.Mode    `json:"mode"`
	Day      string         `json:"day"`
	Date     string         `json:"date"`
	MealType string         `json:"meal_type"`
	Context  map[string]any `json:"context"`
}

type statusBody struct {
	Status      string              `json:"status"`
	Generated   *int                `json:"generated,omitempty"`
	Requested   *int                `json:"requested,omitempty"`
	Suggestions []domain.Suggestion `json:"suggestions,omitempty"`
	Error       string              `json:"error,omitempty"`
}

var (
	weekDays  = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	mealTypes = []string{"breakfast", "lunch", "dinner"}
	dishes    = []string{
		"Nasi Goreng Kampung", "Soto Ayam", "Gado-Gado", "Sayur Asem", "Pepes Ikan",
		"Tempe Bacem", "Bubur Ayam", "Sop Buntut", "Capcay", "Rawon",
		"Ayam Bakar Taliwang", "Pecel Lele", "Lontong Sayur",
	}
)

// New returns a stub service. Steps below one are treated as one.
func New(opts Options) *Server {
	steps := opts.Steps
	if steps < 1 {
		steps = 1
	}
	return &Server{
		steps:   steps,
		jobs:    make(map[string]*stubJob),
		scripts: make(map[int64]Script),
		logger:  infra.LoggerOrDiscard(opts.Logger),
	}
}

// SetScript installs a failure script for every job started for planID afterwards.
func (s *Server) SetScript(planID int64, script Script) {
	s.mu.Lock()
	s.scripts[planID] = script
	s.mu.Unlock()
}

// StartCount reports how many start calls were accepted.
func (s *Server) StartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Handler exposes the generation service routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/plans/{planID}/generate", s.handleStart)
	r.Get("/generation-jobs/{jobID}", s.handleStatus)
	return r
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil || planID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan id"})
		return
	}
	var body startBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	var slot *domain.SlotContext
	if body.MealType != "" || body.Day != "" || body.Date != "" {
		slot = &domain.SlotContext{Day: body.Day, Date: body.Date, MealType: body.MealType}
	}
	if err := (domain.Scope{PlanID: planID, Slot: slot}).Validate(body.Mode); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	script := s.scripts[planID]
	if v, ok := body.Context["stub_fail"].(string); ok {
		switch v {
		case "start":
			script.FailStart = true
		default:
			script.FailJob = v
		}
	}
	if script.FailStart {
		s.mu.Unlock()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "generation capacity exhausted"})
		return
	}
	job := &stubJob{
		id:        uuid.NewString(),
		planID:    planID,
		mode:      body.Mode,
		slot:      slot,
		flaky:     script.FlakyPolls,
		requested: requestedFor(body.Mode),
		script:    script,
	}
	s.jobs[job.id] = job
	s.starts++
	s.mu.Unlock()

	s.logger.Info().Str("job_id", job.id).Int64("plan_id", planID).Str("mode", string(body.Mode)).Msg("stubgen: job accepted")
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.id})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	if job.flaky > 0 {
		job.flaky--
		s.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "temporary failure"})
		return
	}
	job.polls++
	resp := s.statusLocked(job)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) statusLocked(job *stubJob) statusBody {
	requested := job.requested
	if job.polls <= s.steps {
		generated := requested * (job.polls - 1) / s.steps
		state := "running"
		if job.polls == 1 {
			state = "pending"
		}
		return statusBody{Status: state, Generated: &generated, Requested: &requested}
	}
	if job.script.FailJob != "" {
		return statusBody{Status: "failed", Error: job.script.FailJob}
	}
	suggestions := buildSuggestions(job)
	for i := 0; i < job.script.Invalid; i++ {
		suggestions = append(suggestions, domain.Suggestion{MealType: "dinner", Day: "monday"})
	}
	generated := len(suggestions)
	return statusBody{Status: "completed", Generated: &generated, Requested: &requested, Suggestions: suggestions}
}

func requestedFor(mode domain.Mode) int {
	switch mode {
	case domain.ModeFullWeek:
		return len(weekDays) * len(mealTypes)
	case domain.ModeFillEmpty:
		return len(weekDays)
	default:
		return 1
	}
}

func buildSuggestions(job *stubJob) []domain.Suggestion {
	offset := int(job.planID % int64(len(dishes)))
	pick := func(i int) string { return dishes[(offset+i)%len(dishes)] }

	switch job.mode {
	case domain.ModeSingleSlot:
		meal := strings.ToLower(job.slot.MealType)
		return []domain.Suggestion{{
			Day:         strings.ToLower(job.slot.Day),
			Date:        job.slot.Date,
			MealType:    meal,
			Name:        pick(0),
			Description: fmt.Sprintf("Suggested %s for plan %d", meal, job.planID),
		}}
	case domain.ModeFillEmpty:
		out := make([]domain.Suggestion, 0, len(weekDays))
		for i, day := range weekDays {
			out = append(out, domain.Suggestion{Day: day, MealType: "dinner", Name: pick(i)})
		}
		return out
	default:
		out := make([]domain.Suggestion, 0, len(weekDays)*len(mealTypes))
		for i, day := range weekDays {
			for j, meal := range mealTypes {
				out = append(out, domain.Suggestion{Day: day, MealType: meal, Name: pick(i*len(mealTypes) + j)})
			}
		}
		return out
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
