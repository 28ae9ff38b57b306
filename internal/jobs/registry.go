// Package jobs tracks background meal generations from start to their single
// terminal notification.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/generation"
	"chefconsole/internal/i18n"
	"chefconsole/internal/infra"
	"chefconsole/internal/subscription"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("jobs: registry closed")

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxRetries   = 5
	defaultRetention    = 15 * time.Minute
)

// Options wires a Registry. Generator and Notifier are required.
type Options struct {
	Generator  Generator
	Notifier   Notifier
	Bridge     *subscription.Bridge
	Translator *i18n.Translator
	// Directory resolves client names when the caller does not pass one.
	Directory domain.PlanDirectory
	Logger    *infra.Logger

	PollInterval time.Duration
	// MaxRetries is the number of consecutive failed polls tolerated. Negative means the default.
	MaxRetries int
	MaxBackoff time.Duration
	// Retention keeps terminal jobs readable for late subscribers.
	Retention       time.Duration
	JanitorInterval time.Duration
	Now             func() time.Time
}

// Registry is the session-wide owner of job state.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	byScope map[string]string // scope key -> job id, "" while the start call is in flight
	closed  bool

	gen        Generator
	notifier   Notifier
	bridge     *subscription.Bridge
	translator *i18n.Translator
	directory  domain.PlanDirectory
	logger     *infra.Logger
	now        func() time.Time

	pollInterval time.Duration
	maxRetries   int
	maxBackoff   time.Duration
	retention    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry constructs the registry and starts its retention janitor.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.Generator == nil {
		return nil, errors.New("jobs: generator is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("jobs: notifier is required")
	}
	r := &Registry{
		jobs:         make(map[string]*Job),
		byScope:      make(map[string]string),
		gen:          opts.Generator,
		notifier:     opts.Notifier,
		bridge:       opts.Bridge,
		translator:   opts.Translator,
		directory:    opts.Directory,
		logger:       infra.LoggerOrDiscard(opts.Logger),
		now:          opts.Now,
		pollInterval: opts.PollInterval,
		maxRetries:   opts.MaxRetries,
		maxBackoff:   opts.MaxBackoff,
		retention:    opts.Retention,
	}
	if r.bridge == nil {
		r.bridge = subscription.New(opts.Logger)
	}
	if r.translator == nil {
		r.translator = i18n.New("en")
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.pollInterval <= 0 {
		r.pollInterval = defaultPollInterval
	}
	if r.maxRetries < 0 {
		r.maxRetries = defaultMaxRetries
	}
	if r.maxBackoff < r.pollInterval {
		r.maxBackoff = r.pollInterval * 16
	}
	if r.retention <= 0 {
		r.retention = defaultRetention
	}
	janitorEvery := opts.JanitorInterval
	if janitorEvery <= 0 {
		janitorEvery = r.retention / 2
		if janitorEvery > time.Minute {
			janitorEvery = time.Minute
		}
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.wg.Add(1)
	go r.janitor(janitorEvery)
	return r, nil
}

// Bridge returns the subscription bridge used for delivery.
func (r *Registry) Bridge() *subscription.Bridge { return r.bridge }

// Start begins a generation for req.Scope. The scope is reserved before the
// service is called, so concurrent starts for one scope cannot both succeed.
func (r *Registry) Start(ctx context.Context, req StartRequest) (string, error) {
	scope := req.Scope.Clone()
	if err := scope.Validate(req.Mode); err != nil {
		return "", err
	}
	key := scope.Key()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	if _, busy := r.byScope[key]; busy {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateActiveJob, key)
	}
	r.byScope[key] = ""
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if id, ok := r.byScope[key]; ok && id == "" {
			delete(r.byScope, key)
		}
		r.mu.Unlock()
	}

	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" && r.directory != nil {
		name, err := r.directory.ClientNameForPlan(ctx, scope.PlanID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn().Err(err).Int64("plan_id", scope.PlanID).Msg("registry: client name lookup failed")
		}
		clientName = name
	}

	jobID, err := r.gen.StartGeneration(ctx, generation.StartRequest{
		PlanID:  scope.PlanID,
		Mode:    req.Mode,
		Slot:    scope.Slot,
		Context: req.Extra,
	})
	if err != nil {
		release()
		r.logger.Warn().Err(err).Str("scope", key).Msg("registry: start generation failed")
		return "", fmt.Errorf("%w: %w", domain.ErrStartFailed, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		delete(r.byScope, key)
		return "", ErrClosed
	}
	if _, exists := r.jobs[jobID]; exists {
		delete(r.byScope, key)
		return "", fmt.Errorf("%w: service reused job id %s", domain.ErrStartFailed, jobID)
	}
	job := &Job{
		ID:         jobID,
		Scope:      scope,
		Mode:       req.Mode,
		Status:     StatusPending,
		CreatedAt:  r.now(),
		ClientName: clientName,
		Locale:     r.translator.Normalize(req.Locale),
	}
	r.jobs[jobID] = job
	r.byScope[key] = jobID

	p := &poller{
		jobID:      jobID,
		registry:   r,
		gen:        r.gen,
		interval:   r.pollInterval,
		maxRetries: r.maxRetries,
		maxBackoff: r.maxBackoff,
		logger:     r.logger,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		p.run(r.ctx)
	}()

	r.logger.Info().
		Str("job_id", jobID).
		Str("scope", key).
		Str("mode", string(req.Mode)).
		Msg("registry: job started")
	return jobID, nil
}

// Subscribe attaches callbacks to a job. A job that already finished delivers
// its cached result once, asynchronously.
func (r *Registry) Subscribe(jobID string, cb subscription.Callbacks) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return r.bridge.AttachTerminal(jobID, cb, job.result()), nil
	}
	return r.bridge.Attach(jobID, cb), nil
}

// ActiveJobs returns non-terminal jobs, oldest first. A nil planID returns all.
func (r *Registry) ActiveJobs(planID *int64) []Job {
	r.mu.Lock()
	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if job.Status.Terminal() {
			continue
		}
		if planID != nil && job.Scope.PlanID != *planID {
			continue
		}
		out = append(out, job.clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns a snapshot of any retained job.
func (r *Registry) Get(jobID string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, domain.ErrNotFound
	}
	return job.clone(), nil
}

func (r *Registry) markPolling(jobID string) {
	r.mu.Lock()
	if job, ok := r.jobs[jobID]; ok && job.Status == StatusPending {
		job.Status = StatusPolling
	}
	r.mu.Unlock()
}

func (r *Registry) progress(jobID string, p subscription.Progress) {
	r.mu.Lock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	job.Progress = &p
	r.mu.Unlock()

	r.bridge.Progress(jobID, p)
}

// complete performs the single terminal transition of a job. Repeated calls
// for a finished job are ignored.
func (r *Registry) complete(jobID string, out Outcome) {
	r.mu.Lock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	at := r.now()
	job.CompletedAt = &at
	if out.Succeeded {
		job.Status = StatusCompleted
		job.Result = domain.CloneSuggestions(out.Suggestions)
		if job.Progress != nil && job.Progress.Generated < len(job.Result) {
			job.Progress.Generated = len(job.Result)
		}
	} else {
		job.Status = StatusFailed
		job.Error = failureText(out)
	}
	if r.byScope[job.Scope.Key()] == jobID {
		delete(r.byScope, job.Scope.Key())
	}
	deliver := r.bridge.Claim(jobID)
	note := r.notifier.Append(r.notificationFor(job, out))
	res := job.result()
	status := job.Status
	r.mu.Unlock()

	ev := r.logger.Info()
	if !res.Succeeded {
		ev = r.logger.Warn().Str("error", res.Error)
	}
	ev.Str("job_id", jobID).
		Str("status", string(status)).
		Str("notification_id", note.ID).
		Int("suggestions", len(res.Suggestions)).
		Msg("registry: job finished")

	deliver(res)
}

func failureText(out Outcome) string {
	switch {
	case out.Exhausted && out.Cause != nil:
		return fmt.Sprintf("%s: %v", domain.ErrPollExhausted, out.Cause)
	case out.Exhausted:
		return domain.ErrPollExhausted.Error()
	case strings.TrimSpace(out.Message) != "":
		return strings.TrimSpace(out.Message)
	}
	return "generation failed"
}

// Sweep evicts terminal jobs older than the retention period and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.retention)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, job := range r.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) janitor(every time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("evicted", n).Msg("registry: evicted finished jobs")
			}
		}
	}
}

// Close stops every poller and the janitor. Jobs still in flight are lost.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	inFlight := 0
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			inFlight++
		}
	}
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	if inFlight > 0 {
		r.logger.Warn().Int("in_flight", inFlight).Msg("registry: closed with jobs still running")
	}
}
