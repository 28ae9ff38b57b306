package jobs

import (
	"context"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/generation"
	"chefconsole/internal/subscription"
)

// Status is the lifecycle state of a tracked job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPolling   Status = "polling"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a read-only snapshot of one tracked generation.
type Job struct {
	ID          string                 `json:"id"`
	Scope       domain.Scope           `json:"scope"`
	Mode        domain.Mode            `json:"mode"`
	Status      Status                 `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Progress    *subscription.Progress `json:"progress,omitempty"`
	Result      []domain.Suggestion    `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	ClientName  string                 `json:"client_name,omitempty"`
	Locale      string                 `json:"locale,omitempty"`
}

func (j *Job) clone() Job {
	out := *j
	out.Scope = j.Scope.Clone()
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		out.CompletedAt = &at
	}
	if j.Progress != nil {
		p := *j.Progress
		out.Progress = &p
	}
	out.Result = domain.CloneSuggestions(j.Result)
	return out
}

func (j *Job) result() subscription.Result {
	return subscription.Result{
		JobID:       j.ID,
		Succeeded:   j.Status == StatusCompleted,
		Suggestions: domain.CloneSuggestions(j.Result),
		Error:       j.Error,
	}
}

// StartRequest asks the registry to begin a generation.
type StartRequest struct {
	Scope      domain.Scope
	Mode       domain.Mode
	ClientName string
	// Locale selects the language of the resulting notification.
	Locale string
	// Extra is forwarded to the generation service as request context.
	Extra map[string]any
}

// Outcome is the terminal observation reported by a poller.
type Outcome struct {
	Succeeded   bool
	Suggestions []domain.Suggestion
	// Message is the service-provided failure reason.
	Message string
	// Exhausted marks a job failed because status polling kept erroring.
	Exhausted bool
	Cause     error
}

// Generator is the slice of the generation service the registry depends on.
type Generator interface {
	StartGeneration(ctx context.Context, req generation.StartRequest) (string, error)
	GetGenerationStatus(ctx context.Context, jobID string) (*generation.Status, error)
}

// Notifier receives the notification produced by every terminal job.
type Notifier interface {
	Append(n domain.Notification) domain.Notification
}
