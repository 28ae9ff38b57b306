package jobs

import (
	"context"
	"fmt"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/generation"
	"chefconsole/internal/infra"
	"chefconsole/internal/subscription"

	"github.com/cenkalti/backoff/v4"
)

// poller drives exactly one job to its terminal state.
type poller struct {
	jobID      string
	registry   *Registry
	gen        Generator
	interval   time.Duration
	maxRetries int
	maxBackoff time.Duration
	logger     *infra.Logger
}

func (p *poller) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval
	b.MaxInterval = p.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (p *poller) run(ctx context.Context) {
	p.registry.markPolling(p.jobID)

	bo := p.newBackOff()
	wait := p.interval
	failures := 0

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		status, err := p.gen.GetGenerationStatus(ctx, p.jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			err = fmt.Errorf("%w: %w", domain.ErrPollTransient, err)
			if failures > p.maxRetries {
				p.logger.Error().Err(err).Str("job_id", p.jobID).Int("attempts", failures).Msg("poller: retries exhausted")
				p.registry.complete(p.jobID, Outcome{Exhausted: true, Cause: err})
				return
			}
			wait = bo.NextBackOff()
			p.logger.Warn().Err(err).Str("job_id", p.jobID).Int("attempt", failures).Dur("retry_in", wait).Msg("poller: status check failed")
			timer.Reset(wait)
			continue
		}

		failures = 0
		bo.Reset()

		switch status.State {
		case generation.StateCompleted:
			p.registry.complete(p.jobID, Outcome{Succeeded: true, Suggestions: status.Suggestions})
			return
		case generation.StateFailed:
			p.registry.complete(p.jobID, Outcome{Message: status.Error})
			return
		}

		if prog, ok := progressOf(status); ok {
			p.registry.progress(p.jobID, prog)
		}
		timer.Reset(p.interval)
	}
}

func progressOf(s *generation.Status) (subscription.Progress, bool) {
	if s.Generated == nil && s.Requested == nil {
		return subscription.Progress{}, false
	}
	var out subscription.Progress
	if s.Generated != nil {
		out.Generated = *s.Generated
	}
	if s.Requested != nil {
		out.Requested = *s.Requested
	}
	return out, true
}
