package jobs

import (
	"testing"
	"time"

	"chefconsole/internal/generation"
	"chefconsole/internal/subscription"
)

func TestBackOffGrowsToCap(t *testing.T) {
	p := &poller{interval: 100 * time.Millisecond, maxBackoff: 400 * time.Millisecond}
	b := p.newBackOff()

	var last time.Duration
	for i := 0; i < 10; i++ {
		last = b.NextBackOff()
		if last <= 0 {
			t.Fatalf("attempt %d: backoff stopped", i)
		}
		if last > 480*time.Millisecond {
			t.Fatalf("attempt %d: backoff = %s, above cap plus jitter", i, last)
		}
	}
	if last < 320*time.Millisecond {
		t.Fatalf("backoff = %s, want near the cap", last)
	}

	b.Reset()
	if first := b.NextBackOff(); first > 120*time.Millisecond {
		t.Fatalf("after reset backoff = %s, want near the interval", first)
	}
}

func TestProgressOf(t *testing.T) {
	if _, ok := progressOf(&generation.Status{State: generation.StatePending}); ok {
		t.Fatalf("status without counters should not report progress")
	}
	got, ok := progressOf(&generation.Status{Generated: intPtr(4)})
	if !ok {
		t.Fatalf("expected progress")
	}
	if got != (subscription.Progress{Generated: 4}) {
		t.Fatalf("progress = %+v, want generated 4", got)
	}
}
