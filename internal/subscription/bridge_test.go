package subscription

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chefconsole/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverOnceToLiveSubscriber(t *testing.T) {
	b := New(nil)
	var calls atomic.Int32
	var got Result
	b.Attach("job-1", Callbacks{OnComplete: func(r Result) {
		calls.Add(1)
		got = r
	}})

	res := Result{JobID: "job-1", Succeeded: true, Suggestions: []domain.Suggestion{{Name: "Rawon"}}}
	b.Deliver("job-1", res)
	b.Deliver("job-1", res)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Rawon", got.Suggestions[0].Name)
	assert.Equal(t, 0, b.Len("job-1"))
}

func TestDetachIsIdempotentAndSilencesDelivery(t *testing.T) {
	b := New(nil)
	var calls atomic.Int32
	detach := b.Attach("job-1", Callbacks{
		OnProgress: func(Progress) { calls.Add(1) },
		OnComplete: func(Result) { calls.Add(1) },
	})
	detach()
	detach()

	b.Progress("job-1", Progress{Generated: 1, Requested: 2})
	b.Deliver("job-1", Result{JobID: "job-1"})
	assert.Equal(t, int32(0), calls.Load())
}

func TestDetachAfterDeliveryIsNoop(t *testing.T) {
	b := New(nil)
	var calls atomic.Int32
	detach := b.Attach("job-1", Callbacks{OnComplete: func(Result) { calls.Add(1) }})
	b.Deliver("job-1", Result{JobID: "job-1"})
	detach()
	assert.Equal(t, int32(1), calls.Load())
}

func TestAttachTerminalDeliversAsynchronously(t *testing.T) {
	b := New(nil)
	var mu sync.Mutex
	mu.Lock()
	done := make(chan Result, 1)

	b.AttachTerminal("job-9", Callbacks{OnComplete: func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		done <- r
	}}, Result{JobID: "job-9", Error: "boom"})

	// The caller still holds mu, so a synchronous call would deadlock here.
	mu.Unlock()

	select {
	case r := <-done:
		assert.Equal(t, "boom", r.Error)
	case <-time.After(time.Second):
		t.Fatal("terminal result not delivered")
	}
}

func TestAttachTerminalDetachBeforeDelivery(t *testing.T) {
	b := New(nil)
	block := make(chan struct{})
	var calls atomic.Int32

	// Detaching synchronously right after attach races the goroutine; the
	// entry must deliver at most once either way.
	detach := b.AttachTerminal("job-2", Callbacks{OnComplete: func(Result) {
		calls.Add(1)
		close(block)
	}}, Result{JobID: "job-2"})
	detach()

	select {
	case <-block:
	case <-time.After(50 * time.Millisecond):
	}
	assert.LessOrEqual(t, calls.Load(), int32(1))
}

func TestProgressInOrder(t *testing.T) {
	b := New(nil)
	var seen []int
	b.Attach("job-1", Callbacks{OnProgress: func(p Progress) { seen = append(seen, p.Generated) }})
	for i := 1; i <= 5; i++ {
		b.Progress("job-1", Progress{Generated: i, Requested: 5})
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestPanickingCallbackIsIsolated(t *testing.T) {
	b := New(nil)
	var ok atomic.Bool
	b.Attach("job-1", Callbacks{
		OnProgress: func(Progress) { panic("progress bug") },
		OnComplete: func(Result) { panic("complete bug") },
	})
	b.Attach("job-1", Callbacks{OnComplete: func(Result) { ok.Store(true) }})

	require.NotPanics(t, func() {
		b.Progress("job-1", Progress{Generated: 1, Requested: 1})
		b.Deliver("job-1", Result{JobID: "job-1", Succeeded: true})
	})
	assert.True(t, ok.Load())
}

func TestClaimSeparatesSnapshotFromDelivery(t *testing.T) {
	b := New(nil)
	var calls atomic.Int32
	b.Attach("job-1", Callbacks{OnComplete: func(Result) { calls.Add(1) }})

	deliver := b.Claim("job-1")
	assert.Equal(t, 0, b.Len("job-1"))

	// Subscribers attached after the claim are not part of this delivery.
	b.Attach("job-1", Callbacks{OnComplete: func(Result) { calls.Add(10) }})
	deliver(Result{JobID: "job-1"})
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeliveredResultIsACopy(t *testing.T) {
	b := New(nil)
	var got Result
	b.Attach("job-1", Callbacks{OnComplete: func(r Result) { got = r }})
	src := []domain.Suggestion{{Name: "Pecel"}}
	b.Deliver("job-1", Result{JobID: "job-1", Suggestions: src})
	got.Suggestions[0].Name = "mutated"
	assert.Equal(t, "Pecel", src[0].Name)
}
