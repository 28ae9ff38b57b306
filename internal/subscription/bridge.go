// Package subscription binds open views to job completion events without
// owning job lifecycle.
package subscription

import (
	"fmt"
	"sync"
	"sync/atomic"

	"chefconsole/internal/domain"
	"chefconsole/internal/infra"
)

// Progress is a partial-completion report from the poller.
type Progress struct {
	Generated int `json:"generated"`
	Requested int `json:"requested"`
}

// Result is the terminal outcome handed to subscribers.
type Result struct {
	JobID       string              `json:"job_id"`
	Succeeded   bool                `json:"succeeded"`
	Suggestions []domain.Suggestion `json:"suggestions,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Callbacks receive events for one job. Either may be nil.
type Callbacks struct {
	OnProgress func(Progress)
	OnComplete func(Result)
}

const (
	stateLive int32 = iota
	stateDelivered
	stateDetached
)

type entry struct {
	id    uint64
	jobID string
	cb    Callbacks
	state atomic.Int32
}

// Bridge holds the live subscriptions. The zero value is not usable; use New.
type Bridge struct {
	mu      sync.Mutex
	entries map[string]map[uint64]*entry
	nextID  uint64
	logger  *infra.Logger
}

// New returns an empty bridge.
func New(logger *infra.Logger) *Bridge {
	return &Bridge{
		entries: make(map[string]map[uint64]*entry),
		logger:  infra.LoggerOrDiscard(logger),
	}
}

// Attach registers callbacks for a job that has not finished yet.
func (b *Bridge) Attach(jobID string, cb Callbacks) (detach func()) {
	e := b.add(jobID, cb)
	return b.detacher(e)
}

// AttachTerminal registers callbacks for a job that already finished. The
// cached result is delivered once on a new goroutine unless detach runs first.
func (b *Bridge) AttachTerminal(jobID string, cb Callbacks, res Result) (detach func()) {
	e := &entry{jobID: jobID, cb: cb}
	go b.complete(e, res)
	return b.detacher(e)
}

func (b *Bridge) add(jobID string, cb Callbacks) *entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	e := &entry{id: b.nextID, jobID: jobID, cb: cb}
	set, ok := b.entries[jobID]
	if !ok {
		set = make(map[uint64]*entry)
		b.entries[jobID] = set
	}
	set[e.id] = e
	return e
}

func (b *Bridge) detacher(e *entry) func() {
	return func() {
		if !e.state.CompareAndSwap(stateLive, stateDetached) {
			return
		}
		b.mu.Lock()
		if set, ok := b.entries[e.jobID]; ok {
			delete(set, e.id)
			if len(set) == 0 {
				delete(b.entries, e.jobID)
			}
		}
		b.mu.Unlock()
	}
}

// Claim removes every entry for jobID and returns a function that delivers res
// to them. Callers holding their own lock claim inside it and deliver after
// releasing it.
func (b *Bridge) Claim(jobID string) func(Result) {
	b.mu.Lock()
	set := b.entries[jobID]
	delete(b.entries, jobID)
	b.mu.Unlock()

	claimed := make([]*entry, 0, len(set))
	for _, e := range set {
		claimed = append(claimed, e)
	}
	return func(res Result) {
		for _, e := range claimed {
			b.complete(e, res)
		}
	}
}

// Deliver hands res to every live subscriber of jobID exactly once.
func (b *Bridge) Deliver(jobID string, res Result) {
	b.Claim(jobID)(res)
}

// Progress forwards p to every live subscriber of jobID on the caller's goroutine.
func (b *Bridge) Progress(jobID string, p Progress) {
	b.mu.Lock()
	set := b.entries[jobID]
	live := make([]*entry, 0, len(set))
	for _, e := range set {
		live = append(live, e)
	}
	b.mu.Unlock()

	for _, e := range live {
		if e.cb.OnProgress == nil || e.state.Load() != stateLive {
			continue
		}
		b.invoke(e, "progress", func() { e.cb.OnProgress(p) })
	}
}

// Len reports the number of live subscriptions for jobID.
func (b *Bridge) Len(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries[jobID])
}

func (b *Bridge) complete(e *entry, res Result) {
	if !e.state.CompareAndSwap(stateLive, stateDelivered) {
		return
	}
	if e.cb.OnComplete == nil {
		return
	}
	res.Suggestions = domain.CloneSuggestions(res.Suggestions)
	b.invoke(e, "complete", func() { e.cb.OnComplete(res) })
}

func (b *Bridge) invoke(e *entry, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Err(fmt.Errorf("%w: %v", domain.ErrSubscriberCallback, r)).
				Str("job_id", e.jobID).
				Str("event", event).
				Msg("subscription: callback panicked")
		}
	}()
	fn()
}
