// Package toast shows the newest unread notification for a short time and
// turns clicks into navigation handoffs.
package toast

import (
	"context"
	"errors"
	"sync"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/i18n"
	"chefconsole/internal/infra"
)

// ErrNothingShowing is returned by Click when the toast is hidden.
var ErrNothingShowing = errors.New("toast: nothing showing")

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 8 * time.Second

// State of the presenter.
type State string

const (
	StateHidden  State = "hidden"
	StateShowing State = "showing"
)

// Feed is the part of the notification store the presenter needs.
type Feed interface {
	Get(id string) (domain.Notification, error)
	MarkRead(id string) error
	UnreadCount() int
	OnAppend(fn func(domain.Notification)) func()
}

// Navigator receives click-through handoffs.
type Navigator interface {
	Navigate(ctx context.Context, h Handoff)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, h Handoff)

func (f NavigatorFunc) Navigate(ctx context.Context, h Handoff) { f(ctx, h) }

// Handoff is what a consumer view needs to reopen pre-loaded.
type Handoff struct {
	NotificationID string                     `json:"notification_id"`
	Target         string                     `json:"target,omitempty"`
	Context        domain.NotificationContext `json:"context"`
	NotFound       bool                       `json:"not_found"`
	Message        string                     `json:"message,omitempty"`
}

// View is a snapshot for rendering.
type View struct {
	State        State                `json:"state"`
	Notification *domain.Notification `json:"notification,omitempty"`
	Unread       int                  `json:"unread"`
}

type stopper interface {
	Stop() bool
}

// Options configures a Presenter.
type Options struct {
	Feed      Feed
	Navigator Navigator
	// Directory confirms that a handoff target still exists.
	Directory  domain.PlanDirectory
	Translator *i18n.Translator
	Duration   time.Duration
	Logger     *infra.Logger
	afterFunc  func(time.Duration, func()) stopper
}

// Presenter implements the Hidden -> Showing -> Hidden toast cycle.
type Presenter struct {
	mu      sync.Mutex
	state   State
	current string
	timer   stopper
	shown   uint64

	feed       Feed
	navigator  Navigator
	directory  domain.PlanDirectory
	translator *i18n.Translator
	duration   time.Duration
	logger     *infra.Logger
	afterFunc  func(time.Duration, func()) stopper
	unlisten   func()
}

// NewPresenter subscribes to the feed and starts hidden.
func NewPresenter(opts Options) (*Presenter, error) {
	if opts.Feed == nil {
		return nil, errors.New("toast: feed is required")
	}
	p := &Presenter{
		state:      StateHidden,
		feed:       opts.Feed,
		navigator:  opts.Navigator,
		directory:  opts.Directory,
		translator: opts.Translator,
		duration:   opts.Duration,
		logger:     infra.LoggerOrDiscard(opts.Logger),
		afterFunc:  opts.afterFunc,
	}
	if p.duration <= 0 {
		p.duration = DefaultDuration
	}
	if p.translator == nil {
		p.translator = i18n.New("en")
	}
	if p.afterFunc == nil {
		p.afterFunc = func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) }
	}
	p.unlisten = p.feed.OnAppend(p.onAppend)
	return p, nil
}

// onAppend runs on the appending goroutine, possibly while the registry holds
// its lock, so it must not call back into the registry.
func (p *Presenter) onAppend(n domain.Notification) {
	if n.Read {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateShowing {
		return
	}
	p.showLocked(n.ID)
}

func (p *Presenter) showLocked(id string) {
	p.state = StateShowing
	p.current = id
	p.shown++
	token := p.shown
	p.timer = p.afterFunc(p.duration, func() { p.expire(token) })
	p.logger.Debug().Str("notification_id", id).Msg("toast: showing")
}

func (p *Presenter) expire(token uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateShowing || p.shown != token {
		return
	}
	p.hideLocked()
}

func (p *Presenter) hideLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.state = StateHidden
	p.current = ""
}

// View returns the current toast and the unread badge. A toast whose
// notification was cleared or read through the feed is hidden here.
func (p *Presenter) View() View {
	p.mu.Lock()
	state, id, token := p.state, p.current, p.shown
	p.mu.Unlock()

	v := View{State: StateHidden, Unread: p.feed.UnreadCount()}
	if state != StateShowing {
		return v
	}
	n, err := p.feed.Get(id)
	if err != nil || n.Read {
		p.mu.Lock()
		if p.state == StateShowing && p.shown == token {
			p.hideLocked()
		}
		p.mu.Unlock()
		return v
	}
	v.State = StateShowing
	v.Notification = &n
	return v
}

// Badge returns the unread count for widgets.
func (p *Presenter) Badge() int {
	return p.feed.UnreadCount()
}

// Dismiss hides the toast. It reports whether anything was showing.
func (p *Presenter) Dismiss() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateShowing {
		return false
	}
	p.hideLocked()
	return true
}

// Click hides the toast, marks its notification read and hands its context
// to the navigator.
func (p *Presenter) Click(ctx context.Context, locale string) (Handoff, error) {
	p.mu.Lock()
	if p.state != StateShowing {
		p.mu.Unlock()
		return Handoff{}, ErrNothingShowing
	}
	id := p.current
	p.hideLocked()
	p.mu.Unlock()

	return p.Open(ctx, id, locale), nil
}

// Open performs a click-through for any notification in the feed. A missing
// notification or target yields a NotFound handoff rather than an error.
func (p *Presenter) Open(ctx context.Context, id, locale string) Handoff {
	n, err := p.feed.Get(id)
	if err != nil {
		h := p.notFound(id, locale)
		p.navigate(ctx, h)
		return h
	}
	if err := p.feed.MarkRead(id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		p.logger.Warn().Err(err).Str("notification_id", id).Msg("toast: mark read failed")
	}
	p.mu.Lock()
	if p.state == StateShowing && p.current == id {
		p.hideLocked()
	}
	p.mu.Unlock()

	h := Handoff{NotificationID: id, Target: n.Context.Target, Context: n.Context}
	if h.Target == "" && n.Context.PlanID > 0 {
		h.Target = domain.TargetPlanEditor
	}
	if n.Context.PlanID > 0 && p.directory != nil {
		exists, err := p.directory.PlanExists(ctx, n.Context.PlanID)
		switch {
		case err != nil:
			p.logger.Warn().Err(err).Int64("plan_id", n.Context.PlanID).Msg("toast: plan lookup failed")
		case !exists:
			h = p.notFound(id, locale)
			h.Context = n.Context
		}
	}
	p.navigate(ctx, h)
	return h
}

func (p *Presenter) notFound(id, locale string) Handoff {
	return Handoff{
		NotificationID: id,
		NotFound:       true,
		Message:        p.translator.Sprintf(locale, i18n.KeyNotificationGone),
	}
}

func (p *Presenter) navigate(ctx context.Context, h Handoff) {
	if p.navigator == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Str("notification_id", h.NotificationID).Msg("toast: navigator panicked")
		}
	}()
	p.navigator.Navigate(ctx, h)
}

// Close detaches from the feed and stops the timer.
func (p *Presenter) Close() {
	p.unlisten()
	p.mu.Lock()
	p.hideLocked()
	p.mu.Unlock()
}
