package toast

import (
	"context"
	"sync"
	"testing"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := !f.stopped
	f.stopped = true
	return was
}

func (f *fakeTimer) fire() {
	f.mu.Lock()
	stopped := f.stopped
	f.mu.Unlock()
	if !stopped {
		f.fn()
	}
}

type timerRecorder struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (r *timerRecorder) afterFunc(d time.Duration, fn func()) stopper {
	t := &fakeTimer{d: d, fn: fn}
	r.mu.Lock()
	r.timers = append(r.timers, t)
	r.mu.Unlock()
	return t
}

func (r *timerRecorder) last() *fakeTimer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.timers) == 0 {
		return nil
	}
	return r.timers[len(r.timers)-1]
}

type plans map[int64]bool

func (p plans) PlanExists(_ context.Context, id int64) (bool, error) { return p[id], nil }

func (p plans) ClientNameForPlan(context.Context, int64) (string, error) { return "", nil }

type recordingNavigator struct {
	handoffs []Handoff
}

func (r *recordingNavigator) Navigate(_ context.Context, h Handoff) {
	r.handoffs = append(r.handoffs, h)
}

func newPresenter(t *testing.T, dir plans) (*Presenter, *notify.Store, *timerRecorder, *recordingNavigator) {
	t.Helper()
	store := notify.NewStore(notify.Options{})
	timers := &timerRecorder{}
	nav := &recordingNavigator{}
	opts := Options{Feed: store, Navigator: nav, afterFunc: timers.afterFunc}
	if dir != nil {
		opts.Directory = dir
	}
	p, err := NewPresenter(opts)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, store, timers, nav
}

func mealNotification(planID int64) domain.Notification {
	return domain.Notification{
		Type:  domain.NotificationMealGeneration,
		Title: "Meal plan ready",
		Context: domain.NotificationContext{
			PlanID:      planID,
			ClientName:  "Budi",
			Target:      domain.TargetSlotPicker,
			Slot:        &domain.SlotContext{Day: "Monday", MealType: "dinner"},
			Suggestions: []domain.Suggestion{{Name: "Grilled Salmon", MealType: "dinner", Day: "Monday"}},
		},
	}
}

func TestShowsFirstArrivalAndIgnoresFollowers(t *testing.T) {
	p, store, timers, _ := newPresenter(t, nil)
	assert.Equal(t, StateHidden, p.View().State)

	first := store.Append(mealNotification(7))
	store.Append(mealNotification(8))

	v := p.View()
	assert.Equal(t, StateShowing, v.State)
	require.NotNil(t, v.Notification)
	assert.Equal(t, first.ID, v.Notification.ID)
	assert.Equal(t, 2, v.Unread)
	require.Len(t, timers.timers, 1)
	assert.Equal(t, DefaultDuration, timers.last().d)
}

func TestTimerHides(t *testing.T) {
	p, store, timers, _ := newPresenter(t, nil)
	store.Append(mealNotification(7))

	timers.last().fire()
	assert.Equal(t, StateHidden, p.View().State)
	assert.Equal(t, 1, p.Badge(), "expiry does not mark read")

	next := store.Append(mealNotification(9))
	v := p.View()
	assert.Equal(t, StateShowing, v.State)
	assert.Equal(t, next.ID, v.Notification.ID)
}

func TestStaleTimerDoesNotHideNewerToast(t *testing.T) {
	p, store, timers, _ := newPresenter(t, nil)
	store.Append(mealNotification(7))
	stale := timers.last()
	require.True(t, p.Dismiss())

	store.Append(mealNotification(8))
	stale.fn()
	assert.Equal(t, StateShowing, p.View().State)
}

func TestDismiss(t *testing.T) {
	p, store, _, nav := newPresenter(t, nil)
	assert.False(t, p.Dismiss())

	store.Append(mealNotification(7))
	assert.True(t, p.Dismiss())
	assert.Equal(t, StateHidden, p.View().State)
	assert.Equal(t, 1, p.Badge())
	assert.Empty(t, nav.handoffs)
}

func TestClickMarksReadAndHandsOffContext(t *testing.T) {
	p, store, _, nav := newPresenter(t, plans{7: true})
	n := store.Append(mealNotification(7))

	h, err := p.Click(context.Background(), "en")
	require.NoError(t, err)
	assert.False(t, h.NotFound)
	assert.Equal(t, n.ID, h.NotificationID)
	assert.Equal(t, domain.TargetSlotPicker, h.Target)
	require.Len(t, h.Context.Suggestions, 1)
	assert.Equal(t, "Grilled Salmon", h.Context.Suggestions[0].Name)

	assert.Equal(t, StateHidden, p.View().State)
	assert.Equal(t, 0, p.Badge())
	require.Len(t, nav.handoffs, 1)
	assert.Equal(t, h, nav.handoffs[0])

	_, err = p.Click(context.Background(), "en")
	assert.ErrorIs(t, err, ErrNothingShowing)
}

func TestOpenMissingTargetIsNotFound(t *testing.T) {
	p, store, _, nav := newPresenter(t, plans{})
	n := store.Append(mealNotification(404))

	h := p.Open(context.Background(), n.ID, "id")
	assert.True(t, h.NotFound)
	assert.Equal(t, "Item ini sudah tidak tersedia.", h.Message)
	assert.Equal(t, int64(404), h.Context.PlanID)
	assert.Equal(t, 0, p.Badge(), "opening still marks read")
	require.Len(t, nav.handoffs, 1)
}

func TestOpenClearedNotificationIsNotFound(t *testing.T) {
	p, store, _, _ := newPresenter(t, nil)
	n := store.Append(mealNotification(7))
	require.NoError(t, store.Clear(n.ID))

	h := p.Open(context.Background(), n.ID, "en")
	assert.True(t, h.NotFound)
	assert.Equal(t, "This item is no longer available.", h.Message)
}

func TestOpenFromFeedHidesMatchingToast(t *testing.T) {
	p, store, _, _ := newPresenter(t, nil)
	n := store.Append(domain.Notification{Type: domain.NotificationInfo, Context: domain.NotificationContext{PlanID: 3}})

	h := p.Open(context.Background(), n.ID, "en")
	assert.Equal(t, domain.TargetPlanEditor, h.Target)
	assert.Equal(t, StateHidden, p.View().State)
}

func TestPanickingNavigatorIsContained(t *testing.T) {
	store := notify.NewStore(notify.Options{})
	timers := &timerRecorder{}
	p, err := NewPresenter(Options{
		Feed:      store,
		Navigator: NavigatorFunc(func(context.Context, Handoff) { panic("router bug") }),
		afterFunc: timers.afterFunc,
	})
	require.NoError(t, err)
	defer p.Close()

	store.Append(mealNotification(1))
	assert.NotPanics(t, func() {
		_, err := p.Click(context.Background(), "en")
		assert.NoError(t, err)
	})
}

func TestCloseStopsListening(t *testing.T) {
	p, store, timers, _ := newPresenter(t, nil)
	store.Append(mealNotification(1))
	shown := timers.last()

	p.Close()
	assert.True(t, shown.stopped)
	store.Append(mealNotification(2))
	assert.Equal(t, StateHidden, p.View().State)
}

func TestRealTimerExpires(t *testing.T) {
	store := notify.NewStore(notify.Options{})
	p, err := NewPresenter(Options{Feed: store, Duration: 5 * time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	store.Append(mealNotification(1))
	require.Eventually(t, func() bool { return p.View().State == StateHidden }, time.Second, time.Millisecond)
}

func TestViewHidesToastResolvedThroughFeed(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(s *notify.Store, id string)
	}{
		{"cleared", func(s *notify.Store, id string) { require.NoError(t, s.Clear(id)) }},
		{"clear all", func(s *notify.Store, _ string) { s.ClearAll() }},
		{"marked read", func(s *notify.Store, id string) { require.NoError(t, s.MarkRead(id)) }},
		{"all read", func(s *notify.Store, _ string) { s.MarkAllRead() }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, store, _, _ := newPresenter(t, nil)
			n := store.Append(mealNotification(7))
			require.Equal(t, StateShowing, p.View().State)

			tc.resolve(store, n.ID)

			v := p.View()
			assert.Equal(t, StateHidden, v.State)
			assert.Nil(t, v.Notification)
			assert.False(t, p.Dismiss(), "toast should already be hidden")

			next := store.Append(mealNotification(8))
			v = p.View()
			assert.Equal(t, StateShowing, v.State)
			require.NotNil(t, v.Notification)
			assert.Equal(t, next.ID, v.Notification.ID)
		})
	}
}
