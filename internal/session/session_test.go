package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"chefconsole/internal/adapter/repo"
	"chefconsole/internal/domain"
	"chefconsole/internal/generation"
	"chefconsole/internal/generation/stubserver"
	"chefconsole/internal/infra"
	"chefconsole/internal/jobs"
	"chefconsole/internal/toast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *infra.Config {
	return &infra.Config{
		GenerationBaseURL: baseURL,
		PollInterval:      2 * time.Millisecond,
		PollMaxRetries:    3,
		PollMaxBackoff:    10 * time.Millisecond,
		JobRetention:      time.Minute,
		ToastDuration:     time.Hour,
		DefaultLocale:     "en",
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{Config: testConfig("http://localhost")})
	assert.Error(t, err)
}

func TestEndToEndAgainstStubService(t *testing.T) {
	stub := stubserver.New(stubserver.Options{Steps: 2})
	ts := httptest.NewServer(stub.Handler())
	defer ts.Close()

	cfg := testConfig(ts.URL)
	client, err := generation.NewClient(generation.Options{BaseURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)

	handoffs := make(chan toast.Handoff, 1)
	sess, err := New(Options{
		Config:    cfg,
		Generator: client,
		Directory: repo.StaticDirectory{Names: map[int64]string{7: "Keluarga Wijaya"}},
		Navigator: toast.NavigatorFunc(func(_ context.Context, h toast.Handoff) { handoffs <- h }),
	})
	require.NoError(t, err)
	defer sess.Close()

	jobID, err := sess.Registry.Start(context.Background(), jobs.StartRequest{
		Scope: domain.Scope{PlanID: 7, Slot: &domain.SlotContext{Day: "Monday", MealType: "dinner"}},
		Mode:  domain.ModeSingleSlot,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sess.Toast.View().State == toast.StateShowing }, 2*time.Second, time.Millisecond)
	job, err := sess.Registry.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 1, sess.Toast.Badge())

	h, err := sess.Toast.Click(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, domain.TargetSlotPicker, h.Target)
	assert.Equal(t, "Keluarga Wijaya", h.Context.ClientName)
	require.Len(t, h.Context.Suggestions, 1)
	assert.Equal(t, "monday", h.Context.Suggestions[0].Day)
	assert.Equal(t, h, <-handoffs)
	assert.Equal(t, 0, sess.Store.UnreadCount())
}
