package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/jobs"
	"chefconsole/internal/toast"
)

func TestFailMapsDomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: plan id must be positive", domain.ErrInvalidScope), http.StatusBadRequest, "invalid_scope"},
		{fmt.Errorf("%w: plan:1", domain.ErrDuplicateActiveJob), http.StatusConflict, "duplicate_active_job"},
		{fmt.Errorf("%w: %w", domain.ErrStartFailed, errors.New("dial tcp")), http.StatusBadGateway, "start_failed"},
		{domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{toast.ErrNothingShowing, http.StatusConflict, "toast_hidden"},
		{jobs.ErrClosed, http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	app := NewApp(nil, nil)
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.fail(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.code)
			}
			if body.Error.Message == "" {
				t.Fatalf("message should not be empty")
			}
		})
	}
}

func TestOpenAPIDocumentListsRoutes(t *testing.T) {
	app := NewApp(nil, nil)
	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, path := range []string{"/v1/plans/{planID}/generations", "/v1/generations/{jobID}/wait", "/v1/notifications/{id}/open", "/v1/toast/click"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Fatalf("openapi.json missing %s", path)
		}
	}
}

func TestOpenAPIRevalidation(t *testing.T) {
	app := NewApp(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	req.Header.Set("If-None-Match", openAPIETag)
	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("304 carried a body of %d bytes", rec.Body.Len())
	}
}

func TestFitWaitToWriteTimeout(t *testing.T) {
	tests := []struct {
		name         string
		maxWait      time.Duration
		writeTimeout time.Duration
		want         time.Duration
	}{
		{name: "no write timeout", maxWait: maxWaitTimeout, writeTimeout: 0, want: maxWaitTimeout},
		{name: "already below", maxWait: maxWaitTimeout, writeTimeout: 90 * time.Second, want: maxWaitTimeout},
		{name: "equal leaves headroom", maxWait: maxWaitTimeout, writeTimeout: 60 * time.Second, want: 59 * time.Second},
		{name: "one second stays positive", maxWait: maxWaitTimeout, writeTimeout: time.Second, want: 500 * time.Millisecond},
		{name: "uncapped gets capped", maxWait: 0, writeTimeout: 30 * time.Second, want: 29 * time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{MaxWait: tc.maxWait}
			app.FitWaitToWriteTimeout(tc.writeTimeout)
			if app.MaxWait != tc.want {
				t.Fatalf("MaxWait = %s, want %s", app.MaxWait, tc.want)
			}
		})
	}
}
