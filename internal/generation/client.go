package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chefconsole/internal/domain"
	"chefconsole/internal/infra"
)

const maxResponseBytes = 4 << 20

// ErrMissingBaseURL indicates that the client was configured without an endpoint.
var ErrMissingBaseURL = errors.New("generation: base url is required")

// Options configures the generation service client.
type Options struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the external meal generation service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *infra.Logger
}

// StartRequest describes one generation request.
type StartRequest struct {
	PlanID  int64
	Mode    domain.Mode
	Slot    *domain.SlotContext
	Context map[string]any
}

// State is the job state reported by the generation service.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions can follow.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Status is a validated status response.
type Status struct {
	State       State
	Generated   *int
	Requested   *int
	Suggestions []domain.Suggestion
	Error       string
	// Dropped counts suggestions rejected by boundary validation.
	Dropped int
}

type startPayload struct {
	Mode     domain.Mode    `json:"mode"`
	Day      string         `json:"day,omitempty"`
	Date     string         `json:"date,omitempty"`
	MealType string         `json:"meal_type,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

type startResponse struct {
	JobID      string `json:"job_id"`
	JobIDCamel string `json:"jobId"`
}

type statusResponse struct {
	Status      string              `json:"status"`
	Generated   *int                `json:"generated"`
	Requested   *int                `json:"requested"`
	Suggestions []domain.Suggestion `json:"suggestions"`
	Error       *string             `json:"error"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("generation: invalid base url %q", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		logger:     infra.LoggerOrDiscard(opts.Logger),
	}, nil
}

// StartGeneration asks the service to begin generating suggestions and returns its job id.
func (c *Client) StartGeneration(ctx context.Context, req StartRequest) (string, error) {
	payload := startPayload{Mode: req.Mode, Context: req.Context}
	if req.Slot != nil {
		payload.Day = strings.TrimSpace(req.Slot.Day)
		payload.Date = strings.TrimSpace(req.Slot.Date)
		payload.MealType = strings.TrimSpace(req.Slot.MealType)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("generation: encode request: %w", err)
	}
	endpoint := c.baseURL + "/plans/" + strconv.FormatInt(req.PlanID, 10) + "/generate"
	raw, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	var decoded startResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("generation: decode start response: %w", err)
	}
	jobID := strings.TrimSpace(decoded.JobID)
	if jobID == "" {
		jobID = strings.TrimSpace(decoded.JobIDCamel)
	}
	if jobID == "" {
		return "", errors.New("generation: start response missing job id")
	}
	c.logger.Debug().
		Int64("plan_id", req.PlanID).
		Str("mode", string(req.Mode)).
		Str("job_id", jobID).
		Msg("generation: started")
	return jobID, nil
}

// GetGenerationStatus fetches and validates the status of one job.
func (c *Client) GetGenerationStatus(ctx context.Context, jobID string) (*Status, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("generation: job id is required")
	}
	endpoint := c.baseURL + "/generation-jobs/" + url.PathEscape(jobID)
	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var decoded statusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("generation: decode status response: %w", err)
	}
	status, err := normalizeStatus(decoded)
	if err != nil {
		return nil, err
	}
	if status.Dropped > 0 {
		c.logger.Warn().
			Str("job_id", jobID).
			Int("dropped", status.Dropped).
			Msg("generation: dropped invalid suggestions")
	}
	return status, nil
}

func normalizeStatus(resp statusResponse) (*Status, error) {
	state := State(strings.ToLower(strings.TrimSpace(resp.Status)))
	switch state {
	case StatePending, StateRunning, StateCompleted, StateFailed:
	default:
		return nil, fmt.Errorf("generation: unknown status %q", resp.Status)
	}
	out := &Status{State: state, Generated: resp.Generated, Requested: resp.Requested}
	if resp.Error != nil {
		out.Error = strings.TrimSpace(*resp.Error)
	}
	if state != StateCompleted {
		return out, nil
	}
	valid := make([]domain.Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		s.Normalize()
		if err := s.Validate(); err != nil {
			out.Dropped++
			continue
		}
		valid = append(valid, s)
	}
	out.Suggestions = valid
	return out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("generation: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("generation: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			if msg := firstNonEmpty(detail.Message, detail.Error); msg != "" {
				return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

// HTTPError reports a non-2xx answer from the generation service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation: status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation: status %d: %s", e.StatusCode, e.Message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
