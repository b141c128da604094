package minimax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client submits generation requests to the MiniMax API. It is stateless:
// one Submit performs exactly one outbound call, and failure recovery is
// the fallback orchestrator's responsibility, not the client's.
//
// Credentials may be empty at construction time; their absence is a
// configuration error detected by the HTTP layer before any call reaches
// the client.
type Client struct {
	apiKey     string
	groupID    string
	baseURL    string
	model      string
	httpClient *http.Client
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. The client's timeout bounds
// each submission and each poll tick.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the MiniMax API.
func WithBaseURL(url string) ClientOption {
	return func(cl *Client) {
		cl.baseURL = url
	}
}

// WithModel sets the generation model name.
func WithModel(model string) ClientOption {
	return func(cl *Client) {
		cl.model = model
	}
}

// NewClient creates a new MiniMax client.
func NewClient(apiKey, groupID string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		groupID:    groupID,
		baseURL:    "https://api.minimax.chat",
		model:      "I2V-01-Director",
		httpClient: &http.Client{Timeout: 300 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit sends one generation request and returns the job handle.
// A non-2xx response or an unparseable body yields a *SubmissionError.
func (c *Client) Submit(ctx context.Context, req GenerationRequest) (JobHandle, error) {
	var (
		path string
		body any
	)

	switch req.Provider {
	case ProviderVideoGen:
		path = "/v1/video_generation"
		body = videoGenRequest{
			Model:           c.model,
			Prompt:          req.Prompt,
			Duration:        int(req.Duration),
			Resolution:      string(req.Resolution),
			FirstFrameImage: req.ImageRef,
			PromptOptimizer: req.PromptOptimizer,
		}
	case ProviderJobSet:
		path = "/v1/job_sets"
		body = jobSetRequest{
			Model: c.model,
			Input: jobSetInput{
				Prompt:          req.Prompt,
				ImageURL:        req.ImageRef,
				Duration:        int(req.Duration),
				Resolution:      string(req.Resolution),
				PromptOptimizer: req.PromptOptimizer,
			},
		}
	default:
		return JobHandle{}, fmt.Errorf("%w: %q", ErrUnknownProvider, req.Provider)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return JobHandle{}, fmt.Errorf("minimax: marshal request: %w", err)
	}

	status, respBody, err := c.do(ctx, http.MethodPost, c.baseURL+path, bodyBytes)
	if err != nil {
		return JobHandle{}, err
	}
	if status < 200 || status >= 300 {
		return JobHandle{}, &SubmissionError{StatusCode: status, Body: string(respBody)}
	}

	id, err := parseJobID(req.Provider, respBody)
	if err != nil {
		return JobHandle{}, &SubmissionError{StatusCode: status, Body: string(respBody)}
	}

	return JobHandle{ID: id, Provider: req.Provider}, nil
}

// parseJobID extracts the job id from a submit response body.
func parseJobID(provider Provider, body []byte) (string, error) {
	switch provider {
	case ProviderVideoGen:
		var resp videoGenResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("minimax: unmarshal submit response: %w", err)
		}
		if resp.TaskID != "" {
			return resp.TaskID, nil
		}
		if resp.ID != "" {
			return resp.ID, nil
		}
	case ProviderJobSet:
		var resp jobSetResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("minimax: unmarshal submit response: %w", err)
		}
		if resp.JobSetID != "" {
			return resp.JobSetID, nil
		}
		if resp.ID != "" {
			return resp.ID, nil
		}
		if len(resp.Jobs) > 0 && resp.Jobs[0].ID != "" {
			return resp.Jobs[0].ID, nil
		}
	}
	return "", ErrNoJobID
}

// getStatus performs one status GET against path and returns the HTTP
// status code with the raw body. Only transport-level failures return an
// error; status-code handling belongs to the poller.
func (c *Client) getStatus(ctx context.Context, path string) (int, []byte, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

// do performs a single authenticated HTTP request.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("minimax: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Group-Id", c.groupID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("minimax: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("minimax: read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
