package minimax

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// statusPathFamilies lists the endpoint families a job handle may be
// queryable under, in probe priority order. The submit response does not
// reveal which family issued the handle, so the poller probes them and
// commits to the first one that answers with anything other than 404.
var statusPathFamilies = []string{
	"/v1/job_sets/%s",
	"/v1/tasks/%s",
	"/v1/jobs/%s",
	"/v1/generations/%s",
}

// Poller drives a job handle to a terminal state by repeated status
// queries. Defaults give a ~12 minute budget: 240 attempts at 3 seconds.
type Poller struct {
	client      *Client
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// PollerOption is a function that configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the sleep between poll ticks.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithMaxAttempts sets the total poll attempt budget.
func WithMaxAttempts(n int) PollerOption {
	return func(p *Poller) {
		p.maxAttempts = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller creates a Poller bound to a client.
func NewPoller(client *Client, opts ...PollerOption) *Poller {
	p := &Poller{
		client:      client,
		interval:    3 * time.Second,
		maxAttempts: 240,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// AwaitCompletion polls the handle until it reaches a terminal state and
// returns the downloadable result URL.
//
// A 404 from a status family is never terminal: it means "wrong family,
// try the next one". Any other non-2xx response is a hard *PollError.
// Once a family answers non-404 the poller commits to it for the rest of
// this handle's lifetime. A tick whose payload shows a success term without
// a result URL fails with ErrResultURLMissing wrapped in a *PollError —
// a condition distinct from both timeout and provider failure.
func (p *Poller) AwaitCompletion(ctx context.Context, handle JobHandle) (string, error) {
	if handle.ID == "" {
		return "", ErrJobIDRequired
	}

	family := -1
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("minimax: poll cancelled: %w", ctx.Err())
			case <-time.After(p.interval):
			}
		}

		var (
			code int
			body []byte
			err  error
		)

		if family >= 0 {
			code, body, err = p.client.getStatus(ctx, fmt.Sprintf(statusPathFamilies[family], handle.ID))
			if err != nil {
				return "", err
			}
		} else {
			resolved := false
			for i, pattern := range statusPathFamilies {
				code, body, err = p.client.getStatus(ctx, fmt.Sprintf(pattern, handle.ID))
				if err != nil {
					return "", err
				}
				if code == http.StatusNotFound {
					continue
				}
				family = i
				resolved = true
				p.logger.Debug("status endpoint family resolved",
					slog.String("job_id", handle.ID),
					slog.String("family", pattern),
				)
				break
			}
			if !resolved {
				// No family knows the handle yet; the job may not be
				// registered. Counts as a tick against the budget.
				continue
			}
		}

		if code == http.StatusNotFound {
			// The committed family lost the resource.
			return "", &PollError{StatusCode: code, Body: string(body)}
		}
		if code < 200 || code >= 300 {
			return "", &PollError{StatusCode: code, Body: string(body)}
		}

		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", &PollError{StatusCode: code, Body: string(body), Err: err}
		}

		status, resultURL := ExtractResult(payload)
		switch {
		case IsSuccessStatus(status):
			if resultURL == "" {
				return "", &PollError{Status: status, StatusCode: code, Body: string(body), Err: ErrResultURLMissing}
			}
			return resultURL, nil
		case IsFailureStatus(status):
			return "", &PollError{Status: status, StatusCode: code, Body: string(body), Err: ErrGenerationFailed}
		}

		p.logger.Debug("job still pending",
			slog.String("job_id", handle.ID),
			slog.String("status", status),
			slog.Int("attempt", attempt+1),
		)
	}

	return "", fmt.Errorf("%w after %d attempts", ErrPollTimeout, p.maxAttempts)
}
