package minimax

import (
	"errors"
	"fmt"
)

// Static errors for MiniMax client operations.
var (
	// ErrUnknownProvider is returned when a request names an unknown endpoint variant.
	ErrUnknownProvider = errors.New("minimax: unknown provider variant")
	// ErrJobIDRequired is returned when a handle without an id is polled.
	ErrJobIDRequired = errors.New("minimax: job ID is required")
	// ErrNoJobID is returned when a submit response contains no job id.
	ErrNoJobID = errors.New("minimax: submit response contained no job id")
	// ErrPollTimeout is returned when no terminal status is reached within
	// the polling budget.
	ErrPollTimeout = errors.New("minimax: polling timed out before a terminal status")
	// ErrResultURLMissing is returned when the provider reports success
	// but the payload carries no usable result location.
	ErrResultURLMissing = errors.New("minimax: generation succeeded but no result URL was returned")
	// ErrGenerationFailed is returned when the provider reports a terminal failure.
	ErrGenerationFailed = errors.New("minimax: upstream reported generation failure")
)

// SubmissionError is returned when a submission is rejected upstream:
// a non-2xx response or an unparseable body. The raw body is retained
// for operator diagnostics.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("minimax: submission rejected with status %d: %s", e.StatusCode, e.Body)
}

// PollError is returned when polling reaches a non-recoverable condition:
// an unexpected HTTP status, a provider-reported failure, or a success
// without a result URL. Err distinguishes the condition and supports
// errors.Is against ErrGenerationFailed and ErrResultURLMissing.
type PollError struct {
	// Status is the provider-reported job status, when one was parsed.
	Status string
	// StatusCode is the HTTP status of the poll response, when relevant.
	StatusCode int
	// Body is the raw response payload for diagnostics.
	Body string
	// Err is the underlying condition, if any.
	Err error
}

func (e *PollError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (status=%q http=%d): %s", e.Err, e.Status, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("minimax: poll failed (status=%q http=%d): %s", e.Status, e.StatusCode, e.Body)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
