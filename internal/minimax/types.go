// Package minimax provides an HTTP client for the MiniMax image-to-video
// generation API, a normalizer for its heterogeneous response envelopes,
// and a poller that drives submitted jobs to a terminal state.
package minimax

import "strings"

// Provider selects which submission endpoint variant a request uses.
// The two variants carry different request and response shapes; the
// response-shape variance is absorbed by ExtractResult, not the client.
type Provider string

const (
	// ProviderVideoGen submits to the flat /v1/video_generation endpoint,
	// which returns a bare task id.
	ProviderVideoGen Provider = "video_generation"
	// ProviderJobSet submits to the /v1/job_sets endpoint, which returns
	// a nested job-set envelope.
	ProviderJobSet Provider = "job_set"
)

// IsValid returns true if the provider is a known variant.
func (p Provider) IsValid() bool {
	return p == ProviderVideoGen || p == ProviderJobSet
}

// Duration is the requested clip length in seconds.
type Duration int

// Clip durations accepted by the upstream models.
const (
	Duration5  Duration = 5
	Duration10 Duration = 10
)

// Resolution is the requested clip resolution.
type Resolution string

// Clip resolutions accepted by the upstream models.
const (
	Resolution512p  Resolution = "512P"
	Resolution720p  Resolution = "720P"
	Resolution1080p Resolution = "1080P"
)

// GenerationRequest describes one generation attempt for one image.
// It is immutable once constructed; every ladder rung builds a fresh one.
type GenerationRequest struct {
	// ImageRef is a URL the provider can fetch the source frame from.
	ImageRef string
	// Prompt is the motion prompt for this attempt.
	Prompt string
	// Duration is the clip length in seconds.
	Duration Duration
	// Resolution is the clip resolution.
	Resolution Resolution
	// PromptOptimizer asks the provider to rewrite the prompt upstream.
	PromptOptimizer bool
	// Provider selects the submission endpoint variant.
	Provider Provider
}

// JobHandle is the opaque identifier returned by a submission.
// It is consumed exclusively by the Poller and never reused across attempts.
type JobHandle struct {
	// ID is the provider-assigned job identifier.
	ID string
	// Provider is the variant that produced the handle.
	Provider Provider
}

// successStatuses are the provider status terms that mean the job finished
// and a result should be available.
var successStatuses = map[string]struct{}{
	"succeeded": {},
	"success":   {},
	"completed": {},
	"complete":  {},
	"finished":  {},
	"done":      {},
}

// failureStatuses are the provider status terms that mean the job will
// never produce a result.
var failureStatuses = map[string]struct{}{
	"failed":    {},
	"error":     {},
	"cancelled": {},
	"canceled":  {},
	"timed_out": {},
}

// IsSuccessStatus reports whether status is a recognized success term.
func IsSuccessStatus(status string) bool {
	_, ok := successStatuses[strings.ToLower(status)]
	return ok
}

// IsFailureStatus reports whether status is a recognized failure term.
func IsFailureStatus(status string) bool {
	_, ok := failureStatuses[strings.ToLower(status)]
	return ok
}

// videoGenRequest is the request body for the /v1/video_generation endpoint.
type videoGenRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	Duration        int    `json:"duration"`
	Resolution      string `json:"resolution"`
	FirstFrameImage string `json:"first_frame_image"`
	PromptOptimizer bool   `json:"prompt_optimizer"`
}

// videoGenResponse is the response from the /v1/video_generation endpoint.
// The provider has returned the id under both names across versions.
type videoGenResponse struct {
	TaskID string `json:"task_id,omitempty"`
	ID     string `json:"id,omitempty"`
}

// jobSetRequest is the request body for the /v1/job_sets endpoint.
type jobSetRequest struct {
	Model string      `json:"model"`
	Input jobSetInput `json:"input"`
}

// jobSetInput is the nested input of a job-set submission.
type jobSetInput struct {
	Prompt          string `json:"prompt"`
	ImageURL        string `json:"image_url"`
	Duration        int    `json:"duration"`
	Resolution      string `json:"resolution"`
	PromptOptimizer bool   `json:"prompt_optimizer"`
}

// jobSetResponse is the response from the /v1/job_sets endpoint. The job-set
// id may appear at the top level or only on the first job of the set.
type jobSetResponse struct {
	JobSetID string      `json:"job_set_id,omitempty"`
	ID       string      `json:"id,omitempty"`
	Jobs     []jobSetJob `json:"jobs,omitempty"`
}

// jobSetJob is a single job entry in a job-set response.
type jobSetJob struct {
	ID string `json:"id,omitempty"`
}
