package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maviola/i2v-stitcher/internal/minimax"
)

// ErrEmptyLadder is returned when an orchestrator has no rungs to try.
var ErrEmptyLadder = errors.New("generate: fallback ladder is empty")

// Submitter submits one generation request and returns a job handle.
type Submitter interface {
	Submit(ctx context.Context, req minimax.GenerationRequest) (minimax.JobHandle, error)
}

// Poller drives a job handle to a terminal state.
type Poller interface {
	AwaitCompletion(ctx context.Context, handle minimax.JobHandle) (string, error)
}

// Orchestrator resolves one image into a downloadable clip URL by walking
// the fallback ladder: submit, poll, and on any failure advance to the next
// rung without delay. Success on a rung short-circuits the ladder; if the
// last rung fails, its error is the orchestration's error. Earlier rungs'
// errors are logged but not retained.
type Orchestrator struct {
	submitter Submitter
	poller    Poller
	ladder    []AttemptSpec
	logger    *slog.Logger
}

// OrchestratorOption is a function that configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLadder replaces the default ladder.
func WithLadder(ladder []AttemptSpec) OrchestratorOption {
	return func(o *Orchestrator) {
		o.ladder = ladder
	}
}

// NewOrchestrator creates an Orchestrator over the default ladder.
func NewOrchestrator(submitter Submitter, poller Poller, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		submitter: submitter,
		poller:    poller,
		ladder:    DefaultLadder(),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Resolve runs the ladder for one image and returns the clip URL of the
// first rung that completes.
func (o *Orchestrator) Resolve(ctx context.Context, imageRef, prompt string) (string, error) {
	if len(o.ladder) == 0 {
		return "", ErrEmptyLadder
	}

	var (
		lastErr  error
		lastSpec AttemptSpec
	)

	for i, spec := range o.ladder {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("generate: resolve cancelled: %w", err)
		}

		handle, err := o.submitter.Submit(ctx, spec.Request(imageRef, prompt))
		if err != nil {
			o.logger.Warn("submission failed, advancing ladder",
				slog.Int("rung", i+1),
				slog.String("attempt", spec.String()),
				slog.String("error", err.Error()),
			)
			lastErr, lastSpec = err, spec
			continue
		}

		clipURL, err := o.poller.AwaitCompletion(ctx, handle)
		if err != nil {
			o.logger.Warn("polling failed, advancing ladder",
				slog.Int("rung", i+1),
				slog.String("attempt", spec.String()),
				slog.String("job_id", handle.ID),
				slog.String("error", err.Error()),
			)
			lastErr, lastSpec = err, spec
			continue
		}

		o.logger.Info("generation succeeded",
			slog.Int("rung", i+1),
			slog.String("attempt", spec.String()),
			slog.String("job_id", handle.ID),
		)
		return clipURL, nil
	}

	return "", fmt.Errorf("generate: all %d attempts exhausted, last attempt %s: %w", len(o.ladder), lastSpec, lastErr)
}
