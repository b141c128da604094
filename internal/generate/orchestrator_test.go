package generate

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maviola/i2v-stitcher/internal/minimax"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, req minimax.GenerationRequest) (minimax.JobHandle, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(minimax.JobHandle), args.Error(1)
}

type mockPoller struct {
	mock.Mock
}

func (m *mockPoller) AwaitCompletion(ctx context.Context, handle minimax.JobHandle) (string, error) {
	args := m.Called(ctx, handle)
	return args.String(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOrchestratorResolve_FirstRungSucceeds(t *testing.T) {
	submitter := new(mockSubmitter)
	poller := new(mockPoller)

	handle := minimax.JobHandle{ID: "job-1", Provider: minimax.ProviderJobSet}
	submitter.On("Submit", mock.Anything, mock.Anything).Return(handle, nil).Once()
	poller.On("AwaitCompletion", mock.Anything, handle).Return("https://cdn/clip.mp4", nil).Once()

	o := NewOrchestrator(submitter, poller, discardLogger())

	url, err := o.Resolve(context.Background(), "https://host/img.jpg", "a prompt.")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/clip.mp4", url)

	submitter.AssertNumberOfCalls(t, "Submit", 1)
	poller.AssertNumberOfCalls(t, "AwaitCompletion", 1)
}

func TestOrchestratorResolve_AdvancesPastSubmissionFailure(t *testing.T) {
	submitter := new(mockSubmitter)
	poller := new(mockPoller)

	subErr := &minimax.SubmissionError{StatusCode: 400, Body: "bad resolution"}
	handle := minimax.JobHandle{ID: "job-2", Provider: minimax.ProviderJobSet}

	submitter.On("Submit", mock.Anything, mock.Anything).Return(minimax.JobHandle{}, subErr).Once()
	submitter.On("Submit", mock.Anything, mock.Anything).Return(handle, nil).Once()
	poller.On("AwaitCompletion", mock.Anything, handle).Return("https://cdn/second.mp4", nil).Once()

	o := NewOrchestrator(submitter, poller, discardLogger())

	url, err := o.Resolve(context.Background(), "https://host/img.jpg", "a prompt.")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/second.mp4", url)

	submitter.AssertNumberOfCalls(t, "Submit", 2)
	poller.AssertNumberOfCalls(t, "AwaitCompletion", 1)
}

func TestOrchestratorResolve_AdvancesPastPollFailure(t *testing.T) {
	submitter := new(mockSubmitter)
	poller := new(mockPoller)

	first := minimax.JobHandle{ID: "job-a", Provider: minimax.ProviderJobSet}
	second := minimax.JobHandle{ID: "job-b", Provider: minimax.ProviderJobSet}

	submitter.On("Submit", mock.Anything, mock.Anything).Return(first, nil).Once()
	submitter.On("Submit", mock.Anything, mock.Anything).Return(second, nil).Once()
	poller.On("AwaitCompletion", mock.Anything, first).
		Return("", &minimax.PollError{Status: "failed", Err: minimax.ErrGenerationFailed}).Once()
	poller.On("AwaitCompletion", mock.Anything, second).Return("https://cdn/ok.mp4", nil).Once()

	o := NewOrchestrator(submitter, poller, discardLogger())

	url, err := o.Resolve(context.Background(), "https://host/img.jpg", "a prompt.")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/ok.mp4", url)
}

func TestOrchestratorResolve_ExhaustionSurfacesLastError(t *testing.T) {
	submitter := new(mockSubmitter)
	poller := new(mockPoller)

	earlyErr := errors.New("early rung error")
	lastErr := &minimax.SubmissionError{StatusCode: 503, Body: "down"}

	// Five rungs fail with one error, the final rung with another; only the
	// final rung's error must surface.
	submitter.On("Submit", mock.Anything, mock.Anything).Return(minimax.JobHandle{}, earlyErr).Times(5)
	submitter.On("Submit", mock.Anything, mock.Anything).Return(minimax.JobHandle{}, lastErr).Once()

	o := NewOrchestrator(submitter, poller, discardLogger())

	_, err := o.Resolve(context.Background(), "https://host/img.jpg", "a prompt.")
	require.Error(t, err)

	var subErr *minimax.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, 503, subErr.StatusCode)
	assert.NotContains(t, err.Error(), "early rung error")
	assert.Contains(t, err.Error(), "all 6 attempts exhausted")

	submitter.AssertNumberOfCalls(t, "Submit", 6)
	poller.AssertNumberOfCalls(t, "AwaitCompletion", 0)
}

func TestOrchestratorResolve_RungsCarryLadderParameters(t *testing.T) {
	submitter := new(mockSubmitter)
	poller := new(mockPoller)

	var seen []minimax.GenerationRequest
	submitter.On("Submit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen = append(seen, args.Get(1).(minimax.GenerationRequest))
		}).
		Return(minimax.JobHandle{}, errors.New("reject everything"))

	o := NewOrchestrator(submitter, poller, discardLogger())

	prompt := "First sentence of the tour. Second sentence."
	_, err := o.Resolve(context.Background(), "https://host/img.jpg", prompt)
	require.Error(t, err)
	require.Len(t, seen, 6)

	ladder := DefaultLadder()
	for i, req := range seen {
		assert.Equal(t, ladder[i].Provider, req.Provider, "rung %d provider", i+1)
		assert.Equal(t, ladder[i].Resolution, req.Resolution, "rung %d resolution", i+1)
		assert.Equal(t, ladder[i].PromptVariant.Render(prompt), req.Prompt, "rung %d prompt", i+1)
		assert.Equal(t, "https://host/img.jpg", req.ImageRef)
	}

	// Degraded rungs actually degrade the prompt.
	assert.Equal(t, "First sentence of the tour.", seen[4].Prompt)
	assert.NotEqual(t, prompt, seen[5].Prompt)
}

func TestOrchestratorResolve_EmptyLadder(t *testing.T) {
	o := NewOrchestrator(new(mockSubmitter), new(mockPoller), discardLogger(), WithLadder(nil))

	_, err := o.Resolve(context.Background(), "https://host/img.jpg", "p")
	assert.ErrorIs(t, err, ErrEmptyLadder)
}

func TestOrchestratorResolve_CancelledContext(t *testing.T) {
	submitter := new(mockSubmitter)
	poller := new(mockPoller)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(submitter, poller, discardLogger())

	_, err := o.Resolve(ctx, "https://host/img.jpg", "p")
	assert.ErrorIs(t, err, context.Canceled)
	submitter.AssertNumberOfCalls(t, "Submit", 0)
}
