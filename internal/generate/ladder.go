// Package generate implements the fallback orchestration over the MiniMax
// provider variants: an ordered ladder of attempt configurations is tried
// top to bottom per image until one produces a clip.
package generate

import (
	"fmt"
	"strings"

	"github.com/maviola/i2v-stitcher/internal/minimax"
)

// PromptVariant selects how the request prompt is shaped for a rung.
// Degraded rungs carry shorter prompts, which some provider versions
// reject less often.
type PromptVariant string

const (
	// PromptFull passes the request prompt unchanged.
	PromptFull PromptVariant = "full"
	// PromptShort truncates the request prompt to its first sentence.
	PromptShort PromptVariant = "short"
	// PromptMinimal discards the request prompt for a fixed terse one.
	PromptMinimal PromptVariant = "minimal"
)

// minimalPrompt is the fixed prompt used by the most degraded rungs.
const minimalPrompt = "Animate the reference image with gentle, realistic forward motion."

// Render shapes the request prompt according to the variant.
func (v PromptVariant) Render(prompt string) string {
	switch v {
	case PromptShort:
		if i := strings.IndexAny(prompt, ".\n"); i > 0 {
			return strings.TrimSpace(prompt[:i+1])
		}
		return strings.TrimSpace(prompt)
	case PromptMinimal:
		return minimalPrompt
	default:
		return prompt
	}
}

// AttemptSpec is one rung of the fallback ladder: a complete provider
// configuration for a single submission attempt.
type AttemptSpec struct {
	Provider        minimax.Provider
	Duration        minimax.Duration
	Resolution      minimax.Resolution
	PromptVariant   PromptVariant
	PromptOptimizer bool
}

// String identifies the rung in logs and error messages.
func (a AttemptSpec) String() string {
	optimizer := "plain"
	if a.PromptOptimizer {
		optimizer = "optimizer"
	}
	return fmt.Sprintf("%s/%ds/%s/%s/%s", a.Provider, a.Duration, a.Resolution, a.PromptVariant, optimizer)
}

// Request builds the immutable generation request for one attempt on one image.
func (a AttemptSpec) Request(imageRef, prompt string) minimax.GenerationRequest {
	return minimax.GenerationRequest{
		ImageRef:        imageRef,
		Prompt:          a.PromptVariant.Render(prompt),
		Duration:        a.Duration,
		Resolution:      a.Resolution,
		PromptOptimizer: a.PromptOptimizer,
		Provider:        a.Provider,
	}
}

// DefaultLadder returns the build-time fallback ladder, ordered from the
// preferred configuration to the most degraded one. Reordering rungs is a
// data change here, not a code change.
func DefaultLadder() []AttemptSpec {
	return []AttemptSpec{
		{minimax.ProviderJobSet, minimax.Duration5, minimax.Resolution1080p, PromptFull, true},
		{minimax.ProviderJobSet, minimax.Duration5, minimax.Resolution720p, PromptFull, false},
		{minimax.ProviderVideoGen, minimax.Duration5, minimax.Resolution1080p, PromptFull, true},
		{minimax.ProviderVideoGen, minimax.Duration5, minimax.Resolution720p, PromptFull, false},
		{minimax.ProviderVideoGen, minimax.Duration5, minimax.Resolution720p, PromptShort, false},
		{minimax.ProviderVideoGen, minimax.Duration5, minimax.Resolution512p, PromptMinimal, false},
	}
}
