// Package job runs the per-request stitching pipeline: it fans the
// fallback orchestration out across all input images, downloads the
// resulting clips into the request's scratch workspace, and hands the
// ordered clip list to the media encoder.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Resolver resolves one image reference into a downloadable clip URL.
type Resolver interface {
	Resolve(ctx context.Context, imageRef, prompt string) (string, error)
}

// Encoder joins ordered clips into a single output file.
type Encoder interface {
	Concatenate(ctx context.Context, inputs []string, output string) error
}

// ClipArtifact is one downloaded clip tied to its source image position.
type ClipArtifact struct {
	// Path is the clip's location inside the scratch workspace.
	Path string
	// SourceIndex is the position of the originating image in the request.
	SourceIndex int
}

// StitchService coordinates the per-image pipelines for one request.
// Branches run concurrently and write into slots addressed by input index,
// so output order always matches input order regardless of completion
// timing. Any branch failure fails the whole run; partial clips are
// discarded with the workspace, never returned.
type StitchService struct {
	resolver   Resolver
	encoder    Encoder
	httpClient *http.Client
	logger     *slog.Logger
}

// Option is a function that configures a StitchService.
type Option func(*StitchService)

// WithDownloadClient sets the HTTP client used for clip downloads.
// Its timeout should be sized for large media payloads.
func WithDownloadClient(c *http.Client) Option {
	return func(s *StitchService) {
		s.httpClient = c
	}
}

// NewStitchService creates a new StitchService.
func NewStitchService(resolver Resolver, encoder Encoder, logger *slog.Logger, opts ...Option) *StitchService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StitchService{
		resolver:   resolver,
		encoder:    encoder,
		httpClient: &http.Client{Timeout: 600 * time.Second},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run resolves every image into a clip and produces the final video inside
// workdir. With a single image the downloaded clip is returned verbatim;
// otherwise the clips are concatenated in input order.
func (s *StitchService) Run(ctx context.Context, workdir string, imageRefs []string, prompt string) (string, error) {
	if len(imageRefs) == 0 {
		return "", ErrNoImages
	}

	clips := make([]ClipArtifact, len(imageRefs))
	errs := make([]error, len(imageRefs))

	var wg sync.WaitGroup
	for i, ref := range imageRefs {
		wg.Add(1)
		go func(idx int, imageRef string) {
			defer wg.Done()

			clipURL, err := s.resolver.Resolve(ctx, imageRef, prompt)
			if err != nil {
				errs[idx] = fmt.Errorf("image %d: %w", idx, err)
				return
			}

			dest := filepath.Join(workdir, fmt.Sprintf("clip_%03d_%s.mp4", idx, uuid.NewString()))
			if err := s.downloadClip(ctx, clipURL, dest); err != nil {
				errs[idx] = fmt.Errorf("image %d: %w", idx, err)
				return
			}

			clips[idx] = ClipArtifact{Path: dest, SourceIndex: idx}
			s.logger.Info("clip ready",
				slog.Int("image_index", idx),
				slog.String("path", dest),
			)
		}(i, ref)
	}
	wg.Wait()

	// Lowest-index failure wins; later branches' clips are discarded with
	// the workspace by the caller.
	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}

	paths := make([]string, len(clips))
	for i, clip := range clips {
		paths[i] = clip.Path
	}

	if len(paths) == 1 {
		return paths[0], nil
	}

	output := filepath.Join(workdir, "final.mp4")
	if err := s.encoder.Concatenate(ctx, paths, output); err != nil {
		return "", fmt.Errorf("concatenate clips: %w", err)
	}

	return output, nil
}
