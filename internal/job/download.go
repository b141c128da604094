package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrNoImages is returned when a run is started without input images.
var ErrNoImages = errors.New("job: no input images provided")

// DownloadError is returned when a resolved clip URL cannot be fetched.
// The attempt already succeeded upstream, so the error is never retried
// across ladder rungs; it fails the request directly.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job: download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("job: download %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// downloadClip streams the clip at url into destPath.
func (s *StitchService) downloadClip(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(destPath) // #nosec G304 - destPath is confined to the workspace
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = os.Remove(destPath)
		return &DownloadError{URL: url, Err: err}
	}

	return nil
}
