package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Static errors for media operations.
var (
	// ErrNoInputs is returned when no clip paths are provided for joining.
	ErrNoInputs = errors.New("media: no input clips provided")
	// ErrInvalidMaxDim is returned when the downscale bound is not positive.
	ErrInvalidMaxDim = errors.New("media: max dimension must be positive")
)

// Compile-time check that FFmpegEncoder implements Processor.
var _ Processor = (*FFmpegEncoder)(nil)

// FFmpegEncoder implements Processor using the ffmpeg CLI.
type FFmpegEncoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegEncoder creates a new FFmpegEncoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegEncoder(ffmpegPath string) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegEncoder{ffmpegPath: ffmpegPath}
}

// Concatenate joins the ordered input clips into a single output file.
// With one input the clip is copied verbatim; with several, the clips are
// always re-encoded to libx264/yuv420p with faststart so outputs from
// different provider configurations produce one coherent stream. Audio is
// dropped: the upstream clips carry none.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}

	if len(inputs) == 1 {
		return e.copyFile(inputs[0], output)
	}

	listFile, err := e.createConcatList(inputs)
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer func() { _ = os.Remove(listFile) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-r", "25",
		"-an",
		output,
	}
	return e.runFFmpeg(ctx, args)
}

// DownscaleImage rewrites src into dst with its longest side capped at
// maxDim pixels. Providers reject oversized source frames.
func (e *FFmpegEncoder) DownscaleImage(ctx context.Context, src, dst string, maxDim int) error {
	if maxDim <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxDim, maxDim)
	}

	// scale only shrinks: force_original_aspect_ratio=decrease keeps images
	// already under the bound untouched in proportion.
	filter := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", maxDim, maxDim)

	args := []string{
		"-y",
		"-i", src,
		"-vf", filter,
		"-frames:v", "1",
		dst,
	}
	return e.runFFmpeg(ctx, args)
}

// createConcatList creates a temporary file containing the list of clips
// in the format required by ffmpeg's concat demuxer.
func (e *FFmpegEncoder) createConcatList(inputs []string) (string, error) {
	f, err := os.CreateTemp("", "ffmpeg-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, path := range inputs {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("get absolute path for %s: %w", path, err)
		}
		// Escape single quotes in path
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapedPath); err != nil {
			return "", fmt.Errorf("write to concat list: %w", err)
		}
	}

	return f.Name(), nil
}

// copyFile copies a file from src to dst.
func (e *FFmpegEncoder) copyFile(src, dst string) error {
	input, err := os.ReadFile(src) // #nosec G304 - src is provided by trusted internal code
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}
	if err := os.WriteFile(dst, input, 0600); err != nil {
		return fmt.Errorf("write destination file: %w", err)
	}
	return nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (e *FFmpegEncoder) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
