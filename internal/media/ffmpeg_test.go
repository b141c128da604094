package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// skipIfNoFFmpeg skips tests that exercise the real ffmpeg binary.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping")
	}
}

// createTestVideo renders a short solid-color clip with ffmpeg.
func createTestVideo(t *testing.T, dir, name, color string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi",
		"-i", "color=c="+color+":s=320x240:d=1:r=25",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\n%s", err, out)
	}
	return path
}

// createTestImage renders a single frame with ffmpeg.
func createTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=blue:s=%dx%d", width, height),
		"-frames:v", "1",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test image: %v\n%s", err, out)
	}
	return path
}

func TestConcatenate_NoInputs(t *testing.T) {
	encoder := NewFFmpegEncoder("")
	err := encoder.Concatenate(context.Background(), nil, filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, ErrNoInputs) {
		t.Errorf("error = %v, want ErrNoInputs", err)
	}
}

func TestConcatenate_SingleInputCopiesVerbatim(t *testing.T) {
	// No ffmpeg needed: a single clip must be copied byte for byte.
	dir := t.TempDir()
	src := filepath.Join(dir, "only.mp4")
	if err := os.WriteFile(src, []byte("clip-bytes"), 0o644); err != nil {
		t.Fatalf("failed to create source: %v", err)
	}

	encoder := NewFFmpegEncoder("")
	out := filepath.Join(dir, "out.mp4")
	if err := encoder.Concatenate(context.Background(), []string{src}, out); err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(content) != "clip-bytes" {
		t.Errorf("output content = %q, want the source bytes", content)
	}
}

func TestConcatenate_MultipleClips(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	a := createTestVideo(t, dir, "a.mp4", "red")
	b := createTestVideo(t, dir, "b.mp4", "green")

	encoder := NewFFmpegEncoder("")
	out := filepath.Join(dir, "joined.mp4")
	if err := encoder.Concatenate(context.Background(), []string{a, b}, out); err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("output does not exist: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output is empty")
	}
}

func TestConcatenate_BadInput(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.mp4")
	if err := os.WriteFile(bad, []byte("not a video"), 0o644); err != nil {
		t.Fatalf("failed to create bad input: %v", err)
	}
	good := createTestVideo(t, dir, "good.mp4", "red")

	encoder := NewFFmpegEncoder("")
	err := encoder.Concatenate(context.Background(), []string{bad, good}, filepath.Join(dir, "out.mp4"))
	if err == nil {
		t.Fatal("expected error for invalid input")
	}

	var ffErr *FFmpegError
	if !errors.As(err, &ffErr) {
		t.Fatalf("error type = %T, want *FFmpegError", err)
	}
	if ffErr.Stderr == "" {
		t.Error("FFmpegError.Stderr is empty")
	}
}

func TestDownscaleImage(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := createTestImage(t, dir, "large.png", 2000, 500)

	encoder := NewFFmpegEncoder("")
	dst := filepath.Join(dir, "scaled.png")
	if err := encoder.DownscaleImage(context.Background(), src, dst, 1280); err != nil {
		t.Fatalf("DownscaleImage failed: %v", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("output does not exist: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output is empty")
	}
}

func TestDownscaleImage_InvalidMaxDim(t *testing.T) {
	encoder := NewFFmpegEncoder("")
	err := encoder.DownscaleImage(context.Background(), "in.png", "out.png", 0)
	if !errors.Is(err, ErrInvalidMaxDim) {
		t.Errorf("error = %v, want ErrInvalidMaxDim", err)
	}
}

func TestConcatenate_CancelledContext(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	a := createTestVideo(t, dir, "a.mp4", "red")
	b := createTestVideo(t, dir, "b.mp4", "green")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	encoder := NewFFmpegEncoder("")
	err := encoder.Concatenate(ctx, []string{a, b}, filepath.Join(dir, "out.mp4"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
