// Package media wraps the ffmpeg CLI behind the encoder contract: clip
// concatenation with a consistent output format, and a downscale pass for
// uploaded source frames.
package media

import "context"

// Processor groups the media operations the rest of the service depends on.
// It acts as a port so tests can substitute the external tool.
type Processor interface {
	// Concatenate joins the ordered input clips into a single output file,
	// re-encoding to a consistent container/codec/pixel format so clips
	// produced by different provider configurations join cleanly.
	Concatenate(ctx context.Context, inputs []string, output string) error

	// DownscaleImage rewrites src into dst with its longest side capped at
	// maxDim pixels, preserving aspect ratio.
	DownscaleImage(ctx context.Context, src, dst string, maxDim int) error
}
