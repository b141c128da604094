// Package server provides the HTTP boundary for the I2V Stitcher API:
// the generate endpoint, health check, static file hosting for the local
// media store, and the middleware chain.
package server

// DefaultPrompt is the motion prompt applied when the request omits one.
const DefaultPrompt = "Realistic continuation of the reference image as a forward walking video. " +
	"The camera moves steadily ahead, maintaining natural height (~1.7m). " +
	"The environment gradually changes in perspective and depth, with warm golden-hour lighting and soft shadows. " +
	"Few people visible, peaceful ambiance. Real physical motion only - no zooms or cinematic dolly effects. " +
	"Feels like walking calmly toward the scene.\n" +
	"Style notes:\n" +
	"forward linear motion, warm golden light, slow pace, natural camera sway, cinematic realism."

// GenerateRequest holds the validated form fields of a generate call.
// The image files themselves arrive as multipart parts named "files".
type GenerateRequest struct {
	// Prompt is the motion prompt shared by all images in the request.
	Prompt string `validate:"required,max=4000"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message, including the last
	// failing attempt's upstream diagnostics when generation failed.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
