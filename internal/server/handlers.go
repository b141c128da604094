package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maviola/i2v-stitcher/internal/config"
	"github.com/maviola/i2v-stitcher/internal/job"
	"github.com/maviola/i2v-stitcher/internal/media"
	"github.com/maviola/i2v-stitcher/internal/storage"
)

// maxUploadBytes bounds the multipart form held in memory plus disk.
const maxUploadBytes = 64 << 20

// maxImageDim caps the longest side of an uploaded frame before it is
// handed to the provider.
const maxImageDim = 1280

// allowedImageExts are the upload extensions kept as-is; anything else
// defaults to .jpg.
var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Stitcher runs the full image-to-video pipeline for one request.
type Stitcher interface {
	Run(ctx context.Context, workdir string, imageRefs []string, prompt string) (string, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	cfg       *config.Config
	service   Stitcher
	store     storage.Store
	processor media.Processor
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *config.Config, service Stitcher, store storage.Store, processor media.Processor, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		cfg:       cfg,
		service:   service,
		store:     store,
		processor: processor,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Generate handles POST /api/generate requests: N uploaded images in, one
// stitched video out. The scratch workspace for the request is removed on
// every exit path, after the response body has been written.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	// Credentials are checked before any other work so a misconfigured
	// deployment fails without a single upstream call.
	if err := h.cfg.ValidateCredentials(); err != nil {
		h.logger.Error("missing provider credentials",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error(), "CONFIG_MISSING")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}

	prompt := r.FormValue("prompt")
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if err := h.validator.Struct(GenerateRequest{Prompt: prompt}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one image file is required", "NO_FILES")
		return
	}

	ctx := r.Context()

	scope, err := h.store.NewScope(ctx)
	if err != nil {
		h.logger.Error("failed to create scratch workspace",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to prepare workspace", "STORAGE_ERROR")
		return
	}
	defer func() {
		// WithoutCancel: cleanup must run even when the client is gone.
		if err := h.store.RemoveScope(context.WithoutCancel(ctx), scope); err != nil {
			h.logger.Warn("failed to remove scratch workspace",
				slog.String("scope", scope),
				slog.String("error", err.Error()),
			)
		}
	}()

	imageRefs, ok := h.stageUploads(ctx, w, scope, files)
	if !ok {
		return
	}

	finalPath, err := h.service.Run(ctx, h.store.ScopeDir(scope), imageRefs, prompt)
	if err != nil {
		h.logger.Error("generation run failed",
			slog.String("scope", scope),
			slog.Int("images", len(imageRefs)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error(), runFailureCode(err))
		return
	}

	h.streamVideo(w, r, finalPath)
}

// stageUploads saves each uploaded frame into the scope, downscales it for
// the provider, and resolves a fetchable URL. On failure it writes the
// error response and returns ok=false.
func (h *Handlers) stageUploads(ctx context.Context, w http.ResponseWriter, scope string, files []*multipart.FileHeader) ([]string, bool) {
	imageRefs := make([]string, 0, len(files))

	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if _, ok := allowedImageExts[ext]; !ok {
			ext = ".jpg"
		}

		src, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload: "+fh.Filename, "INVALID_UPLOAD")
			return nil, false
		}

		name := uuid.NewString() + ext
		savedPath, err := h.store.Save(ctx, scope, name, src)
		_ = src.Close()
		if err != nil {
			h.logger.Error("failed to save upload",
				slog.String("scope", scope),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to save upload", "STORAGE_ERROR")
			return nil, false
		}

		scaledPath := strings.TrimSuffix(savedPath, ext) + "_scaled" + ext
		if err := h.processor.DownscaleImage(ctx, savedPath, scaledPath, maxImageDim); err != nil {
			h.logger.Error("failed to downscale upload",
				slog.String("scope", scope),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to process upload", "IMAGE_PROCESSING_FAILED")
			return nil, false
		}

		url, err := h.store.ResolveURL(ctx, scope, scaledPath)
		if err != nil {
			h.logger.Error("failed to resolve upload URL",
				slog.String("scope", scope),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to expose upload", "STORAGE_ERROR")
			return nil, false
		}

		imageRefs = append(imageRefs, url)
	}

	return imageRefs, true
}

// streamVideo writes the final video file as the response body.
func (h *Handlers) streamVideo(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path) // #nosec G304 - path is produced inside the workspace
	if err != nil {
		h.logger.Error("failed to open final video",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read output video", "OUTPUT_READ_FAILED")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="tour-agency-preview.mp4"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		// Response already started; nothing structured left to send.
		h.logger.Warn("video stream interrupted",
			slog.String("error", err.Error()),
		)
	}
}

// runFailureCode maps a pipeline error to the response error code.
func runFailureCode(err error) string {
	var downloadErr *job.DownloadError
	if errors.As(err, &downloadErr) {
		return "DOWNLOAD_FAILED"
	}
	var ffmpegErr *media.FFmpegError
	if errors.As(err, &ffmpegErr) {
		return "ENCODING_FAILED"
	}
	return "GENERATION_FAILED"
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
