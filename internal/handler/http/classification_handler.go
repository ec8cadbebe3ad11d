package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/dto"
)

type Editor interface {
	EditImage(ctx context.Context, imageID string, params domain.EnhanceParams) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

type ImageOpener interface {
	Open(ctx context.Context, imageID string) (io.ReadCloser, domain.Tier, error)
}

type ClassificationHandler struct {
	classifier    domain.ClassifierService
	editor        Editor
	uploader      Uploader
	images        ImageOpener
	jobs          domain.JobService
	maxUploadSize int64
}

func NewClassificationHandler(
	classifier domain.ClassifierService,
	editor Editor,
	uploader Uploader,
	images ImageOpener,
	jobs domain.JobService,
	maxUploadSizeMB int,
) *ClassificationHandler {
	return &ClassificationHandler{
		classifier:    classifier,
		editor:        editor,
		uploader:      uploader,
		images:        images,
		jobs:          jobs,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (h *ClassificationHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.GET("/info", h.Info)
	engine.POST("/classifications", h.Classify)
	engine.POST("/editor", h.Edit)
	engine.POST("/upload", h.Upload)
	engine.GET("/images/:id", h.GetImage)
	if h.jobs != nil {
		engine.POST("/jobs", h.SubmitJob)
		engine.GET("/jobs/:id", h.GetJob)
	}
}

// Info GET /info
func (h *ClassificationHandler) Info(c *ginext.Context) {
	images, err := h.classifier.AvailableImages(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.InfoResponse{
		Models: h.classifier.KnownModels(),
		Images: images,
	})
}

// Classify POST /classifications
func (h *ClassificationHandler) Classify(c *ginext.Context) {
	var req dto.ClassifyRequest
	if !h.decode(c, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(c, errs)
		return
	}

	scores, err := h.classifier.Classify(c.Request.Context(), req.ModelID, req.ImageID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ClassificationResponse{
		ImageID:              req.ImageID,
		ModelID:              req.ModelID,
		ClassificationScores: scores,
	})
}

// Edit POST /editor
func (h *ClassificationHandler) Edit(c *ginext.Context) {
	var req dto.EditRequest
	if !h.decode(c, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(c, errs)
		return
	}

	if err := h.classifier.CheckModel(req.ModelID); err != nil {
		h.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	editedID, err := h.editor.EditImage(ctx, req.ImageID, req.Params())
	if err != nil {
		h.writeError(c, err)
		return
	}

	scores, err := h.classifier.Classify(ctx, req.ModelID, editedID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ClassificationResponse{
		ImageID:              editedID,
		ModelID:              req.ModelID,
		ClassificationScores: scores,
	})
}

// Upload POST /upload
func (h *ClassificationHandler) Upload(c *ginext.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		h.writeValidation(c, dto.ValidationErrors{{Field: "image", Message: "An image file is required"}})
		return
	}
	defer file.Close()

	modelID := c.PostForm("model_id")
	if strings.TrimSpace(modelID) == "" {
		h.writeValidation(c, dto.ValidationErrors{{Field: "model_id", Message: "A valid model ID is required"}})
		return
	}
	if err := h.classifier.CheckModel(modelID); err != nil {
		h.writeError(c, err)
		return
	}

	if header.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("File size exceeds maximum allowed (%d MB)", h.maxUploadSize/(1024*1024)),
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to read upload")
		h.writeError(c, err)
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file_too_large", Message: "File size exceeds maximum allowed"})
		return
	}

	ctx := c.Request.Context()
	imageID, err := h.uploader.Upload(ctx, header.Filename, data)
	if err != nil {
		h.writeError(c, err)
		return
	}

	scores, err := h.classifier.Classify(ctx, modelID, imageID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ClassificationResponse{
		ImageID:              imageID,
		ModelID:              modelID,
		ClassificationScores: scores,
	})
}

// GetImage GET /images/:id
func (h *ClassificationHandler) GetImage(c *ginext.Context) {
	id := c.Param("id")
	file, tier, err := h.images.Open(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", contentType(id))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", id))
	c.Header("X-Image-Tier", string(tier))

	written, err := io.Copy(c.Writer, file)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Int64("bytes_written", written).Msg("failed to write image to response")
	}
}

// SubmitJob POST /jobs
func (h *ClassificationHandler) SubmitJob(c *ginext.Context) {
	var req dto.JobRequest
	if !h.decode(c, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(c, errs)
		return
	}

	job, err := h.jobs.Submit(c.Request.Context(), req.ModelID, req.ImageID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MapJobToResponse(job, baseURL(c)))
}

// GetJob GET /jobs/:id
func (h *ClassificationHandler) GetJob(c *ginext.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapJobToResponse(job, baseURL(c)))
}

func (h *ClassificationHandler) decode(c *ginext.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be a JSON object",
		})
		return false
	}
	return true
}

func (h *ClassificationHandler) writeValidation(c *ginext.Context, errs dto.ValidationErrors) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:  "validation_failed",
		Fields: errs,
	})
}

func (h *ClassificationHandler) writeError(c *ginext.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		zlog.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, "job_not_found"
	case errors.Is(err, domain.ErrUnknownModel):
		return http.StatusBadRequest, "unknown_model"
	case errors.Is(err, domain.ErrInvalidImageID):
		return http.StatusBadRequest, "invalid_image_id"
	case errors.Is(err, domain.ErrDecodeFailed):
		return http.StatusUnprocessableEntity, "invalid_image"
	case errors.Is(err, domain.ErrQueueFailed):
		return http.StatusServiceUnavailable, "queue_unavailable"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func baseURL(c *ginext.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
