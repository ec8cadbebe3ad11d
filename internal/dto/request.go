package dto

import (
	"strings"

	"github.com/yokitheyo/imageclassifier/internal/domain"
)

// FieldError is one failed validation rule on a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

func requireString(errs ValidationErrors, field, value, message string) ValidationErrors {
	if strings.TrimSpace(value) == "" {
		errs = append(errs, FieldError{Field: field, Message: message})
	}
	return errs
}

type ClassifyRequest struct {
	ImageID string `json:"image_id"`
	ModelID string `json:"model_id"`
}

func (r *ClassifyRequest) Validate() ValidationErrors {
	var errs ValidationErrors
	errs = requireString(errs, "image_id", r.ImageID, "A valid image id is required")
	errs = requireString(errs, "model_id", r.ModelID, "A valid model id is required")
	return errs
}

// EditRequest carries the editor sliders. Adjustments outside [-100, 100]
// are accepted and clamped.
type EditRequest struct {
	ImageID    string `json:"image_id"`
	ModelID    string `json:"model_id"`
	Color      int    `json:"color_value"`
	Brightness int    `json:"brightness_value"`
	Contrast   int    `json:"contrast_value"`
	Sharpness  int    `json:"sharpness_value"`
}

func (r *EditRequest) Validate() ValidationErrors {
	var errs ValidationErrors
	errs = requireString(errs, "image_id", r.ImageID, "A valid image id is required")
	errs = requireString(errs, "model_id", r.ModelID, "A valid model id is required")
	return errs
}

func (r *EditRequest) Params() domain.EnhanceParams {
	return domain.NewEnhanceParams(r.Color, r.Brightness, r.Contrast, r.Sharpness)
}

type JobRequest = ClassifyRequest

// JobMessage is the queue payload for an asynchronous classification.
type JobMessage struct {
	JobID string `json:"job_id"`
}
