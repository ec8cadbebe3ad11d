package dto

import (
	"time"

	"github.com/yokitheyo/imageclassifier/internal/domain"
)

type InfoResponse struct {
	Models []string `json:"models"`
	Images []string `json:"images"`
}

type ClassificationResponse struct {
	ImageID              string                `json:"image_id"`
	ModelID              string                `json:"model_id"`
	ClassificationScores domain.Classification `json:"classification_scores"`
}

type JobResponse struct {
	ID                   string                `json:"id"`
	ImageID              string                `json:"image_id"`
	ModelID              string                `json:"model_id"`
	Status               string                `json:"status"`
	ClassificationScores domain.Classification `json:"classification_scores,omitempty"`
	ErrorMessage         string                `json:"error_message,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	URL                  string                `json:"url"`
}

type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message,omitempty"`
	Fields  ValidationErrors `json:"fields,omitempty"`
}

func MapJobToResponse(job *domain.Job, baseURL string) *JobResponse {
	if job == nil {
		return nil
	}
	return &JobResponse{
		ID:                   job.ID,
		ImageID:              job.ImageID,
		ModelID:              job.ModelID,
		Status:               string(job.Status),
		ClassificationScores: job.Result,
		ErrorMessage:         job.ErrorMessage,
		CreatedAt:            job.CreatedAt,
		UpdatedAt:            job.UpdatedAt,
		CompletedAt:          job.CompletedAt,
		URL:                  baseURL + "/jobs/" + job.ID,
	}
}
