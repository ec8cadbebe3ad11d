package domain

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is an asynchronous classification request executed by the worker.
type Job struct {
	ID           string         `json:"id"`
	ImageID      string         `json:"image_id"`
	ModelID      string         `json:"model_id"`
	Status       JobStatus      `json:"status"`
	Result       Classification `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

func (j *Job) IsDone() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

func (j *Job) CanBeProcessed() bool {
	return j.Status == JobPending || j.Status == JobFailed
}

func (j *Job) MarkAsProcessing() {
	j.Status = JobProcessing
	j.UpdatedAt = time.Now()
}

func (j *Job) MarkAsCompleted(result Classification) {
	now := time.Now()
	j.Status = JobCompleted
	j.Result = result
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkAsFailed(errMsg string) {
	now := time.Now()
	j.Status = JobFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = now
	j.CompletedAt = &now
}
