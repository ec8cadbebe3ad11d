package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	job := &Job{ID: "j1", Status: JobPending}
	assert.True(t, job.CanBeProcessed())
	assert.False(t, job.IsDone())

	job.MarkAsProcessing()
	assert.Equal(t, JobProcessing, job.Status)
	assert.False(t, job.CanBeProcessed())

	result := Classification{{Label: "goldfish", Score: 99}}
	job.MarkAsCompleted(result)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, result, job.Result)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.IsDone())
	assert.False(t, job.CanBeProcessed())
}

func TestJobMarkAsFailed(t *testing.T) {
	job := &Job{ID: "j2", Status: JobProcessing}

	job.MarkAsFailed("image not found")

	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "image not found", job.ErrorMessage)
	assert.True(t, job.IsDone())
	assert.True(t, job.CanBeProcessed(), "failed jobs may be retried")
}
