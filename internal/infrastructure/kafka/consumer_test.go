package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJobMessage(t *testing.T) {
	job, err := decodeJobMessage([]byte(`{"job_id":"5d1c"}`))
	require.NoError(t, err)
	assert.Equal(t, "5d1c", job.JobID)

	_, err = decodeJobMessage([]byte(`{"job_id":""}`))
	assert.Error(t, err)

	_, err = decodeJobMessage([]byte(`not json`))
	assert.Error(t, err)
}
