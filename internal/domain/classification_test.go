package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationJSONShape(t *testing.T) {
	c := Classification{
		{Label: "tabby", Score: 71.5},
		{Label: "tiger cat", Score: 20.25},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[["tabby",71.5],["tiger cat",20.25]]`, string(data))

	var decoded Classification
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c, decoded)
}

func TestPredictionUnmarshalRejectsWrongArity(t *testing.T) {
	var p Prediction
	err := json.Unmarshal([]byte(`["tabby"]`), &p)
	assert.Error(t, err)
}
