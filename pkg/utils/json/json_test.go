package json_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/pkg/utils/json"
)

type sample struct {
	Question string  `json:"question"`
	TopK     int     `json:"top_k"`
	Cost     float64 `json:"cost"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := sample{Question: "What were Q3 revenues?", TopK: 4, Cost: 0.0015}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(sample{Question: "q", TopK: 1}))

	var out sample
	require.NoError(t, json.NewDecoder(strings.NewReader(buf.String())).Decode(&out))
	assert.Equal(t, "q", out.Question)
	assert.Equal(t, 1, out.TopK)
}

func TestUnmarshalInvalidInput(t *testing.T) {
	var out sample
	assert.Error(t, json.Unmarshal([]byte(`{"top_k":`), &out))
}
