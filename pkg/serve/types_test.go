package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_LocateUnmarshal(t *testing.T) {
	input := `{"type":"locate","payload":{"document":2,"offset":4096}}`

	var req Request
	err := json.Unmarshal([]byte(input), &req)
	require.NoError(t, err)

	assert.Equal(t, "locate", req.Type)

	var payload LocatePayload
	err = json.Unmarshal(req.Payload, &payload)
	require.NoError(t, err)

	assert.Equal(t, 2, payload.Document)
	assert.Equal(t, int64(4096), payload.Offset)
}

func TestResponse_Marshal(t *testing.T) {
	resp := Response{
		Success: true,
		Type:    "ready",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"type":"ready"`)
}

func TestNodeInfo_OmitsMissingSpan(t *testing.T) {
	data, err := json.Marshal(NodeInfo{Name: "Fields", Kind: "group"})
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"start"`)
	assert.Contains(t, string(data), `"child_count":0`)
}
