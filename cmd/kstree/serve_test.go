package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/praetorian-inc/kstree/pkg/serve"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTree(t *testing.T) {
	resetFlags(t)
	path := writeFile(t, t.TempDir(), "image.bin", samplePNG())

	tr, err := openTree(path, "")
	require.NoError(t, err)
	assert.Equal(t, "png", tr.Root().Name())

	_, err = openTree(path, "gif")
	assert.Error(t, err)

	formatName = "gif"
	_, err = openTree(path, "png")
	assert.NoError(t, err)
}

func TestRunServe(t *testing.T) {
	resetFlags(t)
	path := writeFile(t, t.TempDir(), "sample.png", samplePNG())

	request, err := json.Marshal(map[string]any{
		"type":    "open",
		"payload": map[string]string{"path": path},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(string(request) + "\n"))
	cmd.SetOut(&out)
	require.NoError(t, runServe(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var resp serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.True(t, resp.Success, resp.Error)
	assert.Equal(t, "open", resp.Type)
}
