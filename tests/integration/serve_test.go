//go:build integration

package integration

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getProjectRoot returns the path to the kstree project root
func getProjectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	// tests/integration/serve_test.go -> project root
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

// writePNG writes a minimal PNG (IHDR + IEND) and returns its path.
func writePNG(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	chunk := func(typ string, body []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(body)))
		buf.WriteString(typ)
		buf.Write(body)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), body...)))
	}
	chunk("IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 0, 0, 0, 0})
	chunk("IEND", nil)

	path := filepath.Join(t.TempDir(), "pixel.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// startServe builds kstree, starts "kstree serve" and waits for the ready signal.
func startServe(t *testing.T) (io.WriteCloser, *bufio.Scanner) {
	t.Helper()
	projectRoot := getProjectRoot()

	buildCmd := exec.Command("go", "build", "-o", "dist/kstree", "./cmd/kstree")
	buildCmd.Dir = projectRoot
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(output))

	cmd := exec.Command(filepath.Join(projectRoot, "dist", "kstree"), "serve",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"))
	cmd.Dir = projectRoot

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	t.Cleanup(func() {
		stdin.Close()
		cmd.Process.Kill()
		cmd.Wait()
	})

	scanner := bufio.NewScanner(stdout)
	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	var ready map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &ready))
	require.Equal(t, "ready", ready["type"])
	return stdin, scanner
}

// request sends one NDJSON request and decodes the response.
func request(t *testing.T, stdin io.Writer, scanner *bufio.Scanner, line string) map[string]any {
	t.Helper()
	_, err := fmt.Fprintln(stdin, line)
	require.NoError(t, err)
	require.True(t, waitForLine(scanner, 30*time.Second), "should receive response")

	var response map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &response))
	return response
}

func waitForLine(scanner *bufio.Scanner, timeout time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		done <- scanner.Scan()
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(timeout):
		return false
	}
}

func TestServeIntegration_ReadySignal(t *testing.T) {
	startServe(t)
}

func TestServeIntegration_OpenAndLocate(t *testing.T) {
	stdin, scanner := startServe(t)
	path := writePNG(t)

	openReq, err := json.Marshal(map[string]any{"type": "open", "payload": map[string]any{"path": path}})
	require.NoError(t, err)

	response := request(t, stdin, scanner, string(openReq))
	require.True(t, response["success"].(bool), "open should succeed: %v", response["error"])
	data := response["data"].(map[string]any)
	doc := int(data["document"].(float64))
	root := data["root"].(map[string]any)
	assert.Equal(t, "png", root["name"])
	assert.Equal(t, float64(45), root["end"])

	response = request(t, stdin, scanner, fmt.Sprintf(`{"type":"locate","payload":{"document":%d,"offset":16}}`, doc))
	require.True(t, response["success"].(bool))
	chain := response["data"].(map[string]any)["chain"].([]any)
	last := chain[len(chain)-1].(map[string]any)
	assert.Equal(t, "png/Fields/ihdr/Fields/width", last["path"])
	assert.Equal(t, "1", last["value"])
}

func TestServeIntegration_ExpandChildren(t *testing.T) {
	stdin, scanner := startServe(t)
	path := writePNG(t)

	openReq, err := json.Marshal(map[string]any{"type": "open", "payload": map[string]any{"path": path}})
	require.NoError(t, err)
	response := request(t, stdin, scanner, string(openReq))
	require.True(t, response["success"].(bool))

	// Expand root, then its Fields group.
	response = request(t, stdin, scanner, `{"type":"children","payload":{"document":1,"node":0}}`)
	require.True(t, response["success"].(bool))
	children := response["data"].(map[string]any)["children"].([]any)
	require.Len(t, children, 3)
	fields := children[1].(map[string]any)["node"].(map[string]any)
	assert.Equal(t, "Fields", fields["name"])

	response = request(t, stdin, scanner, fmt.Sprintf(`{"type":"children","payload":{"document":1,"node":%d}}`, int(fields["id"].(float64))))
	require.True(t, response["success"].(bool))
	children = response["data"].(map[string]any)["children"].([]any)
	assert.Len(t, children, 6)
}

func TestServeIntegration_UnknownDocument(t *testing.T) {
	stdin, scanner := startServe(t)

	response := request(t, stdin, scanner, `{"type":"locate","payload":{"document":7,"offset":0}}`)
	assert.False(t, response["success"].(bool))
	assert.Contains(t, response["error"], "unknown document: 7")
}
