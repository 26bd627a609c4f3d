package serve

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/formats/png"
	"github.com/praetorian-inc/kstree/pkg/schema"
	"github.com/praetorian-inc/kstree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSample serves a two-chunk PNG for "sample.png" and fails for any other path.
func openSample(path, format string) (*tree.Tree, error) {
	if path != "sample.png" {
		return nil, errors.New("no such file: " + path)
	}

	var buf bytes.Buffer
	buf.Write(png.Magic)
	chunk := func(typ string, body []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(body)))
		buf.WriteString(typ)
		buf.Write(body)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), body...)))
	}
	chunk("IHDR", []byte{0, 0, 0, 2, 0, 0, 0, 3, 8, 6, 0, 0, 0})
	chunk("IEND", nil)

	f, err := png.Parse(kaitai.NewStream(bytes.NewReader(buf.Bytes())), true)
	if err != nil {
		return nil, err
	}
	r := schema.NewRegistry()
	if err := png.Register(r); err != nil {
		return nil, err
	}
	return tree.New(f, tree.WithRegistry(r))
}

// run feeds requests to a server and returns every response after "ready".
func run(t *testing.T, requests ...string) []Response {
	t.Helper()

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	out := &bytes.Buffer{}
	srv := NewServer(openSample, in, out)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	require.NotEmpty(t, responses)
	assert.Equal(t, "ready", responses[0].Type)
	return responses[1:]
}

func decode[T any](t *testing.T, resp Response) T {
	t.Helper()
	require.True(t, resp.Success, resp.Error)
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestServer_SendsReadyOnStart(t *testing.T) {
	in := strings.NewReader("")
	out := &bytes.Buffer{}

	srv := NewServer(openSample, in, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately to exit after ready

	_ = srv.Run(ctx)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)

	var resp Response
	err := json.Unmarshal([]byte(lines[0]), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "ready", resp.Type)
	ready := decode[ReadyData](t, resp)
	assert.Equal(t, Version, ready.Version)
}

func TestServer_Open(t *testing.T) {
	responses := run(t, `{"type":"open","payload":{"path":"sample.png"}}`)
	require.Len(t, responses, 1)

	data := decode[OpenData](t, responses[0])
	assert.Equal(t, 1, data.Document)
	assert.Equal(t, 0, data.Root.ID)
	assert.Equal(t, "png", data.Root.Name)
	assert.Equal(t, "struct", data.Root.Kind)
	assert.Equal(t, 3, data.Root.ChildCount)
	require.NotNil(t, data.Root.End)
	assert.Equal(t, int64(45), *data.Root.End)
}

func TestServer_OpenErrors(t *testing.T) {
	responses := run(t,
		`{"type":"open","payload":{"path":"missing.png"}}`,
		`{"type":"open","payload":{}}`,
	)
	require.Len(t, responses, 2)

	assert.False(t, responses[0].Success)
	assert.Equal(t, "open", responses[0].Type)
	assert.Contains(t, responses[0].Error, "no such file")
	assert.Contains(t, responses[1].Error, "path is required")
}

func TestServer_Children(t *testing.T) {
	responses := run(t,
		`{"type":"open","payload":{"path":"sample.png"}}`,
		`{"type":"children","payload":{"document":1,"node":0}}`,
	)
	require.Len(t, responses, 2)

	data := decode[ChildrenData](t, responses[1])
	require.Len(t, data.Children, 3)

	var names []string
	for i, c := range data.Children {
		assert.Equal(t, i, c.Index)
		require.NotNil(t, c.Node)
		names = append(names, c.Node.Name)
	}
	assert.Equal(t, []string{"Parameters", "Fields", "Instances"}, names)
	assert.Equal(t, "group", data.Children[1].Node.Kind)
	assert.Equal(t, 6, data.Children[1].Node.ChildCount)
	assert.Nil(t, data.Children[1].Node.Start)
}

func TestServer_Locate(t *testing.T) {
	responses := run(t,
		`{"type":"open","payload":{"path":"sample.png"}}`,
		`{"type":"locate","payload":{"document":1,"offset":25}}`,
		`{"type":"locate","payload":{"document":1,"offset":4000}}`,
	)
	require.Len(t, responses, 3)

	data := decode[LocateData](t, responses[1])
	var names []string
	for _, n := range data.Chain {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"png", "Fields", "ihdr", "Fields", "color_type"}, names)

	last := data.Chain[len(data.Chain)-1]
	assert.Equal(t, "png/Fields/ihdr/Fields/color_type", last.Path)
	assert.Equal(t, "truecolor_alpha", last.Value)
	assert.Equal(t, "color_type [offset=25; size=1] = truecolor_alpha", last.Label)

	assert.False(t, responses[2].Success)
	assert.Contains(t, responses[2].Error, "no node covers offset 4000")
}

func TestServer_NodeHandlesAfterLocate(t *testing.T) {
	responses := run(t,
		`{"type":"open","payload":{"path":"sample.png"}}`,
		`{"type":"locate","payload":{"document":1,"offset":25}}`,
		`{"type":"children","payload":{"document":1,"node":999}}`,
	)
	require.Len(t, responses, 3)

	chain := decode[LocateData](t, responses[1]).Chain
	assert.NotZero(t, chain[len(chain)-1].ID)

	assert.False(t, responses[2].Success)
	assert.Contains(t, responses[2].Error, "has no node 999")
}

func TestServer_Release(t *testing.T) {
	responses := run(t,
		`{"type":"open","payload":{"path":"sample.png"}}`,
		`{"type":"release","payload":{"document":1}}`,
		`{"type":"children","payload":{"document":1,"node":0}}`,
		`{"type":"release","payload":{"document":1}}`,
	)
	require.Len(t, responses, 4)

	assert.True(t, responses[1].Success)
	assert.False(t, responses[2].Success)
	assert.Contains(t, responses[2].Error, "unknown document: 1")
	assert.False(t, responses[3].Success)
}

func TestServer_GracefulShutdownOnContext(t *testing.T) {
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	srv := NewServer(openSample, pr, out)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- srv.Run(ctx)
	}()

	// Wait for ready signal
	time.Sleep(100 * time.Millisecond)

	cancel()
	pw.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_CloseCommand(t *testing.T) {
	responses := run(t,
		`{"type":"close","payload":{}}`,
		`{"type":"open","payload":{"path":"sample.png"}}`,
	)
	assert.Empty(t, responses)
}

func TestServer_UnknownCommand(t *testing.T) {
	responses := run(t, `{"type":"invalid","payload":{}}`)
	require.Len(t, responses, 1)

	assert.False(t, responses[0].Success)
	assert.Contains(t, responses[0].Error, "unknown request type")
}

func TestServer_MalformedJSON(t *testing.T) {
	request := `{invalid json}` + "\n"
	in := strings.NewReader(request)
	out := &bytes.Buffer{}

	srv := NewServer(openSample, in, out)
	_ = srv.Run(context.Background())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)

	var resp Response
	_ = json.Unmarshal([]byte(lines[1]), &resp)

	assert.False(t, resp.Success)
	assert.Equal(t, "decode", resp.Type)
}
