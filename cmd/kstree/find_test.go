package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFindFlags(t *testing.T, name string, hexes, texts []string) {
	t.Helper()
	findName, findBytes, findText = name, hexes, texts
	t.Cleanup(func() { findName, findBytes, findText = "", nil, nil })
}

func TestRunFind_Text(t *testing.T) {
	resetFlags(t)
	path := writeFile(t, t.TempDir(), "sample.png", samplePNG())
	setFindFlags(t, "", nil, []string{"Title"})

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runFind(cmd, []string{path}))

	assert.Equal(t,
		"0x00000029\t\"Title\"\tpng/Fields/chunks/[0]/Fields/body/Fields/keyword\tkeyword [offset=41; size=6] = \"Title\"\n",
		buf.String())
}

func TestRunFind_Bytes(t *testing.T) {
	resetFlags(t)
	path := writeFile(t, t.TempDir(), "sample.png", samplePNG())
	setFindFlags(t, "", []string{"49 45 4E 44"}, nil)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runFind(cmd, []string{path}))

	assert.Equal(t,
		"0x0000003c\t49454E44\tpng/Fields/chunks/[1]/Fields/type\ttype [offset=60; size=4] = \"IEND\"\n",
		buf.String())
}

func TestRunFind_SpanningHit(t *testing.T) {
	resetFlags(t)
	path := writeFile(t, t.TempDir(), "sample.png", samplePNG())
	// "Title\x00Hello" crosses the keyword and text fields.
	setFindFlags(t, "", nil, []string{"e\x00H"})

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runFind(cmd, []string{path}))

	assert.Contains(t, buf.String(), "\tpng/Fields/chunks/[0]/Fields/body\t")
}

func TestRunFind_Name(t *testing.T) {
	resetFlags(t)
	path := writeFile(t, t.TempDir(), "sample.png", samplePNG())
	setFindFlags(t, "^crc$", nil, nil)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runFind(cmd, []string{path}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "png/Fields/chunks/[0]/Fields/crc\t"))
	assert.True(t, strings.HasPrefix(lines[1], "png/Fields/chunks/[1]/Fields/crc\t"))
}

func TestRunFind_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		hexes   []string
		wantErr string
	}{
		{name: "no query", wantErr: errNoQuery.Error()},
		{name: "bad regex", pattern: "(", wantErr: "invalid --name pattern"},
		{name: "bad hex", hexes: []string{"zz"}, wantErr: "parsing hex pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			path := writeFile(t, t.TempDir(), "sample.png", samplePNG())
			setFindFlags(t, tt.pattern, tt.hexes, nil)

			cmd := &cobra.Command{}
			cmd.SetOut(&bytes.Buffer{})
			err := runFind(cmd, []string{path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
