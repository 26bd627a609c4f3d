package main

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/kstree/pkg/formats/png"
	"github.com/stretchr/testify/require"
)

// samplePNG is laid out as:
//
//	 0- 8 signature
//	 8-33 IHDR, color type at 25
//	33-56 tEXt "Title\x00Hello", keyword at 41
//	56-68 IEND, type at 60
func samplePNG() []byte {
	var buf bytes.Buffer
	buf.Write(png.Magic)
	chunk := func(typ string, body []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(body)))
		buf.WriteString(typ)
		buf.Write(body)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), body...)))
	}
	chunk("IHDR", []byte{0, 0, 0, 2, 0, 0, 0, 3, 8, 6, 0, 0, 0})
	chunk("tEXt", []byte("Title\x00Hello"))
	chunk("IEND", nil)
	return buf.Bytes()
}

// resetFlags points the CLI at a missing config file and restores flag
// globals after the test.
func resetFlags(t *testing.T) {
	t.Helper()

	saved := struct {
		configPath, formatName, datastorePath string
		quiet                                 bool
		indexDepth, indexJobs                 int
		indexStoreBlobs                       bool
		dumpOutput, dumpColor                 string
		dumpDepth                             int
		locateOffset                          string
		locateIndexed                         bool
	}{
		configPath, formatName, datastorePath, quiet,
		indexDepth, indexJobs, indexStoreBlobs,
		dumpOutput, dumpColor, dumpDepth,
		locateOffset, locateIndexed,
	}

	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	formatName, datastorePath = "", ""
	quiet = true
	indexDepth, indexJobs, indexStoreBlobs = -1, 2, false
	dumpOutput, dumpColor, dumpDepth = "text", "never", -1
	locateOffset, locateIndexed = "", false

	t.Cleanup(func() {
		configPath, formatName, datastorePath = saved.configPath, saved.formatName, saved.datastorePath
		quiet = saved.quiet
		indexDepth, indexJobs, indexStoreBlobs = saved.indexDepth, saved.indexJobs, saved.indexStoreBlobs
		dumpOutput, dumpColor, dumpDepth = saved.dumpOutput, saved.dumpColor, saved.dumpDepth
		locateOffset, locateIndexed = saved.locateOffset, saved.locateIndexed
	})
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
