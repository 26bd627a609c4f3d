// Package png parses PNG files into structures that carry the byte offsets of
// every field, so they can be browsed as span-annotated trees.
package png

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// Magic is the 8-byte PNG signature.
var Magic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

var (
	// ErrBadMagic is returned when the input does not start with the PNG signature.
	ErrBadMagic = errors.New("not a PNG file")

	// ErrBadHeader is returned when the first chunk is not a well-formed IHDR.
	ErrBadHeader = errors.New("malformed IHDR chunk")
)

// ColorType is the IHDR color type.
type ColorType uint8

const (
	ColorGreyscale      ColorType = 0
	ColorTruecolor      ColorType = 2
	ColorIndexed        ColorType = 3
	ColorGreyscaleAlpha ColorType = 4
	ColorTruecolorAlpha ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case ColorGreyscale:
		return "greyscale"
	case ColorTruecolor:
		return "truecolor"
	case ColorIndexed:
		return "indexed"
	case ColorGreyscaleAlpha:
		return "greyscale_alpha"
	case ColorTruecolorAlpha:
		return "truecolor_alpha"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// File is a whole PNG file.
type File struct {
	io  *kaitai.Stream
	pos *types.Positions

	Magic    []byte
	IhdrLen  uint32
	IhdrType string
	Ihdr     *Ihdr
	IhdrCrc  []byte
	Chunks   []*Chunk
}

func (f *File) TypeName() string            { return "png" }
func (f *File) Stream() *kaitai.Stream      { return f.io }
func (f *File) Positions() *types.Positions { return f.pos }

// Ihdr is the image header.
type Ihdr struct {
	io  *kaitai.Stream
	pos *types.Positions

	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         ColorType
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

func (h *Ihdr) TypeName() string            { return "ihdr_chunk" }
func (h *Ihdr) Stream() *kaitai.Stream      { return h.io }
func (h *Ihdr) Positions() *types.Positions { return h.pos }

// Chunk is any chunk after IHDR. Body is a *TextChunk for tEXt chunks and raw
// bytes otherwise.
type Chunk struct {
	io  *kaitai.Stream
	pos *types.Positions

	Len  uint32
	Type string
	Body any
	Crc  []byte

	raw []byte
}

func (c *Chunk) TypeName() string            { return "chunk" }
func (c *Chunk) Stream() *kaitai.Stream      { return c.io }
func (c *Chunk) Positions() *types.Positions { return c.pos }

// IsCritical reports whether decoders must understand the chunk: bit 5 of the
// first type byte is clear.
func (c *Chunk) IsCritical() bool {
	return len(c.Type) > 0 && c.Type[0]&0x20 == 0
}

// CrcValid reports whether the stored CRC matches type and body.
func (c *Chunk) CrcValid() bool {
	sum := crc32.NewIEEE()
	sum.Write([]byte(c.Type))
	sum.Write(c.raw)
	return bytes.Equal(sum.Sum(nil), c.Crc)
}

// TextChunk is the body of a tEXt chunk.
type TextChunk struct {
	io  *kaitai.Stream
	pos *types.Positions

	Keyword string
	Text    string
}

func (t *TextChunk) TypeName() string            { return "text_chunk" }
func (t *TextChunk) Stream() *kaitai.Stream      { return t.io }
func (t *TextChunk) Positions() *types.Positions { return t.pos }
