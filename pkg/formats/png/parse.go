package png

import (
	"bytes"
	"fmt"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/types"
)

const ihdrSize = 13

// Parse reads a PNG file from ks. With debug set, every structure records
// the offsets of its fields; without it, Positions() returns nil.
func Parse(ks *kaitai.Stream, debug bool) (*File, error) {
	r := &reader{ks: ks, debug: debug}
	f := &File{io: ks, pos: r.positions()}

	err := r.read(f.pos, "magic", func() (err error) {
		f.Magic, err = ks.ReadBytes(len(Magic))
		return err
	})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(f.Magic, Magic) {
		return nil, ErrBadMagic
	}

	err = r.read(f.pos, "ihdr_len", func() (err error) {
		f.IhdrLen, err = ks.ReadU4be()
		return err
	})
	if err != nil {
		return nil, err
	}
	if f.IhdrLen != ihdrSize {
		return nil, fmt.Errorf("%w: length %d", ErrBadHeader, f.IhdrLen)
	}

	err = r.read(f.pos, "ihdr_type", func() error {
		b, err := ks.ReadBytes(4)
		f.IhdrType = string(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	if f.IhdrType != "IHDR" {
		return nil, fmt.Errorf("%w: type %q", ErrBadHeader, f.IhdrType)
	}

	err = r.read(f.pos, "ihdr", func() (err error) {
		f.Ihdr, err = r.ihdr()
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.read(f.pos, "ihdr_crc", func() (err error) {
		f.IhdrCrc, err = ks.ReadBytes(4)
		return err
	})
	if err != nil {
		return nil, err
	}

	if f.pos != nil {
		f.pos.BeginElements("chunks")
	}
	err = r.read(f.pos, "chunks", func() error {
		for {
			eof, err := ks.EOF()
			if err != nil {
				return err
			}
			if eof {
				return nil
			}

			var c *Chunk
			err = r.element(f.pos, "chunks", func() (err error) {
				c, err = r.chunk()
				return err
			})
			if err != nil {
				return fmt.Errorf("chunk %d: %w", len(f.Chunks), err)
			}
			f.Chunks = append(f.Chunks, c)
			if c.Type == "IEND" {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (r *reader) ihdr() (*Ihdr, error) {
	ks := r.ks
	h := &Ihdr{io: ks, pos: r.positions()}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"width", func() (err error) { h.Width, err = ks.ReadU4be(); return err }},
		{"height", func() (err error) { h.Height, err = ks.ReadU4be(); return err }},
		{"bit_depth", func() (err error) { h.BitDepth, err = ks.ReadU1(); return err }},
		{"color_type", func() error {
			v, err := ks.ReadU1()
			h.ColorType = ColorType(v)
			return err
		}},
		{"compression_method", func() (err error) { h.CompressionMethod, err = ks.ReadU1(); return err }},
		{"filter_method", func() (err error) { h.FilterMethod, err = ks.ReadU1(); return err }},
		{"interlace_method", func() (err error) { h.InterlaceMethod, err = ks.ReadU1(); return err }},
	}
	for _, s := range steps {
		if err := r.read(h.pos, s.name, s.fn); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (r *reader) chunk() (*Chunk, error) {
	ks := r.ks
	c := &Chunk{io: ks, pos: r.positions()}

	err := r.read(c.pos, "len", func() (err error) {
		c.Len, err = ks.ReadU4be()
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.read(c.pos, "type", func() error {
		b, err := ks.ReadBytes(4)
		c.Type = string(b)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.read(c.pos, "body", func() error {
		if c.Type == "tEXt" {
			text, err := r.text(c.Len)
			if err != nil {
				return err
			}
			c.Body = text
			c.raw = append(append([]byte(text.Keyword), 0), text.Text...)
			return nil
		}
		b, err := ks.ReadBytes(int(c.Len))
		c.Body = b
		c.raw = b
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.read(c.pos, "crc", func() (err error) {
		c.Crc, err = ks.ReadBytes(4)
		return err
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// text reads a tEXt body of size bytes: a NUL-terminated keyword followed by
// the text itself.
func (r *reader) text(size uint32) (*TextChunk, error) {
	ks := r.ks
	t := &TextChunk{io: ks, pos: r.positions()}

	var consumed uint32
	err := r.read(t.pos, "keyword", func() error {
		var kw []byte
		for {
			if consumed == size {
				return fmt.Errorf("keyword is not terminated within %d bytes", size)
			}
			b, err := ks.ReadU1()
			if err != nil {
				return err
			}
			consumed++
			if b == 0 {
				break
			}
			kw = append(kw, b)
		}
		t.Keyword = string(kw)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.read(t.pos, "text", func() error {
		b, err := ks.ReadBytes(int(size - consumed))
		t.Text = string(b)
		return err
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// reader wraps a stream and records field offsets while reading.
type reader struct {
	ks    *kaitai.Stream
	debug bool
}

func (r *reader) positions() *types.Positions {
	if !r.debug {
		return nil
	}
	return types.NewPositions()
}

// read runs fn and records the bytes it consumed as attribute name of p.
func (r *reader) read(p *types.Positions, name string, fn func() error) error {
	start, end, err := r.measure(fn)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if p != nil {
		p.SetAttr(name, start, end)
	}
	return nil
}

// element runs fn and records the bytes it consumed as the next element of
// repeated attribute name of p.
func (r *reader) element(p *types.Positions, name string, fn func() error) error {
	start, end, err := r.measure(fn)
	if err != nil {
		return err
	}
	if p != nil {
		p.AppendElement(name, start, end)
	}
	return nil
}

func (r *reader) measure(fn func() error) (start, end int64, err error) {
	if start, err = r.ks.Pos(); err != nil {
		return 0, 0, err
	}
	if err = fn(); err != nil {
		return 0, 0, err
	}
	if end, err = r.ks.Pos(); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
