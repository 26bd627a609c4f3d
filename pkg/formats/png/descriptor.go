package png

import "github.com/praetorian-inc/kstree/pkg/schema"

// Register adds the descriptors of every PNG structure type to r.
func Register(r *schema.Registry) error {
	for _, d := range descriptors() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func descriptors() []*schema.Descriptor {
	return []*schema.Descriptor{
		{
			Type:      "png",
			SeqFields: []string{"magic", "ihdr_len", "ihdr_type", "ihdr", "ihdr_crc", "chunks"},
			Members: []schema.Member{
				fileMember("magic", schema.ShapeScalar, "bytes", func(f *File) any { return f.Magic }),
				fileMember("ihdr_len", schema.ShapeScalar, "u4be", func(f *File) any { return f.IhdrLen }),
				fileMember("ihdr_type", schema.ShapeScalar, "str", func(f *File) any { return f.IhdrType }),
				fileMember("ihdr", schema.ShapeStruct, "ihdr_chunk", func(f *File) any { return f.Ihdr }),
				fileMember("ihdr_crc", schema.ShapeScalar, "bytes", func(f *File) any { return f.IhdrCrc }),
				fileMember("chunks", schema.ShapeRepeated, "chunk", func(f *File) any { return f.Chunks }),
				fileMember("_io", schema.ShapeScalar, "stream", func(f *File) any { return f.io }),
			},
		},
		{
			Type:      "ihdr_chunk",
			SeqFields: []string{"width", "height", "bit_depth", "color_type", "compression_method", "filter_method", "interlace_method"},
			Members: []schema.Member{
				ihdrMember("width", "u4be", func(h *Ihdr) any { return h.Width }),
				ihdrMember("height", "u4be", func(h *Ihdr) any { return h.Height }),
				ihdrMember("bit_depth", "u1", func(h *Ihdr) any { return h.BitDepth }),
				ihdrMember("color_type", "color_type", func(h *Ihdr) any { return h.ColorType }),
				ihdrMember("compression_method", "u1", func(h *Ihdr) any { return h.CompressionMethod }),
				ihdrMember("filter_method", "u1", func(h *Ihdr) any { return h.FilterMethod }),
				ihdrMember("interlace_method", "u1", func(h *Ihdr) any { return h.InterlaceMethod }),
			},
		},
		{
			Type:      "chunk",
			SeqFields: []string{"len", "type", "body", "crc"},
			Instances: []string{"is_critical", "crc_valid"},
			Members: []schema.Member{
				chunkMember("len", "u4be", func(c *Chunk) any { return c.Len }),
				chunkMember("type", "str", func(c *Chunk) any { return c.Type }),
				chunkMember("body", "bytes", func(c *Chunk) any { return c.Body }),
				chunkMember("crc", "bytes", func(c *Chunk) any { return c.Crc }),
				chunkMember("is_critical", "bool", func(c *Chunk) any { return c.IsCritical() }),
				chunkMember("crc_valid", "bool", func(c *Chunk) any { return c.CrcValid() }),
			},
		},
		{
			Type:      "text_chunk",
			SeqFields: []string{"keyword", "text"},
			Members: []schema.Member{
				{Name: "keyword", Shape: schema.ShapeScalar, Type: "strz", Get: func(s schema.Struct) (any, error) { return s.(*TextChunk).Keyword, nil }},
				{Name: "text", Shape: schema.ShapeScalar, Type: "str", Get: func(s schema.Struct) (any, error) { return s.(*TextChunk).Text, nil }},
			},
		},
	}
}

func fileMember(name string, shape schema.Shape, typ string, get func(*File) any) schema.Member {
	return schema.Member{Name: name, Shape: shape, Type: typ, Get: func(s schema.Struct) (any, error) {
		return get(s.(*File)), nil
	}}
}

func ihdrMember(name, typ string, get func(*Ihdr) any) schema.Member {
	return schema.Member{Name: name, Shape: schema.ShapeScalar, Type: typ, Get: func(s schema.Struct) (any, error) {
		return get(s.(*Ihdr)), nil
	}}
}

func chunkMember(name, typ string, get func(*Chunk) any) schema.Member {
	return schema.Member{Name: name, Shape: schema.ShapeScalar, Type: typ, Get: func(s schema.Struct) (any, error) {
		return get(s.(*Chunk)), nil
	}}
}
