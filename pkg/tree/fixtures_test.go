package tree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"github.com/praetorian-inc/kstree/pkg/schema"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// packet is laid out as:
//
//	magic   4 bytes "PKT1"
//	length  u4le
//	payload length bytes
//	count   u1
//	items   count x item
//
// It also has a construction parameter (version) and two instances
// (is_empty, note).
type packet struct {
	io  *kaitai.Stream
	pos *types.Positions

	version int

	Magic   []byte
	Length  uint32
	Payload []byte
	Count   uint8
	Items   []*item
	Note    *string
}

func (p *packet) TypeName() string            { return "packet" }
func (p *packet) Stream() *kaitai.Stream      { return p.io }
func (p *packet) Positions() *types.Positions { return p.pos }

// item is laid out as: size u1, body size bytes.
type item struct {
	io  *kaitai.Stream
	pos *types.Positions

	Size uint8
	Body []byte
}

func (i *item) TypeName() string            { return "item" }
func (i *item) Stream() *kaitai.Stream      { return i.io }
func (i *item) Positions() *types.Positions { return i.pos }

func testRegistry() *schema.Registry {
	r := schema.NewRegistry()
	r.MustRegister(packetDescriptor, itemDescriptor)
	return r
}

// Members are deliberately not in serialization order.
var packetDescriptor = &schema.Descriptor{
	Type:      "packet",
	SeqFields: []string{"magic", "length", "payload", "count", "items"},
	Instances: []string{"is_empty", "note"},
	Members: []schema.Member{
		{Name: "items", Shape: schema.ShapeRepeated, Type: "item", Get: func(s schema.Struct) (any, error) { return s.(*packet).Items, nil }},
		{Name: "version", Shape: schema.ShapeScalar, Type: "s4", Get: func(s schema.Struct) (any, error) { return s.(*packet).version, nil }},
		{Name: "payload", Shape: schema.ShapeScalar, Type: "bytes", Get: func(s schema.Struct) (any, error) { return s.(*packet).Payload, nil }},
		{Name: "is_empty", Shape: schema.ShapeScalar, Type: "bool", Get: func(s schema.Struct) (any, error) { return s.(*packet).Length == 0, nil }},
		{Name: "magic", Shape: schema.ShapeScalar, Type: "bytes", Get: func(s schema.Struct) (any, error) { return s.(*packet).Magic, nil }},
		{Name: "note", Shape: schema.ShapeScalar, Type: "str", Get: func(s schema.Struct) (any, error) { return s.(*packet).Note, nil }},
		{Name: "count", Shape: schema.ShapeScalar, Type: "u1", Get: func(s schema.Struct) (any, error) { return s.(*packet).Count, nil }},
		{Name: "length", Shape: schema.ShapeScalar, Type: "u4le", Get: func(s schema.Struct) (any, error) { return s.(*packet).Length, nil }},
		{Name: "_io", Shape: schema.ShapeScalar, Type: "stream", Get: func(s schema.Struct) (any, error) { return s.Stream(), nil }},
	},
}

var itemDescriptor = &schema.Descriptor{
	Type:      "item",
	SeqFields: []string{"size", "body"},
	Members: []schema.Member{
		{Name: "size", Shape: schema.ShapeScalar, Type: "u1", Get: func(s schema.Struct) (any, error) { return s.(*item).Size, nil }},
		{Name: "body", Shape: schema.ShapeScalar, Type: "bytes", Get: func(s schema.Struct) (any, error) { return s.(*item).Body, nil }},
	},
}

// encodePacket builds packet bytes holding payload and one item per body.
func encodePacket(payload []byte, bodies ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("PKT1")
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	buf.WriteByte(byte(len(bodies)))
	for _, b := range bodies {
		buf.WriteByte(byte(len(b)))
		buf.Write(b)
	}
	return buf.Bytes()
}

// parsePacket reads a packet, recording positions when debug is set.
func parsePacket(data []byte, version int, debug bool) (*packet, error) {
	ks := kaitai.NewStream(bytes.NewReader(data))
	p := &packet{io: ks, version: version}
	if debug {
		p.pos = types.NewPositions()
	}

	var err error
	start := mark(ks)
	if p.Magic, err = ks.ReadBytes(4); err != nil {
		return nil, err
	}
	record(p.pos, "magic", start, mark(ks))

	start = mark(ks)
	if p.Length, err = ks.ReadU4le(); err != nil {
		return nil, err
	}
	record(p.pos, "length", start, mark(ks))

	start = mark(ks)
	if p.Payload, err = ks.ReadBytes(int(p.Length)); err != nil {
		return nil, err
	}
	record(p.pos, "payload", start, mark(ks))

	start = mark(ks)
	if p.Count, err = ks.ReadU1(); err != nil {
		return nil, err
	}
	record(p.pos, "count", start, mark(ks))

	itemsStart := mark(ks)
	if p.pos != nil {
		p.pos.BeginElements("items")
	}
	for i := 0; i < int(p.Count); i++ {
		elemStart := mark(ks)
		it, err := parseItem(ks, debug)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		p.Items = append(p.Items, it)
		if p.pos != nil {
			p.pos.AppendElement("items", elemStart, mark(ks))
		}
	}
	record(p.pos, "items", itemsStart, mark(ks))

	return p, nil
}

func parseItem(ks *kaitai.Stream, debug bool) (*item, error) {
	it := &item{io: ks}
	if debug {
		it.pos = types.NewPositions()
	}

	var err error
	start := mark(ks)
	if it.Size, err = ks.ReadU1(); err != nil {
		return nil, err
	}
	record(it.pos, "size", start, mark(ks))

	start = mark(ks)
	if it.Body, err = ks.ReadBytes(int(it.Size)); err != nil {
		return nil, err
	}
	record(it.pos, "body", start, mark(ks))

	return it, nil
}

func mark(ks *kaitai.Stream) int64 {
	pos, err := ks.Pos()
	if err != nil {
		panic(err)
	}
	return pos
}

func record(p *types.Positions, name string, start, end int64) {
	if p != nil {
		p.SetAttr(name, start, end)
	}
}

// streamAt returns a stream over size zero bytes positioned at its end, for
// hand-built fixtures whose root span must be size bytes long.
func streamAt(size int64) *kaitai.Stream {
	ks := kaitai.NewStream(bytes.NewReader(make([]byte, size)))
	if _, err := ks.Seek(size, io.SeekStart); err != nil {
		panic(err)
	}
	return ks
}
