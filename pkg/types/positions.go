package types

// Positions holds the debug side tables a parser records for one structure
// instance: start and end offsets of every attribute, plus per-element
// offsets of every repeated attribute.
type Positions struct {
	AttrStart map[string]int64
	AttrEnd   map[string]int64
	ArrStart  map[string][]int64
	ArrEnd    map[string][]int64
}

// NewPositions returns empty side tables ready for recording.
func NewPositions() *Positions {
	return &Positions{
		AttrStart: make(map[string]int64),
		AttrEnd:   make(map[string]int64),
		ArrStart:  make(map[string][]int64),
		ArrEnd:    make(map[string][]int64),
	}
}

// SetAttr records the byte range of attribute name.
func (p *Positions) SetAttr(name string, start, end int64) {
	p.AttrStart[name] = start
	p.AttrEnd[name] = end
}

// BeginElements marks name as a repeated attribute with no elements yet.
func (p *Positions) BeginElements(name string) {
	p.ArrStart[name] = []int64{}
	p.ArrEnd[name] = []int64{}
}

// AppendElement records the byte range of the next element of repeated attribute name.
func (p *Positions) AppendElement(name string, start, end int64) {
	p.ArrStart[name] = append(p.ArrStart[name], start)
	p.ArrEnd[name] = append(p.ArrEnd[name], end)
}

// Attr returns the span of attribute name. Both the start and the end entry
// must be present and form a valid span (see NewSpan).
func (p *Positions) Attr(name string) (Span, bool) {
	if p == nil {
		return Span{}, false
	}
	start, ok := p.AttrStart[name]
	if !ok {
		return Span{}, false
	}
	end, ok := p.AttrEnd[name]
	if !ok {
		return Span{}, false
	}
	span, err := NewSpan(start, end)
	if err != nil {
		return Span{}, false
	}
	return span, true
}

// Elements returns the per-element offsets of repeated attribute name.
func (p *Positions) Elements(name string) (starts, ends []int64, ok bool) {
	if p == nil {
		return nil, nil, false
	}
	starts, okStart := p.ArrStart[name]
	ends, okEnd := p.ArrEnd[name]
	return starts, ends, okStart && okEnd
}
