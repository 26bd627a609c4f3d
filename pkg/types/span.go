package types

import (
	"errors"
	"fmt"
)

// ErrInvalidSpan is returned when a span would end before it starts or start
// before the beginning of the stream.
var ErrInvalidSpan = errors.New("invalid span")

// Span is byte range [Start, End) - half-open interval, relative to the root stream.
type Span struct {
	Start int64
	End   int64
}

// NewSpan validates and builds a span.
func NewSpan(start, end int64) (Span, error) {
	if start < 0 || end < start {
		return Span{}, fmt.Errorf("%w: start=%d end=%d", ErrInvalidSpan, start, end)
	}
	return Span{Start: start, End: end}, nil
}

// Size returns the number of bytes covered by the span.
func (s Span) Size() int64 {
	return s.End - s.Start
}

// Contains reports whether offset falls inside [Start, End).
func (s Span) Contains(offset int64) bool {
	return offset >= s.Start && offset < s.End
}

// String renders the span as "[start, end)".
func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
