package tree

import (
	"fmt"
	"reflect"
	"strings"
)

// Formatter renders scalar values for node labels.
type Formatter struct {
	// MaxBytes limits how many bytes of a byte slice are shown. Zero shows all.
	MaxBytes int
}

// DefaultFormatter shows up to 32 bytes of binary values.
func DefaultFormatter() *Formatter {
	return &Formatter{MaxBytes: 32}
}

// Format renders v. Nil values render as "null"; other pointers render as
// the value they point to unless they implement fmt.Stringer.
func (f *Formatter) Format(v any) string {
	if isNil(v) {
		return "null"
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if _, ok := v.(fmt.Stringer); !ok {
			return f.Format(rv.Elem().Interface())
		}
	}

	switch x := v.(type) {
	case []byte:
		return f.formatBytes(x)
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

func (f *Formatter) formatBytes(b []byte) string {
	shown := b
	if f.MaxBytes > 0 && len(b) > f.MaxBytes {
		shown = b[:f.MaxBytes]
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range shown {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	if len(shown) < len(b) {
		fmt.Fprintf(&sb, " ... (%d bytes)", len(b))
	}
	sb.WriteByte(']')
	return sb.String()
}
