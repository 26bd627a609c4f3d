package tree

import (
	"testing"

	"github.com/praetorian-inc/kstree/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Format(t *testing.T) {
	var nilBytes []byte
	var nilString *string
	hello := "hello"
	count := uint8(7)

	tests := []struct {
		name      string
		formatter *Formatter
		value     any
		want      string
	}{
		{"nil", DefaultFormatter(), nil, "null"},
		{"nil pointer", DefaultFormatter(), nilString, "null"},
		{"string pointer", DefaultFormatter(), &hello, `"hello"`},
		{"integer pointer", DefaultFormatter(), &count, "7"},
		{"stringer pointer", DefaultFormatter(), &types.Span{Start: 1, End: 3}, "[1, 3)"},
		{"empty bytes", DefaultFormatter(), nilBytes, "[]"},
		{"bytes", DefaultFormatter(), []byte{0x89, 0x50, 0x4e}, "[89 50 4E]"},
		{"truncated bytes", &Formatter{MaxBytes: 2}, []byte{1, 2, 3, 4}, "[01 02 ... (4 bytes)]"},
		{"unlimited bytes", &Formatter{}, []byte{1, 2, 3}, "[01 02 03]"},
		{"string", DefaultFormatter(), "IHDR", `"IHDR"`},
		{"stringer", DefaultFormatter(), types.Span{Start: 1, End: 3}, "[1, 3)"},
		{"integer", DefaultFormatter(), uint16(513), "513"},
		{"bool", DefaultFormatter(), true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.formatter.Format(tt.value))
		})
	}
}
