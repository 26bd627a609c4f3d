package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpan(t *testing.T) {
	tests := []struct {
		name      string
		start     int64
		end       int64
		expectErr bool
	}{
		{name: "regular", start: 4, end: 8},
		{name: "empty", start: 8, end: 8},
		{name: "end before start", start: 8, end: 4, expectErr: true},
		{name: "negative start", start: -1, end: 4, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := NewSpan(tt.start, tt.end)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidSpan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, span.Start)
			assert.Equal(t, tt.end, span.End)
		})
	}
}

func TestSpan_HalfOpen(t *testing.T) {
	// [8, 12) covers bytes 8, 9, 10, 11
	span := Span{Start: 8, End: 12}

	assert.Equal(t, int64(4), span.Size())
	assert.True(t, span.Contains(8))
	assert.True(t, span.Contains(11))
	assert.False(t, span.Contains(12))
	assert.False(t, span.Contains(7))
}

func TestSpan_EmptyContainsNothing(t *testing.T) {
	span := Span{Start: 8, End: 8}
	assert.Equal(t, int64(0), span.Size())
	assert.False(t, span.Contains(8))
}

func TestSpan_String(t *testing.T) {
	assert.Equal(t, "[4, 8)", Span{Start: 4, End: 8}.String())
}
