// Package search finds byte patterns in a file so they can be mapped onto
// tree nodes.
package search

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// ErrEmptyPattern is returned for a pattern with no bytes.
var ErrEmptyPattern = errors.New("empty search pattern")

// Pattern is a named byte sequence.
type Pattern struct {
	Name  string
	Bytes []byte
}

// Text returns a pattern matching s literally.
func Text(s string) Pattern {
	return Pattern{Name: fmt.Sprintf("%q", s), Bytes: []byte(s)}
}

// Hex returns a pattern from hex digits; spaces and colons between bytes are ignored.
func Hex(s string) (Pattern, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	clean = strings.TrimPrefix(strings.ToLower(clean), "0x")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return Pattern{}, fmt.Errorf("parsing hex pattern %q: %w", s, err)
	}
	return Pattern{Name: strings.ToUpper(clean), Bytes: b}, nil
}

// Hit is one occurrence of a pattern.
type Hit struct {
	Pattern string
	Span    types.Span
}

// Searcher uses Aho-Corasick to find which patterns occur at all, then
// locates every occurrence of those. A Searcher is not safe for concurrent use.
type Searcher struct {
	matcher  *ahocorasick.Matcher
	patterns []Pattern // pattern at each matcher index
}

// New builds a searcher. Duplicate patterns are searched once.
func New(patterns []Pattern) (*Searcher, error) {
	s := &Searcher{}

	seen := make(map[string]bool)
	var dict [][]byte
	for _, p := range patterns {
		if len(p.Bytes) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyPattern, p.Name)
		}
		key := string(p.Bytes)
		if seen[key] {
			continue
		}
		seen[key] = true
		s.patterns = append(s.patterns, p)
		dict = append(dict, p.Bytes)
	}

	if len(dict) > 0 {
		s.matcher = ahocorasick.NewMatcher(dict)
	}
	return s, nil
}

// Candidates returns the patterns that occur in data at least once.
func (s *Searcher) Candidates(data []byte) []Pattern {
	if s.matcher == nil {
		return nil
	}
	var out []Pattern
	for _, i := range s.matcher.Match(data) {
		out = append(out, s.patterns[i])
	}
	return out
}

// Search returns every occurrence of every pattern, overlapping ones
// included, ordered by offset.
func (s *Searcher) Search(data []byte) []Hit {
	var hits []Hit
	for _, p := range s.Candidates(data) {
		for from := 0; from < len(data); {
			i := bytes.Index(data[from:], p.Bytes)
			if i < 0 {
				break
			}
			start := int64(from + i)
			hits = append(hits, Hit{
				Pattern: p.Name,
				Span:    types.Span{Start: start, End: start + int64(len(p.Bytes))},
			})
			from += i + 1
		}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if a.Span.Start != b.Span.Start {
			return int(a.Span.Start - b.Span.Start)
		}
		return strings.Compare(a.Pattern, b.Pattern)
	})
	return hits
}
