package types

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// ContentID identifies an input file by content: Git-style SHA-1 of
// "blob {len}\0{content}". Indexing the same bytes twice yields the same ID.
type ContentID [20]byte

// ComputeContentID hashes content.
func ComputeContentID(content []byte) ContentID {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)

	var id ContentID
	copy(id[:], h.Sum(nil))
	return id
}

// Hex returns 40-character hex string.
func (id ContentID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id ContentID) String() string {
	return id.Hex()
}

// ParseContentID parses a 40-char hex string.
func ParseContentID(hexStr string) (ContentID, error) {
	if len(hexStr) != 40 {
		return ContentID{}, fmt.Errorf("invalid content ID length: expected 40, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var id ContentID
	copy(id[:], decoded)
	return id, nil
}
