package serve

import (
	"encoding/json"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "open" | "children" | "locate" | "release" | "close"
	Payload json.RawMessage `json:"payload"`
}

// OpenPayload is the payload for "open" requests
type OpenPayload struct {
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// ChildrenPayload is the payload for "children" requests
type ChildrenPayload struct {
	Document int `json:"document"`
	Node     int `json:"node"`
}

// LocatePayload is the payload for "locate" requests
type LocatePayload struct {
	Document int   `json:"document"`
	Offset   int64 `json:"offset"`
}

// ReleasePayload is the payload for "release" requests
type ReleasePayload struct {
	Document int `json:"document"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | request type | "error"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
}

// NodeInfo describes one node. ID is only meaningful within its document.
type NodeInfo struct {
	ID         int    `json:"id"`
	Path       string `json:"path"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Type       string `json:"type,omitempty"`
	Start      *int64 `json:"start,omitempty"`
	End        *int64 `json:"end,omitempty"`
	Value      string `json:"value,omitempty"`
	ChildCount int    `json:"child_count"`
	Label      string `json:"label"`
}

// OpenData is the data field for "open" responses
type OpenData struct {
	Document int      `json:"document"`
	Root     NodeInfo `json:"root"`
}

// ChildData is one entry of a "children" response. Node is nil when the
// child failed to build.
type ChildData struct {
	Index int       `json:"index"`
	Node  *NodeInfo `json:"node,omitempty"`
	Error string    `json:"error,omitempty"`
}

// ChildrenData is the data field for "children" responses
type ChildrenData struct {
	Children []ChildData `json:"children"`
}

// LocateData is the data field for "locate" responses. Chain runs from the
// root to the deepest node covering the offset.
type LocateData struct {
	Chain []NodeInfo `json:"chain"`
}
