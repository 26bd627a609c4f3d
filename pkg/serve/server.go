// Package serve exposes node trees to other processes over NDJSON on
// stdin and stdout, so editors and hex viewers can browse them lazily.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/praetorian-inc/kstree/pkg/store"
	"github.com/praetorian-inc/kstree/pkg/tree"
)

// Version is the server protocol version
const Version = "1.0.0"

// OpenFunc parses the file at path. An empty format means detect.
type OpenFunc func(path, format string) (*tree.Tree, error)

// Server holds the documents opened by one client.
type Server struct {
	open    OpenFunc
	docs    map[int]*tree.Tree
	nextDoc int
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server
func NewServer(open OpenFunc, in io.Reader, out io.Writer) *Server {
	return &Server{
		open:    open,
		docs:    make(map[int]*tree.Tree),
		nextDoc: 1,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	var (
		data any
		err  error
	)
	switch req.Type {
	case "open":
		data, err = s.handleOpen(req.Payload)
	case "children":
		data, err = s.handleChildren(req.Payload)
	case "locate":
		data, err = s.handleLocate(req.Payload)
	case "release":
		data, err = s.handleRelease(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
		return false
	}

	if err != nil {
		s.sendError(req.Type, err.Error())
		return false
	}
	s.send(req.Type, data)
	return false
}

func (s *Server) handleOpen(payload json.RawMessage) (any, error) {
	var p OpenPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	t, err := s.open(p.Path, p.Format)
	if err != nil {
		return nil, err
	}

	id := s.nextDoc
	s.nextDoc++
	s.docs[id] = t
	return OpenData{Document: id, Root: nodeInfo(t.Root())}, nil
}

func (s *Server) handleChildren(payload json.RawMessage) (any, error) {
	var p ChildrenPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	t, err := s.document(p.Document)
	if err != nil {
		return nil, err
	}
	n, ok := t.Node(tree.NodeID(p.Node))
	if !ok {
		return nil, fmt.Errorf("document %d has no node %d", p.Document, p.Node)
	}

	out := ChildrenData{Children: []ChildData{}}
	for i := 0; i < n.ChildCount(); i++ {
		c, err := n.ChildAt(i)
		if err != nil {
			out.Children = append(out.Children, ChildData{Index: i, Error: err.Error()})
			continue
		}
		info := nodeInfo(c)
		out.Children = append(out.Children, ChildData{Index: i, Node: &info})
	}
	return out, nil
}

func (s *Server) handleLocate(payload json.RawMessage) (any, error) {
	var p LocatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	t, err := s.document(p.Document)
	if err != nil {
		return nil, err
	}
	n, ok := tree.Locate(t.Root(), p.Offset)
	if !ok {
		return nil, fmt.Errorf("no node covers offset %d", p.Offset)
	}

	var chain []NodeInfo
	for cur := n; cur != nil; cur = cur.Parent() {
		chain = append(chain, nodeInfo(cur))
	}
	slices.Reverse(chain)
	return LocateData{Chain: chain}, nil
}

func (s *Server) handleRelease(payload json.RawMessage) (any, error) {
	var p ReleasePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if _, err := s.document(p.Document); err != nil {
		return nil, err
	}
	delete(s.docs, p.Document)
	return struct{}{}, nil
}

func (s *Server) document(id int) (*tree.Tree, error) {
	t, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("unknown document: %d", id)
	}
	return t, nil
}

func nodeInfo(n tree.Node) NodeInfo {
	rec := store.NewRecord(n, tree.Depth(n))
	info := NodeInfo{
		ID:         int(n.ID()),
		Path:       rec.Path,
		Name:       rec.Name,
		Kind:       rec.Kind,
		Type:       rec.Type,
		Value:      rec.Value,
		ChildCount: n.ChildCount(),
		Label:      n.String(),
	}
	if rec.HasSpan {
		info.Start, info.End = &rec.Start, &rec.End
	}
	return info
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version})
}

func (s *Server) send(reqType string, v any) {
	data, _ := json.Marshal(v)
	s.encoder.Encode(Response{
		Success: true,
		Type:    reqType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
