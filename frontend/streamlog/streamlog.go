// Package streamlog is a capture middleware: it wraps a Frontend and
// tees every outbound message as a zstd-compressed JSON line to a
// writer. Captures replay in tests and debug sessions via Decode.
package streamlog

import (
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/frontend"
	"github.com/hupe1980/treemirror/tree"
)

// Record is one captured message. Only the fields relevant to the method
// are populated.
type Record struct {
	Method string `json:"method"`

	Parent core.NodeID `json:"parentId,omitempty"`
	Prev   core.NodeID `json:"previousId,omitempty"`
	Child  core.NodeID `json:"childId,omitempty"`
	ID     core.NodeID `json:"nodeId,omitempty"`
	Count  int         `json:"childNodeCount,omitempty"`
	CallID int64       `json:"callId,omitempty"`
	OK     bool        `json:"ok,omitempty"`
	Markup string      `json:"markup,omitempty"`

	Node     *frontend.Node   `json:"node,omitempty"`
	Children []*frontend.Node `json:"nodes,omitempty"`
	Attrs    []tree.Attr      `json:"attributes,omitempty"`
	IDs      []core.NodeID    `json:"nodeIds,omitempty"`
}

// Frontend tees every message to the capture stream before forwarding it
// to the wrapped sink. Close flushes the compressed stream; messages sent
// after Close are forwarded but no longer captured.
type Frontend struct {
	next frontend.Frontend

	mu  sync.Mutex
	zw  *zstd.Encoder
	enc *json.Encoder
}

// New wraps next, capturing to w.
func New(next frontend.Frontend, w io.Writer) (*Frontend, error) {
	if next == nil {
		return nil, errors.New("streamlog: next frontend must not be nil")
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &Frontend{
		next: next,
		zw:   zw,
		enc:  json.NewEncoder(zw),
	}, nil
}

// Close flushes and closes the capture stream. The wrapped frontend is
// not closed.
func (f *Frontend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zw == nil {
		return nil
	}
	err := f.zw.Close()
	f.zw = nil
	f.enc = nil
	return err
}

func (f *Frontend) capture(r Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enc == nil {
		return
	}
	// Encode failures poison the stream; stop capturing.
	if err := f.enc.Encode(r); err != nil {
		f.zw.Close()
		f.zw = nil
		f.enc = nil
	}
}

func (f *Frontend) SetDocument(root *frontend.Node) {
	f.capture(Record{Method: "setDocument", Node: root})
	f.next.SetDocument(root)
}

func (f *Frontend) SetDetachedRoot(root *frontend.Node) {
	f.capture(Record{Method: "setDetachedRoot", Node: root})
	f.next.SetDetachedRoot(root)
}

func (f *Frontend) SetChildNodes(parent core.NodeID, children []*frontend.Node) {
	f.capture(Record{Method: "setChildNodes", Parent: parent, Children: children})
	f.next.SetChildNodes(parent, children)
}

func (f *Frontend) ChildNodeCountUpdated(parent core.NodeID, count int) {
	f.capture(Record{Method: "childNodeCountUpdated", Parent: parent, Count: count})
	f.next.ChildNodeCountUpdated(parent, count)
}

func (f *Frontend) ChildNodeInserted(parent, prev core.NodeID, node *frontend.Node) {
	f.capture(Record{Method: "childNodeInserted", Parent: parent, Prev: prev, Node: node})
	f.next.ChildNodeInserted(parent, prev, node)
}

func (f *Frontend) ChildNodeRemoved(parent, child core.NodeID) {
	f.capture(Record{Method: "childNodeRemoved", Parent: parent, Child: child})
	f.next.ChildNodeRemoved(parent, child)
}

func (f *Frontend) AttributesUpdated(id core.NodeID, attrs []tree.Attr) {
	f.capture(Record{Method: "attributesUpdated", ID: id, Attrs: attrs})
	f.next.AttributesUpdated(id, attrs)
}

func (f *Frontend) AddNodesToSearchResult(ids []core.NodeID) {
	f.capture(Record{Method: "addNodesToSearchResult", IDs: ids})
	f.next.AddNodesToSearchResult(ids)
}

func (f *Frontend) DidGetChildren(callID int64) {
	f.capture(Record{Method: "didGetChildren", CallID: callID})
	f.next.DidGetChildren(callID)
}

func (f *Frontend) DidApplyChange(callID int64, ok bool) {
	f.capture(Record{Method: "didApplyChange", CallID: callID, OK: ok})
	f.next.DidApplyChange(callID, ok)
}

func (f *Frontend) DidRemoveNode(callID int64, id core.NodeID) {
	f.capture(Record{Method: "didRemoveNode", CallID: callID, ID: id})
	f.next.DidRemoveNode(callID, id)
}

func (f *Frontend) DidChangeTagName(callID int64, id core.NodeID) {
	f.capture(Record{Method: "didChangeTagName", CallID: callID, ID: id})
	f.next.DidChangeTagName(callID, id)
}

func (f *Frontend) DidGetOuterMarkup(callID int64, markup string) {
	f.capture(Record{Method: "didGetOuterMarkup", CallID: callID, Markup: markup})
	f.next.DidGetOuterMarkup(callID, markup)
}

func (f *Frontend) DidSetOuterMarkup(callID int64, id core.NodeID) {
	f.capture(Record{Method: "didSetOuterMarkup", CallID: callID, ID: id})
	f.next.DidSetOuterMarkup(callID, id)
}

func (f *Frontend) DidResolveNode(callID int64, id core.NodeID) {
	f.capture(Record{Method: "didResolveNode", CallID: callID, ID: id})
	f.next.DidResolveNode(callID, id)
}

// Decode reads a capture stream back into records.
func Decode(r io.Reader) ([]Record, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []Record
	dec := json.NewDecoder(zr)
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

var _ frontend.Frontend = (*Frontend)(nil)
