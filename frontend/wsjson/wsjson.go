// Package wsjson carries the mirror protocol over a websocket, one JSON
// frame per message. Outbound traffic implements frontend.Frontend;
// inbound command frames are dispatched to an agent by Serve.
package wsjson

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/frontend"
	"github.com/hupe1980/treemirror/tree"
)

// frame is one outbound protocol message.
type frame struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type setDocumentParams struct {
	Root *frontend.Node `json:"root"`
}

type setChildNodesParams struct {
	ParentID core.NodeID      `json:"parentId"`
	Nodes    []*frontend.Node `json:"nodes"`
}

type childNodeCountParams struct {
	NodeID core.NodeID `json:"nodeId"`
	Count  int         `json:"childNodeCount"`
}

type childNodeInsertedParams struct {
	ParentID   core.NodeID    `json:"parentId"`
	PreviousID core.NodeID    `json:"previousId"`
	Node       *frontend.Node `json:"node"`
}

type childNodeRemovedParams struct {
	ParentID core.NodeID `json:"parentId"`
	NodeID   core.NodeID `json:"nodeId"`
}

type attributesUpdatedParams struct {
	NodeID     core.NodeID `json:"nodeId"`
	Attributes []tree.Attr `json:"attributes"`
}

type searchResultsParams struct {
	NodeIDs []core.NodeID `json:"nodeIds"`
}

type ackParams struct {
	CallID int64       `json:"callId"`
	NodeID core.NodeID `json:"nodeId,omitempty"`
	OK     *bool       `json:"ok,omitempty"`
	Markup string      `json:"markup,omitempty"`
}

// Frontend sends mirror messages over a websocket connection. Writes are
// serialized internally; the first write error is retained and all later
// sends become no-ops, so a dead connection degrades to a discard sink.
type Frontend struct {
	mu   sync.Mutex
	conn *websocket.Conn
	err  error
}

// NewFrontend wraps an established websocket connection.
func NewFrontend(conn *websocket.Conn) *Frontend {
	return &Frontend{conn: conn}
}

// Err returns the first write error, nil while the connection is healthy.
func (f *Frontend) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close closes the underlying connection.
func (f *Frontend) Close() error {
	return f.conn.Close()
}

func (f *Frontend) send(method string, params any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return
	}
	f.err = f.conn.WriteJSON(frame{Method: method, Params: params})
}

func (f *Frontend) SetDocument(root *frontend.Node) {
	f.send("setDocument", setDocumentParams{Root: root})
}

func (f *Frontend) SetDetachedRoot(root *frontend.Node) {
	f.send("setDetachedRoot", setDocumentParams{Root: root})
}

func (f *Frontend) SetChildNodes(parent core.NodeID, children []*frontend.Node) {
	f.send("setChildNodes", setChildNodesParams{ParentID: parent, Nodes: children})
}

func (f *Frontend) ChildNodeCountUpdated(parent core.NodeID, count int) {
	f.send("childNodeCountUpdated", childNodeCountParams{NodeID: parent, Count: count})
}

func (f *Frontend) ChildNodeInserted(parent, prev core.NodeID, node *frontend.Node) {
	f.send("childNodeInserted", childNodeInsertedParams{ParentID: parent, PreviousID: prev, Node: node})
}

func (f *Frontend) ChildNodeRemoved(parent, child core.NodeID) {
	f.send("childNodeRemoved", childNodeRemovedParams{ParentID: parent, NodeID: child})
}

func (f *Frontend) AttributesUpdated(id core.NodeID, attrs []tree.Attr) {
	f.send("attributesUpdated", attributesUpdatedParams{NodeID: id, Attributes: attrs})
}

func (f *Frontend) AddNodesToSearchResult(ids []core.NodeID) {
	if ids == nil {
		ids = []core.NodeID{}
	}
	f.send("addNodesToSearchResult", searchResultsParams{NodeIDs: ids})
}

func (f *Frontend) DidGetChildren(callID int64) {
	f.send("didGetChildren", ackParams{CallID: callID})
}

func (f *Frontend) DidApplyChange(callID int64, ok bool) {
	f.send("didApplyChange", ackParams{CallID: callID, OK: &ok})
}

func (f *Frontend) DidRemoveNode(callID int64, id core.NodeID) {
	f.send("didRemoveNode", ackParams{CallID: callID, NodeID: id})
}

func (f *Frontend) DidChangeTagName(callID int64, id core.NodeID) {
	f.send("didChangeTagName", ackParams{CallID: callID, NodeID: id})
}

func (f *Frontend) DidGetOuterMarkup(callID int64, markup string) {
	f.send("didGetOuterMarkup", ackParams{CallID: callID, Markup: markup})
}

func (f *Frontend) DidSetOuterMarkup(callID int64, id core.NodeID) {
	f.send("didSetOuterMarkup", ackParams{CallID: callID, NodeID: id})
}

func (f *Frontend) DidResolveNode(callID int64, id core.NodeID) {
	f.send("didResolveNode", ackParams{CallID: callID, NodeID: id})
}

var _ frontend.Frontend = (*Frontend)(nil)
