// Package frontend defines the channel to the remote observer: the
// serialized node payload, the full set of outbound mirror notifications
// and command acknowledgements, and in-process implementations for tests.
//
// All notification methods are fire-and-forget; no method returns an
// error. Transports that can fail (see frontend/wsjson) surface failures
// through their own lifecycle, not through this interface.
package frontend

import (
	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/tree"
)

// Node is the serialized representation of a mirrored node.
//
// Children are truncated to the depth requested by the producer: depth 0
// collapses to a single whitespace-exempt text child only, depth N
// expands N levels, negative depth expands fully.
type Node struct {
	ID         core.NodeID `json:"id"`
	Kind       tree.Kind   `json:"kind"`
	Name       string      `json:"name,omitempty"`
	LocalName  string      `json:"localName,omitempty"`
	Value      string      `json:"value,omitempty"`
	ChildCount int         `json:"childCount,omitempty"`
	Children   []*Node     `json:"children,omitempty"`
	Attributes []tree.Attr `json:"attributes,omitempty"`

	// DocumentURL is set on document nodes and on nodes owning a nested
	// document.
	DocumentURL string `json:"documentURL,omitempty"`

	// PublicID and SystemID are set on doctype nodes.
	PublicID string `json:"publicId,omitempty"`
	SystemID string `json:"systemId,omitempty"`
}

// Frontend is the remote sink receiving mirror updates, search results
// and command acknowledgements.
type Frontend interface {
	// SetDocument replaces the mirrored tree with root; root is nil when
	// the mirror is cleared.
	SetDocument(root *Node)
	// SetDetachedRoot pushes a subtree that is not reachable from the
	// mirrored root.
	SetDetachedRoot(root *Node)
	// SetChildNodes delivers the full child list of parent.
	SetChildNodes(parent core.NodeID, children []*Node)
	// ChildNodeCountUpdated reports a new visible child count for a node
	// whose child list was never requested.
	ChildNodeCountUpdated(parent core.NodeID, count int)
	// ChildNodeInserted reports an insertion below a node whose children
	// were requested. prev is the immediate visible predecessor, or
	// core.None.
	ChildNodeInserted(parent, prev core.NodeID, node *Node)
	// ChildNodeRemoved reports a removal below a node whose children
	// were requested.
	ChildNodeRemoved(parent, child core.NodeID)
	// AttributesUpdated carries the full current attribute list of an
	// element, not a diff.
	AttributesUpdated(id core.NodeID, attrs []tree.Attr)
	// AddNodesToSearchResult delivers one incremental batch of search
	// result IDs; batches may be empty.
	AddNodesToSearchResult(ids []core.NodeID)

	// Command acknowledgements, correlated by the caller-supplied callID.
	DidGetChildren(callID int64)
	DidApplyChange(callID int64, ok bool)
	DidRemoveNode(callID int64, id core.NodeID)
	DidChangeTagName(callID int64, id core.NodeID)
	DidGetOuterMarkup(callID int64, markup string)
	DidSetOuterMarkup(callID int64, id core.NodeID)
	DidResolveNode(callID int64, id core.NodeID)
}

// Discard is a Frontend that drops everything.
type Discard struct{}

func (Discard) SetDocument(*Node)                             {}
func (Discard) SetDetachedRoot(*Node)                         {}
func (Discard) SetChildNodes(core.NodeID, []*Node)            {}
func (Discard) ChildNodeCountUpdated(core.NodeID, int)        {}
func (Discard) ChildNodeInserted(_, _ core.NodeID, _ *Node)   {}
func (Discard) ChildNodeRemoved(_, _ core.NodeID)             {}
func (Discard) AttributesUpdated(core.NodeID, []tree.Attr)    {}
func (Discard) AddNodesToSearchResult([]core.NodeID)          {}
func (Discard) DidGetChildren(int64)                          {}
func (Discard) DidApplyChange(int64, bool)                    {}
func (Discard) DidRemoveNode(int64, core.NodeID)              {}
func (Discard) DidChangeTagName(int64, core.NodeID)           {}
func (Discard) DidGetOuterMarkup(int64, string)               {}
func (Discard) DidSetOuterMarkup(int64, core.NodeID)          {}
func (Discard) DidResolveNode(int64, core.NodeID)             {}

var _ Frontend = Discard{}
