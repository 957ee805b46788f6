package frontend

import (
	"sync"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/tree"
)

// Message is one recorded frontend call. Only the fields relevant to the
// method are populated.
type Message struct {
	Method string

	Parent core.NodeID
	Prev   core.NodeID
	Child  core.NodeID
	ID     core.NodeID
	Count  int
	CallID int64
	OK     bool
	Markup string

	Node     *Node
	Children []*Node
	Attrs    []tree.Attr
	IDs      []core.NodeID
}

// Recorder is a Frontend that records every call, for tests. It is safe
// for concurrent use; the incremental search worker reports from its own
// goroutine.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a snapshot of all recorded calls in order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// ByMethod returns all recorded calls with the given method name.
func (r *Recorder) ByMethod(method string) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Method == method {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent call with the given method name and
// whether one was recorded.
func (r *Recorder) Last(method string) (Message, bool) {
	msgs := r.ByMethod(method)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

func (r *Recorder) SetDocument(root *Node) {
	r.add(Message{Method: "setDocument", Node: root})
}

func (r *Recorder) SetDetachedRoot(root *Node) {
	r.add(Message{Method: "setDetachedRoot", Node: root})
}

func (r *Recorder) SetChildNodes(parent core.NodeID, children []*Node) {
	r.add(Message{Method: "setChildNodes", Parent: parent, Children: children})
}

func (r *Recorder) ChildNodeCountUpdated(parent core.NodeID, count int) {
	r.add(Message{Method: "childNodeCountUpdated", Parent: parent, Count: count})
}

func (r *Recorder) ChildNodeInserted(parent, prev core.NodeID, node *Node) {
	r.add(Message{Method: "childNodeInserted", Parent: parent, Prev: prev, Node: node})
}

func (r *Recorder) ChildNodeRemoved(parent, child core.NodeID) {
	r.add(Message{Method: "childNodeRemoved", Parent: parent, Child: child})
}

func (r *Recorder) AttributesUpdated(id core.NodeID, attrs []tree.Attr) {
	r.add(Message{Method: "attributesUpdated", ID: id, Attrs: attrs})
}

func (r *Recorder) AddNodesToSearchResult(ids []core.NodeID) {
	r.add(Message{Method: "addNodesToSearchResult", IDs: ids})
}

func (r *Recorder) DidGetChildren(callID int64) {
	r.add(Message{Method: "didGetChildren", CallID: callID})
}

func (r *Recorder) DidApplyChange(callID int64, ok bool) {
	r.add(Message{Method: "didApplyChange", CallID: callID, OK: ok})
}

func (r *Recorder) DidRemoveNode(callID int64, id core.NodeID) {
	r.add(Message{Method: "didRemoveNode", CallID: callID, ID: id})
}

func (r *Recorder) DidChangeTagName(callID int64, id core.NodeID) {
	r.add(Message{Method: "didChangeTagName", CallID: callID, ID: id})
}

func (r *Recorder) DidGetOuterMarkup(callID int64, markup string) {
	r.add(Message{Method: "didGetOuterMarkup", CallID: callID, Markup: markup})
}

func (r *Recorder) DidSetOuterMarkup(callID int64, id core.NodeID) {
	r.add(Message{Method: "didSetOuterMarkup", CallID: callID, ID: id})
}

func (r *Recorder) DidResolveNode(callID int64, id core.NodeID) {
	r.add(Message{Method: "didResolveNode", CallID: callID, ID: id})
}

var _ Frontend = (*Recorder)(nil)
