package treemirror

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/search"
	"github.com/hupe1980/treemirror/tree"
)

// Commands are the frontend-facing operation surface. Every command takes
// the caller-supplied callID used to correlate its acknowledgement and
// always acks through the frontend: failures ack with a zero ID, a false
// flag or an empty payload, and are also returned as an error.
//
// Commands that mutate the tree release the agent mutex first: the
// mutation re-enters the agent through the document observer, which
// forwards the change as a regular notification before the ack is sent.

// resolve looks up id and returns the bound node.
func (a *Agent) resolve(id core.NodeID) (tree.Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.documents) == 0 {
		return nil, ErrNoDocument
	}
	n := a.binder.Resolve(id)
	if n == nil {
		return nil, &ErrUnknownNode{ID: id}
	}
	return n, nil
}

func (a *Agent) finishCommand(method string, callID int64, start time.Time, err error) error {
	a.metrics.RecordCommand(method, time.Since(start), err)
	a.logger.LogCommand(method, callID, err)
	return err
}

// GetChildren pushes the full child list of id to the frontend and acks.
// Re-requesting already-pushed children acks without resending.
func (a *Agent) GetChildren(callID int64, id core.NodeID) error {
	start := time.Now()

	_, err := a.resolve(id)
	if err == nil {
		a.mu.Lock()
		a.pushChildrenLocked(id)
		a.mu.Unlock()
	}

	a.frontend.DidGetChildren(callID)
	return a.finishCommand("getChildren", callID, start, err)
}

// SetAttribute sets or replaces an attribute on the element id. The
// resulting attribute notification carries the full attribute list; the
// ack only reports success.
func (a *Agent) SetAttribute(callID int64, id core.NodeID, name, value string) error {
	start := time.Now()

	n, err := a.resolve(id)
	if err == nil && n.Kind() != tree.KindElement {
		err = ErrNotElement
	}
	if err == nil {
		err = n.SetAttribute(name, value)
	}

	a.frontend.DidApplyChange(callID, err == nil)
	return a.finishCommand("setAttribute", callID, start, err)
}

// RemoveAttribute removes an attribute from the element id.
func (a *Agent) RemoveAttribute(callID int64, id core.NodeID, name string) error {
	start := time.Now()

	n, err := a.resolve(id)
	if err == nil && n.Kind() != tree.KindElement {
		err = ErrNotElement
	}
	if err == nil {
		err = n.RemoveAttribute(name)
	}

	a.frontend.DidApplyChange(callID, err == nil)
	return a.finishCommand("removeAttribute", callID, start, err)
}

// SetTextValue replaces the character data of the text node id. Value
// edits produce no mirror notification; the ack is the only signal.
func (a *Agent) SetTextValue(callID int64, id core.NodeID, value string) error {
	start := time.Now()

	n, err := a.resolve(id)
	if err == nil && n.Kind() != tree.KindText {
		err = fmt.Errorf("set text value: node %d is %s, not text", id, n.Kind())
	}
	if err == nil {
		err = n.SetValue(value)
	}

	a.frontend.DidApplyChange(callID, err == nil)
	return a.finishCommand("setTextValue", callID, start, err)
}

// RemoveNode detaches the node id from its parent. The removal
// notification precedes the ack; a failed removal acks with a zero ID.
func (a *Agent) RemoveNode(callID int64, id core.NodeID) error {
	start := time.Now()

	n, err := a.resolve(id)
	if err == nil {
		if parent := n.Parent(); parent == nil {
			err = ErrNotAttached
		} else {
			err = parent.RemoveChild(n)
		}
	}

	acked := id
	if err != nil {
		acked = core.None
	}
	a.frontend.DidRemoveNode(callID, acked)
	return a.finishCommand("removeNode", callID, start, err)
}

// ChangeTagName replaces the element id with a new element named tag,
// carrying over attributes and children. The old element's bindings are
// dropped by the removal; the ack carries the replacement's ID, zero on
// failure.
func (a *Agent) ChangeTagName(callID int64, id core.NodeID, tag string) error {
	start := time.Now()

	newID, err := a.changeTagName(id, tag)
	a.frontend.DidChangeTagName(callID, newID)
	return a.finishCommand("changeTagName", callID, start, err)
}

func (a *Agent) changeTagName(id core.NodeID, tag string) (core.NodeID, error) {
	n, err := a.resolve(id)
	if err != nil {
		return core.None, err
	}
	if n.Kind() != tree.KindElement {
		return core.None, ErrNotElement
	}
	parent := n.Parent()
	if parent == nil {
		return core.None, ErrNotAttached
	}

	repl, err := n.Document().CreateElement(tag)
	if err != nil {
		return core.None, err
	}
	for _, attr := range n.Attributes() {
		if err := repl.SetAttribute(attr.Name, attr.Value); err != nil {
			return core.None, err
		}
	}
	for c := n.FirstChild(); c != nil; c = n.FirstChild() {
		if err := repl.AppendChild(c); err != nil {
			return core.None, err
		}
	}
	if err := parent.InsertBefore(repl, n.NextSibling()); err != nil {
		return core.None, err
	}
	if err := parent.RemoveChild(n); err != nil {
		return core.None, err
	}
	return a.PushNode(repl), nil
}

// GetOuterMarkup serializes the subtree rooted at id and acks with the
// markup, empty on failure.
func (a *Agent) GetOuterMarkup(callID int64, id core.NodeID) error {
	start := time.Now()

	var markup string
	n, err := a.resolve(id)
	if err == nil {
		markup, err = n.OuterMarkup()
	}

	a.frontend.DidGetOuterMarkup(callID, markup)
	return a.finishCommand("getOuterMarkup", callID, start, err)
}

// SetOuterMarkup replaces the node id with nodes parsed from markup and
// acks with the ID of the first replacement node (core.None when the
// markup produced nothing or the replacement failed).
func (a *Agent) SetOuterMarkup(callID int64, id core.NodeID, markup string) error {
	start := time.Now()

	newID, err := a.setOuterMarkup(id, markup)
	a.frontend.DidSetOuterMarkup(callID, newID)
	return a.finishCommand("setOuterMarkup", callID, start, err)
}

func (a *Agent) setOuterMarkup(id core.NodeID, markup string) (core.NodeID, error) {
	n, err := a.resolve(id)
	if err != nil {
		return core.None, err
	}

	// Recapture points before the node disappears; the replacement is
	// whatever follows prev (or leads the parent) afterwards.
	prev := n.PrevSibling()
	parent := n.Parent()

	if err := n.SetOuterMarkup(markup); err != nil {
		return core.None, err
	}

	var repl tree.Node
	if prev != nil {
		repl = prev.NextSibling()
	} else if parent != nil {
		repl = parent.FirstChild()
	}
	return a.PushNode(repl), nil
}

// ResolveByPath resolves an index/name path like "1,html,2,body" rooted
// at the main document, pushes the resolved node, and acks with its ID,
// zero on any mismatch. Indexes count visible children; names compare
// case-insensitively.
func (a *Agent) ResolveByPath(callID int64, path string) error {
	start := time.Now()

	a.mu.Lock()
	n, err := a.nodeForPathLocked(path)
	var id core.NodeID
	if err == nil {
		id = a.pushNodeLocked(n)
	}
	a.mu.Unlock()

	a.frontend.DidResolveNode(callID, id)
	return a.finishCommand("resolveByPath", callID, start, err)
}

func (a *Agent) nodeForPathLocked(path string) (tree.Node, error) {
	if len(a.documents) == 0 {
		return nil, ErrNoDocument
	}

	tokens := strings.Split(path, ",")
	if len(tokens) == 0 || len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	node := a.documents[0].Node()
	for i := 0; i < len(tokens); i += 2 {
		index, err := strconv.Atoi(tokens[i])
		if err != nil || index < 0 {
			return nil, fmt.Errorf("%w: bad index %q", ErrInvalidPath, tokens[i])
		}
		child := tree.FirstVisibleChild(node)
		for j := 0; j < index && child != nil; j++ {
			child = tree.NextVisibleSibling(child)
		}
		if child == nil || !strings.EqualFold(child.Name(), tokens[i+1]) {
			return nil, fmt.Errorf("%w: no child %q at index %d", ErrInvalidPath, tokens[i+1], index)
		}
		node = child
	}
	return node, nil
}

// Search starts a new search session over all observed documents,
// cancelling any previous one. In synchronous mode all match jobs run
// before Search returns and one batch is reported; otherwise jobs run one
// per scheduling tick and the session ends when the queue drains.
func (a *Agent) Search(query string, synchronous bool) {
	docs := a.snapshotDocuments()
	jobs := search.Decompose(query, docs...)
	a.logger.LogSearch(query, len(jobs), synchronous)
	a.scheduler.Start(jobs, synchronous)
}

// CancelSearch ends the active search session. Pending jobs are dropped
// and the session's deduplication set is cleared; bindings already
// created for reported results stay valid.
func (a *Agent) CancelSearch() {
	a.scheduler.Cancel()
}

// AddToRecent records id at the front of the recent-node list, evicting
// the oldest entry beyond the list's limit.
func (a *Agent) AddToRecent(id core.NodeID) error {
	if _, err := a.resolve(id); err != nil {
		return err
	}
	a.mu.Lock()
	a.binder.Recent().Add(id)
	a.mu.Unlock()
	return nil
}

// RecentNode returns the i-th most recently recorded ID (0 = newest), or
// core.None when out of range.
func (a *Agent) RecentNode(i int) core.NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.binder.Recent().At(i)
}
