package treemirror

import (
	"github.com/hupe1980/treemirror/binder"
	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/frontend"
	"github.com/hupe1980/treemirror/tree"
)

// isContainer reports whether nodes of this kind carry a mirrored child
// list.
func isContainer(k tree.Kind) bool {
	return k == tree.KindElement || k == tree.KindDocument || k == tree.KindFragment
}

// doctypeIDs is the optional capability of doctype nodes exposing their
// public and system identifiers.
type doctypeIDs interface {
	PublicID() string
	SystemID() string
}

// buildNode serializes n, binding it in scope. depth controls child
// expansion: 0 includes at most a single text child, positive values
// expand that many levels, negative values expand without bound.
func (a *Agent) buildNode(n tree.Node, depth int, scope *binder.Scope) *frontend.Node {
	id := a.binder.Bind(n, scope)

	fn := &frontend.Node{
		ID:        id,
		Kind:      n.Kind(),
		Name:      n.Name(),
		LocalName: n.LocalName(),
		Value:     n.Value(),
	}

	switch n.Kind() {
	case tree.KindElement:
		fn.Attributes = n.Attributes()
		if od := n.OwnedDocument(); od != nil {
			fn.DocumentURL = od.URL()
			a.watchLocked(od)
		}
	case tree.KindDocument:
		fn.DocumentURL = n.Document().URL()
	case tree.KindDoctype:
		if dt, ok := n.(doctypeIDs); ok {
			fn.PublicID = dt.PublicID()
			fn.SystemID = dt.SystemID()
		}
	}

	if isContainer(n.Kind()) {
		fn.ChildCount = tree.VisibleChildCount(n)
		fn.Children = a.buildChildren(n, depth, scope)
	}
	return fn
}

// buildChildren serializes the visible children of parent. At depth 0
// only a sole text child is included and parent is not marked as having
// its children requested; at any other depth the full child list is
// serialized, each child one level shallower, and parent is marked.
func (a *Agent) buildChildren(parent tree.Node, depth int, scope *binder.Scope) []*frontend.Node {
	if depth == 0 {
		c := tree.FirstVisibleChild(parent)
		if c != nil && c.Kind() == tree.KindText && tree.NextVisibleSibling(c) == nil {
			return []*frontend.Node{a.buildNode(c, 0, scope)}
		}
		return nil
	}

	a.binder.MarkChildrenRequested(a.binder.Bind(parent, scope))

	var out []*frontend.Node
	for c := tree.FirstVisibleChild(parent); c != nil; c = tree.NextVisibleSibling(c) {
		out = append(out, a.buildNode(c, depth-1, scope))
	}
	return out
}

// countNodes counts the serialized nodes in a payload tree.
func countNodes(fn *frontend.Node) int {
	if fn == nil {
		return 0
	}
	count := 1
	for _, c := range fn.Children {
		count += countNodes(c)
	}
	return count
}

// pushDocumentLocked sends the main document skeleton: the document node
// with two levels of children, enough for a frontend to render the root
// element and its immediate children without a round trip.
func (a *Agent) pushDocumentLocked() {
	root := a.buildNode(a.documents[0].Node(), 2, a.binder.Primary())
	a.frontend.SetDocument(root)
	a.metrics.RecordPush(countNodes(root))
	a.logger.LogPush("setDocument", countNodes(root))
}

// pushChildrenLocked sends the full child list of id, one level deep.
// A no-op for non-container nodes and for nodes whose children were
// already sent.
func (a *Agent) pushChildrenLocked(id core.NodeID) {
	n := a.binder.Resolve(id)
	if n == nil || !isContainer(n.Kind()) {
		return
	}
	if a.binder.ChildrenRequested(id) {
		return
	}
	scope := a.binder.ScopeOf(id)
	children := a.buildChildren(n, 1, scope)
	a.frontend.SetChildNodes(id, children)

	count := 0
	for _, c := range children {
		count += countNodes(c)
	}
	a.metrics.RecordPush(count)
	a.logger.LogPush("setChildNodes", count)
}

// pushNodeLocked binds n by pushing the ancestor chain top-down. When n
// sits in a detached subtree, the subtree root is pushed into a fresh
// dangling scope first. Returns core.None when no document is set or the
// chain cannot be pushed.
func (a *Agent) pushNodeLocked(n tree.Node) core.NodeID {
	if n == nil || len(a.documents) == 0 {
		return core.None
	}

	scope := a.binder.Primary()
	if id := scope.Get(n); id != core.None {
		return id
	}
	var path []tree.Node

	node := n
	for {
		parent := tree.VisibleParent(node)
		if parent == nil {
			// Detached subtree: push its root into a fresh dangling scope.
			scope = a.binder.NewDanglingScope()
			root := a.buildNode(node, 0, scope)
			a.frontend.SetDetachedRoot(root)
			a.metrics.RecordPush(countNodes(root))
			a.logger.LogPush("setDetachedRoot", countNodes(root))
			break
		}
		path = append(path, parent)
		if scope.Get(parent) != core.None {
			break
		}
		node = parent
	}

	for i := len(path) - 1; i >= 0; i-- {
		id := scope.Get(path[i])
		if id == core.None {
			return core.None
		}
		a.pushChildrenLocked(id)
	}
	return scope.Get(n)
}

// reportSearchResults is the scheduler's batch sink. Every result node is
// pushed (binding ancestors as needed) before its ID is reported; batches
// are forwarded even when empty so the frontend can track progress.
func (a *Agent) reportSearchResults(fresh []tree.Node) {
	a.mu.Lock()
	ids := make([]core.NodeID, 0, len(fresh))
	for _, n := range fresh {
		if id := a.pushNodeLocked(n); id != core.None {
			ids = append(ids, id)
		}
	}
	a.frontend.AddNodesToSearchResult(ids)
	a.mu.Unlock()

	a.metrics.RecordSearchBatch(len(ids))
	a.logger.LogSearchBatch(len(ids))
}

// nodeInserted forwards an insertion. Parents whose child list was never
// requested get a count update only; otherwise the new node is serialized
// shallowly together with its visible predecessor.
func (a *Agent) nodeInserted(n tree.Node) {
	if tree.IsWhitespace(n) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	primary := a.binder.Primary()

	// A node can be detached and reinserted elsewhere without a removal
	// notification reaching us; purge any stale binding first.
	a.binder.Unbind(n, primary)

	parent := tree.VisibleParent(n)
	if parent == nil {
		return
	}
	parentID := primary.Get(parent)
	if parentID == core.None {
		return
	}

	a.metrics.RecordMutation("insert")
	if !a.binder.ChildrenRequested(parentID) {
		a.frontend.ChildNodeCountUpdated(parentID, tree.VisibleChildCount(parent))
		return
	}

	prevID := core.None
	if prev := tree.PrevVisibleSibling(n); prev != nil {
		prevID = primary.Get(prev)
	}
	fn := a.buildNode(n, 0, primary)
	a.frontend.ChildNodeInserted(parentID, prevID, fn)
	a.logger.LogMutation("insert", fn.ID)
}

// nodeRemoved forwards a removal. Fired while n is still attached, so the
// parent is reachable. Parents without a requested child list only report
// the transition to zero children; bindings of the removed subtree are
// dropped either way.
func (a *Agent) nodeRemoved(n tree.Node) {
	if tree.IsWhitespace(n) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	parent := tree.VisibleParent(n)
	if parent == nil {
		return
	}
	primary := a.binder.Primary()
	parentID := primary.Get(parent)
	if parentID == core.None {
		return
	}

	a.metrics.RecordMutation("remove")
	if !a.binder.ChildrenRequested(parentID) {
		if tree.VisibleChildCount(parent) == 1 {
			a.frontend.ChildNodeCountUpdated(parentID, 0)
		}
	} else {
		a.frontend.ChildNodeRemoved(parentID, primary.Get(n))
		a.logger.LogMutation("remove", primary.Get(n))
	}
	a.binder.Unbind(n, primary)
}

// attributeChanged forwards the full current attribute list of a bound
// element. Unbound elements are ignored.
func (a *Agent) attributeChanged(el tree.Node) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.binder.Primary().Get(el)
	if id == core.None {
		return
	}
	a.metrics.RecordMutation("attribute")
	a.frontend.AttributesUpdated(id, el.Attributes())
	a.logger.LogMutation("attribute", id)
}

// subtreeReloaded handles load completion. A main-document reload rebinds
// the mirror from scratch; a nested document reload splices its owner
// node out and back in with fresh bindings, forcing the frontend to
// re-request children.
func (a *Agent) subtreeReloaded(doc tree.Document) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics.RecordMutation("reload")

	if len(a.documents) > 0 && doc == a.documents[0] {
		a.scheduler.Cancel()
		main := a.documents[0]
		for d, cancel := range a.unsub {
			if d != main {
				cancel()
				delete(a.unsub, d)
			}
		}
		a.documents = []tree.Document{main}
		a.binder.DiscardAll()
		a.pushDocumentLocked()
		return
	}

	owner := doc.OwnerNode()
	if owner == nil {
		return
	}
	primary := a.binder.Primary()
	ownerID := primary.Get(owner)
	if ownerID == core.None {
		return
	}

	// Owner bound but never expanded: the reload is invisible except as a
	// child-count change.
	if !a.binder.ChildrenRequested(ownerID) {
		a.frontend.ChildNodeCountUpdated(ownerID, tree.VisibleChildCount(owner))
		return
	}

	parent := tree.VisibleParent(owner)
	if parent == nil {
		return
	}
	parentID := primary.Get(parent)
	if parentID == core.None {
		return
	}

	// Splice the owner out and back in under a fresh ID; the unbind drops
	// the stale subtree bindings and the children-requested marker.
	a.frontend.ChildNodeRemoved(parentID, ownerID)
	a.binder.Unbind(owner, primary)

	fn := a.buildNode(owner, 0, primary)
	prevID := core.None
	if prev := tree.PrevVisibleSibling(owner); prev != nil {
		prevID = primary.Get(prev)
	}
	a.frontend.ChildNodeInserted(parentID, prevID, fn)
	a.logger.LogMutation("reload", fn.ID)
}
