// Package binder implements the identity bookkeeping of a mirroring
// session: surrogate-ID scopes, the global ID index, the
// children-requested set and the recent-node list.
//
// A Binder is pure bookkeeping. It never talks to the frontend and never
// mutates the tree; the only outward call is the optional UnbindHook.
package binder

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/tree"
)

// Scope is one identity-binding namespace: a node-to-ID map for either
// the primary mirrored tree or a single dangling subtree.
type Scope struct {
	ids map[tree.Node]core.NodeID
}

func newScope() *Scope {
	return &Scope{ids: make(map[tree.Node]core.NodeID)}
}

// Get returns the ID bound to n in this scope, or core.None.
func (s *Scope) Get(n tree.Node) core.NodeID {
	return s.ids[n]
}

// Len returns the number of bindings in the scope.
func (s *Scope) Len() int {
	return len(s.ids)
}

type entry struct {
	node  tree.Node
	scope *Scope
}

// Binder owns the surrogate-ID maps of one mirroring session: the primary
// scope, any dangling scopes, and the global index resolving any ID
// regardless of scope. IDs are allocated monotonically starting at 1 and
// never reused.
//
// A Binder is not safe for concurrent use; it is confined to one
// mirroring session.
type Binder struct {
	next     core.NodeID
	primary  *Scope
	dangling []*Scope
	index    map[core.NodeID]entry

	childrenRequested *roaring.Bitmap
	recent            *RecentList

	// UnbindHook, when set, is invoked for every node owning a nested
	// live subtree as that node is unbound, before its bindings are
	// dropped. The session uses it to stop observing the nested document
	// and release per-subtree collaborator state.
	UnbindHook func(owner tree.Node)
}

// New creates an empty Binder with a fresh primary scope.
func New() *Binder {
	return &Binder{
		next:              1,
		primary:           newScope(),
		index:             make(map[core.NodeID]entry),
		childrenRequested: roaring.New(),
		recent:            newRecentList(),
	}
}

// Primary returns the primary scope (the mirrored main tree).
func (b *Binder) Primary() *Scope {
	return b.primary
}

// NewDanglingScope allocates a scope for a detached subtree root. Dangling
// scopes are never merged back into the primary scope; they persist until
// DiscardAll.
func (b *Binder) NewDanglingScope() *Scope {
	s := newScope()
	b.dangling = append(b.dangling, s)
	return s
}

// Bind returns the ID of n in scope, allocating the next unused ID if n
// is not bound there yet.
func (b *Binder) Bind(n tree.Node, scope *Scope) core.NodeID {
	if id := scope.ids[n]; id != core.None {
		return id
	}
	id := b.next
	b.next++
	scope.ids[n] = id
	b.index[id] = entry{node: n, scope: scope}
	return id
}

// Unbind removes the binding of n in scope. If the remote side had
// requested n's children, the removal cascades depth-first through every
// descendant bound in the same scope, so the global index never retains an
// ID for a subtree whose root has been detached from this scope's frame
// of reference.
func (b *Binder) Unbind(n tree.Node, scope *Scope) {
	if b.UnbindHook != nil && n.OwnedDocument() != nil {
		b.UnbindHook(n)
	}

	id := scope.ids[n]
	if id == core.None {
		return
	}
	delete(b.index, id)
	delete(scope.ids, n)
	if b.childrenRequested.Contains(uint32(id)) {
		b.childrenRequested.Remove(uint32(id))
		for c := tree.FirstVisibleChild(n); c != nil; c = tree.NextVisibleSibling(c) {
			b.Unbind(c, scope)
		}
	}
}

// Resolve returns the live node bound to id in any scope, or nil for
// unknown and purged IDs.
func (b *Binder) Resolve(id core.NodeID) tree.Node {
	if id == core.None {
		return nil
	}
	return b.index[id].node
}

// ScopeOf returns the scope the given ID is bound in, or nil.
func (b *Binder) ScopeOf(id core.NodeID) *Scope {
	return b.index[id].scope
}

// DiscardAll clears every scope, the global index, the children-requested
// set and the recent-node list. The ID counter is not reset; IDs are
// unique for the session lifetime.
func (b *Binder) DiscardAll() {
	b.primary = newScope()
	b.dangling = nil
	b.index = make(map[core.NodeID]entry)
	b.childrenRequested.Clear()
	b.recent.Clear()
}

// ChildrenRequested reports whether the full child list of id has been
// sent to the remote side.
func (b *Binder) ChildrenRequested(id core.NodeID) bool {
	return b.childrenRequested.Contains(uint32(id))
}

// MarkChildrenRequested records that the full child list of id was sent.
func (b *Binder) MarkChildrenRequested(id core.NodeID) {
	b.childrenRequested.Add(uint32(id))
}

// ClearChildrenRequested drops the children-requested marker for id, so
// the remote side must re-request children explicitly.
func (b *Binder) ClearChildrenRequested(id core.NodeID) {
	b.childrenRequested.Remove(uint32(id))
}

// Recent returns the bounded most-recently-touched node list.
func (b *Binder) Recent() *RecentList {
	return b.recent
}
