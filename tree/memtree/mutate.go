package memtree

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hupe1980/treemirror/tree"
)

// SetAttribute sets or replaces an attribute on an element and notifies
// observers with the element.
func (n *Node) SetAttribute(name, value string) error {
	if n.h.Type != html.ElementNode {
		return ErrInvalidKind
	}
	if !tree.IsValidName(name) {
		return ErrInvalidName
	}
	n.d.mu.Lock()
	replaced := false
	for i, a := range n.h.Attr {
		if a.Key == name {
			n.h.Attr[i].Val = value
			replaced = true
			break
		}
	}
	if !replaced {
		n.h.Attr = append(n.h.Attr, html.Attribute{Key: name, Val: value})
	}
	n.d.mu.Unlock()

	n.d.notifyAttr(n)
	return nil
}

// RemoveAttribute removes an attribute from an element. Removing an
// absent attribute is a no-op and produces no notification.
func (n *Node) RemoveAttribute(name string) error {
	if n.h.Type != html.ElementNode {
		return ErrInvalidKind
	}
	n.d.mu.Lock()
	found := false
	for i, a := range n.h.Attr {
		if a.Key == name {
			n.h.Attr = append(n.h.Attr[:i], n.h.Attr[i+1:]...)
			found = true
			break
		}
	}
	n.d.mu.Unlock()

	if found {
		n.d.notifyAttr(n)
	}
	return nil
}

// SetValue replaces the character data of a text or comment node.
func (n *Node) SetValue(value string) error {
	if n.h.Type != html.TextNode && n.h.Type != html.CommentNode {
		return ErrInvalidKind
	}
	n.d.mu.Lock()
	n.h.Data = value
	n.d.mu.Unlock()
	return nil
}

// AppendChild appends c as the last child of n.
func (n *Node) AppendChild(c tree.Node) error {
	return n.InsertBefore(c, nil)
}

// InsertBefore inserts c before the given sibling, appending when before
// is nil. A node attached elsewhere is detached first, which observers
// see as a removal followed by an insertion.
func (n *Node) InsertBefore(c, before tree.Node) error {
	cn, ok := c.(*Node)
	if !ok || cn.d != n.d {
		return ErrForeignNode
	}
	if n.h.Type != html.ElementNode && n.h.Type != html.DocumentNode {
		return ErrInvalidKind
	}

	var bh *html.Node
	if before != nil {
		bn, ok := before.(*Node)
		if !ok || bn.d != n.d {
			return ErrForeignNode
		}
		if bn.h.Parent != n.h {
			return ErrNotChild
		}
		bh = bn.h
	}

	// Reject inserting a node into its own subtree.
	for p := n.h; p != nil; p = p.Parent {
		if p == cn.h {
			return ErrHierarchy
		}
	}

	if cn.h.Parent != nil {
		n.d.notifyRemoved(cn)
		n.d.mu.Lock()
		cn.h.Parent.RemoveChild(cn.h)
		n.d.mu.Unlock()
	}

	n.d.mu.Lock()
	n.h.InsertBefore(cn.h, bh)
	n.d.mu.Unlock()

	n.d.notifyInserted(cn)
	return nil
}

// RemoveChild detaches the child c. Observers are notified while c is
// still attached, so they can reach its parent and siblings.
func (n *Node) RemoveChild(c tree.Node) error {
	cn, ok := c.(*Node)
	if !ok || cn.d != n.d {
		return ErrForeignNode
	}
	if cn.h.Parent != n.h {
		return ErrNotChild
	}

	n.d.notifyRemoved(cn)

	n.d.mu.Lock()
	n.h.RemoveChild(cn.h)
	n.d.mu.Unlock()
	return nil
}

// SetOuterMarkup replaces this node in place with nodes parsed from
// markup. The node must be attached to a parent element, which serves as
// the fragment parsing context.
func (n *Node) SetOuterMarkup(markup string) error {
	n.d.mu.RLock()
	parent := n.h.Parent
	n.d.mu.RUnlock()
	if parent == nil {
		return ErrDetached
	}
	if parent.Type != html.ElementNode {
		return ErrInvalidKind
	}

	frag, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return err
	}

	pw := n.d.node(parent)
	next := n.NextSibling()
	if err := pw.RemoveChild(n); err != nil {
		return err
	}
	for _, h := range frag {
		if err := pw.InsertBefore(n.d.node(h), next); err != nil {
			return err
		}
	}
	return nil
}
