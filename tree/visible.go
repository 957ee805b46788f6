package tree

import "strings"

// IsWhitespace reports whether n is a whitespace-only text node. Such
// nodes are excluded from every child count and child-list traversal
// exposed to the remote side. The policy is fixed per session.
func IsWhitespace(n Node) bool {
	return n != nil && n.Kind() == KindText && strings.TrimSpace(n.Value()) == ""
}

// FirstVisibleChild returns the first child of n that is not
// whitespace-only text. A node owning a nested document reports that
// document's node as its sole child.
func FirstVisibleChild(n Node) Node {
	if od := n.OwnedDocument(); od != nil {
		return od.Node()
	}
	c := n.FirstChild()
	for IsWhitespace(c) {
		c = c.NextSibling()
	}
	return c
}

// NextVisibleSibling returns the next sibling of n, skipping
// whitespace-only text nodes.
func NextVisibleSibling(n Node) Node {
	s := n.NextSibling()
	for IsWhitespace(s) {
		s = s.NextSibling()
	}
	return s
}

// PrevVisibleSibling returns the previous sibling of n, skipping
// whitespace-only text nodes.
func PrevVisibleSibling(n Node) Node {
	s := n.PrevSibling()
	for IsWhitespace(s) {
		s = s.PrevSibling()
	}
	return s
}

// VisibleChildCount counts the children of n that visible traversal
// exposes.
func VisibleChildCount(n Node) int {
	count := 0
	for c := FirstVisibleChild(n); c != nil; c = NextVisibleSibling(c) {
		count++
	}
	return count
}

// VisibleParent returns the parent of n as seen through visible
// traversal: the node of a nested document resolves to its owner.
func VisibleParent(n Node) Node {
	if n.Kind() == KindDocument {
		return n.Document().OwnerNode()
	}
	return n.Parent()
}
