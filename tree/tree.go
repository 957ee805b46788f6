// Package tree defines the boundary to the live, externally-mutable tree
// that treemirror observes: the node and document abstractions, the typed
// mutation subscription, and the fixed node-visibility policy.
//
// Implementations are expected to deliver mutation notifications
// synchronously and exactly once per structural change. The package ships
// with a reference implementation in tree/memtree.
package tree

import "unicode"

// Kind classifies a node.
type Kind int

const (
	// KindElement is a named element with attributes and children.
	KindElement Kind = iota + 1
	// KindText is a character-data leaf.
	KindText
	// KindComment is a comment leaf.
	KindComment
	// KindDocument is the root node of a document.
	KindDocument
	// KindFragment is a detached container without a document root.
	KindFragment
	// KindDoctype is a document-type declaration.
	KindDoctype
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindDocument:
		return "document"
	case KindFragment:
		return "fragment"
	case KindDoctype:
		return "doctype"
	default:
		return "unknown"
	}
}

// Attr is a single name/value attribute pair. Order is significant when
// attributes are serialized.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is a single node of a live tree.
//
// Implementations must be comparable (pointer-backed); treemirror keys
// internal maps by Node identity. All mutation methods report rejection by
// the underlying tree as an error; callers treat such errors as terminal
// for the operation that triggered them.
type Node interface {
	// Kind returns the node classification.
	Kind() Kind
	// Name returns the node name (tag name for elements, "#text",
	// "#comment", "#document" for the respective kinds).
	Name() string
	// LocalName returns the name without any namespace prefix. Empty for
	// non-element nodes.
	LocalName() string
	// Value returns the character data of text and comment nodes, and the
	// empty string otherwise.
	Value() string

	// Document returns the document this node belongs to.
	Document() Document
	// Parent returns the raw parent node, nil for roots. Use
	// VisibleParent to hop out of nested owned documents.
	Parent() Node
	// FirstChild, NextSibling and PrevSibling expose raw structure,
	// including whitespace-only text nodes. Visible traversal lives in
	// the package-level helpers.
	FirstChild() Node
	NextSibling() Node
	PrevSibling() Node

	// Attributes returns the ordered attribute list of an element, nil
	// otherwise.
	Attributes() []Attr
	// Attribute returns the value of the named attribute.
	Attribute(name string) (string, bool)

	// OwnedDocument returns the nested live document owned by this node
	// (an embedded sub-document reachable only through it), or nil.
	OwnedDocument() Document

	// SetAttribute sets or replaces an attribute on an element.
	SetAttribute(name, value string) error
	// RemoveAttribute removes an attribute from an element.
	RemoveAttribute(name string) error
	// SetValue replaces the character data of a text or comment node.
	SetValue(value string) error
	// OuterMarkup serializes the subtree rooted at this node.
	OuterMarkup() (string, error)
	// SetOuterMarkup replaces this node in place with nodes parsed from
	// markup. The node must be attached to a parent element.
	SetOuterMarkup(markup string) error

	// AppendChild appends c as the last child, detaching it from any
	// previous parent first.
	AppendChild(c Node) error
	// InsertBefore inserts c before the given sibling (append when before
	// is nil), detaching c from any previous parent first.
	InsertBefore(c, before Node) error
	// RemoveChild detaches the child c from this node.
	RemoveChild(c Node) error
}

// Document is one live document: the authoritative source treemirror
// observes. A session always has one main document; further documents are
// nested sub-documents reached through owner nodes.
type Document interface {
	// Node returns the document node itself.
	Node() Node
	// URL returns the document location, empty if unknown.
	URL() string
	// OwnerNode returns the node owning this document as a nested
	// subtree, or nil for a top-level document.
	OwnerNode() Node

	// CreateElement creates a detached element with the given tag name.
	CreateElement(tag string) (Node, error)

	// ElementByID returns the element whose identifier attribute equals
	// id, or nil.
	ElementByID(id string) Node
	// ElementsByClassName returns all elements carrying the given class.
	ElementsByClassName(name string) []Node
	// ElementsByTagName returns all elements with the given tag name.
	ElementsByTagName(name string) []Node

	// QuerySelectorAll evaluates a structural selector. The selector
	// engine is an opaque capability of the implementation.
	QuerySelectorAll(selector string) ([]Node, error)
	// QueryPath evaluates a structural path expression (XPath-shaped).
	// The path engine is an opaque capability of the implementation.
	QueryPath(expr string) ([]Node, error)

	// Subscribe registers a mutation observer. The returned func
	// deregisters it. Notifications are delivered synchronously, exactly
	// once per structural change.
	Subscribe(o Observer) (cancel func())
}

// Observer receives mutation notifications from a Document.
//
// NodeRemoved fires while the node is still attached, so observers can
// still reach its parent and siblings. Observers must not mutate the tree
// from within a notification.
type Observer interface {
	// NodeInserted fires after n has been attached to its new parent.
	NodeInserted(n Node)
	// NodeRemoved fires before n is detached from its parent.
	NodeRemoved(n Node)
	// AttributeChanged fires after an attribute of el was set or removed.
	AttributeChanged(el Node)
	// SubtreeReloaded fires when a document finished (re)loading and its
	// previous structure must be considered stale.
	SubtreeReloaded(doc Document)
}

// IsValidName reports whether s is a legal name token (tag or attribute
// name): a letter, underscore or colon followed by letters, digits,
// hyphens, underscores, dots or colons.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' || r == ':' {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.') {
			continue
		}
		return false
	}
	return true
}
