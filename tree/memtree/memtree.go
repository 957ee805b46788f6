// Package memtree is the reference implementation of the tree boundary:
// an in-memory document built on golang.org/x/net/html with synchronous
// mutation notifications, nested owned sub-documents, and query
// capabilities backed by cascadia (selectors) and htmlquery (path
// expressions).
//
// Structure is guarded by an RWMutex so the incremental search worker may
// read between mutations; notifications are always delivered outside the
// lock, exactly once per structural change.
package memtree

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hupe1980/treemirror/tree"
)

var (
	// ErrForeignNode is returned when a node from another document (or a
	// non-memtree node) is passed to a mutation method.
	ErrForeignNode = errors.New("memtree: node belongs to a different document")
	// ErrInvalidKind is returned when a mutation does not apply to the
	// node's kind.
	ErrInvalidKind = errors.New("memtree: operation not valid for node kind")
	// ErrDetached is returned when an operation requires an attached node.
	ErrDetached = errors.New("memtree: node has no parent")
	// ErrNotChild is returned when the given reference node is not a
	// child of the receiver.
	ErrNotChild = errors.New("memtree: reference node is not a child")
	// ErrHierarchy is returned when an insertion would create a cycle.
	ErrHierarchy = errors.New("memtree: insertion would create a cycle")
	// ErrInvalidName is returned for malformed element names.
	ErrInvalidName = errors.New("memtree: invalid name token")
)

// Document is an in-memory live document.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
	url  string

	// owner is the element owning this document as a nested subtree,
	// nil for a top-level document.
	owner *Node

	wmu  sync.Mutex
	wrap map[*html.Node]*Node

	omu       sync.Mutex
	observers []subscription
	nextSubID int
}

type subscription struct {
	id int
	o  tree.Observer
}

// Option configures Parse.
type Option func(*Document)

// WithURL sets the document location reported by URL.
func WithURL(url string) Option {
	return func(d *Document) {
		d.url = url
	}
}

// Parse reads markup from r and builds a Document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{
		root: root,
		wrap: make(map[*html.Node]*Node),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(markup), opts...)
}

// Node returns the document node.
func (d *Document) Node() tree.Node {
	return d.node(d.root)
}

// URL returns the document location.
func (d *Document) URL() string {
	return d.url
}

// OwnerNode returns the element owning this document as a nested subtree,
// or nil for a top-level document.
func (d *Document) OwnerNode() tree.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.owner == nil {
		return nil
	}
	return d.owner
}

// CreateElement creates a detached element with the given tag name.
func (d *Document) CreateElement(tag string) (tree.Node, error) {
	if !tree.IsValidName(tag) {
		return nil, ErrInvalidName
	}
	tag = strings.ToLower(tag)
	h := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
	return d.node(h), nil
}

// Subscribe registers a mutation observer; the returned func deregisters
// it.
func (d *Document) Subscribe(o tree.Observer) func() {
	d.omu.Lock()
	defer d.omu.Unlock()
	id := d.nextSubID
	d.nextSubID++
	d.observers = append(d.observers, subscription{id: id, o: o})
	return func() {
		d.omu.Lock()
		defer d.omu.Unlock()
		for i, s := range d.observers {
			if s.id == id {
				d.observers = append(d.observers[:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

// FinishLoad simulates load completion: subscribers receive a
// SubtreeReloaded notification and must treat prior structure as stale.
func (d *Document) FinishLoad() {
	for _, o := range d.snapshotObservers() {
		o.SubtreeReloaded(d)
	}
}

func (d *Document) snapshotObservers() []tree.Observer {
	d.omu.Lock()
	defer d.omu.Unlock()
	out := make([]tree.Observer, len(d.observers))
	for i, s := range d.observers {
		out[i] = s.o
	}
	return out
}

func (d *Document) notifyInserted(n tree.Node) {
	for _, o := range d.snapshotObservers() {
		o.NodeInserted(n)
	}
}

func (d *Document) notifyRemoved(n tree.Node) {
	for _, o := range d.snapshotObservers() {
		o.NodeRemoved(n)
	}
}

func (d *Document) notifyAttr(el tree.Node) {
	for _, o := range d.snapshotObservers() {
		o.AttributeChanged(el)
	}
}

// node returns the stable wrapper for h.
func (d *Document) node(h *html.Node) *Node {
	if h == nil {
		return nil
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	if n, ok := d.wrap[h]; ok {
		return n
	}
	n := &Node{d: d, h: h}
	d.wrap[h] = n
	return n
}

// wrapAll converts a slice of html nodes into tree nodes.
func (d *Document) wrapAll(hs []*html.Node) []tree.Node {
	out := make([]tree.Node, 0, len(hs))
	for _, h := range hs {
		out = append(out, d.node(h))
	}
	return out
}

// Node is a single node of a Document. Wrappers are stable: the same
// underlying node always yields the same *Node, so Node values are usable
// as map keys.
type Node struct {
	d *Document
	h *html.Node

	// owned is the nested document this element owns, nil otherwise.
	owned *Document
}

// Kind returns the node classification.
func (n *Node) Kind() tree.Kind {
	switch n.h.Type {
	case html.ElementNode:
		return tree.KindElement
	case html.TextNode:
		return tree.KindText
	case html.CommentNode:
		return tree.KindComment
	case html.DocumentNode:
		return tree.KindDocument
	case html.DoctypeNode:
		return tree.KindDoctype
	default:
		return tree.KindFragment
	}
}

// Name returns the node name.
func (n *Node) Name() string {
	switch n.h.Type {
	case html.ElementNode, html.DoctypeNode:
		return n.h.Data
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DocumentNode:
		return "#document"
	default:
		return ""
	}
}

// LocalName returns the tag name without a namespace prefix.
func (n *Node) LocalName() string {
	if n.h.Type != html.ElementNode {
		return ""
	}
	return n.h.Data
}

// Value returns the character data of text and comment nodes.
func (n *Node) Value() string {
	if n.h.Type == html.TextNode || n.h.Type == html.CommentNode {
		n.d.mu.RLock()
		defer n.d.mu.RUnlock()
		return n.h.Data
	}
	return ""
}

// Document returns the owning document.
func (n *Node) Document() tree.Document {
	return n.d
}

// Parent returns the raw parent node.
func (n *Node) Parent() tree.Node {
	n.d.mu.RLock()
	h := n.h.Parent
	n.d.mu.RUnlock()
	if h == nil {
		return nil
	}
	return n.d.node(h)
}

// FirstChild returns the raw first child.
func (n *Node) FirstChild() tree.Node {
	n.d.mu.RLock()
	h := n.h.FirstChild
	n.d.mu.RUnlock()
	if h == nil {
		return nil
	}
	return n.d.node(h)
}

// NextSibling returns the raw next sibling.
func (n *Node) NextSibling() tree.Node {
	n.d.mu.RLock()
	h := n.h.NextSibling
	n.d.mu.RUnlock()
	if h == nil {
		return nil
	}
	return n.d.node(h)
}

// PrevSibling returns the raw previous sibling.
func (n *Node) PrevSibling() tree.Node {
	n.d.mu.RLock()
	h := n.h.PrevSibling
	n.d.mu.RUnlock()
	if h == nil {
		return nil
	}
	return n.d.node(h)
}

// Attributes returns the ordered attribute list of an element.
func (n *Node) Attributes() []tree.Attr {
	if n.h.Type != html.ElementNode {
		return nil
	}
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()
	out := make([]tree.Attr, 0, len(n.h.Attr))
	for _, a := range n.h.Attr {
		out = append(out, tree.Attr{Name: a.Key, Value: a.Val})
	}
	return out
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	if n.h.Type != html.ElementNode {
		return "", false
	}
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()
	for _, a := range n.h.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// OwnedDocument returns the nested document owned by this element.
func (n *Node) OwnedDocument() tree.Document {
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()
	if n.owned == nil {
		return nil
	}
	return n.owned
}

// AdoptDocument makes this element the owner of sub, modeling an embedded
// live sub-document reachable only through it. The sub-document reports
// this element via OwnerNode. Safe to call while other goroutines
// traverse either document.
func (n *Node) AdoptDocument(sub *Document) error {
	if n.h.Type != html.ElementNode {
		return ErrInvalidKind
	}
	n.d.mu.Lock()
	n.owned = sub
	n.d.mu.Unlock()
	sub.mu.Lock()
	sub.owner = n
	sub.mu.Unlock()
	return nil
}

// PublicID returns the doctype public identifier.
func (n *Node) PublicID() string {
	return n.doctypeAttr("public")
}

// SystemID returns the doctype system identifier.
func (n *Node) SystemID() string {
	return n.doctypeAttr("system")
}

func (n *Node) doctypeAttr(key string) string {
	if n.h.Type != html.DoctypeNode {
		return ""
	}
	for _, a := range n.h.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// OuterMarkup serializes the subtree rooted at this node.
func (n *Node) OuterMarkup() (string, error) {
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, n.h); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	_ tree.Node     = (*Node)(nil)
	_ tree.Document = (*Document)(nil)
)
