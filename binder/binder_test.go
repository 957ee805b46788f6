package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treemirror/binder"
	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/tree"
	"github.com/hupe1980/treemirror/tree/memtree"
)

func parseDoc(t *testing.T, markup string) *memtree.Document {
	t.Helper()
	doc, err := memtree.ParseString(markup)
	require.NoError(t, err)
	return doc
}

func TestBindAllocatesMonotonicIDs(t *testing.T) {
	doc := parseDoc(t, "<html><body><div></div><span></span></body></html>")
	b := binder.New()
	scope := b.Primary()

	div := doc.ElementsByTagName("div")[0]
	span := doc.ElementsByTagName("span")[0]

	id1 := b.Bind(div, scope)
	id2 := b.Bind(span, scope)

	assert.Equal(t, core.NodeID(1), id1)
	assert.Equal(t, core.NodeID(2), id2)

	// Rebinding returns the existing ID.
	assert.Equal(t, id1, b.Bind(div, scope))

	assert.Equal(t, div, b.Resolve(id1))
	assert.Equal(t, span, b.Resolve(id2))
	assert.Equal(t, scope, b.ScopeOf(id1))
}

func TestResolveUnknown(t *testing.T) {
	b := binder.New()

	assert.Nil(t, b.Resolve(core.None))
	assert.Nil(t, b.Resolve(42))
	assert.Nil(t, b.ScopeOf(42))
}

func TestDanglingScopeIsIndependent(t *testing.T) {
	doc := parseDoc(t, "<html><body><div></div></body></html>")
	b := binder.New()

	div := doc.ElementsByTagName("div")[0]

	primaryID := b.Bind(div, b.Primary())
	dangling := b.NewDanglingScope()
	danglingID := b.Bind(div, dangling)

	assert.NotEqual(t, primaryID, danglingID)
	assert.Equal(t, div, b.Resolve(primaryID))
	assert.Equal(t, div, b.Resolve(danglingID))
	assert.Equal(t, dangling, b.ScopeOf(danglingID))
}

func TestUnbindCascadesThroughRequestedChildren(t *testing.T) {
	doc := parseDoc(t, "<html><body><ul><li>a</li><li>b</li></ul></body></html>")
	b := binder.New()
	scope := b.Primary()

	ul := doc.ElementsByTagName("ul")[0]
	items := doc.ElementsByTagName("li")

	ulID := b.Bind(ul, scope)
	liIDs := []core.NodeID{b.Bind(items[0], scope), b.Bind(items[1], scope)}
	b.MarkChildrenRequested(ulID)

	b.Unbind(ul, scope)

	assert.Nil(t, b.Resolve(ulID))
	for _, id := range liIDs {
		assert.Nil(t, b.Resolve(id))
	}
	assert.False(t, b.ChildrenRequested(ulID))
}

func TestUnbindWithoutRequestedChildrenLeavesDescendants(t *testing.T) {
	doc := parseDoc(t, "<html><body><ul><li>a</li></ul></body></html>")
	b := binder.New()
	scope := b.Primary()

	ul := doc.ElementsByTagName("ul")[0]
	li := doc.ElementsByTagName("li")[0]

	ulID := b.Bind(ul, scope)
	liID := b.Bind(li, scope)

	b.Unbind(ul, scope)

	assert.Nil(t, b.Resolve(ulID))
	assert.Equal(t, li, b.Resolve(liID))
}

func TestUnbindHookFiresForDocumentOwners(t *testing.T) {
	doc := parseDoc(t, "<html><body><object></object></body></html>")
	sub := parseDoc(t, "<html><body>nested</body></html>")

	owner := doc.ElementsByTagName("object")[0].(*memtree.Node)
	require.NoError(t, owner.AdoptDocument(sub))

	b := binder.New()
	var hooked []tree.Node
	b.UnbindHook = func(n tree.Node) { hooked = append(hooked, n) }

	b.Bind(owner, b.Primary())
	b.Unbind(owner, b.Primary())

	require.Len(t, hooked, 1)
	assert.Equal(t, tree.Node(owner), hooked[0])
}

func TestDiscardAllKeepsCounter(t *testing.T) {
	doc := parseDoc(t, "<html><body><div></div><span></span></body></html>")
	b := binder.New()

	div := doc.ElementsByTagName("div")[0]
	id1 := b.Bind(div, b.Primary())
	b.MarkChildrenRequested(id1)
	b.Recent().Add(id1)

	b.DiscardAll()

	assert.Nil(t, b.Resolve(id1))
	assert.False(t, b.ChildrenRequested(id1))
	assert.Equal(t, 0, b.Recent().Len())

	// IDs keep counting; stale IDs are never reissued.
	span := doc.ElementsByTagName("span")[0]
	id2 := b.Bind(span, b.Primary())
	assert.Greater(t, uint32(id2), uint32(id1))
}

func TestRecentListEviction(t *testing.T) {
	b := binder.New()
	for i := 1; i <= 7; i++ {
		b.Recent().Add(core.NodeID(i))
	}

	assert.Equal(t, 5, b.Recent().Len())
	assert.Equal(t, core.NodeID(7), b.Recent().At(0))
	assert.Equal(t, core.NodeID(3), b.Recent().At(4))
	assert.Equal(t, core.None, b.Recent().At(5))
	assert.Equal(t, core.None, b.Recent().At(-1))
}
