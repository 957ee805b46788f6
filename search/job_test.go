package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treemirror/search"
	"github.com/hupe1980/treemirror/tree/memtree"
)

func kinds(jobs []search.Job) []search.Kind {
	out := make([]search.Kind, len(jobs))
	for i, j := range jobs {
		out[i] = j.Kind
	}
	return out
}

func TestDecompose(t *testing.T) {
	doc, err := memtree.ParseString("<html></html>")
	require.NoError(t, err)

	t.Run("plain word", func(t *testing.T) {
		jobs := search.Decompose("div", doc)
		assert.Equal(t, []search.Kind{
			search.KindExactID,
			search.KindExactClassNames,
			search.KindExactTagNames,
			search.KindSelector,
			search.KindSelector,
			search.KindPath,
			search.KindPath,
			search.KindPlainText,
			search.KindPath,
		}, kinds(jobs))
		assert.Equal(t, "[div]", jobs[3].Query)
		assert.Equal(t, "div", jobs[4].Query)
	})

	t.Run("delimited tag", func(t *testing.T) {
		jobs := search.Decompose("<div>", doc)
		require.Equal(t, []search.Kind{search.KindExactTagNames, search.KindPlainText}, kinds(jobs))
		assert.Equal(t, "div", jobs[0].Query)
	})

	t.Run("open delimiter", func(t *testing.T) {
		jobs := search.Decompose("<di", doc)
		require.Equal(t, []search.Kind{search.KindPath, search.KindPlainText}, kinds(jobs))
		assert.Equal(t, "//*[starts-with(name(), 'di')]", jobs[0].Query)
	})

	t.Run("close delimiter", func(t *testing.T) {
		jobs := search.Decompose("iv>", doc)
		require.Equal(t, []search.Kind{search.KindPath, search.KindPlainText}, kinds(jobs))
		assert.Equal(t, "//*[contains(name(), 'iv')]", jobs[0].Query)
	})

	t.Run("match-all shorthand", func(t *testing.T) {
		for _, q := range []string{"*", "//*"} {
			jobs := search.Decompose(q, doc)
			require.Equal(t, []search.Kind{search.KindPath, search.KindPlainText}, kinds(jobs), "query %q", q)
			assert.Equal(t, "//*[contains(@*, '"+q+"')]", jobs[0].Query)
		}
	})

	t.Run("invalid name token skips exact jobs", func(t *testing.T) {
		jobs := search.Decompose("div .box", doc)
		assert.Equal(t, []search.Kind{
			search.KindExactID,
			search.KindExactClassNames,
			search.KindSelector,
			search.KindPath,
			search.KindPlainText,
			search.KindPath,
		}, kinds(jobs))
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		jobs := search.Decompose("  <div>  ", doc)
		require.Equal(t, []search.Kind{search.KindExactTagNames, search.KindPlainText}, kinds(jobs))
	})

	t.Run("multiple documents", func(t *testing.T) {
		other, err := memtree.ParseString("<html></html>")
		require.NoError(t, err)
		jobs := search.Decompose("<div>", doc, other)
		assert.Len(t, jobs, 4)
	})
}

func TestJobRun(t *testing.T) {
	doc, err := memtree.ParseString(`<html><body>
		<div id="target" class="box" data-x="1">needle text</div>
		<div class="box">other</div>
		<!-- needle comment -->
	</body></html>`)
	require.NoError(t, err)

	t.Run("exact id", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindExactID, Document: doc, Query: "target"}.Run()
		require.Len(t, nodes, 1)
		assert.Equal(t, "div", nodes[0].Name())
	})

	t.Run("exact class", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindExactClassNames, Document: doc, Query: "box"}.Run()
		assert.Len(t, nodes, 2)
	})

	t.Run("exact tag", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindExactTagNames, Document: doc, Query: "div"}.Run()
		assert.Len(t, nodes, 2)
	})

	t.Run("selector", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindSelector, Document: doc, Query: "div[data-x]"}.Run()
		assert.Len(t, nodes, 1)
	})

	t.Run("malformed selector yields no matches", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindSelector, Document: doc, Query: "div["}.Run()
		assert.Empty(t, nodes)
	})

	t.Run("path", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindPath, Document: doc, Query: "//div[@id='target']"}.Run()
		assert.Len(t, nodes, 1)
	})

	t.Run("plain text matches text and comments", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindPlainText, Document: doc, Query: "needle"}.Run()
		assert.Len(t, nodes, 2)
	})

	t.Run("empty query", func(t *testing.T) {
		nodes := search.Job{Kind: search.KindExactTagNames, Document: doc, Query: ""}.Run()
		assert.Empty(t, nodes)
	})
}
