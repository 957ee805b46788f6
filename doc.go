// Package treemirror mirrors a live, externally-mutable tree to a remote
// frontend: it assigns stable surrogate IDs, pushes structure lazily as
// the frontend expands nodes, forwards every mutation as an incremental
// notification, and answers free-text searches without blocking the host.
//
// # Quick Start
//
//	doc, _ := memtree.ParseString("<html><body><div id='x'>hi</div></body></html>")
//	agent, _ := treemirror.New(myFrontend)
//	agent.SetDocument(doc)          // pushes the root skeleton
//	agent.GetChildren(1, bodyID)    // frontend expands a node
//	agent.Search("div", false)      // incremental search, one job per tick
//
// The frontend never sees raw node pointers, only surrogate IDs minted by
// the agent. IDs are monotonically increasing, never reused within a
// session, and become permanently invalid once their node is unbound.
//
// # Laziness
//
// Only the structure the frontend asked for is mirrored. A node whose
// child list was never requested reports child-count changes instead of
// individual insertions; detached subtrees are pushed on demand into
// separate dangling scopes.
//
// # Search
//
// A free-text query is decomposed into an ordered list of match
// strategies (exact id, class, tag, selector, path expression, plain
// text). In incremental mode one strategy runs per scheduling tick, so
// large trees stay responsive while results stream in deduplicated
// batches.
package treemirror
