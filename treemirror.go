package treemirror

import (
	"sync"

	"github.com/hupe1980/treemirror/binder"
	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/frontend"
	"github.com/hupe1980/treemirror/search"
	"github.com/hupe1980/treemirror/tree"
)

// Agent mirrors one main document (plus any nested sub-documents reached
// through owner nodes) to a frontend. It owns the identity bindings, the
// lazily-pushed structure, and the search session of the mirror.
//
// All exported methods are safe for concurrent use. Mutation
// notifications from observed documents and result batches from the
// incremental search worker are serialized through the same internal
// mutex, so the frontend sees a consistent ordering.
type Agent struct {
	mu       sync.Mutex
	frontend frontend.Frontend
	binder   *binder.Binder

	// documents[0] is the main document; the rest are nested owned
	// documents currently bound into the mirror.
	documents []tree.Document
	unsub     map[tree.Document]func()

	scheduler *search.Scheduler
	logger    *Logger
	metrics   MetricsCollector
}

// New creates an Agent delivering all mirror traffic to f.
func New(f frontend.Frontend, optFns ...Option) (*Agent, error) {
	if f == nil {
		return nil, ErrNilFrontend
	}

	o := applyOptions(optFns)

	a := &Agent{
		frontend: f,
		binder:   binder.New(),
		unsub:    make(map[tree.Document]func()),
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}
	a.binder.UnbindHook = func(owner tree.Node) {
		a.unwatchLocked(owner.OwnedDocument())
	}
	a.scheduler = search.NewScheduler(o.searchInterval, a.reportSearchResults)

	return a, nil
}

// SetDocument replaces the mirrored main document. All previous bindings,
// dangling scopes, the children-requested set, the recent list and any
// active search session are discarded; surrogate IDs keep counting from
// where they left off. Passing nil clears the mirror.
func (a *Agent) SetDocument(doc tree.Document) {
	a.scheduler.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.discardLocked()
	if doc == nil {
		a.frontend.SetDocument(nil)
		a.logger.Debug("document cleared")
		return
	}
	a.watchLocked(doc)
	a.pushDocumentLocked()
}

// Reset clears the mirror completely, equivalent to SetDocument(nil).
func (a *Agent) Reset() {
	a.SetDocument(nil)
}

// Document returns the mirrored main document, nil when the mirror is
// empty.
func (a *Agent) Document() tree.Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.documents) == 0 {
		return nil
	}
	return a.documents[0]
}

// PushNode ensures n is bound and known to the frontend, pushing the
// missing ancestor structure (or the containing detached subtree) on
// demand, and returns its surrogate ID. Returns core.None when no
// document is set.
func (a *Agent) PushNode(n tree.Node) core.NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pushNodeLocked(n)
}

// discardLocked drops every binding and stops observing all documents.
func (a *Agent) discardLocked() {
	for _, cancel := range a.unsub {
		cancel()
	}
	a.unsub = make(map[tree.Document]func())
	a.documents = nil
	a.binder.DiscardAll()
}

// watchLocked subscribes to doc's mutations and adds it to the observed
// document set. Idempotent.
func (a *Agent) watchLocked(doc tree.Document) {
	if doc == nil {
		return
	}
	if _, ok := a.unsub[doc]; ok {
		return
	}
	a.documents = append(a.documents, doc)
	a.unsub[doc] = doc.Subscribe(&mutationObserver{a: a})
}

// unwatchLocked stops observing doc and removes it from the observed
// document set. Called from the binder's unbind hook while a.mu is held.
func (a *Agent) unwatchLocked(doc tree.Document) {
	if doc == nil {
		return
	}
	cancel, ok := a.unsub[doc]
	if !ok {
		return
	}
	cancel()
	delete(a.unsub, doc)
	for i, d := range a.documents {
		if d == doc {
			a.documents = append(a.documents[:i], a.documents[i+1:]...)
			break
		}
	}
}

// snapshotDocuments returns the observed document set for search
// decomposition.
func (a *Agent) snapshotDocuments() []tree.Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]tree.Document, len(a.documents))
	copy(out, a.documents)
	return out
}

// mutationObserver forwards document mutations into the agent. One
// observer instance serves all observed documents.
type mutationObserver struct {
	a *Agent
}

func (m *mutationObserver) NodeInserted(n tree.Node) {
	m.a.nodeInserted(n)
}

func (m *mutationObserver) NodeRemoved(n tree.Node) {
	m.a.nodeRemoved(n)
}

func (m *mutationObserver) AttributeChanged(el tree.Node) {
	m.a.attributeChanged(el)
}

func (m *mutationObserver) SubtreeReloaded(doc tree.Document) {
	m.a.subtreeReloaded(doc)
}

var _ tree.Observer = (*mutationObserver)(nil)
