package search_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treemirror/search"
	"github.com/hupe1980/treemirror/tree"
	"github.com/hupe1980/treemirror/tree/memtree"
)

// batchSink collects reported batches.
type batchSink struct {
	mu      sync.Mutex
	batches [][]tree.Node
}

func (s *batchSink) report(fresh []tree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, fresh)
}

func (s *batchSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *batchSink) flatten() []tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tree.Node
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func newTestDoc(t *testing.T) (tree.Document, []tree.Node) {
	t.Helper()
	doc, err := memtree.ParseString(`<html><body>
		<div class="box">a</div>
		<div class="box">b</div>
	</body></html>`)
	require.NoError(t, err)
	return doc, doc.ElementsByTagName("div")
}

func TestSchedulerSynchronous(t *testing.T) {
	doc, divs := newTestDoc(t)

	sink := &batchSink{}
	s := search.NewScheduler(time.Millisecond, sink.report)

	jobs := []search.Job{
		{Kind: search.KindExactTagNames, Document: doc, Query: "div"},
		{Kind: search.KindExactClassNames, Document: doc, Query: "box"},
	}
	s.Start(jobs, true)

	// One batch, duplicates across jobs collapsed, discovery order kept.
	require.Equal(t, 1, sink.count())
	assert.Equal(t, divs, sink.flatten())
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerSynchronousEmptyResult(t *testing.T) {
	doc, _ := newTestDoc(t)

	sink := &batchSink{}
	s := search.NewScheduler(time.Millisecond, sink.report)

	s.Start([]search.Job{{Kind: search.KindExactTagNames, Document: doc, Query: "video"}}, true)

	require.Equal(t, 1, sink.count())
	assert.Empty(t, sink.flatten())
}

func TestSchedulerIncremental(t *testing.T) {
	doc, divs := newTestDoc(t)

	sink := &batchSink{}
	s := search.NewScheduler(time.Millisecond, sink.report)

	jobs := []search.Job{
		{Kind: search.KindExactTagNames, Document: doc, Query: "div"},
		{Kind: search.KindExactClassNames, Document: doc, Query: "box"},
		{Kind: search.KindExactTagNames, Document: doc, Query: "video"},
	}
	s.Start(jobs, false)

	// One batch per job, empty batches included.
	require.Eventually(t, func() bool { return sink.count() == len(jobs) }, time.Second, time.Millisecond)
	assert.Equal(t, divs, sink.flatten())
	assert.Equal(t, 0, s.Pending())

	// The session ended implicitly; no further batches arrive.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, len(jobs), sink.count())
}

func TestSchedulerCancel(t *testing.T) {
	doc, _ := newTestDoc(t)

	sink := &batchSink{}
	s := search.NewScheduler(100*time.Millisecond, sink.report)

	jobs := make([]search.Job, 10)
	for i := range jobs {
		jobs[i] = search.Job{Kind: search.KindExactTagNames, Document: doc, Query: "div"}
	}
	s.Start(jobs, false)

	// The first job runs immediately; cancel before the second tick.
	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, time.Millisecond)
	s.Cancel()
	assert.Equal(t, 0, s.Pending())

	reported := sink.count()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, reported, sink.count())
}

func TestSchedulerRestartReplacesSession(t *testing.T) {
	doc, divs := newTestDoc(t)

	sink := &batchSink{}
	s := search.NewScheduler(time.Hour, sink.report)

	s.Start([]search.Job{
		{Kind: search.KindExactTagNames, Document: doc, Query: "div"},
		{Kind: search.KindExactTagNames, Document: doc, Query: "div"},
	}, false)

	// Restarting in synchronous mode cancels the pending queue and the
	// previous session's result set, so the same nodes are fresh again.
	s.Start([]search.Job{{Kind: search.KindExactTagNames, Document: doc, Query: "div"}}, true)

	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, time.Millisecond)
	last := sink.flatten()
	assert.Equal(t, divs, last[len(last)-len(divs):])
	assert.Equal(t, 0, s.Pending())
}
