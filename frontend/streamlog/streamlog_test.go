package streamlog_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/frontend"
	"github.com/hupe1980/treemirror/frontend/streamlog"
	"github.com/hupe1980/treemirror/tree"
)

func TestCaptureRoundTrip(t *testing.T) {
	rec := frontend.NewRecorder()
	var buf bytes.Buffer

	f, err := streamlog.New(rec, &buf)
	require.NoError(t, err)

	f.SetDocument(&frontend.Node{ID: 1, Kind: tree.KindDocument, Name: "#document"})
	f.ChildNodeInserted(2, 3, &frontend.Node{ID: 4, Kind: tree.KindElement, Name: "div"})
	f.AttributesUpdated(4, []tree.Attr{{Name: "id", Value: "x"}})
	f.AddNodesToSearchResult([]core.NodeID{4})
	f.DidApplyChange(7, true)
	require.NoError(t, f.Close())

	// Every message reached the wrapped sink.
	require.Len(t, rec.Messages(), 5)
	last, ok := rec.Last("didApplyChange")
	require.True(t, ok)
	assert.Equal(t, int64(7), last.CallID)

	// And the capture replays identically.
	records, err := streamlog.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "setDocument", records[0].Method)
	require.NotNil(t, records[0].Node)
	assert.Equal(t, core.NodeID(1), records[0].Node.ID)

	assert.Equal(t, "childNodeInserted", records[1].Method)
	assert.Equal(t, core.NodeID(2), records[1].Parent)
	assert.Equal(t, core.NodeID(3), records[1].Prev)
	assert.Equal(t, "div", records[1].Node.Name)

	assert.Equal(t, "attributesUpdated", records[2].Method)
	assert.Equal(t, []tree.Attr{{Name: "id", Value: "x"}}, records[2].Attrs)

	assert.Equal(t, "addNodesToSearchResult", records[3].Method)
	assert.Equal(t, []core.NodeID{4}, records[3].IDs)

	assert.Equal(t, "didApplyChange", records[4].Method)
	assert.True(t, records[4].OK)
}

func TestForwardingAfterClose(t *testing.T) {
	rec := frontend.NewRecorder()
	var buf bytes.Buffer

	f, err := streamlog.New(rec, &buf)
	require.NoError(t, err)

	f.DidGetChildren(1)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	// Messages after Close still reach the sink but are not captured.
	f.DidGetChildren(2)
	assert.Len(t, rec.Messages(), 2)

	records, err := streamlog.Decode(&buf)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNewRequiresSink(t *testing.T) {
	var buf bytes.Buffer
	_, err := streamlog.New(nil, &buf)
	assert.Error(t, err)
}
