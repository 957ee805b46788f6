package wsjson_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treemirror/core"
	"github.com/hupe1980/treemirror/frontend"
	"github.com/hupe1980/treemirror/frontend/wsjson"
	"github.com/hupe1980/treemirror/tree"
)

var upgrader = websocket.Upgrader{}

// connPair establishes a websocket connection through a test server and
// hands the server side to handle.
func connPair(t *testing.T, handle func(conn *websocket.Conn)) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

type receivedFrame struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

func TestFrontendWritesFrames(t *testing.T) {
	client := connPair(t, func(conn *websocket.Conn) {
		f := wsjson.NewFrontend(conn)
		f.SetDocument(&frontend.Node{ID: 1, Kind: tree.KindDocument, Name: "#document"})
		f.ChildNodeRemoved(2, 3)
		f.DidApplyChange(7, true)
		f.AddNodesToSearchResult(nil)
		assert.NoError(t, f.Err())
	})

	var frames []receivedFrame
	for i := 0; i < 4; i++ {
		var fr receivedFrame
		require.NoError(t, client.ReadJSON(&fr))
		frames = append(frames, fr)
	}

	assert.Equal(t, "setDocument", frames[0].Method)
	root, ok := frames[0].Params["root"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), root["id"])
	assert.Equal(t, "#document", root["name"])

	assert.Equal(t, "childNodeRemoved", frames[1].Method)
	assert.Equal(t, float64(2), frames[1].Params["parentId"])
	assert.Equal(t, float64(3), frames[1].Params["nodeId"])

	assert.Equal(t, "didApplyChange", frames[2].Method)
	assert.Equal(t, float64(7), frames[2].Params["callId"])
	assert.Equal(t, true, frames[2].Params["ok"])

	// Empty result batches serialize as an empty array, not null.
	assert.Equal(t, "addNodesToSearchResult", frames[3].Method)
	assert.Equal(t, []any{}, frames[3].Params["nodeIds"])
}

// fakeAgent records dispatched commands.
type fakeAgent struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeAgent) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAgent) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAgent) GetChildren(callID int64, id core.NodeID) error {
	f.record("getChildren")
	return nil
}

func (f *fakeAgent) SetAttribute(callID int64, id core.NodeID, name, value string) error {
	f.record("setAttribute:" + name + "=" + value)
	return nil
}

func (f *fakeAgent) RemoveAttribute(callID int64, id core.NodeID, name string) error {
	f.record("removeAttribute")
	return nil
}

func (f *fakeAgent) SetTextValue(callID int64, id core.NodeID, value string) error {
	f.record("setTextValue")
	return nil
}

func (f *fakeAgent) RemoveNode(callID int64, id core.NodeID) error {
	f.record("removeNode")
	return nil
}

func (f *fakeAgent) ChangeTagName(callID int64, id core.NodeID, tag string) error {
	f.record("changeTagName")
	return nil
}

func (f *fakeAgent) GetOuterMarkup(callID int64, id core.NodeID) error {
	f.record("getOuterMarkup")
	return nil
}

func (f *fakeAgent) SetOuterMarkup(callID int64, id core.NodeID, markup string) error {
	f.record("setOuterMarkup")
	return nil
}

func (f *fakeAgent) ResolveByPath(callID int64, path string) error {
	f.record("resolveByPath:" + path)
	return nil
}

func (f *fakeAgent) Search(query string, synchronous bool) {
	f.record("search:" + query)
}

func (f *fakeAgent) CancelSearch() {
	f.record("cancelSearch")
}

func (f *fakeAgent) AddToRecent(id core.NodeID) error {
	f.record("addToRecent")
	return nil
}

var _ wsjson.Agent = (*fakeAgent)(nil)

func TestServeDispatchesCommands(t *testing.T) {
	agent := &fakeAgent{}
	done := make(chan error, 1)

	client := connPair(t, func(conn *websocket.Conn) {
		done <- wsjson.Serve(context.Background(), conn, agent)
	})

	send := func(method, params string) {
		t.Helper()
		frame := `{"method":"` + method + `","callId":1`
		if params != "" {
			frame += `,"params":` + params
		}
		frame += `}`
		require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	send("getChildren", `{"nodeId":5}`)
	send("setAttribute", `{"nodeId":5,"name":"class","value":"box"}`)
	send("performSearch", `{"query":"div","synchronous":true}`)
	send("cancelSearch", "")
	send("resolveByPath", `{"path":"0,html"}`)

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after close")
	}

	assert.Equal(t, []string{
		"getChildren",
		"setAttribute:class=box",
		"search:div",
		"cancelSearch",
		"resolveByPath:0,html",
	}, agent.recorded())
}

// failingAgent rejects removals but still records them.
type failingAgent struct {
	fakeAgent
}

func (f *failingAgent) RemoveNode(callID int64, id core.NodeID) error {
	f.record("removeNode")
	return errors.New("no such node")
}

func TestServeKeepsSessionOnCommandFailure(t *testing.T) {
	agent := &failingAgent{}
	done := make(chan error, 1)

	client := connPair(t, func(conn *websocket.Conn) {
		done <- wsjson.Serve(context.Background(), conn, agent)
	})

	frames := []string{
		`{"method":"removeNode","callId":3,"params":{"nodeId":999}}`,
		`{"method":"getChildren","callId":4,"params":{"nodeId":5}}`,
	}
	for _, frame := range frames {
		require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after close")
	}

	// The failed command did not end the session.
	assert.Equal(t, []string{"removeNode", "getChildren"}, agent.recorded())
}

func TestServeEndsSessionOnBadFrame(t *testing.T) {
	agent := &fakeAgent{}
	done := make(chan error, 1)

	client := connPair(t, func(conn *websocket.Conn) {
		done <- wsjson.Serve(context.Background(), conn, agent)
	})

	require.NoError(t, client.WriteMessage(websocket.TextMessage,
		[]byte(`{"method":"unknownMethod","callId":9}`)))

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknownMethod")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after bad frame")
	}
	assert.Empty(t, agent.recorded())
}

func TestServeStopsOnContextCancel(t *testing.T) {
	agent := &fakeAgent{}
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())

	connPair(t, func(conn *websocket.Conn) {
		done <- wsjson.Serve(ctx, conn, agent)
	})

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
