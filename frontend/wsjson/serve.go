package wsjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/treemirror"
	"github.com/hupe1980/treemirror/core"
)

// Agent is the command surface Serve dispatches to. *treemirror.Agent
// satisfies it.
type Agent interface {
	GetChildren(callID int64, id core.NodeID) error
	SetAttribute(callID int64, id core.NodeID, name, value string) error
	RemoveAttribute(callID int64, id core.NodeID, name string) error
	SetTextValue(callID int64, id core.NodeID, value string) error
	RemoveNode(callID int64, id core.NodeID) error
	ChangeTagName(callID int64, id core.NodeID, tag string) error
	GetOuterMarkup(callID int64, id core.NodeID) error
	SetOuterMarkup(callID int64, id core.NodeID, markup string) error
	ResolveByPath(callID int64, path string) error
	Search(query string, synchronous bool)
	CancelSearch()
	AddToRecent(id core.NodeID) error
}

var _ Agent = (*treemirror.Agent)(nil)

// command is one inbound protocol frame.
type command struct {
	Method string          `json:"method"`
	CallID int64           `json:"callId"`
	Params json.RawMessage `json:"params,omitempty"`
}

type commandParams struct {
	NodeID      core.NodeID `json:"nodeId"`
	Name        string      `json:"name"`
	Value       string      `json:"value"`
	TagName     string      `json:"tagName"`
	Markup      string      `json:"markup"`
	Path        string      `json:"path"`
	Query       string      `json:"query"`
	Synchronous bool        `json:"synchronous"`
}

// Serve reads command frames from conn and dispatches them to agent until
// ctx is cancelled, the connection closes, or a protocol error occurs.
// Command-level failures are acknowledged through the frontend channel
// and do not end the session.
func Serve(ctx context.Context, conn *websocket.Conn, agent Agent) error {
	inner, cancel := context.WithCancel(ctx)
	defer cancel()

	g, inner := errgroup.WithContext(inner)

	g.Go(func() error {
		<-inner.Done()
		return conn.Close()
	})

	g.Go(func() error {
		defer cancel()
		for {
			var cmd command
			if err := conn.ReadJSON(&cmd); err != nil {
				if inner.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return fmt.Errorf("read command: %w", err)
			}
			if err := dispatch(agent, cmd); err != nil && errors.Is(err, errBadFrame) {
				// Command failures already acked their callID with a zero
				// or false result; a frame we cannot even decode has no
				// callID contract to honor and ends the session.
				return err
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		// Caller-initiated shutdown; the read error it provoked is noise.
		return nil
	}
	return err
}

// errBadFrame marks frames that cannot be dispatched at all, as opposed
// to commands that ran and failed.
var errBadFrame = errors.New("bad command frame")

// dispatch executes one command. Frame-level problems are wrapped in
// errBadFrame; command-level failures come back as the command's error
// after the command acked them through the frontend.
func dispatch(agent Agent, cmd command) error {
	var p commandParams
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &p); err != nil {
			return fmt.Errorf("%w: decode %s params: %v", errBadFrame, cmd.Method, err)
		}
	}

	switch cmd.Method {
	case "getChildren":
		return agent.GetChildren(cmd.CallID, p.NodeID)
	case "setAttribute":
		return agent.SetAttribute(cmd.CallID, p.NodeID, p.Name, p.Value)
	case "removeAttribute":
		return agent.RemoveAttribute(cmd.CallID, p.NodeID, p.Name)
	case "setTextValue":
		return agent.SetTextValue(cmd.CallID, p.NodeID, p.Value)
	case "removeNode":
		return agent.RemoveNode(cmd.CallID, p.NodeID)
	case "changeTagName":
		return agent.ChangeTagName(cmd.CallID, p.NodeID, p.TagName)
	case "getOuterMarkup":
		return agent.GetOuterMarkup(cmd.CallID, p.NodeID)
	case "setOuterMarkup":
		return agent.SetOuterMarkup(cmd.CallID, p.NodeID, p.Markup)
	case "resolveByPath":
		return agent.ResolveByPath(cmd.CallID, p.Path)
	case "performSearch":
		agent.Search(p.Query, p.Synchronous)
		return nil
	case "cancelSearch":
		agent.CancelSearch()
		return nil
	case "addToRecent":
		return agent.AddToRecent(p.NodeID)
	default:
		return fmt.Errorf("%w: unknown method %q", errBadFrame, cmd.Method)
	}
}
