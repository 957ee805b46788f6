package treemirror

import (
	"errors"
	"fmt"

	"github.com/hupe1980/treemirror/core"
)

var (
	// ErrNilFrontend is returned by New when no frontend is supplied.
	ErrNilFrontend = errors.New("frontend must not be nil")

	// ErrNoDocument is returned by operations that require a mirrored
	// document before one was set.
	ErrNoDocument = errors.New("no document set")

	// ErrNotElement is returned when a command addresses a non-element
	// node with an element-only operation.
	ErrNotElement = errors.New("node is not an element")

	// ErrNotAttached is returned when a command requires a node with a
	// parent.
	ErrNotAttached = errors.New("node has no parent")

	// ErrInvalidPath is returned for malformed index/name path strings.
	ErrInvalidPath = errors.New("invalid node path")
)

// ErrUnknownNode indicates a surrogate ID that is not bound in any scope:
// either never issued, or purged by an unbind cascade or session reset.
type ErrUnknownNode struct {
	ID core.NodeID
}

func (e *ErrUnknownNode) Error() string {
	return fmt.Sprintf("unknown node id: %d", e.ID)
}
