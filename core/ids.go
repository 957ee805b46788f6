package core

// NodeID is a surrogate identifier standing in for a live node across the
// mirror boundary. It is strictly 32-bit and allocated monotonically per
// mirroring session; IDs are never reused within a session.
type NodeID uint32

// None is the sentinel for "unbound" / "not found". Callers must treat it
// as an absent result, never as a fault.
const None = NodeID(0)
