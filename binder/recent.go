package binder

import "github.com/hupe1980/treemirror/core"

// recentLimit bounds the recent-node list; overflow evicts the oldest
// entry.
const recentLimit = 5

// RecentList is a bounded, most-recently-added-first sequence of
// surrogate IDs, used for jump-to-last-touched-node workflows.
type RecentList struct {
	ids []core.NodeID
}

func newRecentList() *RecentList {
	return &RecentList{}
}

// Add prepends id, evicting the oldest entry beyond the limit.
func (r *RecentList) Add(id core.NodeID) {
	r.ids = append([]core.NodeID{id}, r.ids...)
	if len(r.ids) > recentLimit {
		r.ids = r.ids[:recentLimit]
	}
}

// At returns the i-th most recent ID, or core.None when out of range.
func (r *RecentList) At(i int) core.NodeID {
	if i < 0 || i >= len(r.ids) {
		return core.None
	}
	return r.ids[i]
}

// Len returns the number of recorded IDs.
func (r *RecentList) Len() int {
	return len(r.ids)
}

// Clear drops all entries.
func (r *RecentList) Clear() {
	r.ids = nil
}
