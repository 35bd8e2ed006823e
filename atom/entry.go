package atom

import "sync/atomic"

// entry is the shared, reference-counted record behind interned atoms.
// text and hash never change after creation.
type entry struct {
	text  string
	hash  uint64
	refs  atomic.Int64
	shard *shard

	// linked is true while the entry is reachable from its shard. Guarded
	// by shard.mu.
	linked bool
	// alias is the entry that took over this one's content when its store
	// was merged into another. The entry holds one reference on it until
	// its own count drops to zero. Guarded by shard.mu.
	alias *entry
}

// acquire takes another reference. The caller must already hold one.
func (e *entry) acquire() {
	n := e.refs.Add(1)
	invariant(n > 1, "atom: clone of a released atom")
}

// release drops a reference. The goroutine that brings the count to zero
// tries to unlink the entry, but only after re-checking under the shard
// lock: a concurrent Intern may have found the entry and taken a new
// reference in the meantime, in which case the entry stays. A merged entry
// is already unlinked and hands its reference on the alias back instead.
func (e *entry) release() {
	n := e.refs.Add(-1)
	invariant(n >= 0, "atom: reference count dropped below zero")
	if n != 0 {
		return
	}

	var alias *entry
	sh := e.shard
	sh.mu.Lock()
	switch {
	case e.refs.Load() != 0:
		sh.abandoned++
	case e.linked:
		sh.unlink(e)
		sh.removals++
	case e.alias != nil:
		alias, e.alias = e.alias, nil
	default:
		sh.abandoned++
	}
	sh.mu.Unlock()

	if alias != nil {
		alias.release()
	}
}
