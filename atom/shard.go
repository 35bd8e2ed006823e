package atom

import (
	"strings"
	"sync"

	"golang.org/x/sys/cpu"
)

// shard is one lock-protected partition of a Store. Entries are bucketed by
// their full 64-bit hash; a bucket holds more than one entry only on a hash
// collision.
type shard struct {
	mu      sync.Mutex
	buckets map[uint64][]*entry

	entries int
	bytes   int

	hits          uint64
	misses        uint64
	resurrections uint64
	removals      uint64
	abandoned     uint64
	merged        uint64

	_ cpu.CacheLinePad
}

// intern returns the entry for key with one new reference, creating it if
// needed. key may alias caller memory; a new entry always copies it.
func (sh *shard) intern(key string, hash uint64) *entry {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, e := range sh.buckets[hash] {
		if e.text != key {
			continue
		}
		// A count of zero means a release is waiting for this lock. Taking
		// the reference here makes it abandon the removal.
		if e.refs.Add(1) == 1 {
			sh.resurrections++
		}
		sh.hits++
		return e
	}

	e := &entry{
		text:   strings.Clone(key),
		hash:   hash,
		shard:  sh,
		linked: true,
	}
	e.refs.Store(1)

	sh.buckets[hash] = append(sh.buckets[hash], e)
	sh.entries++
	sh.bytes += len(key)
	sh.misses++
	return e
}

// find returns the linked entry for key without taking a reference.
// Callers must hold sh.mu.
func (sh *shard) find(key string, hash uint64) *entry {
	for _, e := range sh.buckets[hash] {
		if e.text == key {
			return e
		}
	}
	return nil
}

// unlink removes e from the shard. Callers must hold sh.mu.
func (sh *shard) unlink(e *entry) {
	invariant(e.linked, "atom: entry unlinked twice")

	bucket := sh.buckets[e.hash]
	for i, c := range bucket {
		if c != e {
			continue
		}
		last := len(bucket) - 1
		bucket[i] = bucket[last]
		bucket[last] = nil
		if last == 0 {
			delete(sh.buckets, e.hash)
		} else {
			sh.buckets[e.hash] = bucket[:last]
		}

		e.linked = false
		sh.entries--
		sh.bytes -= len(e.text)
		return
	}

	invariant(false, "atom: linked entry missing from its shard")
}
