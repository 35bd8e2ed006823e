package atom

import (
	"math/bits"
	"runtime"
	"strings"

	"golang.org/x/exp/slices"
)

const maxShards = 1024

// Store is a sharded table that deduplicates interned atoms. At most one
// entry exists per distinct content; entries are removed when the last
// atom referencing them is released.
//
// A Store is safe for concurrent use. Creating a Store is cheap enough that
// tests and short-lived workloads can use their own instead of Default.
type Store struct {
	shards []shard
	shift  uint
	static *StaticSet
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
	static *StaticSet
}

// WithShards sets the number of shards. It is rounded up to a power of two
// and clamped to [1, 1024].
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// WithStatic makes New resolve members of set to static atoms before
// trying the inline or interned representations.
func WithStatic(set *StaticSet) Option {
	return func(o *storeOptions) {
		o.static = set
	}
}

// NewStore creates an empty Store. Without WithShards the shard count scales
// with GOMAXPROCS.
func NewStore(opts ...Option) *Store {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.shards == 0 {
		o.shards = max(8, 4*runtime.GOMAXPROCS(0))
	}

	n := nextPow2(o.shards)
	s := &Store{
		shards: make([]shard, n),
		shift:  uint(64 - bits.TrailingZeros(uint(n))),
		static: o.static,
	}
	for i := range s.shards {
		s.shards[i].buckets = make(map[uint64][]*entry)
	}
	return s
}

func nextPow2(n int) int {
	switch {
	case n <= 1:
		return 1
	case n >= maxShards:
		return maxShards
	}
	return 1 << bits.Len(uint(n-1))
}

// shardFor picks a shard from the top bits of the hash. With a single shard
// the shift is 64 and the index is always zero.
func (s *Store) shardFor(hash uint64) *shard {
	return &s.shards[hash>>s.shift]
}

// Static returns the static set consulted by New, or nil.
func (s *Store) Static() *StaticSet {
	return s.static
}

// New returns the atom for text: a static atom if text is in the store's
// static set, an inline atom if it fits, and an interned atom otherwise.
func (s *Store) New(text string) Atom {
	if e, ok := s.static.lookup(text); ok {
		return fromStatic(e)
	}
	if len(text) <= InlineCapacity {
		return inline(text)
	}
	return s.intern(text)
}

// NewBytes is like New but takes a byte slice. b is copied only when a new
// intern entry has to be created.
func (s *Store) NewBytes(b []byte) Atom {
	return s.New(bytesView(b))
}

// Intern always returns an interned atom, even for text that New would
// store inline or resolve statically.
func (s *Store) Intern(text string) Atom {
	return s.intern(text)
}

// InternBytes is like Intern but takes a byte slice.
func (s *Store) InternBytes(b []byte) Atom {
	return s.intern(bytesView(b))
}

func (s *Store) intern(key string) Atom {
	hash := hashString(key)
	return fromEntry(s.shardFor(hash).intern(key, hash))
}

// Merge moves every live entry of other into s, so that a worker can intern
// into a private store and fold the result into a shared one. Where s
// already holds the same content its entry is reused; otherwise s gains a
// new one. Atoms created from other stay valid, compare Equal to the atoms
// of s and keep their hash. Each merged entry keeps the entry in s alive
// until its last atom is released.
//
// other is empty afterwards and remains usable. Entries interned into other
// while Merge runs may stay behind.
func (s *Store) Merge(other *Store) {
	if other == nil || other == s {
		return
	}

	var held []*entry
	for i := range other.shards {
		sh := &other.shards[i]

		held = held[:0]
		sh.mu.Lock()
		for _, bucket := range sh.buckets {
			for _, e := range bucket {
				// Zero means a release is about to remove it.
				if e.refs.Load() == 0 {
					continue
				}
				e.refs.Add(1)
				held = append(held, e)
			}
		}
		sh.mu.Unlock()

		for _, e := range held {
			alias := s.shardFor(e.hash).intern(e.text, e.hash)

			sh.mu.Lock()
			if e.linked && e.alias == nil {
				sh.unlink(e)
				e.alias, alias = alias, nil
				sh.merged++
			}
			sh.mu.Unlock()

			if alias != nil {
				alias.release()
			}
			e.release()
		}
	}
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += sh.entries
		sh.mu.Unlock()
	}
	return n
}

// Contains reports whether the store holds an entry for text.
func (s *Store) Contains(text string) bool {
	hash := hashString(text)
	sh := s.shardFor(hash)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.find(text, hash) != nil
}

// Refs returns the current reference count of the entry for text, or zero
// if there is none.
func (s *Store) Refs(text string) int64 {
	hash := hashString(text)
	sh := s.shardFor(hash)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e := sh.find(text, hash); e != nil {
		return e.refs.Load()
	}
	return 0
}

// Stats is a point-in-time summary of a Store.
type Stats struct {
	Shards  int
	Entries int
	// Bytes is the total content size held by live entries.
	Bytes int

	// Hits and Misses count interning calls that found or created an entry.
	Hits   uint64
	Misses uint64
	// Resurrections counts entries revived by Intern while a release was
	// about to remove them; Abandoned counts the removals given up as a
	// result (or lost to another releaser).
	Resurrections uint64
	Removals      uint64
	Abandoned     uint64
	// Merged counts entries handed over to another store by Merge.
	Merged uint64
}

// Stats collects counters from every shard.
func (s *Store) Stats() Stats {
	st := Stats{Shards: len(s.shards)}
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		st.Entries += sh.entries
		st.Bytes += sh.bytes
		st.Hits += sh.hits
		st.Misses += sh.misses
		st.Resurrections += sh.resurrections
		st.Removals += sh.removals
		st.Abandoned += sh.abandoned
		st.Merged += sh.merged
		sh.mu.Unlock()
	}
	return st
}

// EntryInfo describes one live entry.
type EntryInfo struct {
	Text string
	Hash uint64
	Refs int64
}

// Snapshot lists live entries, most referenced first and then by content.
func (s *Store) Snapshot() []EntryInfo {
	var infos []EntryInfo
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for _, bucket := range sh.buckets {
			for _, e := range bucket {
				infos = append(infos, EntryInfo{
					Text: e.text,
					Hash: e.hash,
					Refs: e.refs.Load(),
				})
			}
		}
		sh.mu.Unlock()
	}

	slices.SortFunc(infos, func(a, b EntryInfo) int {
		if a.Refs != b.Refs {
			if a.Refs > b.Refs {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Text, b.Text)
	})
	return infos
}
