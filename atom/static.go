package atom

import (
	"errors"
	"fmt"
	"math/bits"

	"golang.org/x/exp/slices"
)

// ErrStaticCollision is returned by NewStaticSet when two distinct words
// cannot be told apart by the content hash.
var ErrStaticCollision = errors.New("atom: static words collide")

const (
	maxDisplacement = 1 << 12
	golden          = 0x9e3779b97f4a7c15
)

type staticEntry struct {
	text  string
	hash  uint64
	index uint32
}

// StaticSet is a read-only perfect-hash set of well-known words. Lookups
// take constant time, never lock and never allocate. Static atoms point
// into the set, so a StaticSet must stay reachable for as long as atoms
// created from it; in practice sets are package-level variables.
type StaticSet struct {
	entries []staticEntry
	// disp holds one displacement per bucket; slots maps a slot to an
	// index into entries plus one, zero meaning empty.
	disp  []uint32
	slots []uint32
}

// NewStaticSet builds a set from words. Duplicates are collapsed, keeping
// the index of the first occurrence.
func NewStaticSet(words ...string) (*StaticSet, error) {
	s := &StaticSet{}
	seen := make(map[uint64]string, len(words))
	for _, w := range words {
		h := hashString(w)
		if prev, ok := seen[h]; ok {
			if prev == w {
				continue
			}
			return nil, fmt.Errorf("%w: %q and %q", ErrStaticCollision, prev, w)
		}
		seen[h] = w
		s.entries = append(s.entries, staticEntry{
			text:  w,
			hash:  h,
			index: uint32(len(s.entries)),
		})
	}

	if len(s.entries) == 0 {
		return s, nil
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustStaticSet is like NewStaticSet but panics on error. It is meant for
// package-level variables.
func MustStaticSet(words ...string) *StaticSet {
	s, err := NewStaticSet(words...)
	if err != nil {
		panic(err)
	}
	return s
}

func bucketOf(hash uint64, buckets int) int {
	return int(uint64(uint32(hash)) % uint64(buckets))
}

func slotOf(hash uint64, d uint32, slots int) int {
	f1 := hash >> 32
	f2 := (bits.RotateLeft64(hash*golden, 29) >> 32) | 1
	return int((f1 + uint64(d)*f2) % uint64(slots))
}

// build places every entry with hash-and-displace: entries are grouped into
// buckets, and each bucket, largest first, searches for the smallest
// displacement that sends all of its entries to free slots. When a bucket
// cannot be placed the table grows and the search restarts.
func (s *StaticSet) build() error {
	n := len(s.entries)
	nbuckets := n

	groups := make([][]int, nbuckets)
	for i := range s.entries {
		b := bucketOf(s.entries[i].hash, nbuckets)
		groups[b] = append(groups[b], i)
	}
	order := make([]int, nbuckets)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return len(groups[b]) - len(groups[a])
	})

	for nslots := n; nslots <= 4*n+8; nslots += n/8 + 1 {
		if s.place(groups, order, nslots) {
			return nil
		}
	}
	return fmt.Errorf("%w: no perfect hash for %d words", ErrStaticCollision, n)
}

func (s *StaticSet) place(groups [][]int, order []int, nslots int) bool {
	slots := make([]uint32, nslots)
	disp := make([]uint32, len(groups))
	taken := make([]int, 0, 8)

	for _, b := range order {
		group := groups[b]
		if len(group) == 0 {
			break
		}

		placed := false
		for d := uint32(0); d < maxDisplacement && !placed; d++ {
			taken = taken[:0]
			placed = true
			for _, i := range group {
				slot := slotOf(s.entries[i].hash, d, nslots)
				if slots[slot] != 0 || slices.Contains(taken, slot) {
					placed = false
					break
				}
				taken = append(taken, slot)
			}
			if placed {
				disp[b] = d
				for k, i := range group {
					slots[taken[k]] = uint32(i) + 1
				}
			}
		}
		if !placed {
			return false
		}
	}

	s.disp = disp
	s.slots = slots
	return true
}

func (s *StaticSet) lookup(text string) (*staticEntry, bool) {
	if s == nil || len(s.entries) == 0 {
		return nil, false
	}
	h := hashString(text)
	d := s.disp[bucketOf(h, len(s.disp))]
	i := s.slots[slotOf(h, d, len(s.slots))]
	if i == 0 {
		return nil, false
	}
	e := &s.entries[i-1]
	if e.hash != h || e.text != text {
		return nil, false
	}
	return e, true
}

// Lookup returns the dense index of text, or false if text is not a member.
func (s *StaticSet) Lookup(text string) (int, bool) {
	e, ok := s.lookup(text)
	if !ok {
		return 0, false
	}
	return int(e.index), true
}

// LookupBytes is like Lookup but takes a byte slice.
func (s *StaticSet) LookupBytes(b []byte) (int, bool) {
	return s.Lookup(bytesView(b))
}

// Atom returns the static atom for text, or false if text is not a member.
func (s *StaticSet) Atom(text string) (Atom, bool) {
	e, ok := s.lookup(text)
	if !ok {
		return Atom{}, false
	}
	return fromStatic(e), true
}

// At returns the word with the given index.
func (s *StaticSet) At(index int) string {
	return s.entries[index].text
}

// Len returns the number of words in the set.
func (s *StaticSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Words returns the members in index order.
func (s *StaticSet) Words() []string {
	if s == nil {
		return nil
	}
	words := make([]string, len(s.entries))
	for i := range s.entries {
		words[i] = s.entries[i].text
	}
	return words
}
