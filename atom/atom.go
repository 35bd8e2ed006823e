// Package atom provides immutable string values that are cheap to hash,
// compare and copy.
//
// An Atom stores its content in one of three ways:
//
//   - inline: short strings live inside the Atom itself and never allocate
//   - static: strings found in a StaticSet point at the set's read-only entry
//   - interned: everything else is deduplicated in a sharded Store and shared
//     through a reference-counted entry
//
// Which representation is used is an implementation detail. Equal, Hash and
// the accessors behave the same for every variant, so an inline "foo" equals
// an interned "foo" and both report the same hash.
//
// Example usage:
//
//	store := atom.NewStore(atom.WithStatic(atom.MustStaticSet("func", "return")))
//
//	a := store.New("an_identifier_longer_than_inline")
//	b := a.Clone()
//	fmt.Println(a.Equal(b)) // true
//
//	// Interned atoms hold a reference; release them when done.
//	a.Release()
//	b.Release()
//
// Go has no destructors, so Clone and Release are explicit. Copying an Atom
// by assignment does not take a reference; only Clone does.
package atom

import (
	"encoding/binary"
	"strings"
	"unsafe"
)

const (
	// InlineCapacity is the longest string, in bytes, that New stores
	// inside the Atom without touching the intern store. It depends on the
	// build tags: 7 with atom_narrow, 15 by default, 23 with atom_wide.
	InlineCapacity = payloadSize - 1

	tagIndex = payloadSize - 1
	kindMask = 0b11
	lenShift = 2
)

// The tag byte stores the inline length in its upper six bits and a static
// index needs four payload bytes.
const (
	_ uint = 63 - InlineCapacity
	_ uint = payloadSize - 5
)

// Kind reports how an Atom stores its content.
type Kind uint8

const (
	Inline Kind = iota
	Static
	Interned
)

func (k Kind) String() string {
	switch k {
	case Inline:
		return "inline"
	case Static:
		return "static"
	case Interned:
		return "interned"
	default:
		return "invalid"
	}
}

// Atom is an immutable string value. The zero Atom is the empty string.
//
// Atoms must be compared with Equal, not ==.
type Atom struct {
	_ [0]func()

	// ref is *entry for interned atoms, *staticEntry for static atoms and
	// nil for inline atoms.
	ref unsafe.Pointer

	// data holds inline content (zero padded) or the static index. The
	// last byte is the tag: kind in the low two bits, inline length above.
	data [payloadSize]byte
}

func inline(text string) Atom {
	var a Atom
	copy(a.data[:], text)
	a.data[tagIndex] = byte(len(text))<<lenShift | byte(Inline)
	return a
}

func fromStatic(e *staticEntry) Atom {
	var a Atom
	a.ref = unsafe.Pointer(e)
	binary.LittleEndian.PutUint32(a.data[:4], e.index)
	a.data[tagIndex] = byte(Static)
	return a
}

func fromEntry(e *entry) Atom {
	var a Atom
	a.ref = unsafe.Pointer(e)
	a.data[tagIndex] = byte(Interned)
	return a
}

func (a *Atom) kind() Kind {
	return Kind(a.data[tagIndex] & kindMask)
}

// entry and staticEntry assume the caller has checked the kind.
func (a *Atom) entry() *entry {
	return (*entry)(a.ref)
}

func (a *Atom) staticEntry() *staticEntry {
	return (*staticEntry)(a.ref)
}

func (a *Atom) inlineLen() int {
	return int(a.data[tagIndex] >> lenShift)
}

// view returns the content without copying. For inline atoms the result
// aliases a's payload and must not outlive a.
func (a *Atom) view() string {
	switch a.kind() {
	case Inline:
		n := a.inlineLen()
		if n == 0 {
			return ""
		}
		return unsafe.String(&a.data[0], n)
	case Static:
		return a.staticEntry().text
	case Interned:
		return a.entry().text
	}
	invariant(false, "atom: invalid kind tag")
	return ""
}

// Kind reports the storage variant. It exists for diagnostics; code should
// not branch on it.
func (a Atom) Kind() Kind {
	return a.kind()
}

// Len returns the length of the content in bytes.
func (a Atom) Len() int {
	switch a.kind() {
	case Inline:
		return a.inlineLen()
	case Static:
		return len(a.staticEntry().text)
	case Interned:
		return len(a.entry().text)
	}
	invariant(false, "atom: invalid kind tag")
	return 0
}

// IsEmpty reports whether the atom holds the empty string.
func (a Atom) IsEmpty() bool {
	return a.Len() == 0
}

// String returns the content. Static and interned atoms return the shared
// string without copying.
func (a Atom) String() string {
	if a.kind() == Inline {
		return strings.Clone(a.view())
	}
	return a.view()
}

// Bytes returns a copy of the content.
func (a Atom) Bytes() []byte {
	return a.AppendTo(nil)
}

// AppendTo appends the content to dst and returns the extended slice.
func (a Atom) AppendTo(dst []byte) []byte {
	return append(dst, a.view()...)
}

// Clone returns a copy of a that holds its own reference. Interned atoms
// bump the entry's reference count; inline and static atoms are plain
// copies.
func (a Atom) Clone() Atom {
	if a.kind() == Interned {
		a.entry().acquire()
	}
	return a
}

// Release drops the reference held by a and resets it to the empty atom.
// Releasing the same variable twice is harmless; releasing two copies made
// by assignment (rather than Clone) is a bug.
func (a *Atom) Release() {
	if a.kind() == Interned {
		a.entry().release()
	}
	*a = Atom{}
}
