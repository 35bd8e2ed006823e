package atom

import (
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// hashString is the content hash shared by every variant, so that equal
// content always hashes the same regardless of representation.
func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// bytesView returns b as a string without copying. The result must not be
// retained past the call that received b.
func bytesView(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Hash returns the 64-bit content hash. Static and interned atoms return the
// hash computed when they were created; inline atoms hash their payload.
func (a Atom) Hash() uint64 {
	switch a.kind() {
	case Static:
		return a.staticEntry().hash
	case Interned:
		return a.entry().hash
	}
	return xxhash.Sum64(a.data[:a.inlineLen()])
}

// Equal reports whether a and b hold the same content.
func (a Atom) Equal(b Atom) bool {
	// Same entry, same static slot or byte-identical inline payload.
	if a.ref == b.ref && a.data == b.data {
		return true
	}

	ka, kb := a.kind(), b.kind()
	switch {
	case ka == Interned && kb == Interned:
		// Distinct entries only share content across stores or after
		// forced interning, so the hash settles most comparisons.
		ea, eb := a.entry(), b.entry()
		return ea.hash == eb.hash && ea.text == eb.text
	case ka == Inline && kb == Inline:
		return false
	}

	if a.Len() != b.Len() {
		return false
	}
	return a.view() == b.view()
}

// EqualString reports whether a holds s.
func (a Atom) EqualString(s string) bool {
	return a.view() == s
}

// Compare returns an integer comparing a and b lexicographically by
// content: 0 if equal, -1 if a < b, +1 if a > b.
func Compare(a, b Atom) int {
	if a.ref == b.ref && a.data == b.data {
		return 0
	}
	return strings.Compare(a.view(), b.view())
}
