//go:build !atom_narrow && !atom_wide

package atom

// payloadSize is the number of bytes an Atom carries next to its pointer.
// The default width holds up to 15 bytes inline.
const payloadSize = 16
