//go:build atom_wide && !atom_narrow

package atom

// payloadSize is the number of bytes an Atom carries next to its pointer.
// The wide width holds up to 23 bytes inline.
const payloadSize = 24
