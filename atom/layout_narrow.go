//go:build atom_narrow

package atom

// payloadSize is the number of bytes an Atom carries next to its pointer.
// The narrow width keeps Atom at two machine words and holds up to 7 bytes
// inline.
const payloadSize = 8
