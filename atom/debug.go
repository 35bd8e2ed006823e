//go:build atom_debug

package atom

const debugAssertions = true
