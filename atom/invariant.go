package atom

// invariant panics when cond is false in builds tagged atom_debug. Release
// builds compile it away; the conditions it guards are unreachable unless
// an Atom is used after Release.
func invariant(cond bool, msg string) {
	if debugAssertions && !cond {
		panic(msg)
	}
}
