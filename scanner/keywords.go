package scanner

import (
	"sync"

	"github.com/robinvdvleuten/hstr/atom"
)

// keywords are the reserved words the scanner reports as KEYWORD. They are
// common enough across C-family languages to be worth a static atom each.
var keywords = []string{
	"break", "case", "chan", "class", "const", "continue", "default",
	"defer", "do", "else", "enum", "export", "extends", "false", "fn",
	"for", "func", "go", "goto", "if", "impl", "import", "interface",
	"let", "map", "match", "mut", "new", "nil", "null", "package",
	"pub", "range", "return", "select", "self", "static", "struct",
	"switch", "this", "true", "type", "use", "var", "while",
}

var keywordSet = sync.OnceValue(func() *atom.StaticSet {
	return atom.MustStaticSet(keywords...)
})

// Keywords returns a copy of the keyword list.
func Keywords() []string {
	return append([]string(nil), keywords...)
}

// KeywordSet returns the keywords as a static set, built once.
func KeywordSet() *atom.StaticSet {
	return keywordSet()
}
