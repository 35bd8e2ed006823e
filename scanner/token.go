package scanner

import (
	"fmt"

	"github.com/robinvdvleuten/hstr/atom"
)

// TokenType represents the type of token scanned from the input.
type TokenType uint8

const (
	EOF TokenType = iota
	ILLEGAL

	IDENT   // name, _x, ünïcode
	KEYWORD // func, return, ...
	NUMBER  // 42, 0x1f, 3.14e10
	STRING  // "quoted", 'single', `raw`
	PUNCT   // any other printable ASCII byte
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",
	IDENT:   "IDENT",
	KEYWORD: "KEYWORD",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	PUNCT:   "PUNCT",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token is a lexical token. Start and End are byte offsets into the source;
// Text holds the token's value as an atom (string tokens without their
// quotes). Tokens own their atoms and must be released with ReleaseTokens.
type Token struct {
	Type   TokenType
	Text   atom.Atom
	Start  int
	End    int
	Line   int
	Column int
}

// String returns the token's text.
func (t Token) String() string {
	return t.Text.String()
}

// Lexeme returns the raw source bytes of the token as a string.
func (t Token) Lexeme(source []byte) string {
	return string(source[t.Start:t.End])
}

// ReleaseTokens releases the atoms held by tokens.
func ReleaseTokens(tokens []Token) {
	for i := range tokens {
		tokens[i].Text.Release()
	}
}
