// Package scanner splits source text into tokens whose values are atoms.
//
// The scanner is single pass and never backtracks. Token values are built
// with an atom.Store, so identifiers that repeat across a file (or across
// files sharing a store) are deduplicated, and keywords resolve to static
// atoms when the store was created with KeywordSet.
package scanner

import (
	"unicode/utf8"

	"github.com/robinvdvleuten/hstr/atom"
)

// Scanner tokenizes a source buffer.
type Scanner struct {
	source    []byte
	filename  string
	pos       int
	line      int
	column    int
	lineStart bool
	tokens    []Token
	store     *atom.Store
}

// New creates a scanner for source. A nil store means atom.Default().
func New(source []byte, filename string, store *atom.Store) *Scanner {
	if store == nil {
		store = atom.Default()
	}
	return &Scanner{
		source:    source,
		filename:  filename,
		line:      1,
		column:    1,
		lineStart: true,
		// Empirically about one token per six bytes of code.
		tokens: make([]Token, 0, len(source)/6+16),
		store:  store,
	}
}

// ScanAll scans the whole source and returns the tokens, terminated by EOF.
// On error no tokens are returned and every atom created so far has been
// released.
func (s *Scanner) ScanAll() ([]Token, error) {
	for s.pos < len(s.source) {
		s.skipWhitespace()
		if s.pos >= len(s.source) {
			break
		}

		if s.atComment() {
			s.skipComment()
			continue
		}

		tok, err := s.scanToken()
		if err != nil {
			ReleaseTokens(s.tokens)
			s.tokens = nil
			return nil, err
		}
		s.tokens = append(s.tokens, tok)
		s.lineStart = false
	}

	s.tokens = append(s.tokens, Token{
		Type:   EOF,
		Start:  s.pos,
		End:    s.pos,
		Line:   s.line,
		Column: s.column,
	})
	return s.tokens, nil
}

func (s *Scanner) atComment() bool {
	ch := s.peek()
	if ch == '#' {
		return s.lineStart
	}
	return ch == '/' && s.peekAt(1) == '/'
}

func (s *Scanner) scanToken() (Token, error) {
	start := s.pos
	line, col := s.line, s.column

	ch := s.advance()

	switch {
	case isIdentStart(ch):
		return s.scanIdent(start, line, col)

	case isDigit(ch):
		return s.scanNumber(start, line, col), nil

	case ch == '"' || ch == '\'' || ch == '`':
		return s.scanString(ch, start, line, col)

	case ch > ' ' && ch < 0x7f:
		return Token{Type: PUNCT, Start: start, End: s.pos, Line: line, Column: col}, nil

	default:
		return Token{Type: ILLEGAL, Start: start, End: s.pos, Line: line, Column: col}, nil
	}
}

// scanIdent scans [A-Za-z_\x80-\xff][A-Za-z0-9_\x80-\xff]*. Keywords are
// recognised here by a lookup in the keyword set.
func (s *Scanner) scanIdent(start, line, col int) (Token, error) {
	for s.pos < len(s.source) {
		ch := s.source[s.pos]
		if !isIdentStart(ch) && !isDigit(ch) {
			break
		}
		s.advance()
	}

	word := s.source[start:s.pos]
	if !utf8.Valid(word) {
		return Token{}, s.invalidUTF8(start, line, col)
	}

	typ := IDENT
	if _, ok := KeywordSet().LookupBytes(word); ok {
		typ = KEYWORD
	}
	return Token{
		Type:   typ,
		Text:   s.store.NewBytes(word),
		Start:  start,
		End:    s.pos,
		Line:   line,
		Column: col,
	}, nil
}

// scanNumber scans [0-9][0-9A-Za-z_.]*, which covers decimal, hex, octal,
// binary and float literals without validating them.
func (s *Scanner) scanNumber(start, line, col int) Token {
	for s.pos < len(s.source) {
		ch := s.source[s.pos]
		if !isDigit(ch) && !isASCIILetter(ch) && ch != '_' && ch != '.' {
			break
		}
		s.advance()
	}
	return Token{
		Type:   NUMBER,
		Text:   s.store.NewBytes(s.source[start:s.pos]),
		Start:  start,
		End:    s.pos,
		Line:   line,
		Column: col,
	}
}

// scanString scans a string opened by quote. Backslash escapes the next
// byte except in backtick strings, which are raw and may span lines. An
// unterminated string is ILLEGAL and spans up to the end of the line.
func (s *Scanner) scanString(quote byte, start, line, col int) (Token, error) {
	raw := quote == '`'
	closed := false

	for s.pos < len(s.source) {
		ch := s.source[s.pos]
		if ch == quote {
			s.advance()
			closed = true
			break
		}
		if ch == '\n' && !raw {
			break
		}
		if ch == '\\' && !raw && s.pos+1 < len(s.source) && s.source[s.pos+1] != '\n' {
			s.advance()
		}
		s.advance()
	}

	if !closed {
		return Token{Type: ILLEGAL, Start: start, End: s.pos, Line: line, Column: col}, nil
	}

	content := s.source[start+1 : s.pos-1]
	if !utf8.Valid(content) {
		return Token{}, s.invalidUTF8(start, line, col)
	}
	return Token{
		Type:   STRING,
		Text:   s.store.NewBytes(content),
		Start:  start,
		End:    s.pos,
		Line:   line,
		Column: col,
	}, nil
}

// invalidUTF8 locates the first malformed byte in source[start:s.pos].
func (s *Scanner) invalidUTF8(start, line, col int) error {
	for i := start; i < s.pos; {
		r, size := utf8.DecodeRune(s.source[i:s.pos])
		if r == utf8.RuneError && size == 1 {
			break
		}
		if s.source[i] == '\n' {
			line++
			col = 1
		} else {
			col += size
		}
		i += size
	}
	return &InvalidUTF8Error{Filename: s.filename, Line: line, Column: col}
}

// skipWhitespace skips whitespace and updates line/column tracking.
func (s *Scanner) skipWhitespace() {
	for s.pos < len(s.source) {
		ch := s.source[s.pos]
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
		s.advance()
	}
}

// skipComment skips to the end of the line, leaving the newline for
// skipWhitespace.
func (s *Scanner) skipComment() {
	for s.pos < len(s.source) && s.source[s.pos] != '\n' {
		s.advance()
	}
}

func (s *Scanner) peek() byte {
	return s.peekAt(0)
}

func (s *Scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.source) {
		return 0
	}
	return s.source[s.pos+n]
}

// advance consumes one byte. Columns count bytes.
func (s *Scanner) advance() byte {
	if s.pos >= len(s.source) {
		return 0
	}
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.column = 1
		s.lineStart = true
	} else {
		s.column++
	}
	return ch
}

func isIdentStart(ch byte) bool {
	return isASCIILetter(ch) || ch == '_' || ch >= 0x80
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
