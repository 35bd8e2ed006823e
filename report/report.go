// Package report summarizes how a set of scanned files is held in an atom
// store: how many token values there are, how they are represented and how
// many bytes interning saves.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/hstr/atom"
	"github.com/robinvdvleuten/hstr/loader"
	"github.com/robinvdvleuten/hstr/scanner"
)

// File summarizes one scanned file.
type File struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Tokens int    `json:"tokens"`
}

// Entry is one of the most referenced interned values.
type Entry struct {
	Text string `json:"text"`
	Refs int64  `json:"refs"`
	Hash uint64 `json:"hash"`
}

// Report is the summary built by Build.
type Report struct {
	Files []File `json:"files"`

	// Tokens counts tokens that carry a value; punctuation and EOF are
	// not included.
	Tokens   int            `json:"tokens"`
	Distinct int            `json:"distinct"`
	Kinds    map[string]int `json:"kinds"`

	SourceBytes   int `json:"source_bytes"`
	ValueBytes    int `json:"value_bytes"`
	InternedBytes int `json:"interned_bytes"`
	StoreBytes    int `json:"store_bytes"`

	// Savings is the share of interned value bytes that the store does not
	// have to hold, as a percentage rounded to one decimal.
	Savings decimal.Decimal `json:"savings"`

	Top   []Entry    `json:"top"`
	Store atom.Stats `json:"store"`
}

// Build summarizes files, whose tokens must live in store. At most top
// entries are listed; zero lists none.
func Build(files []*loader.File, store *atom.Store, top int) *Report {
	r := &Report{
		Files: make([]File, 0, len(files)),
		Kinds: map[string]int{
			atom.Inline.String():   0,
			atom.Static.String():   0,
			atom.Interned.String(): 0,
		},
	}

	distinct := make(map[string]struct{})
	for _, f := range files {
		values := 0
		for i := range f.Tokens {
			tok := &f.Tokens[i]
			if !hasValue(tok.Type) {
				continue
			}
			values++

			n := tok.Text.Len()
			r.ValueBytes += n
			r.Kinds[tok.Text.Kind().String()]++
			if tok.Text.Kind() == atom.Interned {
				r.InternedBytes += n
			}
			distinct[tok.Text.String()] = struct{}{}
		}

		r.Tokens += values
		r.SourceBytes += f.Size
		r.Files = append(r.Files, File{Name: f.Name, Size: f.Size, Tokens: values})
	}
	r.Distinct = len(distinct)

	r.Store = store.Stats()
	r.StoreBytes = r.Store.Bytes
	r.Savings = Percent(r.InternedBytes-r.StoreBytes, r.InternedBytes)

	for _, e := range store.Snapshot() {
		if len(r.Top) >= top {
			break
		}
		r.Top = append(r.Top, Entry{Text: e.Text, Refs: e.Refs, Hash: e.Hash})
	}
	return r
}

// Percent returns part/total as a percentage rounded to one decimal, or
// zero when total is zero.
func Percent(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
}

func hasValue(t scanner.TokenType) bool {
	switch t {
	case scanner.IDENT, scanner.KEYWORD, scanner.NUMBER, scanner.STRING:
		return true
	}
	return false
}
