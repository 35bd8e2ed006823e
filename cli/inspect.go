package cli

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/hstr/output"
)

type InspectCmd struct {
	Texts []string `help:"Texts to inspect." arg:""`
	Raw   bool     `help:"Dump every field, including the static index."`
}

// inspection is what InspectCmd reports for one text.
type inspection struct {
	Text        string
	Kind        string
	Len         int
	Hash        uint64
	StaticIndex int

	// Equal lists earlier arguments with the same content.
	Equal []int
}

func (cmd *InspectCmd) Run(ctx *kong.Context, globals *Globals) error {
	e, err := globals.env(ctx.Stderr)
	if err != nil {
		return err
	}
	store := e.loader.Store()
	styles := output.NewStyles(ctx.Stdout)

	for i, text := range cmd.Texts {
		a := store.New(text)
		kind := a.Kind()
		info := inspection{
			Text:        text,
			Kind:        kind.String(),
			Len:         a.Len(),
			Hash:        a.Hash(),
			StaticIndex: -1,
		}
		if idx, ok := store.Static().Lookup(text); ok {
			info.StaticIndex = idx
		}
		for j, other := range cmd.Texts[:i] {
			if a.EqualString(other) {
				info.Equal = append(info.Equal, j)
			}
		}
		a.Release()

		if cmd.Raw {
			_, _ = fmt.Fprintln(ctx.Stdout, repr.String(info))
			continue
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "%s %s len=%s hash=%016x\n",
			strconv.Quote(text), styles.Kind(kind), styles.Number(strconv.Itoa(info.Len)), info.Hash)
	}
	return nil
}
