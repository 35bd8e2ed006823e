package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/hstr/output"
	"github.com/robinvdvleuten/hstr/scanner"
)

// LexCmd shows the tokens of a file.
type LexCmd struct {
	File FileOrStdin `help:"Source file (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// Run prints one line per token: type, position, atom kind and value.
// Tokens without a value show their source text instead.
func (cmd *LexCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}
	source, err := cmd.File.Source()
	if err != nil {
		return err
	}

	e, err := globals.env(ctx.Stderr)
	if err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(e.context(context.Background()), ctx.Stderr, "lex")
	defer reportTelemetry()

	f, err := e.loader.LoadBytes(runCtx, cmd.File.Filename, source)
	if err != nil {
		var utf8Err *scanner.InvalidUTF8Error
		if errors.As(err, &utf8Err) {
			_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(source).Render(err))
			printError(ctx.Stderr, "scan error")
			return NewCommandError(1)
		}
		return err
	}
	defer f.Release()

	styles := output.NewStyles(ctx.Stdout)
	for _, tok := range f.Tokens {
		pos := fmt.Sprintf("%d:%d", tok.Line, tok.Column)
		switch tok.Type {
		case scanner.IDENT, scanner.KEYWORD, scanner.NUMBER, scanner.STRING:
			_, _ = fmt.Fprintf(ctx.Stdout, "%-8s %-8s %s %s\n",
				tok.Type, pos, styles.Kind(tok.Text.Kind()), strconv.Quote(tok.Text.String()))
		case scanner.EOF:
			_, _ = fmt.Fprintf(ctx.Stdout, "%-8s %s\n", tok.Type, pos)
		default:
			_, _ = fmt.Fprintf(ctx.Stdout, "%-8s %-8s %s\n",
				tok.Type, pos, styles.Dim(strconv.Quote(tok.Lexeme(source))))
		}
	}
	return nil
}
