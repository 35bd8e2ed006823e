package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/hstr/scanner"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	source []byte
}

// NewErrorRenderer creates a renderer with source content for context. With
// nil source, the file named by the error is read instead.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{source: source}
}

// Render formats a single error, adding the surrounding source lines and a
// caret for errors that carry a position.
func (r *ErrorRenderer) Render(err error) string {
	var utf8Err *scanner.InvalidUTF8Error
	if !errors.As(err, &utf8Err) {
		return err.Error()
	}

	source := r.source
	if source == nil && utf8Err.Filename != "" {
		source, _ = os.ReadFile(utf8Err.Filename)
	}
	if source == nil {
		return errorStyle.Render(err.Error())
	}
	return r.renderWithSourceContext(utf8Err.Line, utf8Err.Column, err.Error(), source)
}

func (r *ErrorRenderer) renderWithSourceContext(line, column int, message string, source []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(source), "\n")
	startLine := max(line-3, 0)
	endLine := min(line+1, len(sourceLines)-1)

	for i := startLine; i <= endLine; i++ {
		text := sourceLines[i]
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(strings.ToValidUTF8(text, "�")))
		buf.WriteByte('\n')

		if i == line-1 && column > 0 {
			// Columns count bytes; the caret goes under the cell they map to.
			prefix := text[:min(column-1, len(text))]
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", runewidth.StringWidth(strings.ToValidUTF8(prefix, "?"))))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
