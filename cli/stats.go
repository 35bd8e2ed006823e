package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/hstr/loader"
	"github.com/robinvdvleuten/hstr/report"
)

type StatsCmd struct {
	Files []string `help:"Source files to scan." arg:"" type:"existingfile"`
	Top   int      `help:"Number of most referenced values to list (config default if negative)." default:"-1"`
	Width int      `help:"Maximum display width of listed values." default:"40"`
	Out   string   `help:"Also write the report as JSON to this file." type:"path"`
	Force bool     `help:"Overwrite --out without asking." short:"f"`
}

func (cmd *StatsCmd) Run(ctx *kong.Context, globals *Globals) error {
	e, err := globals.env(ctx.Stderr)
	if err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(e.context(context.Background()), ctx.Stderr, "stats")
	defer reportTelemetry()

	files, err := e.loader.LoadAll(runCtx, cmd.Files...)
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(nil).Render(err))
		printError(ctx.Stderr, "failed to load files")
		return NewCommandError(1)
	}
	defer loader.ReleaseAll(files)

	top := cmd.Top
	if top < 0 {
		top = e.cfg.Top
	}
	r := report.Build(files, e.loader.Store(), top)

	renderReport(ctx.Stdout, r, cmd.Width)

	if cmd.Out != "" {
		if err := cmd.writeJSON(r); err != nil {
			return err
		}
		printSuccess(ctx.Stderr, fmt.Sprintf("Wrote report to %s", cmd.Out))
	}
	return nil
}

func (cmd *StatsCmd) writeJSON(r *report.Report) error {
	if _, err := os.Stat(cmd.Out); err == nil && !cmd.Force {
		confirmed, err := confirm(fmt.Sprintf("File %q exists. Overwrite it?", cmd.Out))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			return fmt.Errorf("refusing to overwrite %s (use --force)", cmd.Out)
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(cmd.Out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func renderReport(w io.Writer, r *report.Report, width int) {
	summary := newTable("Metric", "Value").Rows(
		[]string{"Files", strconv.Itoa(len(r.Files))},
		[]string{"Value tokens", strconv.Itoa(r.Tokens)},
		[]string{"Distinct values", strconv.Itoa(r.Distinct)},
		[]string{"Inline", strconv.Itoa(r.Kinds["inline"])},
		[]string{"Static", strconv.Itoa(r.Kinds["static"])},
		[]string{"Interned", strconv.Itoa(r.Kinds["interned"])},
		[]string{"Source bytes", strconv.Itoa(r.SourceBytes)},
		[]string{"Interned value bytes", strconv.Itoa(r.InternedBytes)},
		[]string{"Store bytes", strconv.Itoa(r.StoreBytes)},
		[]string{"Savings", r.Savings.String() + "%"},
	)
	_, _ = fmt.Fprintln(w, headerStyle.Render("Summary"))
	_, _ = fmt.Fprintln(w, summary.Render())

	if len(r.Top) == 0 {
		return
	}

	interned := r.Kinds["interned"]
	top := newTable("#", "Value", "Refs", "Share")
	for i, e := range r.Top {
		top.Row(
			strconv.Itoa(i+1),
			displayValue(e.Text, width),
			strconv.FormatInt(e.Refs, 10),
			report.Percent(int(e.Refs), interned).String()+"%",
		)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, headerStyle.Render("Most referenced"))
	_, _ = fmt.Fprintln(w, top.Render())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
}

// displayValue quotes text so control characters stay on one line and
// truncates it to width terminal cells.
func displayValue(text string, width int) string {
	quoted := strconv.Quote(text)
	if width <= 0 || runewidth.StringWidth(quoted) <= width {
		return quoted
	}
	return runewidth.Truncate(quoted, width, "…")
}
