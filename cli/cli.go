// Package cli implements the atomctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/robinvdvleuten/hstr/config"
	"github.com/robinvdvleuten/hstr/loader"
	"github.com/robinvdvleuten/hstr/output"
	"github.com/robinvdvleuten/hstr/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// confirm asks before destructive actions; tests replace it.
var confirm = promptYesNo

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirmed bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirmed)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	return confirmed, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// FileOrStdin accepts either a file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents nil (read by loader).
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		return f.readStdin()
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil
	return nil
}

// EnsureContents populates Contents from stdin if Filename is empty.
func (f *FileOrStdin) EnsureContents() error {
	if f.Filename == "" {
		return f.readStdin()
	}
	return nil
}

func (f *FileOrStdin) readStdin() error {
	contents, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}
	f.Filename = "<stdin>"
	f.Contents = contents
	return nil
}

// Source returns the stdin contents, or reads the file.
func (f *FileOrStdin) Source() ([]byte, error) {
	if f.Filename == "<stdin>" {
		return f.Contents, nil
	}
	data, err := os.ReadFile(f.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Filename, err)
	}
	return data, nil
}

// newLogger creates a logger writing to w at the given level.
func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	return logger, nil
}

// env is what every command needs: the configuration, a store built from
// it and a logger.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
	loader *loader.Loader
}

func (g *Globals) env(stderr io.Writer) (*env, error) {
	cfg := config.New()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(stderr, g.LogLevel)
	if err != nil {
		return nil, err
	}

	store, err := cfg.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build static set: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"shards": store.Stats().Shards,
		"static": store.Static().Len(),
	}).Debug("Created store")

	return &env{
		cfg:    cfg,
		logger: logger,
		loader: loader.New(loader.WithStore(store), loader.WithLogger(logger)),
	}, nil
}

// context returns parent with the configuration attached.
func (e *env) context(parent context.Context) context.Context {
	return config.WithContext(parent, e.cfg)
}

// startTelemetry attaches a timing collector to ctx when enabled and
// returns a function that ends the root timer and prints the report.
func (g *Globals) startTelemetry(ctx context.Context, stderr io.Writer, name string) (context.Context, func()) {
	if !g.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	timer := collector.Start(name)
	return telemetry.WithCollector(ctx, collector), func() {
		timer.End()
		_, _ = fmt.Fprintln(stderr)
		collector.Report(stderr, output.NewStyles(stderr))
	}
}
