package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/robinvdvleuten/hstr/atom"
	"github.com/robinvdvleuten/hstr/config"
	"github.com/robinvdvleuten/hstr/loader"
	"github.com/robinvdvleuten/hstr/scanner"
)

const shared = "a_widely_shared_identifier_name"

// run parses args like main does and runs the selected command.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var cli struct {
		Commands
	}
	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&cli,
		kong.Name("atomctl"),
		kong.Writers(&stdout, &stderr),
		kong.Bind(&cli.Globals),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	assert.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return stdout.String(), stderr.String(), err
	}
	err = kctx.Run()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sources(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.src", "let "+shared+" = \"text\"\n")
	b := writeFile(t, dir, "b.src", "return "+shared+"("+shared+")\n")
	return a, b
}

func TestStatsCmd(t *testing.T) {
	a, b := sources(t)

	stdout, _, err := run(t, "stats", a, b)
	assert.NoError(t, err)

	assert.Contains(t, stdout, "Summary")
	assert.Contains(t, stdout, "Value tokens")
	assert.Contains(t, stdout, "Savings")
	assert.Contains(t, stdout, "66.7%")
	assert.Contains(t, stdout, "Most referenced")
	assert.Contains(t, stdout, `"`+shared+`"`)
}

func TestStatsCmdJSON(t *testing.T) {
	a, b := sources(t)
	out := filepath.Join(t.TempDir(), "report.json")

	_, stderr, err := run(t, "stats", "--top", "1", "--out", out, a, b)
	assert.NoError(t, err)
	assert.Contains(t, stderr, "Wrote report to")

	data, err := os.ReadFile(out)
	assert.NoError(t, err)

	var report struct {
		Tokens  int    `json:"tokens"`
		Savings string `json:"savings"`
		Top     []struct {
			Text string `json:"text"`
			Refs int64  `json:"refs"`
		} `json:"top"`
	}
	assert.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 6, report.Tokens)
	assert.Equal(t, "66.7", report.Savings)
	assert.Equal(t, 1, len(report.Top))
	assert.Equal(t, int64(3), report.Top[0].Refs)
}

func TestStatsCmdOverwrite(t *testing.T) {
	a, _ := sources(t)
	out := writeFile(t, t.TempDir(), "report.json", "keep")

	var answer bool
	original := confirm
	confirm = func(string) (bool, error) { return answer, nil }
	t.Cleanup(func() { confirm = original })

	_, _, err := run(t, "stats", "--out", out, a)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite")
	data, _ := os.ReadFile(out)
	assert.Equal(t, "keep", string(data))

	answer = true
	_, _, err = run(t, "stats", "--out", out, a)
	assert.NoError(t, err)
	data, _ = os.ReadFile(out)
	assert.True(t, strings.HasPrefix(string(data), "{"))

	answer = false
	_, _, err = run(t, "stats", "--force", "--out", out, a)
	assert.NoError(t, err)
}

func TestStatsCmdWithConfig(t *testing.T) {
	a, b := sources(t)
	cfg := writeFile(t, t.TempDir(), "hstr.yaml", "top: 0\nstatic: ["+shared+"]\n")

	stdout, _, err := run(t, "--config", cfg, "stats", a, b)
	assert.NoError(t, err)
	assert.NotContains(t, stdout, "Most referenced")
}

func TestStatsCmdScanError(t *testing.T) {
	bad := writeFile(t, t.TempDir(), "bad.src", "ok \"\xff\"\n")

	_, stderr, err := run(t, "stats", bad)
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode())
	assert.Contains(t, stderr, "invalid UTF-8")
}

func TestStatsCmdTelemetry(t *testing.T) {
	a, _ := sources(t)

	_, stderr, err := run(t, "--telemetry", "stats", a)
	assert.NoError(t, err)
	assert.Contains(t, stderr, "stats: ")
	assert.Contains(t, stderr, "load: ")
	assert.Contains(t, stderr, "scan "+a)
}

func TestLexCmd(t *testing.T) {
	a, _ := sources(t)

	stdout, _, err := run(t, "lex", a)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, 5, len(lines))
	assert.Equal(t, `KEYWORD  1:1      static "let"`, lines[0])
	assert.Equal(t, `IDENT    1:5      interned "`+shared+`"`, lines[1])
	assert.Equal(t, `PUNCT    1:37     "="`, lines[2])
	assert.Equal(t, `STRING   1:39     inline "text"`, lines[3])
	assert.Equal(t, "EOF      2:1", lines[4])
}

func TestLexCmdInvalidUTF8(t *testing.T) {
	bad := writeFile(t, t.TempDir(), "bad.src", "\xfe")

	_, stderr, err := run(t, "lex", bad)
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Contains(t, stderr, "bad.src:1:1: invalid UTF-8 encoding")
}

func TestInspectCmd(t *testing.T) {
	stdout, _, err := run(t, "inspect", "return", "x", shared, "x")
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, 4, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], `"return" static len=6 hash=`), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"x" inline len=1 hash=`), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `"`+shared+`" interned len=31 hash=`), lines[2])
	assert.Equal(t, lines[1], lines[3])
}

func TestInspectCmdRaw(t *testing.T) {
	stdout, _, err := run(t, "inspect", "--raw", "return", "return")
	assert.NoError(t, err)

	assert.Contains(t, stdout, `Text: "return"`)
	assert.Contains(t, stdout, `Kind: "static"`)
	assert.Contains(t, stdout, "StaticIndex:")
	assert.Contains(t, stdout, "Equal:")
}

func TestGlobalsValidation(t *testing.T) {
	_, _, err := run(t, "--log-level", "chatty", "inspect", "x")
	assert.Error(t, err)

	_, _, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "inspect", "x")
	assert.Error(t, err)
}

func TestWatchCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "w.src", "let "+shared+"\n")

	logger, hook := logtest.NewNullLogger()
	store := atom.NewStore()
	ldr := loader.New(loader.WithStore(store))
	cmd := &WatchCmd{File: path, Debounce: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.watch(ctx, ldr, logger) }()

	waitFor := func(cond func() bool) {
		deadline := time.Now().Add(5 * time.Second)
		for !cond() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	}

	waitFor(func() bool { return len(hook.AllEntries()) > 0 })
	assert.Equal(t, "Scanned", hook.AllEntries()[0].Message)
	assert.True(t, store.Contains(shared))

	const renamed = "a_renamed_identifier_for_watching"
	assert.NoError(t, os.WriteFile(path, []byte("let "+renamed+"\n"), 0o644))

	waitFor(func() bool { return store.Contains(renamed) && !store.Contains(shared) })
	assert.True(t, store.Contains(renamed))
	assert.False(t, store.Contains(shared))
	assert.Equal(t, "Rescanned", hook.LastEntry().Message)

	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, 0, store.Len())
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 40, `"short"`},
		{"line\nbreak", 40, `"line\nbreak"`},
		{"abcdefghij", 6, `"abcd…`},
		{"日本語です", 7, `"日本…`},
		{"unbounded", 0, `"unbounded"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, displayValue(tt.text, tt.width), "%q", tt.text)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info")
	assert.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = newLogger(&buf, "loud")
	assert.Error(t, err)
}

func TestErrorRenderer(t *testing.T) {
	source := []byte("first\nsecond héllo \xff tail\nthird\n")
	err := &scanner.InvalidUTF8Error{Filename: "x.src", Line: 2, Column: 15}

	out := NewErrorRenderer(source).Render(err)
	lines := strings.Split(out, "\n")

	assert.Equal(t, "x.src:2:15: invalid UTF-8 encoding", lines[0])
	assert.Equal(t, "   first", lines[2])
	assert.Equal(t, "   second héllo � tail", lines[3])
	assert.Equal(t, strings.Repeat(" ", 16)+"^", lines[4])
	assert.Equal(t, "   third", lines[5])
}

func TestErrorRendererReadsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.src", "ok \xff\n")
	err := &scanner.InvalidUTF8Error{Filename: path, Line: 1, Column: 4}

	out := NewErrorRenderer(nil).Render(err)
	assert.Contains(t, out, "   ok �")
	assert.Contains(t, out, "      ^")

	plain := errors.New("plain failure")
	assert.Equal(t, "plain failure", NewErrorRenderer(nil).Render(plain))
}

func TestEnvAttachesConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hstr.yaml", "top: 4\nshards: 2\n")

	g := &Globals{LogLevel: "warn", Config: path}
	e, err := g.env(&bytes.Buffer{})
	assert.NoError(t, err)
	assert.Equal(t, 2, e.loader.Store().Stats().Shards)

	cfg := config.FromContext(e.context(context.Background()))
	assert.NotZero(t, cfg)
	assert.Equal(t, 4, cfg.Top)
	assert.Equal(t, 2, cfg.Shards)
}
