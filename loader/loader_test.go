package loader

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/fortytw2/leaktest"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/robinvdvleuten/hstr/atom"
	"github.com/robinvdvleuten/hstr/scanner"
	"github.com/robinvdvleuten/hstr/telemetry"
)

const shared = "a_shared_identifier_longer_than_inline"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	store := atom.NewStore()
	path := writeFile(t, t.TempDir(), "main.src", "let x = 1\n")

	f, err := New(WithStore(store)).Load(context.Background(), path)
	assert.NoError(t, err)
	defer f.Release()

	assert.Equal(t, path, f.Name)
	assert.Equal(t, 10, f.Size)
	assert.Equal(t, 5, len(f.Tokens))
	assert.Equal(t, scanner.KEYWORD, f.Tokens[0].Type)
	assert.Equal(t, scanner.EOF, f.Tokens[4].Type)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "missing.src"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadBytes(t *testing.T) {
	store := atom.NewStore()
	ldr := New(WithStore(store))

	f, err := ldr.LoadBytes(context.Background(), "inline.src", []byte(shared+" "+shared))
	assert.NoError(t, err)
	assert.Equal(t, "inline.src", f.Name)
	assert.Equal(t, int64(2), store.Refs(shared))

	f.Release()
	f.Release()
	assert.Equal(t, 0, store.Len())
}

func TestLoadBytesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().LoadBytes(ctx, "x.src", []byte("x"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadAllSharesStore(t *testing.T) {
	defer leaktest.Check(t)()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.src", "fn "+shared+"() {}\n")
	b := writeFile(t, dir, "b.src", "call("+shared+")\n")
	c := writeFile(t, dir, "c.src", "// nothing here\n")

	store := atom.NewStore()
	files, err := New(WithStore(store), WithConcurrency(2)).LoadAll(context.Background(), a, b, c)
	assert.NoError(t, err)

	assert.Equal(t, 3, len(files))
	assert.Equal(t, a, files[0].Name)
	assert.Equal(t, b, files[1].Name)
	assert.Equal(t, c, files[2].Name)
	assert.Equal(t, 1, len(files[2].Tokens))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, int64(2), store.Refs(shared))

	ReleaseAll(files)
	assert.Equal(t, 0, store.Len())
}

func TestLoadAllDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.src", "a\n")
	b := writeFile(t, dir, "b.src", "b\n")

	files, err := New(WithStore(atom.NewStore())).LoadAll(context.Background(),
		a, b, filepath.Join(dir, ".", "a.src"), b)
	assert.NoError(t, err)
	defer ReleaseAll(files)

	assert.Equal(t, 2, len(files))
	assert.Equal(t, a, files[0].Name)
	assert.Equal(t, b, files[1].Name)
}

func TestLoadAllReleasesOnError(t *testing.T) {
	defer leaktest.Check(t)()

	dir := t.TempDir()
	var names []string
	for _, name := range []string{"a.src", "b.src", "c.src"} {
		names = append(names, writeFile(t, dir, name, shared+"\n"))
	}
	names = append(names, writeFile(t, dir, "bad.src", "ok \"\xff\"\n"))

	store := atom.NewStore()
	files, err := New(WithStore(store), WithConcurrency(1)).LoadAll(context.Background(), names...)
	assert.Zero(t, files)

	var utf8Err *scanner.InvalidUTF8Error
	assert.True(t, errors.As(err, &utf8Err), "got %v", err)
	assert.Equal(t, 0, store.Len())
}

func TestLoadAllCanceled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.src", "a\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().LoadAll(ctx, path)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoaderLogs(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	path := writeFile(t, t.TempDir(), "a.src", "one two\n")
	files, err := New(WithLogger(logger), WithStore(atom.NewStore())).LoadAll(context.Background(), path)
	assert.NoError(t, err)
	defer ReleaseAll(files)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{"Scanned file", "Loaded files"}, messages)

	scanned := hook.AllEntries()[0]
	assert.Equal(t, any(path), scanned.Data["file"])
	assert.Equal(t, any(3), scanned.Data["tokens"])
}

func TestLoaderLogsScanFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	_, err := New(WithLogger(logger)).LoadBytes(context.Background(), "bad.src", []byte("\xff"))
	assert.Error(t, err)

	entry := hook.LastEntry()
	assert.NotZero(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, any("bad.src"), entry.Data["file"])
}

func TestLoadAllTelemetry(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.src", "a\n")

	collector := telemetry.NewTimingCollector()
	ctx := telemetry.WithCollector(context.Background(), collector)

	files, err := New(WithStore(atom.NewStore())).LoadAll(ctx, a)
	assert.NoError(t, err)
	ReleaseAll(files)

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "load: "))
	assert.Contains(t, out, "read "+a)
	assert.Contains(t, out, "scan "+a)
}

func TestDefaults(t *testing.T) {
	ldr := New()
	assert.True(t, ldr.Store() == atom.Default())
	assert.True(t, ldr.concurrency >= 1)
}
