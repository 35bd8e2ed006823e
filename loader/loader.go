// Package loader reads source files and scans them into atom tokens.
//
// Several files can be loaded concurrently into one store, so identifiers
// shared between files are interned once:
//
//	ldr := loader.New(loader.WithStore(store), loader.WithConcurrency(4))
//	files, err := ldr.LoadAll(ctx, "a.src", "b.src")
//	if err != nil {
//		return err
//	}
//	defer loader.ReleaseAll(files)
//
// Paths are deduplicated by absolute path, and the result keeps the order
// in which the paths were given.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/hstr/atom"
	"github.com/robinvdvleuten/hstr/scanner"
	"github.com/robinvdvleuten/hstr/telemetry"
)

// Loader reads and scans files.
//
// Configure the loader using functional options passed to New:
//
//	ldr := New(WithStore(store), WithLogger(log))
type Loader struct {
	store       *atom.Store
	logger      logrus.FieldLogger
	concurrency int
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithStore sets the store token atoms are created in. The default is
// atom.Default().
func WithStore(store *atom.Store) Option {
	return func(l *Loader) {
		l.store = store
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithConcurrency bounds the number of files LoadAll scans at once. Values
// below one mean GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		l.concurrency = n
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}

	if l.store == nil {
		l.store = atom.Default()
	}
	if l.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		l.logger = discard
	}
	if l.concurrency < 1 {
		l.concurrency = runtime.GOMAXPROCS(0)
	}
	return l
}

// Store returns the store the loader creates atoms in.
func (l *Loader) Store() *atom.Store {
	return l.store
}

// File is a scanned source file. Its tokens hold atoms and must be released
// with Release once the file is no longer needed.
type File struct {
	Name   string
	Size   int
	Tokens []scanner.Token
}

// Release releases the file's tokens. It is safe to call more than once.
func (f *File) Release() {
	scanner.ReleaseTokens(f.Tokens)
	f.Tokens = nil
}

// ReleaseAll releases every file.
func ReleaseAll(files []*File) {
	for _, f := range files {
		if f != nil {
			f.Release()
		}
	}
}

// Load reads and scans a single file.
func (l *Loader) Load(ctx context.Context, filename string) (*File, error) {
	timer := telemetry.FromContext(ctx).Start("load " + filename)
	defer timer.End()

	return l.load(ctx, filename, timer)
}

// LoadBytes scans data as if it had been read from name.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*File, error) {
	timer := telemetry.FromContext(ctx).Start("scan " + name)
	defer timer.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.scan(name, data)
}

// LoadAll loads files concurrently. The returned files are in argument
// order with duplicates removed. If any file fails, the files already
// loaded are released and the first error is returned.
func (l *Loader) LoadAll(ctx context.Context, filenames ...string) ([]*File, error) {
	timer := telemetry.FromContext(ctx).Start("load")
	defer timer.End()

	names, err := dedupe(filenames)
	if err != nil {
		return nil, err
	}

	files := make([]*File, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := l.load(gctx, name, timer)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		ReleaseAll(files)
		return nil, err
	}

	l.logger.WithField("files", len(files)).Debug("Loaded files")
	return files, nil
}

func (l *Loader) load(ctx context.Context, filename string, parent telemetry.Timer) (*File, error) {
	readTimer := parent.Child("read " + filename)
	data, err := os.ReadFile(filename)
	readTimer.End()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanTimer := parent.Child("scan " + filename)
	defer scanTimer.End()
	return l.scan(filename, data)
}

func (l *Loader) scan(name string, data []byte) (*File, error) {
	tokens, err := scanner.New(data, name, l.store).ScanAll()
	if err != nil {
		l.logger.WithError(err).WithField("file", name).Warn("Scan failed")
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"file":   name,
		"bytes":  len(data),
		"tokens": len(tokens),
	}).Debug("Scanned file")

	return &File{Name: name, Size: len(data), Tokens: tokens}, nil
}

// dedupe drops paths that resolve to an absolute path seen earlier.
func dedupe(filenames []string) ([]string, error) {
	seen := make(map[string]bool, len(filenames))
	names := make([]string, 0, len(filenames))
	for _, name := range filenames {
		abs, err := filepath.Abs(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", name, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		names = append(names, name)
	}
	return names, nil
}
