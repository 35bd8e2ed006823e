package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/hstr/loader"
)

type WatchCmd struct {
	File     string        `help:"Source file to watch." arg:"" type:"existingfile"`
	Debounce time.Duration `help:"Wait this long after the last change before rescanning." default:"100ms"`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	e, err := globals.env(ctx.Stderr)
	if err != nil {
		return err
	}
	// Rescans are reported at info level.
	if e.logger.GetLevel() < logrus.InfoLevel {
		e.logger.SetLevel(logrus.InfoLevel)
	}

	runCtx, stop := signal.NotifyContext(e.context(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.watch(runCtx, e.loader, e.logger)
}

// watch scans the file, then rescans it on every change until ctx is done.
// A failed rescan is logged and the previous tokens are kept.
func (cmd *WatchCmd) watch(ctx context.Context, ldr *loader.Loader, logger logrus.FieldLogger) error {
	path, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	log := logger.WithField("file", path)

	current, err := ldr.Load(ctx, path)
	if err != nil {
		return err
	}
	defer func() { current.Release() }()
	logStats(log, ldr, current, "Scanned")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so atomic saves, which replace the file, are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(cmd.Debounce)

		case <-debounce:
			debounce = nil
			next, err := ldr.Load(ctx, path)
			if err != nil {
				log.WithError(err).Warn("Rescan failed")
				continue
			}
			current.Release()
			current = next
			logStats(log, ldr, current, "Rescanned")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("File watcher error")
		}
	}
}

func logStats(log logrus.FieldLogger, ldr *loader.Loader, f *loader.File, msg string) {
	st := ldr.Store().Stats()
	log.WithFields(logrus.Fields{
		"tokens":        len(f.Tokens),
		"entries":       st.Entries,
		"bytes":         st.Bytes,
		"hits":          st.Hits,
		"misses":        st.Misses,
		"removals":      st.Removals,
		"resurrections": st.Resurrections,
	}).Info(msg)
}
