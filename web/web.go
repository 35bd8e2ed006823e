// Package web provides an HTTP server that exposes an atom store holding a
// set of scanned files.
//
// The server serves a small JSON API, Prometheus metrics and a stream of
// reload events. With watching enabled, files are rescanned whenever they
// change on disk.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1).
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/hstr/config"
	"github.com/robinvdvleuten/hstr/loader"
	"github.com/robinvdvleuten/hstr/metrics"
	"github.com/robinvdvleuten/hstr/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	WatchEnabled bool
	Top          int
	Logger       logrus.FieldLogger

	loader *loader.Loader
	paths  []string

	mu      sync.RWMutex
	files   []*loader.File
	loaded  time.Time
	lastErr error

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// New creates a server for paths. Atoms are created in the loader's store.
func New(port int, ldr *loader.Loader, paths ...string) *Server {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Top:        10,
		Logger:     discard,
		loader:     ldr,
		paths:      paths,
		sseClients: make(map[chan string]struct{}),
	}
}

// Start loads the files and serves until ctx is canceled. A configuration
// attached to ctx overrides Top.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))

	if cfg := config.FromContext(ctx); cfg != nil {
		s.Top = cfg.Top
	}

	if len(s.paths) == 0 {
		timer.End()
		return fmt.Errorf("at least one file is required")
	}

	loadTimer := timer.Child("web.load")
	if err := s.reload(ctx); err != nil {
		loadTimer.End()
		timer.End()
		return fmt.Errorf("failed to load files: %w", err)
	}
	loadTimer.End()
	defer s.Close()

	// Stops the watcher and the shutdown goroutine when serving fails.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			timer.End()
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	setupTimer := timer.Child("web.setup_router")
	mux, err := s.setupRouter()
	setupTimer.End()
	timer.End()
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.Logger.WithField("addr", srv.Addr).Info("Serving")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the loaded files.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	loader.ReleaseAll(s.files)
	s.files = nil
}

func (s *Server) setupRouter() (*http.ServeMux, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics.NewCollector("hstr", s.loader.Store())); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", s.handleGetStats)
	mux.HandleFunc("GET /api/atoms", s.handleGetAtoms)
	mux.HandleFunc("GET /api/inspect", s.handleInspect)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux, nil
}

// reload rescans every file. The new files are loaded before the old ones
// are released, so values present in both stay interned throughout. On
// failure the previous files stay loaded and the error is kept for
// /api/stats.
func (s *Server) reload(ctx context.Context) error {
	files, err := s.loader.LoadAll(ctx, s.paths...)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	old := s.files
	s.files = files
	s.loaded = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	loader.ReleaseAll(old)
	return nil
}

// startWatcher watches every file and reloads when one changes.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, file := range s.paths {
		if err := watcher.Add(file); err != nil {
			s.Logger.WithError(err).WithField("file", file).Warn("Failed to watch file")
		}
	}

	go s.runWatcher(ctx, watcher)
	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Editors often write files in multiple steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Remove and Rename are common in atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.Logger.WithError(err).Warn("File watcher error")
		}
	}
}

func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	if err := s.reload(ctx); err != nil {
		s.Logger.WithError(err).Warn("Failed to reload files")
		s.broadcast("error")
		return
	}

	// Re-add to catch files re-created by atomic saves.
	for _, file := range s.paths {
		if err := watcher.Add(file); err != nil {
			s.Logger.WithError(err).WithField("file", file).Warn("Failed to watch file")
		}
	}

	s.Logger.WithField("entries", s.loader.Store().Len()).Info("Reloaded files")
	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for reload events.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)
	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients. Clients whose
// buffer is full miss the event.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
		}
	}
}
