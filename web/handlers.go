package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/robinvdvleuten/hstr/report"
)

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// StatsResponse is the JSON response of /api/stats.
type StatsResponse struct {
	Version   string         `json:"version,omitempty"`
	CommitSHA string         `json:"commitSHA,omitempty"`
	LoadedAt  time.Time      `json:"loadedAt"`
	Report    *report.Report `json:"report"`
	// Error is set when the most recent reload failed. Report then
	// describes the files from the last successful load.
	Error *ErrorJSON `json:"error,omitempty"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := StatsResponse{
		Version:   s.Version,
		CommitSHA: s.CommitSHA,
		LoadedAt:  s.loaded,
		Report:    report.Build(s.files, s.loader.Store(), s.Top),
		Error:     toErrorJSON(s.lastErr),
	}
	s.mu.RUnlock()

	writeJSONResponse(w, resp)
}

// handleGetAtoms handles GET /api/atoms.
//
// Query parameters:
//   - top: number of entries to return, defaults to the server's Top.
func (s *Server) handleGetAtoms(w http.ResponseWriter, r *http.Request) {
	top := s.Top
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid top parameter", http.StatusBadRequest)
			return
		}
		top = n
	}

	entries := []report.Entry{}
	for _, e := range s.loader.Store().Snapshot() {
		if len(entries) >= top {
			break
		}
		entries = append(entries, report.Entry{Text: e.Text, Refs: e.Refs, Hash: e.Hash})
	}
	writeJSONResponse(w, entries)
}

// InspectResponse describes how the store represents a text.
type InspectResponse struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
	Len  int    `json:"len"`
	Hash uint64 `json:"hash"`
	// Refs is the reference count held by loaded files, not counting the
	// inspection itself.
	Refs int64 `json:"refs"`
}

// handleInspect handles GET /api/inspect?text=...
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("text") {
		http.Error(w, "missing text parameter", http.StatusBadRequest)
		return
	}
	text := q.Get("text")

	store := s.loader.Store()
	refs := store.Refs(text)

	a := store.New(text)
	defer a.Release()

	writeJSONResponse(w, InspectResponse{
		Text: text,
		Kind: a.Kind().String(),
		Len:  a.Len(),
		Hash: a.Hash(),
		Refs: refs,
	})
}
