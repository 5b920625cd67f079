// Package webui exposes a minimal HTTP server with an HTML form that lets
// you upload a CSV bank statement and watch the import stream progress, plus
// a small JSON API over the persisted ledger.
//
// Routes:
//
//	GET    /                      → upload form
//	POST   /import                → runs an import; streams NDJSON events
//	GET    /api/transactions      → lists the persisted ledger
//	PUT    /api/transactions/{id} → updates one transaction
//	DELETE /api/transactions/{id} → deletes one transaction
//	GET    /api/summary           → credit/debit totals and balance
package webui

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"bankledger/internal/datasource"
	"bankledger/internal/ingest"
	"bankledger/internal/ledger"
	"bankledger/internal/store"
)

// Config controls server startup.
type Config struct {
	Addr string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	st   *store.Store
	imp  *ingest.Importer
	mux  *http.ServeMux
	tmpl *template.Template
	srv  *http.Server
}

// NewServer constructs a Server with routes and embedded template.
func NewServer(cfg Config, st *store.Store, imp *ingest.Importer) *Server {
	s := &Server{
		cfg: cfg,
		st:  st,
		imp: imp,
		mux: http.NewServeMux(),
		// Parse the embedded template at init time.
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	s.srv = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after a clean Shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/import", s.handleImport)
	s.mux.HandleFunc("/api/transactions", s.handleTransactions)
	s.mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	s.mux.HandleFunc("/api/summary", s.handleSummary)
}

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	_ = s.tmpl.Execute(w, nil)
}

// The NDJSON wire shapes. A terminal event carries either data (possibly an
// empty array) or an error string, never both.
type progressEvent struct {
	Progress int `json:"progress"`
}

type successEvent struct {
	Progress      int                  `json:"progress"`
	Data          []ledger.Transaction `json:"data"`
	Rejected      int                  `json:"rejected,omitempty"`
	RejectSamples []string             `json:"rejectSamples,omitempty"`
}

type errorEvent struct {
	Progress int    `json:"progress"`
	Error    string `json:"error"`
}

// handleImport accepts a multipart upload and streams import events as
// newline-delimited JSON. The declared content type must be text/csv; the
// bytes themselves are never sniffed.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")

	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	emit := func(v any) {
		_ = enc.Encode(v)
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Gate on the declared type before any bytes are read.
	if ct := hdr.Header.Get("Content-Type"); !isCSVContentType(ct) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		emit(errorEvent{Progress: 100, Error: ingest.ErrUnsupportedFormat.Error()})
		return
	}

	src := datasource.NewReader(file, hdr.Size)
	for e := range s.imp.Run(r.Context(), src) {
		switch {
		case e.Err != nil:
			emit(errorEvent{Progress: 100, Error: e.Err.Error()})
		case e.Terminal():
			emit(successEvent{
				Progress:      100,
				Data:          e.Transactions,
				Rejected:      e.Rejected,
				RejectSamples: e.RejectSamples,
			})
		default:
			emit(progressEvent{Progress: e.Progress})
		}
	}
}

// isCSVContentType accepts "text/csv" with optional parameters.
func isCSVContentType(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct)) == "text/csv"
}

// handleTransactions lists the persisted ledger.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.st.Snapshot())
}

// handleTransactionByID updates or deletes a single transaction.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, ok := s.st.Get(id)
		if !ok {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, tx)

	case http.MethodPut:
		var tx ledger.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			http.Error(w, "bad transaction body: "+err.Error(), http.StatusBadRequest)
			return
		}
		tx.ID = id // the path wins over any id in the body
		if _, ok := ledger.ParseType(string(tx.Type)); !ok {
			http.Error(w, "invalid transaction type", http.StatusBadRequest)
			return
		}
		if err := s.st.UpdateOne(r.Context(), tx); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)

	case http.MethodDelete:
		if err := s.st.DeleteOne(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSummary returns totals over the current ledger. An empty ledger has
// no totals to report and answers 409, which the page uses to keep the
// summary pane hidden until an import lands.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.st.Any() {
		http.Error(w, "no transactions imported", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Summarize(s.st.Snapshot()))
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("store write failed")
	http.Error(w, "store write failed: "+err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("encode response")
	}
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string
