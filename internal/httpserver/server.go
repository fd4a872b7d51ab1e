package httpserver

import (
	"context"
	"log"
	"net/http"

	"casedeck/internal/casedev"
	"casedeck/internal/events"
	"casedeck/internal/runner"
)

// HTTPServer is the local API proxy. It authenticates callers, forwards
// requests to the Case.dev API through the typed client, and hosts the
// orchestration endpoints (fan-out runs, actions, assistant).
type HTTPServer struct {
	mux     *http.ServeMux
	srv     *http.Server
	tokens  []string
	version string
	client  *casedev.Client
	runner  *runner.Runner
	bus     *events.Bus
}

// NewHTTPServer creates a new HTTP server instance. bus may be nil.
func NewHTTPServer(client *casedev.Client, tokens []string, version string, bus *events.Bus) *HTTPServer {
	s := &HTTPServer{
		mux:     http.NewServeMux(),
		tokens:  tokens,
		version: version,
		client:  client,
		runner:  runner.New(client, bus),
		bus:     bus,
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes with middleware
func (s *HTTPServer) registerRoutes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))

	// Authenticated endpoints
	s.mux.HandleFunc("/api/vaults", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleVaults))))
	s.mux.HandleFunc("/api/vaults/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleVaultSubpath))))
	s.mux.HandleFunc("/api/ocr", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleOCRSubmit))))
	s.mux.HandleFunc("/api/ocr/", loggingMiddleware(s.authMiddleware(s.handleOCRGet)))
	s.mux.HandleFunc("/api/transcription", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleTranscriptionSubmit))))
	s.mux.HandleFunc("/api/transcription/", loggingMiddleware(s.authMiddleware(s.handleTranscriptionGet)))
	s.mux.HandleFunc("/api/workflows", loggingMiddleware(s.authMiddleware(s.handleListWorkflows)))
	s.mux.HandleFunc("/api/workflows/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleWorkflowSubpath))))
	s.mux.HandleFunc("/api/tabular-analysis/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleTabularSubpath))))
	s.mux.HandleFunc("/api/actions", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleActions))))
	s.mux.HandleFunc("/api/actions/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleActionByName))))
	s.mux.HandleFunc("/api/assistant", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleAssistant))))
}

// ListenAndServe starts the HTTP server on the given address
func (s *HTTPServer) ListenAndServe(addr string) error {
	log.Printf("[HTTP] Starting server on %s", addr)
	log.Printf("[HTTP] Registered %d valid tokens", len(s.tokens))
	s.srv = &http.Server{Addr: addr, Handler: s.mux}
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops a running server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// handleHealth reports liveness and version.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}
