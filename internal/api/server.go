// Package api provides the local HTTP server: a JSON surface over the
// record store pipeline plus the chat proxy, and optionally the static
// browser UI. The server holds no state of its own — the store is the
// single writer and every mutation runs to completion synchronously.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fankeji/debtbook/internal/app/compose"
	"github.com/fankeji/debtbook/internal/app/render"
	"github.com/fankeji/debtbook/internal/app/signature"
	"github.com/fankeji/debtbook/internal/app/store"
	"github.com/fankeji/debtbook/internal/infra/deepseek"
)

// Server is the debtbook HTTP server.
type Server struct {
	store          *store.Store
	chat           *deepseek.Client // nil when no API key is configured
	composer       *compose.Composer
	renderer       *render.Renderer
	pad            *signature.Pad
	log            zerolog.Logger
	metricsEnabled bool
	now            func() time.Time
}

// NewServer creates the API server. chat may be nil; the proxy and the
// AI rewrite then report a configuration error instead of calling out.
func NewServer(st *store.Store, chat *deepseek.Client, composer *compose.Composer, renderer *render.Renderer, log zerolog.Logger) *Server {
	return &Server{
		store:    st,
		chat:     chat,
		composer: composer,
		renderer: renderer,
		pad:      signature.NewPad(),
		log:      log,
		now:      time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(corsMiddleware)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChatProxy)

		r.Get("/records", s.handleListRecords)
		r.Post("/records", s.handleAddRecord)
		r.Delete("/records", s.handleClearRecords)
		r.Delete("/records/{id}", s.handleDeleteRecord)
		r.Get("/records/{id}/calendar", s.handleCalendarExport)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)
		r.Get("/summary", s.handleSummary)

		r.Get("/backup", s.handleBackupExport)
		r.Post("/restore", s.handleRestore)

		r.Post("/compose", s.handleCompose)
		r.Post("/compose/rewrite", s.handleRewrite)

		r.Get("/signature", s.handleSignatureGet)
		r.Post("/signature/strokes", s.handleSignatureStrokes)
		r.Delete("/signature", s.handleSignatureClear)

		r.Post("/render", s.handleRender)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Static browser UI, when a web directory is present.
	if webDir := findWebDir(); webDir != "" {
		fileServer := http.FileServer(http.Dir(webDir))
		r.Get("/*", fileServer.ServeHTTP)
	} else {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "debtbook is running"})
		})
	}

	return r
}

// findWebDir locates the static UI directory in various contexts.
func findWebDir() string {
	candidates := []string{
		"web",    // running from project root
		"../web", // running from build dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".debtbook", "web"))
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			return dir
		}
	}
	return ""
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the error shape clients expect: a top-level error
// string, the same contract the chat proxy exposes.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAttachment offers data as a browser download.
func writeAttachment(w http.ResponseWriter, filename, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
