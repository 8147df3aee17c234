// Package api provides the HTTP API for generating and browsing boards.
// GET endpoints are public. Deleting stored maps requires a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/persistence"
	"github.com/talgya/boardgen/internal/preview"
	"github.com/talgya/boardgen/internal/templates"
)

// Version is reported by the status endpoint.
const Version = "1.0.0"

// maxBodyBytes caps parameter payloads.
const maxBodyBytes = 1 << 20

// Server serves board generation over HTTP.
type Server struct {
	DB       *persistence.DB // nil disables the stored-map endpoints
	Port     int
	AdminKey string // Bearer token for DELETE. Empty = DELETE disabled.

	// Generations allowed per client per hour. Zero means 60.
	GenerateLimit int

	started  time.Time
	upgrader websocket.Upgrader

	// Open websocket generation streams.
	streamConns atomic.Int32
}

// NewServer creates a server backed by db, which may be nil.
func NewServer(db *persistence.DB, port int, adminKey string) *Server {
	return &Server{DB: db, Port: port, AdminKey: adminKey}
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	limit := s.GenerateLimit
	if limit <= 0 {
		limit = 60
	}
	genLimiter := NewRateLimiter(limit, time.Hour)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/templates", s.handleTemplates)
	mux.HandleFunc("POST /api/v1/generate", RateLimitMiddleware(genLimiter, s.handleGenerate))
	mux.HandleFunc("GET /api/v1/ws/generate", RateLimitMiddleware(genLimiter, s.handleGenerateStream))

	mux.HandleFunc("GET /api/v1/maps", s.withDB(s.handleMaps))
	mux.HandleFunc("GET /api/v1/maps/latest", s.withDB(s.handleLatest))
	mux.HandleFunc("GET /api/v1/maps/{id}", s.withDB(s.handleMap))
	mux.HandleFunc("GET /api/v1/maps/{id}/preview", s.withDB(s.handlePreview))
	mux.HandleFunc("GET /api/v1/maps/{id}/groups", s.withDB(s.handleGroups))
	mux.HandleFunc("DELETE /api/v1/maps/{id}", s.adminOnly(s.withDB(s.handleDelete)))

	return corsMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "storage", s.DB != nil, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no BOARDGEN_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) withDB(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB == nil {
			writeError(w, http.StatusServiceUnavailable, "database not available")
			return
		}
		next(w, r)
	}
}

// Status is the status endpoint payload.
type Status struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Started   string `json:"started"`
	Templates int    `json:"templates"`
	Storage   bool   `json:"storage"`
	Maps      int    `json:"maps"`
	MapsLabel string `json:"maps_label"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Name:      "boardgen",
		Version:   Version,
		Started:   humanize.Time(s.started),
		Templates: len(templates.List()),
		Storage:   s.DB != nil,
	}
	if s.DB != nil {
		n, err := s.DB.Count(r.Context())
		if err != nil {
			slog.Warn("counting maps failed", "error", err)
		}
		st.Maps = n
	}
	st.MapsLabel = humanize.Comma(int64(st.Maps)) + " stored"
	writeJSON(w, st)
}

// TemplateInfo describes one catalog entry.
type TemplateInfo struct {
	Index   int              `json:"index"`
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Rings   int              `json:"rings"`
	Bridges int              `json:"bridges"`
	Quotas  templates.Quotas `json:"quotas"`
}

// Templates describes the catalog in index order.
func Templates() []TemplateInfo {
	list := templates.List()
	out := make([]TemplateInfo, len(list))
	for i, t := range list {
		out[i] = TemplateInfo{
			Index:   i,
			ID:      t.ID,
			Name:    t.Name,
			Rings:   len(t.Rings),
			Bridges: len(t.Bridges),
			Quotas:  t.Quotas,
		}
	}
	return out
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, Templates())
}

// GenerateResponse is returned by POST /api/v1/generate.
type GenerateResponse struct {
	ID     string         `json:"id,omitempty"`
	Result *mapgen.Result `json:"result"`
}

// decodeParams reads Params from the body over the defaults or a ?preset= base.
// An empty body yields the base unchanged.
func decodeParams(r *http.Request) (mapgen.Params, error) {
	p := mapgen.DefaultParams()
	if name := r.URL.Query().Get("preset"); name != "" {
		var err error
		if p, err = mapgen.Preset(name); err != nil {
			return p, err
		}
	}
	if r.Body == nil {
		return p, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return p, fmt.Errorf("invalid params: %w", err)
	}
	return p, nil
}

func wantSave(r *http.Request) bool {
	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))
	return save
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	p, err := decodeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	save := wantSave(r)
	if save && s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	res, err := mapgen.Generate(r.Context(), p)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	resp := GenerateResponse{Result: res}
	if save {
		if resp.ID, err = s.DB.Save(r.Context(), res); err != nil {
			slog.Error("saving generated map failed", "error", err)
			writeError(w, http.StatusInternalServerError, "saving map failed")
			return
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}
	list, err := s.DB.List(r.Context(), limit)
	if err != nil {
		slog.Error("listing maps failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing maps failed")
		return
	}
	if list == nil {
		list = []persistence.Summary{}
	}
	writeJSON(w, list)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	rec, err := s.DB.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.DB.Latest(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, err := s.DB.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	legend, _ := strconv.ParseBool(r.URL.Query().Get("legend"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := preview.Render(w, rec.Result, preview.Options{Legend: legend}); err != nil {
		slog.Warn("writing preview failed", "id", rec.ID, "error", err)
	}
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.DB.ParcelGroups(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, groups)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorStatus maps engine and storage errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, templates.ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
