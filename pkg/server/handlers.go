package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/httpx"
	"github.com/nicktill/tinygraphite/pkg/server/monitor"
	"github.com/nicktill/tinygraphite/pkg/storage"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

var startTime = time.Now()

// StorageUsage represents current storage usage stats.
type StorageUsage struct {
	UsedBytes int64          `json:"used_bytes"`
	MaxBytes  int64          `json:"max_bytes"`
	Panels    *storage.Stats `json:"panels,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Sessions  int                    `json:"sessions"`
	Functions monitor.RegistryStatus `json:"functions"`
}

// FunctionsResponse lists the function table
type FunctionsResponse struct {
	Version   string                         `json:"version,omitempty"`
	Count     int                            `json:"count"`
	Functions map[string]*functions.FuncDef `json:"functions"`
}

// UnknownFunctionResponse is returned for names the table does not hold
type UnknownFunctionResponse struct {
	httpx.ErrorResponse
	Suggestions []string `json:"suggestions,omitempty"`
}

// ReloadResponse reports a function table reload
type ReloadResponse struct {
	Functions int    `json:"functions"`
	Path      string `json:"path,omitempty"`
}

// suggestionLimit is how many near names accompany a 404 for a function
const suggestionLimit = 3

// handleHealth returns service health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.registryMonitor.Status()

	overall := "healthy"
	code := http.StatusOK
	if !status.Healthy {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	httpx.RespondJSON(w, code, HealthResponse{
		Status:    overall,
		Version:   Version,
		Uptime:    time.Since(startTime).String(),
		Sessions:  s.hub.Count(),
		Functions: status,
	})
}

// handleStorageUsage returns current storage usage.
func (s *Server) handleStorageUsage(w http.ResponseWriter, r *http.Request) {
	used, err := s.storageMonitor.GetUsage()
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.StoreTimeout)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to read panel stats: %w", err))
		return
	}

	httpx.RespondJSON(w, http.StatusOK, StorageUsage{
		UsedBytes: used,
		MaxBytes:  s.storageMonitor.GetLimit(),
		Panels:    stats,
	})
}

// handleFunctions handles GET /v1/functions. The version query parameter
// hides functions added after that Graphite version; it defaults to the
// configured graphite_version.
func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	floor := r.URL.Query().Get("version")
	if floor == "" {
		floor = s.cfg.GraphiteVersion
	}

	defs := s.loader.Registry().All(floor)
	httpx.RespondJSON(w, http.StatusOK, FunctionsResponse{
		Version:   floor,
		Count:     len(defs),
		Functions: defs,
	})
}

// handleFunction handles GET /v1/functions/{name}
func (s *Server) handleFunction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	registry := s.loader.Registry()

	def, ok := registry.Lookup(name)
	if !ok {
		httpx.RespondJSON(w, http.StatusNotFound, UnknownFunctionResponse{
			ErrorResponse: httpx.ErrorResponse{
				Error:   http.StatusText(http.StatusNotFound),
				Message: fmt.Sprintf("unknown function %q", name),
			},
			Suggestions: registry.Suggest(name, suggestionLimit),
		})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, def)
}

// handleReload handles POST /v1/functions/reload. A document that fails to
// decode leaves the built-in table installed and is reported as 422.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := s.loader.Load()

	var decodeErr *functions.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		httpx.RespondError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, ReloadResponse{
		Functions: s.loader.Registry().Len(),
		Path:      s.loader.Path(),
	})
}

// SetupRoutes configures all HTTP routes for the server and wraps them in
// the CORS policy.
func SetupRoutes(s *Server) http.Handler {
	router := mux.NewRouter()
	router.Use(s.metrics.requests.Middleware(s.logger))
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api := router.PathPrefix("/v1").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Query language
	api.HandleFunc("/query/tokenize", s.queryHandler.HandleTokenize).Methods("POST")
	api.HandleFunc("/query/parse", s.queryHandler.HandleParse).Methods("POST")
	api.HandleFunc("/query/render", s.queryHandler.HandleRender).Methods("POST")

	// Function table
	api.HandleFunc("/functions", s.handleFunctions).Methods("GET")
	api.HandleFunc("/functions/reload", s.handleReload).Methods("POST")
	api.HandleFunc("/functions/{name}", s.handleFunction).Methods("GET")

	// Saved panels
	api.HandleFunc("/panels", s.handleListPanels).Methods("GET")
	api.HandleFunc("/panels/{id}", s.handleGetPanel).Methods("GET")
	api.HandleFunc("/panels/{id}", s.handlePutPanel).Methods("PUT")
	api.HandleFunc("/panels/{id}", s.handleDeletePanel).Methods("DELETE")
	api.HandleFunc("/panels/{id}/targets/{refId}", s.handleGetTarget).Methods("GET")

	// Export/import
	api.HandleFunc("/export", s.exportHandler.HandleExport).Methods("GET")
	api.HandleFunc("/import", s.exportHandler.HandleImport).Methods("POST")

	// Service status
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/storage", s.handleStorageUsage).Methods("GET")

	// Live editing sessions
	api.HandleFunc("/ws", s.hub.HandleWebSocket).Methods("GET")

	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	return corsHandler(s.cfg, s.logger).Handler(router)
}

// methodNotAllowed answers a known path requested with the wrong method
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpx.RespondErrorString(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// corsHandler allows the server's own localhost origins, the usual dev
// server port and anything listed in allowed_origins.
func corsHandler(cfg config.Config, logger *zap.Logger) *cors.Cors {
	origins := []string{
		"http://localhost:" + cfg.Port,
		"http://127.0.0.1:" + cfg.Port,
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	origins = append(origins, cfg.AllowedOrigins...)

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		Logger:           corsLogger{logger},
	})
}

// corsLogger routes rs/cors debug output to zap
type corsLogger struct {
	logger *zap.Logger
}

func (l corsLogger) Printf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
