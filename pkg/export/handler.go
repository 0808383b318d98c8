package export

import (
	"fmt"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/httpx"
	"github.com/nicktill/tinygraphite/pkg/storage"
)

// Handler handles export/import HTTP endpoints
type Handler struct {
	exporter *Exporter
	importer *Importer
	logger   *zap.Logger
}

// NewHandler creates a new export/import handler
func NewHandler(store storage.Store, registry func() *functions.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		exporter: NewExporter(store),
		importer: NewImporter(store, registry),
		logger:   logger,
	}
}

// HandleExport handles GET /v1/export
// Query params:
//   - format: "json" or "csv" (default: json)
//   - panel: panel id filter, repeatable (optional)
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	format := query.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "Invalid format. Must be 'json' or 'csv'")
		return
	}

	opts := ExportOptions{PanelIDs: query["panel"], Format: format}

	timestamp := time.Now().Format("20060102-150405")
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/csv")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tinygraphite-export-%s.%s", timestamp, format))

	var result *ExportResult
	var err error
	if format == "json" {
		result, err = h.exporter.ExportToJSON(r.Context(), w, opts)
	} else {
		result, err = h.exporter.ExportToCSV(r.Context(), w, opts)
	}
	if err != nil {
		h.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		w.Header().Del("Content-Disposition")
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("export failed: %w", err))
		return
	}

	h.logger.Info("exported panels",
		zap.String("format", format),
		zap.Int("panels", result.PanelsExported),
		zap.Int("targets", result.TargetsExported))
}

// HandleImport handles POST /v1/import
// Accepts JSON backup files and imports panels into storage
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		httpx.RespondErrorString(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	body := http.MaxBytesReader(w, r.Body, config.MaxImportBytes)
	result, err := h.importer.ImportFromJSON(r.Context(), body)
	if err != nil {
		h.logger.Warn("import failed", zap.Error(err))
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("import failed: %w", err))
		return
	}

	if len(result.Errors) > 0 {
		h.logger.Warn("import completed with validation errors",
			zap.Int("errors", len(result.Errors)),
			zap.Strings("first", result.Errors[:min(len(result.Errors), 10)]))
	}
	h.logger.Info("imported panels",
		zap.Int("panels", result.PanelsImported),
		zap.Int("targets", result.TargetsImported))

	httpx.RespondJSON(w, http.StatusOK, result)
}
