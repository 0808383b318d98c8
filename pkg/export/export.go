package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nicktill/tinygraphite/pkg/model"
	"github.com/nicktill/tinygraphite/pkg/storage"
)

// FormatVersion is written to the metadata of JSON exports
const FormatVersion = "1.0"

// Exporter handles exporting panels to various formats
type Exporter struct {
	storage storage.Store
}

// NewExporter creates a new exporter
func NewExporter(store storage.Store) *Exporter {
	return &Exporter{storage: store}
}

// ExportOptions configures the export operation
type ExportOptions struct {
	// Filter by panel ids (nil = all panels)
	PanelIDs []string

	// Format: "json" or "csv"
	Format string
}

// ExportResult contains stats about the export
type ExportResult struct {
	PanelsExported  int       `json:"panels_exported"`
	TargetsExported int       `json:"targets_exported"`
	Format          string    `json:"format"`
	ExportedAt      time.Time `json:"exported_at"`
}

// Metadata describes a JSON backup
type Metadata struct {
	ExportedAt  time.Time `json:"exported_at"`
	PanelCount  int       `json:"panel_count"`
	TargetCount int       `json:"target_count"`
	Format      string    `json:"format"`
	Version     string    `json:"version"`
}

// Backup is the JSON export document, also accepted by import
type Backup struct {
	Metadata Metadata         `json:"metadata"`
	Panels   []*storage.Panel `json:"panels"`
}

// collect loads the selected panels and resolves their targets
func (e *Exporter) collect(ctx context.Context, opts ExportOptions) ([]*storage.Panel, int, error) {
	panels, err := e.storage.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list panels: %w", err)
	}

	selected := panels[:0]
	targets := 0
	for _, p := range panels {
		if len(opts.PanelIDs) > 0 && !slices.Contains(opts.PanelIDs, p.ID) {
			continue
		}
		ResolvePanel(p)
		targets += len(p.Targets)
		selected = append(selected, p)
	}
	return selected, targets, nil
}

// ResolvePanel fills TargetFull of every target from its sibling targets.
// Text is left as stored.
func ResolvePanel(p *storage.Panel) {
	for i := range p.Targets {
		t := &p.Targets[i]
		t.TargetFull = ""
		if full := model.ResolveReferences(t.Target, t.RefID, p.Targets); full != t.Target {
			t.TargetFull = full
		}
	}
}

// ExportToJSON exports panels as JSON to the given writer
func (e *Exporter) ExportToJSON(ctx context.Context, w io.Writer, opts ExportOptions) (*ExportResult, error) {
	panels, targets, err := e.collect(ctx, opts)
	if err != nil {
		return nil, err
	}

	backup := Backup{
		Metadata: Metadata{
			ExportedAt:  time.Now().UTC(),
			PanelCount:  len(panels),
			TargetCount: targets,
			Format:      "json",
			Version:     FormatVersion,
		},
		Panels: panels,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	return &ExportResult{
		PanelsExported:  len(panels),
		TargetsExported: targets,
		Format:          "json",
		ExportedAt:      backup.Metadata.ExportedAt,
	}, nil
}

// CSVHeader is the first row of CSV exports
var CSVHeader = []string{"panel_id", "ref_id", "target", "target_full", "text_editor"}

// ExportToCSV exports one row per target as CSV to the given writer
func (e *Exporter) ExportToCSV(ctx context.Context, w io.Writer, opts ExportOptions) (*ExportResult, error) {
	panels, targets, err := e.collect(ctx, opts)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, p := range panels {
		for _, t := range p.Targets {
			row := []string{p.ID, t.RefID, t.Target, t.TargetFull, strconv.FormatBool(t.TextEditor)}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return &ExportResult{
		PanelsExported:  len(panels),
		TargetsExported: targets,
		Format:          "csv",
		ExportedAt:      time.Now().UTC(),
	}, nil
}
