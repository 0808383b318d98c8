package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/model"
	"github.com/nicktill/tinygraphite/pkg/storage"
)

// Importer handles importing panels from backup files
type Importer struct {
	storage  storage.Store
	registry func() *functions.Registry
}

// NewImporter creates a new importer. Targets are checked against the
// registry returned by registry at import time.
func NewImporter(store storage.Store, registry func() *functions.Registry) *Importer {
	if registry == nil {
		registry = functions.Builtin
	}
	return &Importer{storage: store, registry: registry}
}

// ImportResult contains stats about the import operation
type ImportResult struct {
	PanelsImported  int       `json:"panels_imported"`
	TargetsImported int       `json:"targets_imported"`
	ImportedAt      time.Time `json:"imported_at"`
	Errors          []string  `json:"errors,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
}

// ImportFromJSON imports panels from a JSON backup
func (im *Importer) ImportFromJSON(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	result := &ImportResult{ImportedAt: time.Now().UTC()}
	registry := im.registry()

	for i, p := range backup.Panels {
		if p == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("panel %d: empty entry", i))
			continue
		}
		if err := p.Validate(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("panel %d: %v", i, err))
			continue
		}

		im.checkTargets(p, registry, result)

		if err := im.storage.Save(ctx, p); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("failed to save panel %s: %w", p.ID, err)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("panel %s: %v", p.ID, err))
			continue
		}
		result.PanelsImported++
		result.TargetsImported += len(p.Targets)
	}

	return result, nil
}

// checkTargets switches unparseable targets to the text editor and records
// targets the builder would rewrite.
func (im *Importer) checkTargets(p *storage.Panel, registry *functions.Registry, result *ImportResult) {
	for j := range p.Targets {
		t := &p.Targets[j]
		if t.TextEditor {
			continue
		}

		m := model.New(*t, registry)
		if m.Err != nil {
			t.TextEditor = true
			result.Errors = append(result.Errors,
				fmt.Sprintf("panel %s target %s: %v", p.ID, t.RefID, m.Err))
			continue
		}
		if err := m.Reconcile(); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("panel %s target %s: %v", p.ID, t.RefID, err))
		}
	}
}
