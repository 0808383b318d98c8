package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nicktill/tinygraphite/pkg/model"
)

// ErrNotFound is returned for panel ids the store does not hold
var ErrNotFound = errors.New("panel not found")

// Store defines the interface for panel storage backends.
// Implementations: memory (testing), badger (production)
type Store interface {
	// Save creates or replaces a panel and stamps UpdatedAt
	Save(ctx context.Context, panel *Panel) error

	// Get loads one panel
	Get(ctx context.Context, id string) (*Panel, error)

	// List returns every panel ordered by id
	List(ctx context.Context) ([]*Panel, error)

	// Delete removes a panel
	Delete(ctx context.Context, id string) error

	// Stats returns storage statistics
	Stats(ctx context.Context) (*Stats, error)

	// Close cleanly shuts down the storage
	Close() error
}

// Panel is a saved set of targets that reference each other by ref id
type Panel struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	GraphiteVersion string         `json:"graphiteVersion,omitempty"`
	Targets         []model.Target `json:"targets"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Stats provides storage health and usage info
type Stats struct {
	TotalPanels  uint64    `json:"total_panels"`
	TotalTargets uint64    `json:"total_targets"`
	SizeBytes    uint64    `json:"size_bytes"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Validate checks the panel id and that every target has a unique ref id.
func (p *Panel) Validate() error {
	if p.ID == "" {
		return errors.New("panel id is required")
	}
	if strings.ContainsAny(p.ID, "/ ") {
		return fmt.Errorf("invalid panel id %q", p.ID)
	}

	seen := make(map[string]bool, len(p.Targets))
	for i, t := range p.Targets {
		if t.RefID == "" {
			return fmt.Errorf("target %d has no ref id", i)
		}
		if seen[t.RefID] {
			return fmt.Errorf("duplicate ref id %q", t.RefID)
		}
		seen[t.RefID] = true
	}
	return nil
}

// Target returns the target with the given ref id.
func (p *Panel) Target(refID string) (model.Target, bool) {
	for _, t := range p.Targets {
		if t.RefID == refID {
			return t, true
		}
	}
	return model.Target{}, false
}

// Clone returns a copy that shares no slices with p
func (p *Panel) Clone() *Panel {
	c := *p
	c.Targets = append([]model.Target(nil), p.Targets...)
	return &c
}
