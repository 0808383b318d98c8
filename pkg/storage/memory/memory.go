package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/nicktill/tinygraphite/pkg/storage"
)

// Storage stores panels in memory. Data is lost on restart.
// Useful for testing and development.
type Storage struct {
	panels map[string]*storage.Panel
	mu     sync.RWMutex
}

// New creates an in-memory storage backend
func New() *Storage {
	return &Storage{
		panels: make(map[string]*storage.Panel),
	}
}

// Save stores a copy of the panel
func (s *Storage) Save(ctx context.Context, panel *storage.Panel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := panel.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	panel.UpdatedAt = time.Now().UTC()
	s.panels[panel.ID] = panel.Clone()
	return nil
}

// Get returns a copy of the panel
func (s *Storage) Get(ctx context.Context, id string) (*storage.Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.panels[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// List returns copies of all panels ordered by id
func (s *Storage) List(ctx context.Context) ([]*storage.Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*storage.Panel, 0, len(s.panels))
	for _, p := range s.panels {
		results = append(results, p.Clone())
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// Delete removes a panel
func (s *Storage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.panels[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.panels, id)
	return nil
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}

// Stats returns storage statistics
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.Stats{
		TotalPanels: uint64(len(s.panels)),
	}

	for _, p := range s.panels {
		stats.TotalTargets += uint64(len(p.Targets))
		if p.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = p.UpdatedAt
		}
		// size of the JSON encoding, which is what badger would hold
		if data, err := json.Marshal(p); err == nil {
			stats.SizeBytes += uint64(len(data))
		}
	}

	return stats, nil
}
