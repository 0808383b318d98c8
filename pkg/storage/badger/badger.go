package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/storage"
)

// panelPrefix namespaces panel keys so other record kinds can share the db
var panelPrefix = []byte("panel/")

// Storage implements storage.Store using BadgerDB (LSM tree)
type Storage struct {
	db     *badger.DB
	logger *zap.Logger
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = use defaults)
	MaxMemoryMB int64

	Logger *zap.Logger
}

// New creates a BadgerDB storage backend
func New(cfg Config) (*Storage, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Panels are small JSON documents, so the default 64 MB memtables are
	// far more than needed. 16 MB is the floor before flushes get excessive.
	memTableSize := int64(16 * 1024 * 1024)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	}
	blockCacheSize := memTableSize / 2
	indexCacheSize := memTableSize / 4

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(blockCacheSize).
		WithIndexCacheSize(indexCacheSize).
		WithMaxLevels(4).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Storage{db: db, logger: logger}, nil
}

// Save stores the panel under the hash of its id
// Enforces context timeout/cancellation to prevent indefinite blocking
func (s *Storage) Save(ctx context.Context, panel *storage.Panel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := panel.Validate(); err != nil {
		return err
	}

	panel.UpdatedAt = time.Now().UTC()
	value, err := json.Marshal(panel)
	if err != nil {
		return fmt.Errorf("failed to encode panel: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Update(func(txn *badger.Txn) error {
			key := makeKey(panel.ID)

			existing, err := getPanel(txn, key)
			switch {
			case errors.Is(err, storage.ErrNotFound):
			case err != nil:
				return err
			case existing.ID != panel.ID:
				return fmt.Errorf("panel id %q collides with %q", panel.ID, existing.ID)
			}

			if err := txn.Set(key, value); err != nil {
				return fmt.Errorf("failed to write panel: %w", err)
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("save operation cancelled: %w", ctx.Err())
	}
}

// Get loads one panel
func (s *Storage) Get(ctx context.Context, id string) (*storage.Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type getResult struct {
		panel *storage.Panel
		err   error
	}
	done := make(chan getResult, 1)

	go func() {
		var res getResult
		res.err = s.db.View(func(txn *badger.Txn) error {
			p, err := getPanel(txn, makeKey(id))
			if err != nil {
				return err
			}
			if p.ID != id {
				return storage.ErrNotFound
			}
			res.panel = p
			return nil
		})
		done <- res
	}()

	select {
	case res := <-done:
		return res.panel, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("get operation cancelled: %w", ctx.Err())
	}
}

// List scans every panel key and returns the panels ordered by id
func (s *Storage) List(ctx context.Context) ([]*storage.Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type listResult struct {
		panels []*storage.Panel
		err    error
	}
	done := make(chan listResult, 1)

	go func() {
		var res listResult
		res.err = s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = panelPrefix
			opts.PrefetchSize = 100

			it := txn.NewIterator(opts)
			defer it.Close()

			var iterCount int
			for it.Rewind(); it.Valid(); it.Next() {
				iterCount++
				if iterCount%1000 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				var p storage.Panel
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &p)
				}); err != nil {
					s.logger.Warn("skipping undecodable panel",
						zap.Binary("key", it.Item().KeyCopy(nil)), zap.Error(err))
					continue
				}
				res.panels = append(res.panels, &p)
			}
			return nil
		})
		sort.Slice(res.panels, func(i, j int) bool { return res.panels[i].ID < res.panels[j].ID })
		done <- res
	}()

	select {
	case res := <-done:
		return res.panels, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("list operation cancelled: %w", ctx.Err())
	}
}

// Delete removes a panel
func (s *Storage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Update(func(txn *badger.Txn) error {
			key := makeKey(id)
			p, err := getPanel(txn, key)
			if err != nil {
				return err
			}
			if p.ID != id {
				return storage.ErrNotFound
			}
			return txn.Delete(key)
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("delete operation cancelled: %w", ctx.Err())
	}
}

// Close shuts down BadgerDB cleanly
func (s *Storage) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB's value log garbage collection
// discardRatio: run GC if this fraction of file can be discarded (0.5 = 50%)
// Returns badger.ErrNoRewrite when there was nothing to collect
func (s *Storage) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// Stats returns storage statistics
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	panels, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &storage.Stats{TotalPanels: uint64(len(panels))}
	for _, p := range panels {
		stats.TotalTargets += uint64(len(p.Targets))
		if p.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = p.UpdatedAt
		}
	}

	lsmSize, vlogSize := s.db.Size()
	stats.SizeBytes = uint64(lsmSize + vlogSize)
	return stats, nil
}

// makeKey creates a fixed size key: prefix + xxhash of the panel id
// Format: [panel/][id_hash (8 bytes)]
func makeKey(id string) []byte {
	key := make([]byte, len(panelPrefix)+8)
	copy(key, panelPrefix)
	binary.BigEndian.PutUint64(key[len(panelPrefix):], xxhash.Sum64String(id))
	return key
}

func getPanel(txn *badger.Txn, key []byte) (*storage.Panel, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read panel: %w", err)
	}

	var p storage.Panel
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode panel: %w", err)
	}
	return &p, nil
}
