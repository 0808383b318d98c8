package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// usageCacheDuration bounds how often the data directory is walked
const usageCacheDuration = 10 * time.Second

// StorageMonitor tracks disk usage of the data directory with caching to
// avoid walking it on every request. An empty directory means in-memory
// storage, which always reports zero usage.
type StorageMonitor struct {
	dataDir       string
	maxBytes      int64
	cachedUsage   int64
	lastCheck     time.Time
	cacheDuration time.Duration
	mu            sync.Mutex
}

// NewStorageMonitor creates a new storage monitor.
func NewStorageMonitor(dataDir string, maxBytes int64) *StorageMonitor {
	return &StorageMonitor{
		dataDir:       dataDir,
		maxBytes:      maxBytes,
		cacheDuration: usageCacheDuration,
	}
}

// GetUsage returns current storage usage in bytes (cached).
func (sm *StorageMonitor) GetUsage() (int64, error) {
	if sm.dataDir == "" {
		return 0, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.lastCheck.IsZero() && time.Since(sm.lastCheck) < sm.cacheDuration {
		return sm.cachedUsage, nil
	}

	usage, err := calculateDirSize(sm.dataDir)
	if err != nil {
		return 0, err
	}

	sm.cachedUsage = usage
	sm.lastCheck = time.Now()
	return usage, nil
}

// GetLimit returns the configured storage limit in bytes.
func (sm *StorageMonitor) GetLimit() int64 {
	return sm.maxBytes
}

// CheckLimit returns an error when usage has reached the limit. A zero
// limit disables the check.
func (sm *StorageMonitor) CheckLimit() error {
	if sm.maxBytes <= 0 {
		return nil
	}
	usage, err := sm.GetUsage()
	if err != nil {
		return err
	}
	if usage >= sm.maxBytes {
		return fmt.Errorf("storage limit reached: %d of %d bytes used", usage, sm.maxBytes)
	}
	return nil
}

// calculateDirSize sums the disk usage of every file under path.
func calculateDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		used, err := diskUsage(filePath, info)
		if err != nil {
			used = info.Size()
		}
		size += used
		return nil
	})
	return size, err
}
