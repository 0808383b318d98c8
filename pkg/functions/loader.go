package functions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
)

// reloadDebounce collapses the burst of events editors produce on save
const reloadDebounce = config.RegistryReloadWindow

// Loader owns the current registry and swaps it when the description
// document changes. Readers take a snapshot with Registry and keep it for a
// whole parse/render cycle.
type Loader struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[Registry]

	mu    sync.Mutex
	hooks []func(*Registry, error)
}

// NewLoader creates a loader for the document at path. Until Load succeeds the
// built-in table is served. An empty path means built-ins only.
func NewLoader(path string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{path: path, logger: logger}
	l.current.Store(Builtin())
	return l
}

// Path returns the watched document path
func (l *Loader) Path() string {
	return l.path
}

// Registry returns the current snapshot.
func (l *Loader) Registry() *Registry {
	return l.current.Load()
}

// OnReload registers fn to be called after every load attempt
func (l *Loader) OnReload(fn func(*Registry, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Load reads the document and installs the resulting registry. On a decode
// error the built-in table is installed and the *DecodeError returned.
func (l *Loader) Load() error {
	if l.path == "" {
		l.install(Builtin(), nil)
		return nil
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		err = fmt.Errorf("failed to read function descriptions: %w", err)
		l.logger.Warn("keeping current function table", zap.String("path", l.path), zap.Error(err))
		l.notify(l.Registry(), err)
		return err
	}

	registry, err := LoadRegistry(raw, l.logger)
	l.install(registry, err)
	if err == nil {
		l.logger.Info("function descriptions loaded",
			zap.String("path", l.path),
			zap.Int("functions", registry.Len()))
	}
	return err
}

func (l *Loader) install(r *Registry, err error) {
	l.current.Store(r)
	l.notify(r, err)
}

func (l *Loader) notify(r *Registry, err error) {
	l.mu.Lock()
	hooks := slices.Clone(l.hooks)
	l.mu.Unlock()

	for _, fn := range hooks {
		fn(r, err)
	}
}

// Watch reloads the document whenever it changes until ctx is done. The
// parent directory is watched so that editors replacing the file by rename
// are noticed too.
func (l *Loader) Watch(ctx context.Context) error {
	if l.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	l.logger.Info("watching function descriptions", zap.String("path", l.path))

	target := filepath.Clean(l.path)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)

		case <-pending:
			pending = nil
			if err := l.Load(); err != nil {
				l.logger.Warn("failed to reload function descriptions", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("watcher error", zap.Error(err))
		}
	}
}
