package functions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoaderBuiltinByDefault(t *testing.T) {
	l := NewLoader("", nil)
	require.NoError(t, l.Load())
	assert.Equal(t, Builtin().Len(), l.Registry().Len())
}

func TestLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "functions.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	l := NewLoader(path, zaptest.NewLogger(t))

	var calls atomic.Int32
	l.OnReload(func(r *Registry, err error) {
		calls.Add(1)
	})

	require.NoError(t, l.Load())
	assert.Equal(t, 8, l.Registry().Len())
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoaderNotifiesEveryHook(t *testing.T) {
	l := NewLoader("", zaptest.NewLogger(t))

	var first, second, late atomic.Int32
	l.OnReload(func(r *Registry, err error) { first.Add(1) })
	l.OnReload(func(r *Registry, err error) {
		// hooks may register more hooks; they run from the next load on
		if second.Add(1) == 1 {
			l.OnReload(func(r *Registry, err error) { late.Add(1) })
		}
	})

	require.NoError(t, l.Load())
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())
	assert.Equal(t, int32(0), late.Load())

	require.NoError(t, l.Load())
	assert.Equal(t, int32(2), first.Load())
	assert.Equal(t, int32(1), late.Load())
}

func TestLoaderDecodeErrorFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "functions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	l := NewLoader(path, zaptest.NewLogger(t))

	var reported error
	l.OnReload(func(r *Registry, err error) {
		reported = err
	})

	err := l.Load()
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, err, reported)
	assert.Equal(t, Builtin().Len(), l.Registry().Len())
}

func TestLoaderMissingFileKeepsCurrent(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.json"), zaptest.NewLogger(t))
	before := l.Registry()

	require.Error(t, l.Load())
	assert.Same(t, before, l.Registry())
}

func TestLoaderWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "functions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	l := NewLoader(path, zaptest.NewLogger(t))
	require.NoError(t, l.Load())
	require.Equal(t, 0, l.Registry().Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	require.Eventually(t, func() bool {
		return l.Registry().Len() == 8
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
