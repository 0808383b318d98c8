package monitor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorageMonitor_GetLimit(t *testing.T) {
	sm := NewStorageMonitor("/tmp", 1024*1024*1024)
	if got := sm.GetLimit(); got != 1024*1024*1024 {
		t.Errorf("GetLimit() = %d, want %d", got, 1024*1024*1024)
	}
}

func TestStorageMonitor_GetUsage(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "panels.json")
	if err := os.WriteFile(testFile, []byte("panel data"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	sm := NewStorageMonitor(tmpDir, 1024*1024*1024)
	usage, err := sm.GetUsage()
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if usage < 10 {
		t.Errorf("GetUsage() = %d, want at least 10", usage)
	}
}

func TestStorageMonitor_Caching(t *testing.T) {
	tmpDir := t.TempDir()
	sm := NewStorageMonitor(tmpDir, 1024*1024*1024)

	usage1, err := sm.GetUsage()
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "late.json"), make([]byte, 8192), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	usage2, err := sm.GetUsage()
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if usage1 != usage2 {
		t.Errorf("Cached values differ: %d != %d", usage1, usage2)
	}
}

func TestStorageMonitor_InvalidDir(t *testing.T) {
	sm := NewStorageMonitor("/nonexistent/path/12345", 1024*1024*1024)
	if _, err := sm.GetUsage(); err == nil {
		t.Error("GetUsage() should return error for nonexistent directory")
	}
}

func TestStorageMonitor_InMemory(t *testing.T) {
	sm := NewStorageMonitor("", 1)
	usage, err := sm.GetUsage()
	if err != nil || usage != 0 {
		t.Errorf("GetUsage() = %d, %v; want 0, nil", usage, err)
	}
	if err := sm.CheckLimit(); err != nil {
		t.Errorf("CheckLimit() = %v, want nil", err)
	}
}

func TestStorageMonitor_CheckLimit(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "big.json"), make([]byte, 4096), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := NewStorageMonitor(tmpDir, 1024).CheckLimit(); err == nil {
		t.Error("CheckLimit() should fail once usage passes the limit")
	}
	if err := NewStorageMonitor(tmpDir, 1024*1024*1024).CheckLimit(); err != nil {
		t.Errorf("CheckLimit() = %v, want nil", err)
	}
	if err := NewStorageMonitor(tmpDir, 0).CheckLimit(); err != nil {
		t.Errorf("CheckLimit() with no limit = %v, want nil", err)
	}
}
