package monitor

import (
	"errors"
	"testing"
)

func TestRegistryMonitor_RecordSuccess(t *testing.T) {
	rm := &RegistryMonitor{}
	rm.RecordSuccess(42)

	status := rm.Status()
	if !status.Healthy {
		t.Error("Status should be healthy after success")
	}
	if status.Functions != 42 {
		t.Errorf("Functions = %d, want 42", status.Functions)
	}
	if status.Reloads != 1 {
		t.Errorf("Reloads = %d, want 1", status.Reloads)
	}
	if status.LastError != "" {
		t.Errorf("LastError = %q, want empty", status.LastError)
	}
}

func TestRegistryMonitor_RecordFailure(t *testing.T) {
	rm := &RegistryMonitor{}
	rm.RecordFailure(errors.New("bad document"))

	status := rm.Status()
	if status.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", status.ConsecutiveErrors)
	}
	if status.LastError != "bad document" {
		t.Errorf("LastError = %q, want %q", status.LastError, "bad document")
	}
}

func TestRegistryMonitor_IsHealthy(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*RegistryMonitor)
		expected bool
	}{
		{
			name:     "never loaded",
			setup:    func(*RegistryMonitor) {},
			expected: false,
		},
		{
			name:     "loaded",
			setup:    func(rm *RegistryMonitor) { rm.RecordSuccess(10) },
			expected: true,
		},
		{
			name: "a few failed reloads",
			setup: func(rm *RegistryMonitor) {
				rm.RecordSuccess(10)
				rm.RecordFailure(errors.New("error 1"))
				rm.RecordFailure(errors.New("error 2"))
			},
			expected: true,
		},
		{
			name: "too many consecutive errors",
			setup: func(rm *RegistryMonitor) {
				rm.RecordSuccess(10)
				for i := 0; i < 4; i++ {
					rm.RecordFailure(errors.New("error"))
				}
			},
			expected: false,
		},
		{
			name: "recovered",
			setup: func(rm *RegistryMonitor) {
				for i := 0; i < 5; i++ {
					rm.RecordFailure(errors.New("error"))
				}
				rm.RecordSuccess(10)
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := &RegistryMonitor{}
			tt.setup(rm)
			if got := rm.IsHealthy(); got != tt.expected {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRegistryMonitor_Observe(t *testing.T) {
	rm := &RegistryMonitor{}
	rm.Observe(5, nil)
	rm.Observe(0, errors.New("unreadable"))

	status := rm.Status()
	if status.Functions != 5 {
		t.Errorf("Functions = %d, want 5", status.Functions)
	}
	if status.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", status.ConsecutiveErrors)
	}
	if status.LastSuccess == "" || status.TimeSinceSuccess == "" {
		t.Error("LastSuccess and TimeSinceSuccess should be set")
	}
}
