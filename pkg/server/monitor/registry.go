package monitor

import (
	"sync"
	"time"
)

// maxConsecutiveFailures is how many reloads in a row may fail before the
// function table is reported unhealthy
const maxConsecutiveFailures = 3

// RegistryMonitor tracks function table loads. A failed reload keeps serving
// the previous table, so failures only degrade health once they pile up.
type RegistryMonitor struct {
	mu                sync.RWMutex
	lastSuccess       time.Time
	lastAttempt       time.Time
	functions         int
	reloads           int
	consecutiveErrors int
	lastError         string
}

// RecordSuccess records a load that installed a table of n functions.
func (rm *RegistryMonitor) RecordSuccess(n int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	now := time.Now()
	rm.lastSuccess = now
	rm.lastAttempt = now
	rm.functions = n
	rm.reloads++
	rm.consecutiveErrors = 0
	rm.lastError = ""
}

// RecordFailure records a load that failed.
func (rm *RegistryMonitor) RecordFailure(err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.lastAttempt = time.Now()
	rm.consecutiveErrors++
	if err != nil {
		rm.lastError = err.Error()
	}
}

// Observe records the outcome of a loader reload. It has the shape of a
// functions.Loader hook.
func (rm *RegistryMonitor) Observe(n int, err error) {
	if err != nil {
		rm.RecordFailure(err)
		return
	}
	rm.RecordSuccess(n)
}

// IsHealthy reports whether a table was ever installed and recent reloads
// have not kept failing.
func (rm *RegistryMonitor) IsHealthy() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.healthy()
}

func (rm *RegistryMonitor) healthy() bool {
	return !rm.lastSuccess.IsZero() && rm.consecutiveErrors <= maxConsecutiveFailures
}

// RegistryStatus is the function table section of the health response
type RegistryStatus struct {
	Healthy           bool   `json:"healthy"`
	Functions         int    `json:"functions"`
	Reloads           int    `json:"reloads"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns the current function table status for health checks.
func (rm *RegistryMonitor) Status() RegistryStatus {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	status := RegistryStatus{
		Healthy:   rm.healthy(),
		Functions: rm.functions,
		Reloads:   rm.reloads,
	}

	if !rm.lastSuccess.IsZero() {
		status.LastSuccess = rm.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = time.Since(rm.lastSuccess).String()
	}
	if !rm.lastAttempt.IsZero() {
		status.LastAttempt = rm.lastAttempt.Format(time.RFC3339)
	}
	if rm.consecutiveErrors > 0 {
		status.ConsecutiveErrors = rm.consecutiveErrors
		status.LastError = rm.lastError
	}

	return status
}
