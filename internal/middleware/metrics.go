package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64
	BatchesTotal       atomic.Uint64
	BatchesRunning     atomic.Int64
	BatchesRejected    atomic.Uint64
	FilesAnalyzed      atomic.Uint64
	FilesFailed        atomic.Uint64
	DependencyAudits   atomic.Uint64
	StartTime          time.Time
}

// NewMetrics returns zeroed counters starting now.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// BatchStarted marks a batch running and returns the func that ends it.
func (m *Metrics) BatchStarted() func() {
	m.BatchesTotal.Add(1)
	m.BatchesRunning.Add(1)
	return func() { m.BatchesRunning.Add(-1) }
}

// FileDone counts one analyzed file.
func (m *Metrics) FileDone(failed bool) {
	m.FilesAnalyzed.Add(1)
	if failed {
		m.FilesFailed.Add(1)
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_in_progress": m.RequestsInProgress.Load(),
		"requests_success":     m.RequestsSuccess.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"batches_total":        m.BatchesTotal.Load(),
		"batches_running":      m.BatchesRunning.Load(),
		"batches_rejected":     m.BatchesRejected.Load(),
		"files_analyzed":       m.FilesAnalyzed.Load(),
		"files_failed":         m.FilesFailed.Load(),
		"dependency_audits":    m.DependencyAudits.Load(),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsTotal.Add(1)
		m.RequestsInProgress.Add(1)
		defer m.RequestsInProgress.Add(-1)

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			m.RequestsSuccess.Add(1)
		} else {
			m.RequestsFailed.Add(1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
