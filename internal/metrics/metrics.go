package metrics

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application counters. The zero value is not usable; call New.
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64

	ScansTotal        atomic.Uint64
	ScansRunning      atomic.Int64
	ScansRejected     atomic.Uint64
	AnalysisFallbacks atomic.Uint64
	AlertsSent        atomic.Uint64
	AlertFailures     atomic.Uint64
	PersistFailures   atomic.Uint64

	startTime time.Time
}

func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Snapshot returns current metrics as a JSON-friendly map.
func (m *Metrics) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_in_progress": m.RequestsInProgress.Load(),
		"requests_success":     m.RequestsSuccess.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"scans_total":          m.ScansTotal.Load(),
		"scans_running":        m.ScansRunning.Load(),
		"scans_rejected":       m.ScansRejected.Load(),
		"analysis_fallbacks":   m.AnalysisFallbacks.Load(),
		"alerts_sent":          m.AlertsSent.Load(),
		"alert_failures":       m.AlertFailures.Load(),
		"persist_failures":     m.PersistFailures.Load(),
		"uptime_seconds":       time.Since(m.startTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}
