package metrics

import "testing"

func TestSnapshot(t *testing.T) {
	t.Parallel()

	m := New()
	m.ScansTotal.Add(3)
	m.AnalysisFallbacks.Add(1)
	m.ScansRunning.Add(1)
	m.ScansRunning.Add(-1)

	snap := m.Snapshot()
	if got := snap["scans_total"].(uint64); got != 3 {
		t.Errorf("scans_total = %d, want 3", got)
	}
	if got := snap["analysis_fallbacks"].(uint64); got != 1 {
		t.Errorf("analysis_fallbacks = %d, want 1", got)
	}
	if got := snap["scans_running"].(int64); got != 0 {
		t.Errorf("scans_running = %d, want 0", got)
	}
	if _, ok := snap["memory"].(map[string]any); !ok {
		t.Error("memory section missing")
	}
}
