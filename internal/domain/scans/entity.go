package scans

import (
	"errors"
	"math"
)

// Type of the scanned object.
type Type string

const (
	TypeLink   Type = "Link"
	TypeSystem Type = "System"
	TypeFile   Type = "File"
)

// Status enum. Suspicious is part of the stored format even though the
// console only produces Clean and Malicious today.
type Status string

const (
	StatusClean      Status = "Clean"
	StatusSuspicious Status = "Suspicious"
	StatusMalicious  Status = "Malicious"
)

// TimeLayout formats Result.Timestamp.
const TimeLayout = "15:04:05"

// Result is one completed scan. Immutable once created.
type Result struct {
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp"`
	Type      Type   `json:"type"`
	Status    Status `json:"status"`
	Analysis  string `json:"analysis"`
}

// Stats are derived from the log on every read, never stored.
type Stats struct {
	Total       int `json:"total"`
	Malicious   int `json:"malicious"`
	SafetyScore int `json:"safetyScore"`
}

// ComputeStats counts every non-Clean entry as malicious.
func ComputeStats(results []Result) Stats {
	st := Stats{Total: len(results)}
	for _, r := range results {
		if r.Status != StatusClean {
			st.Malicious++
		}
	}
	if st.Total == 0 {
		st.SafetyScore = 100
		return st
	}
	st.SafetyScore = int(math.Round(100 * float64(st.Total-st.Malicious) / float64(st.Total)))
	return st
}

var (
	// ErrEmptyTarget is returned when the submitted target is blank.
	ErrEmptyTarget = errors.New("scan target is empty")
	// ErrScanInProgress is returned while another analysis is pending.
	ErrScanInProgress = errors.New("a scan is already in progress")
	// ErrCritical wraps anything unexpected that escaped the scan workflow.
	ErrCritical = errors.New("critical scan error")
)
