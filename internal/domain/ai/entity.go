package ai

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// ThreatLevel is the ordinal severity returned by the analysis model.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "Low"
	ThreatMedium   ThreatLevel = "Medium"
	ThreatHigh     ThreatLevel = "High"
	ThreatCritical ThreatLevel = "Critical"
)

// ThreatLevels lists every level in ascending order.
var ThreatLevels = []ThreatLevel{ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical}

// ParseThreatLevel accepts any casing of the four level names.
func ParseThreatLevel(s string) (ThreatLevel, error) {
	for _, l := range ThreatLevels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown threat level %q", s)
}

// Rank orders levels: Low=1 .. Critical=4, 0 for anything else.
func (l ThreatLevel) Rank() int {
	for i, v := range ThreatLevels {
		if v == l {
			return i + 1
		}
	}
	return 0
}

func (l *ThreatLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseThreatLevel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Category tells the model what kind of input it is looking at.
type Category string

const (
	CategoryLink        Category = "link"
	CategoryDescription Category = "description"
	CategoryAPK         Category = "apk"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryLink, CategoryDescription, CategoryAPK:
		return true
	}
	return false
}

// SecurityStatus is the verdict of one analysis call.
type SecurityStatus struct {
	IsSafe      bool        `json:"isSafe"`
	ThreatLevel ThreatLevel `json:"threatLevel"`
	Message     string      `json:"message"`
	Details     []string    `json:"details"`
}

// Clone returns a copy that shares no memory with s.
func (s SecurityStatus) Clone() SecurityStatus {
	s.Details = slices.Clone(s.Details)
	return s
}

// Fixed conservative verdict used whenever the model cannot be reached or
// its answer cannot be decoded.
const FallbackMessage = "Server error! This link or data may be dangerous."

var fallbackDetails = [...]string{
	"Check your internet connection",
	"Do not click unknown links",
	"Avoid downloading suspicious files",
}

// FallbackStatus returns a fresh copy of the fallback verdict.
func FallbackStatus() SecurityStatus {
	return SecurityStatus{
		IsSafe:      false,
		ThreatLevel: ThreatHigh,
		Message:     FallbackMessage,
		Details:     append([]string(nil), fallbackDetails[:]...),
	}
}

// Outcome tags a verdict with where it came from. Callers that only need a
// usable verdict read Status; Fallback and Err are there for logs and metrics.
type Outcome struct {
	Status   SecurityStatus
	Fallback bool
	Err      error
}

func Ok(s SecurityStatus) Outcome {
	if s.Details == nil {
		s.Details = []string{}
	}
	return Outcome{Status: s}
}

func Fallback(err error) Outcome {
	return Outcome{Status: FallbackStatus(), Fallback: true, Err: err}
}
