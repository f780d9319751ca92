// Package status maps raw tracker status strings onto the canonical
// Open/Final split and onto coarse flow stages.
package status

import (
	"strings"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/textnorm"
)

// Canonical is the Open/Final classification of a raw status.
type Canonical string

const (
	Open  Canonical = "open"
	Final Canonical = "final"
)

// DefaultFinalStatuses are the statuses treated as terminal when none are configured.
var DefaultFinalStatuses = []string{
	"accepted",
	"ready to deploy",
	"deployed",
	"closed",
	"resolved",
	"done",
	"cancelled",
	"canceled",
}

// Classifier classifies raw statuses against a fixed set of final statuses.
// The zero value uses DefaultFinalStatuses.
type Classifier struct {
	finals []string
}

// NewClassifier builds a Classifier; an empty list falls back to DefaultFinalStatuses.
func NewClassifier(finals []string) Classifier {
	keys := make([]string, 0, len(finals))
	seen := make(map[string]bool, len(finals))
	for _, f := range finals {
		k := textnorm.Key(f)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return Classifier{finals: keys}
}

// Classify returns Final when a known final status occurs in raw as a
// whole-word sequence. Blank and unknown statuses are Open.
func (c Classifier) Classify(raw string) Canonical {
	key := textnorm.Key(raw)
	if key == "" {
		return Open
	}
	finals := c.finals
	if len(finals) == 0 {
		finals = DefaultFinalStatuses
	}
	for _, f := range finals {
		if textnorm.ContainsPhrase(key, f) {
			return Final
		}
	}
	return Open
}

// IsFinal is shorthand for Classify(raw) == Final.
func (c Classifier) IsFinal(raw string) bool {
	return c.Classify(raw) == Final
}

// Classify classifies raw against finals without building a Classifier first.
func Classify(raw string, finals []string) Canonical {
	return NewClassifier(finals).Classify(raw)
}

// Stage is a coarse position in the delivery flow.
type Stage string

const (
	StageTriage  Stage = "triage"
	StageActive  Stage = "active"
	StageBlocked Stage = "blocked"
	StageDone    Stage = "done"
	StageOther   Stage = "other"
)

var (
	// TriageStatuses are the entry statuses waiting for a first diagnosis.
	TriageStatuses = []string{"New", "Analysing", "Analyzing"}

	// ActiveStatuses are the statuses where work is in flight.
	ActiveStatuses = []string{"En progreso", "In Progress", "Analysing", "Analyzing", "Ready To Verify", "To Rework", "Test"}

	// BlockedStatuses are the canonical blocked labels offered as filters.
	BlockedStatuses = []string{"Blocked", "Bloqueado"}

	triageKeys = keySet(append(append([]string(nil), TriageStatuses...), "open", "to do", "backlog", "nuevo"))
	activeKeys = keySet(append(append([]string(nil), ActiveStatuses...), "in review", "testing", "en curso"))
)

func keySet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[textnorm.Key(v)] = true
	}
	return out
}

// IsBlocked reports whether raw names a blocked state in English or Spanish.
func IsBlocked(raw string) bool {
	key := textnorm.Key(raw)
	return strings.Contains(key, "blocked") || strings.Contains(key, "bloque")
}

// IsTriage reports whether raw is an entry status.
func IsTriage(raw string) bool {
	return triageKeys[textnorm.Key(raw)]
}

// IsActive reports whether raw is an in-flight status.
func IsActive(raw string) bool {
	return activeKeys[textnorm.Key(raw)]
}

// Stage places raw in the flow. Blocked wins over everything, then final.
func (c Classifier) Stage(raw string) Stage {
	switch {
	case IsBlocked(raw):
		return StageBlocked
	case c.IsFinal(raw):
		return StageDone
	case IsTriage(raw):
		return StageTriage
	case IsActive(raw):
		return StageActive
	default:
		return StageOther
	}
}
